// SPDX-License-Identifier: MIT
/*
Package pipeline drives a shot detector from an audio source and fans its
events out to listeners.

A Pipeline owns one detector at a time. Start picks the variant: an
Amplitude detector when the audio source opens, otherwise a Synthetic one
with the degraded flag set. A single worker goroutine then plays the start
buzzer, pulls buffers, runs the detector and dispatches events.

Thread Safety:
- Start, End and Close may be called from any goroutine
- End blocks until the worker has exited; no events arrive after it returns
- At most one worker runs at a time
*/
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"shottimer/internal/audio"
	"shottimer/internal/config"
	"shottimer/internal/detector"
	"shottimer/internal/log"
)

var (
	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("pipeline: closed")
	// ErrReadFailure wraps an audio source error that ended a session.
	ErrReadFailure = errors.New("pipeline: audio read failed")
	// ErrWorkerPanic wraps a panic recovered from the worker.
	ErrWorkerPanic = errors.New("pipeline: worker panicked")
	// ErrRandomStartUnavailable is returned when random start is enabled with
	// a buzzer delay of RandomStartMinDelay seconds or less.
	ErrRandomStartUnavailable = errors.New("pipeline: random start needs a buzzer delay above 2 seconds")
)

// Buzzer plays the start signal. volume is in [0, 1].
type Buzzer interface {
	Buzz(ctx context.Context, volume float64) error
}

// Config wires a Pipeline to its collaborators.
type Config struct {
	// Source supplies live audio. Nil always runs the synthetic detector.
	Source audio.Source
	// Buzzer plays the start signal. Nil skips it.
	Buzzer Buzzer
	// Settings persists user settings. Nil keeps them in memory.
	Settings config.SettingsStore
	// Faults receives worker failures. Nil logs them.
	Faults FaultHandler

	Threshold       int32         // Amplitude cutoff; 0 selects the detector default.
	StartupBlackout time.Duration // Audio ignored after each start.
	ForceSynthetic  bool          // Never open Source.

	// Fallback is the format used for the synthetic path. The zero value
	// selects 8000 Hz and 4096-byte buffers.
	Fallback audio.Format
	// SyntheticOptions are applied to every synthetic detector.
	SyntheticOptions []detector.SyntheticOption
	// Now and Rand default to time.Now and a time-seeded generator.
	Now  func() time.Time
	Rand *rand.Rand
}

// Pipeline coordinates one shot timer session at a time.
type Pipeline struct {
	cfg      Config
	settings config.SettingsStore
	log      log.Logger

	listenersMu    sync.RWMutex
	listeners      []registration
	nextListenerID ListenerID

	settingsMu sync.Mutex
	current    config.Settings
	randMu     sync.Mutex

	mu     sync.Mutex
	worker *worker
	closed bool

	// Read by listeners on the worker goroutine, so not guarded by mu.
	session   atomic.Pointer[session]
	sessionID atomic.Pointer[string]
}

// session is what the accessors report about the most recent start.
type session struct {
	worker    *worker
	detector  detector.Detector
	startedAt time.Time
}

// worker is one generation of the pull-detect-dispatch loop.
type worker struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (w *worker) exited() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// New creates an idle pipeline and loads the stored settings.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Fallback == (audio.Format{}) {
		cfg.Fallback = audio.Format{SampleRate: audio.FallbackSampleRate, BufferSize: audio.FallbackBufferSize}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0xb022))
	}

	store := cfg.Settings
	if store == nil {
		store = config.NewMemoryStore(config.DefaultSettings())
	}
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("pipeline: failed to load settings: %w", err)
	}

	return &Pipeline{
		cfg:      cfg,
		settings: store,
		current:  settings.Normalize(),
		log:      log.New("pipeline"),
	}, nil
}

// Start ends any running session and begins a new one. degraded reports
// that the audio source could not be opened and synthetic shots are being
// produced instead. ctx bounds the whole session.
func (p *Pipeline) Start(ctx context.Context) (degraded bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false, ErrClosed
	}
	p.terminateLocked()
	p.stopDetectorLocked()

	settings := p.Settings()

	var (
		source audio.Source
		format audio.Format
	)
	if p.cfg.Source != nil && !p.cfg.ForceSynthetic {
		f, err := p.cfg.Source.Open()
		if err != nil {
			p.log.Warnf("audio source unavailable, using synthetic shots: %v", err)
		} else {
			source, format = p.cfg.Source, f
		}
	}

	var det detector.Detector
	if source != nil {
		det, err = detector.New(detector.KindAmplitude, format.SampleRate, detector.Settings{
			Sensitivity:     settings.Sensitivity,
			Threshold:       p.cfg.Threshold,
			StartupBlackout: p.cfg.StartupBlackout,
		})
		if err != nil {
			source.Close()
			return false, err
		}
	} else {
		degraded = true
		format = p.cfg.Fallback
		synthetic, err := detector.NewSynthetic(format.SampleRate, detector.SampleSizeBits, p.cfg.SyntheticOptions...)
		if err != nil {
			return false, err
		}
		synthetic.Start()
		det = synthetic
	}

	wctx, cancel := context.WithCancel(ctx)
	w := &worker{cancel: cancel, done: make(chan struct{})}
	p.worker = w
	p.session.Store(&session{worker: w, detector: det, startedAt: p.cfg.Now()})
	id := uuid.NewString()
	p.sessionID.Store(&id)

	p.log.Infof("session %s started: %d Hz, %d byte buffers, degraded=%v",
		id, format.SampleRate, format.BufferSize, degraded)

	go p.run(wctx, w, det, source, format, settings)
	return degraded, nil
}

// End stops the running session and waits for the worker to exit. It is a
// no-op when idle.
func (p *Pipeline) End() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.terminateLocked()
	p.stopDetectorLocked()
}

// Close ends any session and releases the buzzer. The pipeline cannot be
// started again.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.terminateLocked()
	p.stopDetectorLocked()
	p.log.Infof("closed")

	if c, ok := p.cfg.Buzzer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Running reports whether a worker is active.
func (p *Pipeline) Running() bool {
	s := p.session.Load()
	return s != nil && !s.worker.exited()
}

// StartedAt returns when the current session started and whether one is running.
func (p *Pipeline) StartedAt() (time.Time, bool) {
	s := p.session.Load()
	if s == nil || s.worker.exited() {
		return time.Time{}, false
	}
	return s.startedAt, true
}

// SessionID identifies the most recent session, or "" before the first start.
func (p *Pipeline) SessionID() string {
	if id := p.sessionID.Load(); id != nil {
		return *id
	}
	return ""
}

// Detector returns the detector of the most recent session, or nil.
func (p *Pipeline) Detector() detector.Detector {
	if s := p.session.Load(); s != nil {
		return s.detector
	}
	return nil
}

// terminateLocked cancels the worker and waits for it. p.mu must be held.
func (p *Pipeline) terminateLocked() {
	w := p.worker
	if w == nil {
		return
	}
	w.cancel()
	<-w.done
	p.worker = nil
	p.log.Infof("session %s stopped", p.SessionID())
}

// stopDetectorLocked stops a timer-driven detector. p.mu must be held.
func (p *Pipeline) stopDetectorLocked() {
	s := p.session.Load()
	if s == nil {
		return
	}
	if l, ok := s.detector.(detector.Lifecycle); ok {
		l.Stop()
	}
}

// run is the worker body. done is closed before any fault is reported so a
// fault handler may call Start or End.
func (p *Pipeline) run(ctx context.Context, w *worker, det detector.Detector, source audio.Source, format audio.Format, settings config.Settings) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrWorkerPanic, r)
		}
		if source != nil {
			if cerr := source.Close(); cerr != nil {
				p.log.Warnf("failed to close audio source: %v", cerr)
			}
		}
		close(w.done)
		p.log.Debugf("worker exited")
		if err != nil {
			p.fault(err)
		}
	}()

	if !p.buzz(ctx, settings) {
		return
	}
	if source == nil {
		p.syntheticLoop(ctx, det, format)
		return
	}
	err = p.audioLoop(ctx, det, source, format)
}

// buzz waits out the configured delay and plays the buzzer. It returns false
// if the session was stopped during the delay.
func (p *Pipeline) buzz(ctx context.Context, s config.Settings) bool {
	if delay := p.buzzerDelay(s); delay > 0 {
		p.log.Debugf("buzzer in %v", delay)
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
		}
	}

	if p.cfg.Buzzer != nil {
		if err := p.cfg.Buzzer.Buzz(ctx, float64(s.BuzzerVolume)/100); err != nil && ctx.Err() == nil {
			p.log.Warnf("buzzer failed: %v", err)
		}
	}
	return ctx.Err() == nil
}

// buzzerDelay is BuzzerDelay seconds, or with random start a uniform delay
// between 2s and BuzzerDelay seconds.
func (p *Pipeline) buzzerDelay(s config.Settings) time.Duration {
	if s.BuzzerDelay <= 0 {
		return 0
	}
	if s.RandomStart && s.BuzzerDelay > config.RandomStartMinDelay {
		p.randMu.Lock()
		extra := p.cfg.Rand.IntN((s.BuzzerDelay - config.RandomStartMinDelay) * 1000)
		p.randMu.Unlock()
		return time.Duration(config.RandomStartMinDelay*1000+extra) * time.Millisecond
	}
	return time.Duration(s.BuzzerDelay) * time.Second
}

// audioLoop reads until the session is stopped or the source fails or ends.
func (p *Pipeline) audioLoop(ctx context.Context, det detector.Detector, source audio.Source, format audio.Format) error {
	buf := make([]byte, format.BufferSize)
	for {
		n, err := source.Read(ctx, buf)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, io.EOF) {
			p.dispatch(det, det.ProcessAudio(buf[:n]))
			p.log.Infof("audio source exhausted after %d samples", det.CurrentSample())
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrReadFailure, err)
		}
		p.dispatch(det, det.ProcessAudio(buf[:n]))
	}
}

// syntheticLoop feeds silent buffers at the rate real audio would arrive.
func (p *Pipeline) syntheticLoop(ctx context.Context, det detector.Detector, format audio.Format) {
	buf := make([]byte, format.BufferSize)
	samplesPerMs := max(format.SampleRate/1000, 1)
	cadence := time.Duration(len(buf)/2/samplesPerMs) * time.Millisecond

	ticker := time.NewTicker(max(cadence, time.Millisecond))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return
		}
		p.dispatch(det, det.ProcessAudio(buf))
	}
}

func (p *Pipeline) fault(err error) {
	p.log.Errorf("session failed: %v", err)
	if p.cfg.Faults != nil {
		p.cfg.Faults.HandleFailure(err)
	}
}
