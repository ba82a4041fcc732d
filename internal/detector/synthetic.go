// SPDX-License-Identifier: MIT
package detector

import (
	"math/rand/v2"
	"sync"
	"time"
)

const (
	// syntheticFirstDelayMax bounds the delay between Start and the first synthetic shot.
	syntheticFirstDelayMax = 1000 * time.Millisecond
	// syntheticDelayMax bounds the delay between consecutive synthetic shots.
	syntheticDelayMax = 3000 * time.Millisecond
)

// SyntheticOption configures a Synthetic detector.
type SyntheticOption func(*Synthetic)

// WithClock replaces time.Now as the detector's time source.
func WithClock(now func() time.Time) SyntheticOption {
	return func(d *Synthetic) { d.now = now }
}

// WithRand replaces the random source used for shot delays.
func WithRand(r *rand.Rand) SyntheticOption {
	return func(d *Synthetic) { d.rand = r }
}

// Synthetic produces shots on a random schedule and ignores the audio content.
// It only uses the length of each chunk to keep time.
//
// After Start the first shot becomes due within a second, and every later one
// within three seconds of the previous deadline. A due shot is reported by the
// next ProcessAudio call. Stop cancels the schedule and resets all counters, so
// the same instance can be started again.
type Synthetic struct {
	clock SampleClock
	now   func() time.Time

	mu          sync.Mutex
	rand        *rand.Rand
	running     bool
	deadline    time.Time
	shotIndex   int
	lastShot    int64
	sampleCount int64
}

// Compile-time checks for interface implementations.
var _ Detector = (*Synthetic)(nil)
var _ Lifecycle = (*Synthetic)(nil)

// NewSynthetic creates a stopped synthetic detector.
func NewSynthetic(sampleRate, sampleSizeBits int, opts ...SyntheticOption) (*Synthetic, error) {
	clock, err := NewSampleClock(sampleRate, sampleSizeBits)
	if err != nil {
		return nil, err
	}

	d := &Synthetic{
		clock: clock,
		now:   time.Now,
		rand:  rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Start schedules the first shot.
func (d *Synthetic) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.running = true
	d.deadline = d.now().Add(d.randomDelay(syntheticFirstDelayMax))
}

// Stop cancels the pending shot and resets the shot index, last shot time and sample count.
func (d *Synthetic) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.running = false
	d.deadline = time.Time{}
	d.shotIndex = 0
	d.lastShot = 0
	d.sampleCount = 0
}

// Running reports whether a shot schedule is active.
func (d *Synthetic) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// ProcessAudio implements Detector.
func (d *Synthetic) ProcessAudio(buf []byte) []ShotEvent {
	return d.clock.Consume(buf, d.detect)
}

// CurrentSample implements Detector.
func (d *Synthetic) CurrentSample() int64 { return d.clock.Current() }

// SampleRate implements Detector.
func (d *Synthetic) SampleRate() int { return d.clock.sampleRate }

func (d *Synthetic) detect(buf []byte) []ShotEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Only audio consumed while running counts towards shot times.
	if !d.running {
		return nil
	}
	d.sampleCount += int64(len(buf) / sampleSizeBytes)

	now := d.now()
	if now.Before(d.deadline) {
		return nil
	}

	// Deadlines that passed while nobody was reading collapse into one shot.
	for !now.Before(d.deadline) {
		d.deadline = d.deadline.Add(d.randomDelay(syntheticDelayMax))
	}

	shotTime := d.clock.Millis(d.sampleCount)
	event := NewShotEvent(d.shotIndex, shotTime, shotTime-d.lastShot)
	d.shotIndex++
	d.lastShot = shotTime
	return []ShotEvent{event}
}

// randomDelay returns a uniform delay in [0, limit). Callers hold d.mu.
func (d *Synthetic) randomDelay(limit time.Duration) time.Duration {
	return time.Duration(d.rand.Float64() * float64(limit))
}
