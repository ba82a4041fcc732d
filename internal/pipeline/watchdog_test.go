// SPDX-License-Identifier: MIT
package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shottimer/internal/audio"
)

type fakeSession struct {
	mu      sync.Mutex
	started time.Time
	running bool
	ends    int
}

func (s *fakeSession) StartedAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started, s.running
}

func (s *fakeSession) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.ends++
}

func (s *fakeSession) endCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ends
}

func TestWatchdogCheck(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	tests := []struct {
		desc    string
		running bool
		elapsed time.Duration
		want    bool
	}{
		{"idle", false, time.Hour, false},
		{"fresh session", true, time.Minute, false},
		{"exactly at limit", true, 10 * time.Minute, false},
		{"over limit", true, 10*time.Minute + time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			s := &fakeSession{started: base, running: tt.running}
			w := NewWatchdog(s, 0, 0)
			w.now = func() time.Time { return base.Add(tt.elapsed) }

			if got := w.Check(); got != tt.want {
				t.Errorf("Check = %v, want %v", got, tt.want)
			}
			if want := map[bool]int{true: 1, false: 0}[tt.want]; s.endCount() != want {
				t.Errorf("End called %d times, want %d", s.endCount(), want)
			}
		})
	}
}

func TestWatchdogDefaults(t *testing.T) {
	w := NewWatchdog(&fakeSession{}, -1, 0)
	if w.interval != 20*time.Second || w.max != 10*time.Minute {
		t.Errorf("interval=%v max=%v, want 20s and 10m", w.interval, w.max)
	}
}

func TestWatchdogRun(t *testing.T) {
	base := time.Unix(0, 0)
	s := &fakeSession{started: base, running: true}
	w := NewWatchdog(s, time.Second, time.Minute)

	var (
		mu  sync.Mutex
		now = base
	)
	w.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	ticks := make(chan time.Time)
	w.tick = func(time.Duration) (<-chan time.Time, func()) { return ticks, func() {} }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	ticks <- base
	mu.Lock()
	now = base.Add(2 * time.Minute)
	mu.Unlock()
	ticks <- base
	ticks <- base // Already ended; no second End.

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
	if s.endCount() != 1 {
		t.Errorf("End called %d times, want 1", s.endCount())
	}
}

func TestWatchdogEndsPipelineSession(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	p := newTestPipeline(t, Config{
		Fallback: audio.Format{SampleRate: 8000, BufferSize: 160},
		Now:      func() time.Time { return base },
	})
	if _, err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	w := NewWatchdog(p, 0, 0)
	w.now = func() time.Time { return base.Add(5 * time.Minute) }
	if w.Check() {
		t.Fatal("watchdog ended a five minute session")
	}

	w.now = func() time.Time { return base.Add(11 * time.Minute) }
	if !w.Check() {
		t.Fatal("watchdog did not end an eleven minute session")
	}
	if p.Running() {
		t.Error("pipeline still running after watchdog expiry")
	}
}
