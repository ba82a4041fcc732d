// SPDX-License-Identifier: MIT
package pipeline

import (
	"context"
	"time"

	"shottimer/internal/log"
)

var watchdogLog = log.New("watchdog")

// Default watchdog timing.
const (
	DefaultMaxSession       = 10 * time.Minute
	DefaultWatchdogInterval = 20 * time.Second
)

// Session is what the watchdog supervises.
type Session interface {
	StartedAt() (time.Time, bool)
	End()
}

// Watchdog ends sessions that run longer than a fixed ceiling.
type Watchdog struct {
	session  Session
	interval time.Duration
	max      time.Duration
	now      func() time.Time
	tick     func(time.Duration) (<-chan time.Time, func())
}

// NewWatchdog returns a watchdog that checks s every interval and ends it
// once it has run for longer than limit. Non-positive values select the defaults.
func NewWatchdog(s Session, interval, limit time.Duration) *Watchdog {
	if interval <= 0 {
		interval = DefaultWatchdogInterval
	}
	if limit <= 0 {
		limit = DefaultMaxSession
	}
	return &Watchdog{
		session:  s,
		interval: interval,
		max:      limit,
		now:      time.Now,
		tick: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

// Run checks the session until ctx is cancelled and returns ctx.Err().
func (w *Watchdog) Run(ctx context.Context) error {
	ticks, stop := w.tick(w.interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticks:
			w.Check()
		}
	}
}

// Check ends the session if it has exceeded the ceiling and reports whether it did.
func (w *Watchdog) Check() bool {
	started, running := w.session.StartedAt()
	if !running {
		return false
	}
	if elapsed := w.now().Sub(started); elapsed > w.max {
		watchdogLog.Warnf("session ran for %v, longer than %v; ending it", elapsed.Round(time.Second), w.max)
		w.session.End()
		return true
	}
	return false
}
