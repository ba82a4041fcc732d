// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"sync"
	"time"

	"shottimer/internal/detector"
	"shottimer/internal/log"
)

// Publisher forwards every shot it is given to a set of transports. It
// satisfies the pipeline listener interface.
type Publisher struct {
	transports []Transport
	sessionID  func() string
	now        func() time.Time
	log        log.Logger

	mu     sync.Mutex
	closed bool
}

// NewPublisher returns a publisher stamping messages with sessionID().
func NewPublisher(sessionID func() string, transports ...Transport) *Publisher {
	return &Publisher{
		transports: transports,
		sessionID:  sessionID,
		now:        time.Now,
		log:        log.New("publisher"),
	}
}

// ShotDetected sends e to every transport. Send failures are logged; one
// failing transport does not stop the others.
func (p *Publisher) ShotDetected(d detector.Detector, e detector.ShotEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	msg := NewShotMessage(p.sessionID(), d, e, p.now())
	for _, t := range p.transports {
		if err := t.Send(msg); err != nil {
			p.log.Warnf("failed to publish shot %d via %T: %v", e.ShotNumber, t, err)
		}
	}
}

// Close closes every transport. Later shots are dropped.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	for _, t := range p.transports {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
