// SPDX-License-Identifier: MIT
package pipeline

import (
	"shottimer/internal/detector"
)

// Listener receives every shot the running detector reports.
//
// Listeners run on the worker goroutine, one event at a time in registration
// order. They must not call Start, End or Close synchronously; the read-only
// accessors (Running, StartedAt, Detector, SessionID, Settings) are safe.
type Listener interface {
	ShotDetected(d detector.Detector, e detector.ShotEvent)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(d detector.Detector, e detector.ShotEvent)

// ShotDetected calls f(d, e).
func (f ListenerFunc) ShotDetected(d detector.Detector, e detector.ShotEvent) { f(d, e) }

// ListenerID identifies a registration for RemoveListener.
type ListenerID uint64

type registration struct {
	id       ListenerID
	listener Listener
}

// FaultHandler receives failures that ended a worker.
type FaultHandler interface {
	HandleFailure(err error)
}

// FaultHandlerFunc adapts a function to the FaultHandler interface.
type FaultHandlerFunc func(err error)

// HandleFailure calls f(err).
func (f FaultHandlerFunc) HandleFailure(err error) { f(err) }

// AddListener registers l and returns its ID. The same listener may be
// registered more than once.
func (p *Pipeline) AddListener(l Listener) ListenerID {
	p.listenersMu.Lock()
	defer p.listenersMu.Unlock()

	p.nextListenerID++
	id := p.nextListenerID
	p.listeners = append(p.listeners, registration{id: id, listener: l})
	return id
}

// RemoveListener unregisters id and reports whether it was registered.
func (p *Pipeline) RemoveListener(id ListenerID) bool {
	p.listenersMu.Lock()
	defer p.listenersMu.Unlock()

	for i, r := range p.listeners {
		if r.id == id {
			// Copy rather than shift in place; dispatch may hold the old slice.
			p.listeners = append(p.listeners[:i:i], p.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// dispatch delivers events in order to the listeners registered when the
// buffer was processed.
func (p *Pipeline) dispatch(d detector.Detector, events []detector.ShotEvent) {
	if len(events) == 0 {
		return
	}

	p.listenersMu.RLock()
	listeners := p.listeners
	p.listenersMu.RUnlock()

	for _, e := range events {
		p.log.Debugf("shot %s", e)
		for _, r := range listeners {
			r.listener.ShotDetected(d, e)
		}
	}
}
