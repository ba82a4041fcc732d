// SPDX-License-Identifier: MIT
package transport

import (
	"time"

	"shottimer/internal/detector"
)

// Transport defines a generic interface for sending shot messages to
// external consumers. Implementations should be thread-safe.
type Transport interface {
	Send(msg ShotMessage) error
	Close() error
}

// MessageTypeShot tags ShotMessage payloads.
const MessageTypeShot = "shot"

// ShotMessage is the wire form of a detected shot.
type ShotMessage struct {
	Type        string    `json:"type"`
	SessionID   string    `json:"session_id"`
	Shot        int       `json:"shot"`
	TimeMillis  int64     `json:"time_ms"`
	SplitMillis int64     `json:"split_ms"`
	SampleRate  int       `json:"sample_rate"`
	Sample      int64     `json:"sample"` // Detector clock when the shot was reported.
	SentAt      time.Time `json:"sent_at"`
}

// NewShotMessage builds the message for event e reported by d.
func NewShotMessage(sessionID string, d detector.Detector, e detector.ShotEvent, now time.Time) ShotMessage {
	return ShotMessage{
		Type:        MessageTypeShot,
		SessionID:   sessionID,
		Shot:        e.ShotNumber,
		TimeMillis:  e.TimeMillis,
		SplitMillis: e.SplitMillis,
		SampleRate:  d.SampleRate(),
		Sample:      d.CurrentSample(),
		SentAt:      now,
	}
}

// Event converts the message back into a detector event.
func (m ShotMessage) Event() detector.ShotEvent {
	return detector.NewShotEvent(m.Shot, m.TimeMillis, m.SplitMillis)
}
