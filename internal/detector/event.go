// SPDX-License-Identifier: MIT
package detector

import (
	"fmt"
	"time"
)

// ShotEvent is a single detected shot. Values are never modified after construction.
type ShotEvent struct {
	ShotNumber  int   `json:"shot"`     // Position of the shot in the string.
	TimeMillis  int64 `json:"time_ms"`  // Milliseconds since the detector started.
	SplitMillis int64 `json:"split_ms"` // Milliseconds since the previous shot, or since start for the first one.
}

// NewShotEvent builds an event.
func NewShotEvent(shotNumber int, timeMillis, splitMillis int64) ShotEvent {
	return ShotEvent{ShotNumber: shotNumber, TimeMillis: timeMillis, SplitMillis: splitMillis}
}

// Time returns the event time as a duration.
func (e ShotEvent) Time() time.Duration { return time.Duration(e.TimeMillis) * time.Millisecond }

// Split returns the split as a duration.
func (e ShotEvent) Split() time.Duration { return time.Duration(e.SplitMillis) * time.Millisecond }

// String renders the event the way a shot timer display does, in seconds with two decimals.
func (e ShotEvent) String() string {
	return fmt.Sprintf("#%d %.2f (split %.2f)", e.ShotNumber, float64(e.TimeMillis)/1000.0, float64(e.SplitMillis)/1000.0)
}
