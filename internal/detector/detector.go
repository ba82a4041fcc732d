// SPDX-License-Identifier: MIT
/*
Package detector implements streaming shot detection over 16-bit mono PCM.

Detectors consume audio in arbitrarily sized little-endian chunks and report
ShotEvents timestamped against a sample clock that spans every chunk the
detector has seen, not just the current one.

Variants:
- Amplitude: threshold run-length detection with a 120ms refractory window
- Synthetic: timer driven events for operation without an audio source

Thread Safety:
- ProcessAudio must be called from a single goroutine
- Synthetic Start/Stop may be called from another goroutine
*/
package detector

import (
	"errors"
	"fmt"
)

const (
	// SampleSizeBits is the only supported sample width.
	SampleSizeBits = 16

	// sampleSizeBytes is the width of one sample in the input buffer.
	sampleSizeBytes = SampleSizeBits / 8
)

var (
	// ErrUnsupportedSampleSize is returned when a detector is built for anything but 16-bit samples.
	ErrUnsupportedSampleSize = errors.New("detector: only 16 bit samples are supported")
	// ErrInvalidSampleRate is returned when the sample rate yields less than one sample per millisecond.
	ErrInvalidSampleRate = errors.New("detector: sample rate must be at least 1000 Hz")
)

// Detector processes a chunk of audio and reports the shots found in it.
type Detector interface {
	// ProcessAudio consumes buf, a sequence of little-endian signed 16-bit samples,
	// and returns the events detected in it in detection order.
	ProcessAudio(buf []byte) []ShotEvent

	// CurrentSample returns the number of samples consumed since the detector was created.
	CurrentSample() int64

	// SampleRate returns the sample rate the detector was built for.
	SampleRate() int
}

// Lifecycle is implemented by detectors that run background timers.
// The pipeline starts them on session start and stops them on session end.
type Lifecycle interface {
	Start()
	Stop()
}

// SampleClock tracks the absolute position of a detector in the sample stream.
type SampleClock struct {
	sampleRate            int
	samplesPerMillisecond int64
	current               int64
}

// NewSampleClock validates the audio format and returns a clock positioned at sample zero.
func NewSampleClock(sampleRate, sampleSizeBits int) (SampleClock, error) {
	if sampleSizeBits != SampleSizeBits {
		return SampleClock{}, fmt.Errorf("%w: got %d bits", ErrUnsupportedSampleSize, sampleSizeBits)
	}
	if sampleRate < 1000 {
		return SampleClock{}, fmt.Errorf("%w: got %d Hz", ErrInvalidSampleRate, sampleRate)
	}
	return SampleClock{
		sampleRate:            sampleRate,
		samplesPerMillisecond: int64(sampleRate / 1000),
	}, nil
}

// Consume runs step over buf and then advances the clock by the number of
// samples in buf, however many of them step actually examined.
func (c *SampleClock) Consume(buf []byte, step func([]byte) []ShotEvent) []ShotEvent {
	events := step(buf)
	c.current += int64(len(buf) / sampleSizeBytes)
	return events
}

// Current returns the absolute index of the first sample of the next chunk.
func (c *SampleClock) Current() int64 { return c.current }

// SamplesPerMillisecond returns sampleRate/1000, truncated.
func (c *SampleClock) SamplesPerMillisecond() int64 { return c.samplesPerMillisecond }

// Millis converts an absolute sample index into milliseconds since sample zero.
func (c *SampleClock) Millis(sample int64) int64 { return sample / c.samplesPerMillisecond }
