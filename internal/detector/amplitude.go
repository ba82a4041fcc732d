// SPDX-License-Identifier: MIT
package detector

import (
	"encoding/binary"
	"time"
)

const (
	// DefaultThreshold is the magnitude a sample must exceed to count towards a shot.
	DefaultThreshold = 32000

	// DefaultStartupBlackout keeps the start buzzer from being reported as the first shot.
	DefaultStartupBlackout = 1000 * time.Millisecond

	// RefractoryMillis is the period after a shot during which samples are not examined.
	// A .45 spikes for roughly 18ms and then decays well inside this window.
	RefractoryMillis = 120

	// unset marks the absence of a blackout window.
	unset int64 = -1
)

// AmplitudeOption configures an Amplitude detector.
type AmplitudeOption func(*Amplitude)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(threshold int32) AmplitudeOption {
	return func(d *Amplitude) { d.threshold = threshold }
}

// WithStartupBlackout overrides DefaultStartupBlackout. Zero disables it.
func WithStartupBlackout(blackout time.Duration) AmplitudeOption {
	return func(d *Amplitude) { d.startupBlackout = blackout }
}

// Amplitude detects shots as runs of samples whose magnitude exceeds a threshold.
//
// Once samplesAboveThresholdRequired loud samples have been seen within one
// chunk a shot is reported at the sample that completed the run, and every
// sample in the following RefractoryMillis is skipped. The blackout may extend
// over any number of later chunks.
type Amplitude struct {
	clock SampleClock

	threshold                     int32
	samplesAboveThresholdRequired int
	startupBlackout               time.Duration

	ignoreUntilSample int64 // First sample eligible for detection, or unset.
	lastShotSample    int64
	shotCount         int
}

// Compile-time check for interface implementation.
var _ Detector = (*Amplitude)(nil)

// NewAmplitude creates an amplitude spike detector. The run length required
// for a shot is sensitivity+1 loud samples.
func NewAmplitude(sampleRate, sampleSizeBits, sensitivity int, opts ...AmplitudeOption) (*Amplitude, error) {
	clock, err := NewSampleClock(sampleRate, sampleSizeBits)
	if err != nil {
		return nil, err
	}

	d := &Amplitude{
		clock:                         clock,
		threshold:                     DefaultThreshold,
		samplesAboveThresholdRequired: sensitivity + 1,
		startupBlackout:               DefaultStartupBlackout,
		ignoreUntilSample:             unset,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.startupBlackout > 0 {
		d.ignoreUntilSample = clock.SamplesPerMillisecond() * d.startupBlackout.Milliseconds()
	}

	return d, nil
}

// ProcessAudio implements Detector.
func (d *Amplitude) ProcessAudio(buf []byte) []ShotEvent {
	return d.clock.Consume(buf, d.detect)
}

// CurrentSample implements Detector.
func (d *Amplitude) CurrentSample() int64 { return d.clock.Current() }

// SampleRate implements Detector.
func (d *Amplitude) SampleRate() int { return d.clock.sampleRate }

// ShotCount returns the number of shots reported so far.
func (d *Amplitude) ShotCount() int { return d.shotCount }

// detect scans one chunk. d.clock.Current() is the absolute index of buf's first sample.
func (d *Amplitude) detect(buf []byte) []ShotEvent {
	start := d.clock.Current()
	n := len(buf) / sampleSizeBytes
	pos := 0

	if d.ignoreUntilSample != unset {
		if start+int64(n) < d.ignoreUntilSample {
			return nil
		}
		pos = int(d.ignoreUntilSample - start)
		d.ignoreUntilSample = unset
	}

	var events []ShotEvent
	refractory := d.clock.SamplesPerMillisecond() * RefractoryMillis

	// The run counter is only reset by a detection; quiet samples inside
	// the chunk do not break a run.
	samplesAboveThreshold := 0
	for pos < n {
		sample := int16(binary.LittleEndian.Uint16(buf[pos*sampleSizeBytes:]))
		index := start + int64(pos)
		pos++

		if magnitude(sample) <= d.threshold {
			continue
		}
		samplesAboveThreshold++
		if samplesAboveThreshold < d.samplesAboveThresholdRequired {
			continue
		}
		samplesAboveThreshold = 0

		shotTime := d.clock.Millis(index)
		// Difference of the rounded times, so splits always add up to the shot time.
		split := shotTime - d.clock.Millis(d.lastShotSample)
		d.lastShotSample = index
		d.shotCount++
		events = append(events, NewShotEvent(d.shotCount, shotTime, split))

		d.ignoreUntilSample = index + refractory
		if start+int64(n) > d.ignoreUntilSample {
			pos = int(d.ignoreUntilSample - start)
			d.ignoreUntilSample = unset
			continue
		}
		break
	}

	return events
}

// magnitude returns |sample| widened to 32 bits, so -32768 maps to 32768
// instead of overflowing back to itself.
func magnitude(sample int16) int32 {
	v := int32(sample)
	mask := v >> 31
	return (v ^ mask) - mask
}
