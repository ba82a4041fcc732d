// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	buzzerSampleRate = 44100
	buzzerFrames     = 512
	buzzerFade       = 5 * time.Millisecond
)

// PortAudioBuzzer plays the start tone on the default output device.
type PortAudioBuzzer struct {
	frequency float64
	duration  time.Duration
}

// NewPortAudioBuzzer returns a buzzer sounding frequency Hz for duration.
func NewPortAudioBuzzer(frequency float64, duration time.Duration) *PortAudioBuzzer {
	return &PortAudioBuzzer{frequency: frequency, duration: duration}
}

// Buzz plays the tone at volume (0-1) and returns once it has been written.
// Cancelling ctx cuts the tone short.
func (b *PortAudioBuzzer) Buzz(ctx context.Context, volume float64) error {
	tone := Tone(buzzerSampleRate, b.frequency, b.duration, volume)

	if err := Initialize(); err != nil {
		return err
	}
	defer Terminate()

	out := make([]float32, buzzerFrames)
	stream, err := portaudio.OpenDefaultStream(0, 1, buzzerSampleRate, len(out), &out)
	if err != nil {
		return fmt.Errorf("failed to open buzzer stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start buzzer stream: %w", err)
	}
	defer stream.Stop()

	for off := 0; off < len(tone); off += len(out) {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(out, tone[off:])
		clear(out[n:])
		if err := stream.Write(); err != nil {
			return fmt.Errorf("failed to write buzzer tone: %w", err)
		}
	}
	return nil
}

// Tone renders a sine tone with short linear fades at both ends. Volume is
// clamped to 0-1.
func Tone(sampleRate int, frequency float64, d time.Duration, volume float64) []float32 {
	volume = min(max(volume, 0), 1)
	n := int(d.Seconds() * float64(sampleRate))
	fade := min(int(buzzerFade.Seconds()*float64(sampleRate)), n/2)

	tone := make([]float32, n)
	step := 2 * math.Pi * frequency / float64(sampleRate)
	for i := range tone {
		gain := volume
		if fade > 0 {
			switch {
			case i < fade:
				gain *= float64(i) / float64(fade)
			case i >= n-fade:
				gain *= float64(n-1-i) / float64(fade)
			}
		}
		tone[i] = float32(gain * math.Sin(step*float64(i)))
	}
	return tone
}
