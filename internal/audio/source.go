// SPDX-License-Identifier: MIT
/*
Package audio provides the PCM sources a shot timer reads from and the
start buzzer it plays.

Every Source delivers signed 16-bit little-endian mono PCM. Sources:
- PortAudioSource captures from an input device, probing for a usable rate
- FileSource streams raw PCM or WAV files

PortAudioBuzzer plays the start tone on the default output device.
*/
package audio

import (
	"context"
	"encoding/binary"
	"errors"
)

// ProbeRates are tried in order until the input device accepts one.
var ProbeRates = []int{48000, 44100, 22050, 16000, 11025, 8000}

// Fallback format used when no hardware is available.
const (
	FallbackSampleRate = 8000
	FallbackBufferSize = 4096
)

var (
	// ErrHardwareUnavailable is returned by Open when no device or rate works.
	ErrHardwareUnavailable = errors.New("audio hardware unavailable")
	// ErrUnsupportedFormat is returned for files the FileSource cannot decode.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	errSourceClosed = errors.New("audio source is not open")
)

// Format describes the PCM a Source delivers.
type Format struct {
	SampleRate int // Hz
	BufferSize int // Bytes per Read; always even
}

// Source is a stream of 16-bit little-endian mono PCM.
type Source interface {
	// Open acquires the underlying device or file and reports its format.
	Open() (Format, error)
	// Read fills buf with whole samples and returns the number of bytes
	// written. io.EOF marks the end of a finite source.
	Read(ctx context.Context, buf []byte) (int, error)
	// Close releases the source. It is safe to call more than once.
	Close() error
}

// putSamples encodes samples as little-endian PCM into buf and returns the
// number of bytes written.
func putSamples(buf []byte, samples []int16) int {
	n := min(len(buf)/2, len(samples))
	for i := range n {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(samples[i]))
	}
	return n * 2
}
