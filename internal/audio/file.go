// SPDX-License-Identifier: MIT
package audio

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// FileSource streams a recording as 16-bit mono PCM. Files ending in .wav are
// decoded with their header's rate; anything else is read as raw
// little-endian 16-bit mono at the configured rate. Multi-channel WAV files
// contribute their first channel.
type FileSource struct {
	path       string
	sampleRate int
	bufferSize int

	file *os.File
	raw  *bufio.Reader

	dec      *wav.Decoder
	pcm      *audio.IntBuffer
	channels int
	bitDepth int
}

// NewFileSource returns a source for path. sampleRate applies to raw files;
// bufferSize is the byte count each Read aims to fill.
func NewFileSource(path string, sampleRate, bufferSize int) *FileSource {
	return &FileSource{
		path:       path,
		sampleRate: sampleRate,
		bufferSize: bufferSize &^ 1,
	}
}

// Open opens the file and, for WAV input, validates its header.
func (f *FileSource) Open() (Format, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return Format{}, fmt.Errorf("failed to open audio file: %w", err)
	}

	if !strings.EqualFold(filepath.Ext(f.path), ".wav") {
		f.file = file
		f.raw = bufio.NewReaderSize(file, max(f.bufferSize, 4096))
		return Format{SampleRate: f.sampleRate, BufferSize: f.bufferSize}, nil
	}

	dec := wav.NewDecoder(file)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		file.Close()
		return Format{}, fmt.Errorf("%w: %s is not a valid WAV file", ErrUnsupportedFormat, f.path)
	}
	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		file.Close()
		return Format{}, fmt.Errorf("%w: %d-bit WAV", ErrUnsupportedFormat, dec.BitDepth)
	}

	f.file = file
	f.dec = dec
	f.channels = max(int(dec.NumChans), 1)
	f.bitDepth = int(dec.BitDepth)
	f.pcm = &audio.IntBuffer{
		Format: &audio.Format{NumChannels: f.channels, SampleRate: int(dec.SampleRate)},
		Data:   make([]int, (f.bufferSize/2)*f.channels),
	}
	return Format{SampleRate: int(dec.SampleRate), BufferSize: f.bufferSize}, nil
}

// Read fills buf with the next samples. The final read may be short; after
// that Read returns io.EOF.
func (f *FileSource) Read(ctx context.Context, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	switch {
	case f.raw != nil:
		return f.readRaw(buf)
	case f.dec != nil:
		return f.readWAV(buf)
	default:
		return 0, errSourceClosed
	}
}

func (f *FileSource) readRaw(buf []byte) (int, error) {
	n, err := io.ReadFull(f.raw, buf[:len(buf)&^1])
	n &^= 1 // A trailing odd byte is not a sample.
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	case err != nil:
		return n, err
	}
	return n, nil
}

func (f *FileSource) readWAV(buf []byte) (int, error) {
	frames := len(buf) / 2
	if want := frames * f.channels; cap(f.pcm.Data) < want {
		f.pcm.Data = make([]int, want)
	} else {
		f.pcm.Data = f.pcm.Data[:want]
	}

	n, err := f.dec.PCMBuffer(f.pcm)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("failed to decode WAV data: %w", err)
	}
	frames = n / f.channels
	if frames == 0 {
		return 0, io.EOF
	}

	for i := range frames {
		v := toInt16(f.pcm.Data[i*f.channels], f.bitDepth)
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(v))
	}
	return frames * 2, nil
}

// toInt16 rescales a decoded sample to the signed 16-bit range.
func toInt16(v, bitDepth int) int16 {
	switch bitDepth {
	case 8:
		return int16((v - 128) << 8)
	case 24:
		return int16(v >> 8)
	case 32:
		return int16(v >> 16)
	default:
		return int16(v)
	}
}

// Close closes the underlying file.
func (f *FileSource) Close() error {
	f.raw, f.dec = nil, nil
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}
