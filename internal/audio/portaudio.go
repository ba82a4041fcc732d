// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"shottimer/internal/log"
)

var paLog = log.New("portaudio")

// PortAudioSource captures mono 16-bit audio from a PortAudio input device
// using a blocking stream.
type PortAudioSource struct {
	deviceID        int
	framesPerBuffer int
	lowLatency      bool
	rates           []int

	mu          sync.Mutex
	stream      *portaudio.Stream
	samples     []int16
	initialized bool
}

// NewPortAudioSource returns a source for the given device. A sampleRate of
// zero probes ProbeRates in order.
func NewPortAudioSource(deviceID, framesPerBuffer int, lowLatency bool, sampleRate int) *PortAudioSource {
	rates := ProbeRates
	if sampleRate > 0 {
		rates = []int{sampleRate}
	}
	return &PortAudioSource{
		deviceID:        deviceID,
		framesPerBuffer: framesPerBuffer,
		lowLatency:      lowLatency,
		rates:           rates,
	}
}

// Open initializes PortAudio and starts the first stream that accepts a rate
// and delivers a full buffer. Failures are wrapped in ErrHardwareUnavailable.
func (s *PortAudioSource) Open() (Format, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil {
		return Format{}, errors.New("audio source already open")
	}

	if err := Initialize(); err != nil {
		return Format{}, fmt.Errorf("%w: %w", ErrHardwareUnavailable, err)
	}
	s.initialized = true

	device, err := InputDevice(s.deviceID)
	if err != nil {
		s.terminate()
		return Format{}, fmt.Errorf("%w: %w", ErrHardwareUnavailable, err)
	}

	latency := device.DefaultHighInputLatency
	if s.lowLatency {
		latency = device.DefaultLowInputLatency
	}

	s.samples = make([]int16, s.framesPerBuffer)
	for _, rate := range s.rates {
		stream, err := s.tryRate(device, latency, rate)
		if err != nil {
			paLog.Debugf("%s rejected %d Hz: %v", device.Name, rate, err)
			continue
		}
		s.stream = stream
		paLog.Infof("capturing from %s at %d Hz, %d frames per buffer", device.Name, rate, s.framesPerBuffer)
		return Format{SampleRate: rate, BufferSize: s.framesPerBuffer * 2}, nil
	}

	s.terminate()
	return Format{}, fmt.Errorf("%w: %s supports none of %v Hz", ErrHardwareUnavailable, device.Name, s.rates)
}

func (s *PortAudioSource) tryRate(device *portaudio.DeviceInfo, latency time.Duration, rate int) (*portaudio.Stream, error) {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  latency,
		},
		SampleRate:      float64(rate),
		FramesPerBuffer: s.framesPerBuffer,
	}
	if err := portaudio.IsFormatSupported(params, &s.samples); err != nil {
		return nil, err
	}

	stream, err := portaudio.OpenStream(params, &s.samples)
	if err != nil {
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, err
	}
	// The probe read must deliver a full buffer.
	if err := stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		stream.Stop()
		stream.Close()
		return nil, err
	}
	return stream, nil
}

// Read blocks until the device delivers a buffer. Input overflows are
// logged and the data is returned.
func (s *PortAudioSource) Read(ctx context.Context, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return 0, errSourceClosed
	}
	if err := s.stream.Read(); err != nil {
		if !errors.Is(err, portaudio.InputOverflowed) {
			return 0, err
		}
		paLog.Debugf("input overflowed")
	}
	return putSamples(buf, s.samples), nil
}

// Close stops the stream and terminates PortAudio.
func (s *PortAudioSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.stream != nil {
		if err := s.stream.Stop(); err != nil {
			errs = append(errs, err)
		}
		if err := s.stream.Close(); err != nil {
			errs = append(errs, err)
		}
		s.stream = nil
	}
	if err := s.terminate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *PortAudioSource) terminate() error {
	if !s.initialized {
		return nil
	}
	s.initialized = false
	return Terminate()
}
