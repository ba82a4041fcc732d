// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gordonklaus/portaudio"

	"shottimer/internal/config"
)

var (
	rangeMic = &portaudio.DeviceInfo{
		Name:                    "Range Mic",
		MaxInputChannels:        1,
		DefaultSampleRate:       48000,
		DefaultLowInputLatency:  5 * time.Millisecond,
		DefaultHighInputLatency: 20 * time.Millisecond,
	}
	speakers = &portaudio.DeviceInfo{Name: "Speakers", MaxOutputChannels: 2, DefaultSampleRate: 44100}
	headset  = &portaudio.DeviceInfo{Name: "Headset", MaxInputChannels: 1, MaxOutputChannels: 2, DefaultSampleRate: 16000}
)

// fakeHost replaces the PortAudio entry points for the duration of the test
// and reports how often PortAudio was initialized and terminated.
type fakeHost struct {
	devices    []*portaudio.DeviceInfo
	devicesErr error
	initErr    error
	inits      int
	terms      int
}

func useFakeHost(t *testing.T, h *fakeHost) {
	t.Helper()
	origInit, origTerm := paLibInitialize, paLibTerminate
	origDevices, origDefault := paLibDevicesFunc, paLibDefaultInputDeviceFunc
	t.Cleanup(func() {
		paLibInitialize, paLibTerminate = origInit, origTerm
		paLibDevicesFunc, paLibDefaultInputDeviceFunc = origDevices, origDefault
	})

	paLibInitialize = func() error { h.inits++; return h.initErr }
	paLibTerminate = func() error { h.terms++; return nil }
	paLibDevicesFunc = func() ([]*portaudio.DeviceInfo, error) { return h.devices, h.devicesErr }
	paLibDefaultInputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		if h.devicesErr != nil {
			return nil, h.devicesErr
		}
		return rangeMic, nil
	}
}

func TestDeviceDirection(t *testing.T) {
	tests := []struct {
		in, out  int
		want     string
		hasInput bool
	}{
		{1, 0, "Input", true},
		{0, 2, "Output", false},
		{2, 2, "Input/Output", true},
		{0, 0, "", false},
	}
	for _, tt := range tests {
		d := Device{MaxInputChannels: tt.in, MaxOutputChannels: tt.out}
		if got := d.Direction(); got != tt.want {
			t.Errorf("Direction() with %d in, %d out = %q, want %q", tt.in, tt.out, got, tt.want)
		}
		if got := d.HasInput(); got != tt.hasInput {
			t.Errorf("HasInput() with %d in = %v, want %v", tt.in, got, tt.hasInput)
		}
	}
}

func TestHostDevices(t *testing.T) {
	useFakeHost(t, &fakeHost{devices: []*portaudio.DeviceInfo{rangeMic, speakers}})

	got, err := HostDevices()
	if err != nil {
		t.Fatalf("HostDevices: %v", err)
	}
	want := []Device{
		{ID: 0, Name: "Range Mic", MaxInputChannels: 1, DefaultSampleRate: 48000,
			LowInputLatency: 5 * time.Millisecond, HighInputLatency: 20 * time.Millisecond},
		{ID: 1, Name: "Speakers", MaxOutputChannels: 2, DefaultSampleRate: 44100},
	}
	if len(got) != len(want) {
		t.Fatalf("HostDevices returned %d devices, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("device %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestHostDevicesErrors(t *testing.T) {
	useFakeHost(t, &fakeHost{devicesErr: errors.New("host API gone")})

	devices, err := HostDevices()
	if err == nil || !strings.Contains(err.Error(), "host API gone") {
		t.Errorf("HostDevices error = %v, want host API error", err)
	}
	if devices != nil {
		t.Errorf("HostDevices = %v on error, want nil", devices)
	}
}

func TestHostDevicesNoDevices(t *testing.T) {
	useFakeHost(t, &fakeHost{})

	devices, err := HostDevices()
	if err != nil {
		t.Fatalf("HostDevices: %v", err)
	}
	if devices == nil || len(devices) != 0 {
		t.Errorf("HostDevices = %#v, want an empty slice", devices)
	}
}

func TestInputDevice(t *testing.T) {
	useFakeHost(t, &fakeHost{devices: []*portaudio.DeviceInfo{rangeMic, speakers, headset}})

	tests := []struct {
		desc    string
		id      int
		want    *portaudio.DeviceInfo
		wantErr string
	}{
		{"system default", config.MinDeviceID, rangeMic, ""},
		{"input device", 0, rangeMic, ""},
		{"duplex device", 2, headset, ""},
		{"output only", 1, nil, "does not support input"},
		{"below range", -2, nil, "invalid device ID"},
		{"above range", 3, nil, "invalid device ID"},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := InputDevice(tt.id)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("InputDevice(%d) error = %v, want %q", tt.id, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("InputDevice(%d): %v", tt.id, err)
			}
			if got != tt.want {
				t.Errorf("InputDevice(%d) = %s, want %s", tt.id, got.Name, tt.want.Name)
			}
		})
	}
}

func TestInputDeviceHostError(t *testing.T) {
	useFakeHost(t, &fakeHost{devicesErr: errors.New("host API gone")})

	for _, id := range []int{config.MinDeviceID, 0} {
		if _, err := InputDevice(id); err == nil {
			t.Errorf("InputDevice(%d) succeeded with a failing host", id)
		}
	}
}

func TestInitializeTerminateWrapErrors(t *testing.T) {
	origInit, origTerm := paLibInitialize, paLibTerminate
	defer func() { paLibInitialize, paLibTerminate = origInit, origTerm }()

	cause := errors.New("no host API")
	paLibInitialize = func() error { return cause }
	paLibTerminate = func() error { return cause }

	if err := Initialize(); !errors.Is(err, cause) || !strings.Contains(err.Error(), "initialize") {
		t.Errorf("Initialize error = %v, want wrapped cause", err)
	}
	if err := Terminate(); !errors.Is(err, cause) || !strings.Contains(err.Error(), "terminate") {
		t.Errorf("Terminate error = %v, want wrapped cause", err)
	}
}

func TestListDevices(t *testing.T) {
	host := &fakeHost{devices: []*portaudio.DeviceInfo{rangeMic, speakers, headset}}
	useFakeHost(t, host)

	var buf strings.Builder
	if err := ListDevices(&buf); err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Available Audio Devices",
		"[0] Range Mic (Input)",
		"Default sample rate: 48000 Hz",
		"Latency: Low=5.00ms, High=20.00ms",
		"[1] Speakers (Output)",
		"[2] Headset (Input/Output)",
		"Input channels: 1, Output channels: 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if host.inits != 1 || host.terms != 1 {
		t.Errorf("PortAudio initialized %d and terminated %d times, want 1 and 1", host.inits, host.terms)
	}
}

func TestListDevicesEmpty(t *testing.T) {
	useFakeHost(t, &fakeHost{})

	var buf strings.Builder
	if err := ListDevices(&buf); err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if !strings.Contains(buf.String(), "No audio devices found.") {
		t.Errorf("output = %q, want a no devices notice", buf.String())
	}
}

func TestListDevicesErrors(t *testing.T) {
	cause := errors.New("host API gone")
	tests := []struct {
		desc      string
		host      *fakeHost
		wantTerms int
	}{
		{"initialize fails", &fakeHost{initErr: cause}, 0},
		{"device query fails", &fakeHost{devicesErr: cause}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			useFakeHost(t, tt.host)

			var buf strings.Builder
			if err := ListDevices(&buf); !errors.Is(err, cause) {
				t.Errorf("ListDevices error = %v, want %v", err, cause)
			}
			if tt.host.terms != tt.wantTerms {
				t.Errorf("terminated %d times, want %d", tt.host.terms, tt.wantTerms)
			}
		})
	}
}
