// SPDX-License-Identifier: MIT
package cmd

import (
	"testing"
	"time"

	"shottimer/internal/config"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		command string
		files   []string
		wantErr bool
	}{
		{"Default runs the timer", nil, CommandRun, nil, false},
		{"List", []string{"list"}, CommandList, nil, false},
		{"Detect", []string{"detect", "a.raw", "b.wav"}, CommandDetect, []string{"a.raw", "b.wav"}, false},
		{"Detect needs files", []string{"detect"}, "", nil, true},
		{"Detect rejects tiny chunks", []string{"detect", "--chunk", "1", "a.raw"}, "", nil, true},
		{"Unknown flag", []string{"--nope"}, "", nil, true},
		{"Stray argument", []string{"extra"}, "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := ParseArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseArgs(%v) expected error", tt.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseArgs(%v) error = %v", tt.args, err)
			}
			if inv.Command != tt.command {
				t.Errorf("Command = %q, want %q", inv.Command, tt.command)
			}
			if len(inv.Files) != len(tt.files) {
				t.Fatalf("Files = %v, want %v", inv.Files, tt.files)
			}
			for i := range tt.files {
				if inv.Files[i] != tt.files[i] {
					t.Errorf("Files[%d] = %q, want %q", i, inv.Files[i], tt.files[i])
				}
			}
		})
	}
}

func TestParseArgsDetectFlags(t *testing.T) {
	inv, err := ParseArgs([]string{"detect", "--chunk", "4096", "--sample-rate", "48000",
		"--sensitivity", "2", "--blackout", "0s", "--threshold", "20000", "x.raw"})
	if err != nil {
		t.Fatalf("ParseArgs() error = %v", err)
	}
	want := DetectOptions{Chunk: 4096, SampleRate: 48000, Sensitivity: 2, Threshold: 20000, StartupBlackout: 0}
	if inv.Detect != want {
		t.Errorf("Detect = %+v, want %+v", inv.Detect, want)
	}

	inv, err = ParseArgs([]string{"detect", "x.raw"})
	if err != nil {
		t.Fatalf("ParseArgs() error = %v", err)
	}
	if inv.Detect.Chunk != DefaultDetectChunk || inv.Detect.SampleRate != DefaultDetectSampleRate ||
		inv.Detect.Sensitivity != DefaultDetectSensitivity || inv.Detect.StartupBlackout != time.Second {
		t.Errorf("default Detect = %+v", inv.Detect)
	}
}

func TestOptionsApply(t *testing.T) {
	inv, err := ParseArgs([]string{"-d", "3", "--frames-per-buffer", "512", "--fake", "-v", "--sensitivity", "7"})
	if err != nil {
		t.Fatalf("ParseArgs() error = %v", err)
	}

	cfg := config.NewConfig()
	cfg.Audio.SampleRate = 44100
	inv.Options.Apply(cfg)

	if cfg.Audio.InputDevice != 3 {
		t.Errorf("InputDevice = %d, want 3", cfg.Audio.InputDevice)
	}
	if cfg.Audio.FramesPerBuffer != 512 {
		t.Errorf("FramesPerBuffer = %d, want 512", cfg.Audio.FramesPerBuffer)
	}
	// Not given on the command line, so the configured value stays.
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", cfg.Audio.SampleRate)
	}
	if !cfg.Detector.ForceSynthetic {
		t.Error("--fake did not force the synthetic detector")
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("LogLevel = %q, want DEBUG", cfg.LogLevel)
	}
	if s, ok := inv.Options.SensitivityOverride(); !ok || s != 7 {
		t.Errorf("SensitivityOverride() = %d, %v; want 7, true", s, ok)
	}
}

func TestOptionsNoOverrides(t *testing.T) {
	inv, err := ParseArgs(nil)
	if err != nil {
		t.Fatalf("ParseArgs() error = %v", err)
	}
	cfg := config.NewConfig()
	want := *cfg
	inv.Options.Apply(cfg)
	if cfg.Audio != want.Audio || cfg.Detector != want.Detector || cfg.LogLevel != want.LogLevel {
		t.Errorf("Apply without flags changed config: %+v", cfg)
	}
	if _, ok := inv.Options.SensitivityOverride(); ok {
		t.Error("SensitivityOverride() reported a value that was not given")
	}
}
