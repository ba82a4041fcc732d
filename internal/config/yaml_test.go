// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func noEnv() envconfig.Lookuper {
	return envconfig.MapLookuper(map[string]string{})
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Parallel()
	cfg, err := loadConfig("", noEnv())
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Detector.Threshold != DefaultThreshold {
		t.Errorf("threshold = %d, want %d", cfg.Detector.Threshold, DefaultThreshold)
	}
	if cfg.Session.MaxDuration != 10*time.Minute {
		t.Errorf("max duration = %v, want 10m", cfg.Session.MaxDuration)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := loadConfig("nonexistent.yaml", noEnv())
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := loadConfig(path, noEnv())
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_FileValues(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
log_level: debug
audio:
  input_device: 3
  sample_rate: 44100
  frames_per_buffer: 512
detector:
  threshold: 30000
  startup_blackout: 250ms
session:
  max_duration: 5m
buzzer:
  enabled: false
transport:
  udp_enabled: true
  udp_target_address: "10.0.0.2:7000"
`)
	cfg, err := loadConfig(path, noEnv())
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if cfg.Audio.InputDevice != 3 || cfg.Audio.SampleRate != 44100 || cfg.Audio.FramesPerBuffer != 512 {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Detector.Threshold != 30000 || cfg.Detector.StartupBlackout != 250*time.Millisecond {
		t.Errorf("detector = %+v", cfg.Detector)
	}
	if cfg.Session.MaxDuration != 5*time.Minute {
		t.Errorf("max duration = %v", cfg.Session.MaxDuration)
	}
	// Unset keys keep their defaults.
	if cfg.Session.WatchdogInterval != DefaultWatchdogInterval {
		t.Errorf("watchdog interval = %v", cfg.Session.WatchdogInterval)
	}
	if cfg.Buzzer.Enabled {
		t.Error("buzzer enabled, want disabled")
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPTargetAddress != "10.0.0.2:7000" {
		t.Errorf("transport = %+v", cfg.Transport)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, "detector:\n  threshold: 30000\n")
	env := envconfig.MapLookuper(map[string]string{
		"SHOTTIMER_THRESHOLD":       "20000",
		"SHOTTIMER_DEBUG":           "true",
		"SHOTTIMER_MAX_DURATION":    "90s",
		"SHOTTIMER_FORCE_SYNTHETIC": "true",
	})

	cfg, err := loadConfig(path, env)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Detector.Threshold != 20000 {
		t.Errorf("threshold = %d, want 20000", cfg.Detector.Threshold)
	}
	if !cfg.Debug || !cfg.Detector.ForceSynthetic {
		t.Errorf("debug=%v force_synthetic=%v, want both true", cfg.Debug, cfg.Detector.ForceSynthetic)
	}
	if cfg.Session.MaxDuration != 90*time.Second {
		t.Errorf("max duration = %v, want 90s", cfg.Session.MaxDuration)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		desc    string
		content string
		want    string
	}{
		{"threshold above range", "detector:\n  threshold: 40000\n", "Threshold"},
		{"tiny sample rate", "audio:\n  sample_rate: 4000\n", "SampleRate"},
		{"bad buffer", "audio:\n  frames_per_buffer: 10\n", "FramesPerBuffer"},
		{"zero watchdog", "session:\n  watchdog_interval: 0s\n", "WatchdogInterval"},
		{"udp without address", "transport:\n  udp_enabled: true\n  udp_target_address: \"\"\n", "UDPTargetAddress"},
		{"unknown log level", "log_level: loud\n", "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()
			_, err := loadConfig(writeTempConfig(t, tt.content), noEnv())
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), "invalid configuration") || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
