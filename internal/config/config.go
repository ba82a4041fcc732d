// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the shot timer.
const (
	// Default values for audio capture
	DefaultDeviceID        = MinDeviceID // System default input device
	DefaultSampleRate      = 0           // Probe the device for a usable rate
	DefaultFramesPerBuffer = 2048        // 4096 bytes of 16-bit mono
	DefaultLowLatency      = false       // Standard latency mode

	// Default values for detection
	DefaultThreshold        = 32000            // Magnitude on the signed 16-bit scale
	DefaultStartupBlackout  = time.Second      // Keeps the buzzer out of the shot list
	DefaultForceSynthetic   = false            // Use real audio when available
	DefaultMaxDuration      = 10 * time.Minute // Sessions are force-ended after this
	DefaultWatchdogInterval = 20 * time.Second // How often the watchdog checks the session
	DefaultSettingsFile     = "shottimer-settings.yaml"

	// Default values for the start buzzer
	DefaultBuzzerEnabled   = true
	DefaultBuzzerFrequency = 2400.0 // Hz, a harsh timer beep
	DefaultBuzzerDuration  = 600 * time.Millisecond

	// Default values for event transports
	DefaultWebSocketAddress = "127.0.0.1:8080"
	DefaultUDPTargetAddress = "127.0.0.1:9090"

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MinBufferFrames = 64     // Minimum frames per buffer
	MaxBufferFrames = 8192   // Maximum frames per buffer
)

// Config represents the application configuration, loaded from YAML with
// SHOTTIMER_* environment overrides applied on top.
type Config struct {
	Debug     bool            `yaml:"debug" env:"SHOTTIMER_DEBUG, overwrite"`         // Force debug logging.
	LogLevel  string          `yaml:"log_level" env:"SHOTTIMER_LOG_LEVEL, overwrite"` // "debug", "info", "warn", "error".
	Audio     AudioConfig     `yaml:"audio"`
	Detector  DetectorConfig  `yaml:"detector"`
	Session   SessionConfig   `yaml:"session"`
	Buzzer    BuzzerConfig    `yaml:"buzzer"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig holds settings related to audio capture.
type AudioConfig struct {
	InputDevice     int  `yaml:"input_device" env:"SHOTTIMER_INPUT_DEVICE, overwrite" validate:"gte=-1"`                              // PortAudio device index (-1 for default).
	SampleRate      int  `yaml:"sample_rate" env:"SHOTTIMER_SAMPLE_RATE, overwrite" validate:"omitempty,gte=8000,lte=192000"`         // 0 probes the device.
	FramesPerBuffer int  `yaml:"frames_per_buffer" env:"SHOTTIMER_FRAMES_PER_BUFFER, overwrite" validate:"gte=64,lte=8192"`           // Samples per read.
	LowLatency      bool `yaml:"low_latency" env:"SHOTTIMER_LOW_LATENCY, overwrite"`                                                  // Request low latency from PortAudio.
}

// DetectorConfig holds settings read by the detector at session start.
type DetectorConfig struct {
	Threshold       int32         `yaml:"threshold" env:"SHOTTIMER_THRESHOLD, overwrite" validate:"gt=0,lte=32767"`           // Magnitude a sample must exceed.
	StartupBlackout time.Duration `yaml:"startup_blackout" env:"SHOTTIMER_STARTUP_BLACKOUT, overwrite" validate:"gte=0"`      // Audio ignored after start.
	ForceSynthetic  bool          `yaml:"force_synthetic" env:"SHOTTIMER_FORCE_SYNTHETIC, overwrite"`                        // Never open the audio device.
}

// SessionConfig holds session lifecycle settings.
type SessionConfig struct {
	MaxDuration      time.Duration `yaml:"max_duration" env:"SHOTTIMER_MAX_DURATION, overwrite" validate:"gt=0"`           // Watchdog ceiling.
	WatchdogInterval time.Duration `yaml:"watchdog_interval" env:"SHOTTIMER_WATCHDOG_INTERVAL, overwrite" validate:"gt=0"` // Watchdog poll interval.
	SettingsFile     string        `yaml:"settings_file" env:"SHOTTIMER_SETTINGS_FILE, overwrite" validate:"required"`     // Persisted user settings.
}

// BuzzerConfig holds settings for the start signal.
type BuzzerConfig struct {
	Enabled   bool          `yaml:"enabled" env:"SHOTTIMER_BUZZER_ENABLED, overwrite"`
	Frequency float64       `yaml:"frequency" env:"SHOTTIMER_BUZZER_FREQUENCY, overwrite" validate:"gt=0,lt=20000"`
	Duration  time.Duration `yaml:"duration" env:"SHOTTIMER_BUZZER_DURATION, overwrite" validate:"gt=0"`
}

// TransportConfig holds settings related to publishing shot events.
type TransportConfig struct {
	WebSocketEnabled bool   `yaml:"websocket_enabled" env:"SHOTTIMER_WEBSOCKET_ENABLED, overwrite"`
	WebSocketAddress string `yaml:"websocket_address" env:"SHOTTIMER_WEBSOCKET_ADDRESS, overwrite" validate:"required_if=WebSocketEnabled true,omitempty,hostname_port"`
	UDPEnabled       bool   `yaml:"udp_enabled" env:"SHOTTIMER_UDP_ENABLED, overwrite"`
	UDPTargetAddress string `yaml:"udp_target_address" env:"SHOTTIMER_UDP_TARGET_ADDRESS, overwrite" validate:"required_if=UDPEnabled true,omitempty,hostname_port"`
}

// NewConfig creates a new Config instance with default values.
// This is the base configuration before a file or the environment is applied.
func NewConfig() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
		},
		Detector: DetectorConfig{
			Threshold:       DefaultThreshold,
			StartupBlackout: DefaultStartupBlackout,
			ForceSynthetic:  DefaultForceSynthetic,
		},
		Session: SessionConfig{
			MaxDuration:      DefaultMaxDuration,
			WatchdogInterval: DefaultWatchdogInterval,
			SettingsFile:     DefaultSettingsFile,
		},
		Buzzer: BuzzerConfig{
			Enabled:   DefaultBuzzerEnabled,
			Frequency: DefaultBuzzerFrequency,
			Duration:  DefaultBuzzerDuration,
		},
		Transport: TransportConfig{
			WebSocketAddress: DefaultWebSocketAddress,
			UDPTargetAddress: DefaultUDPTargetAddress,
		},
	}
}
