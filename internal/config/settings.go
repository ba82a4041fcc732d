// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings defaults and limits.
const (
	DefaultSensitivity  = 4
	DefaultBuzzerVolume = 100
	DefaultBuzzerDelay  = 0

	MaxSensitivity  = 20
	MaxBuzzerVolume = 100

	// RandomStartMinDelay is the buzzer delay, in seconds, a random start
	// needs above it. The random start never fires before this many seconds.
	RandomStartMinDelay = 2
)

// Settings are the user-adjustable values persisted between runs.
type Settings struct {
	Sensitivity  int  `yaml:"sensitivity"`   // Extra consecutive loud samples required for a shot.
	BuzzerVolume int  `yaml:"buzzer_volume"` // 0-100.
	BuzzerDelay  int  `yaml:"buzzer_delay"`  // Seconds between start and the buzzer.
	RandomStart  bool `yaml:"random_start"`  // Randomise the delay; needs BuzzerDelay > 2.
}

// DefaultSettings returns the settings used when nothing has been stored.
func DefaultSettings() Settings {
	return Settings{
		Sensitivity:  DefaultSensitivity,
		BuzzerVolume: DefaultBuzzerVolume,
		BuzzerDelay:  DefaultBuzzerDelay,
		RandomStart:  false,
	}
}

// Normalize clamps every value into range. A delay of RandomStartMinDelay
// seconds or less switches random start off.
func (s Settings) Normalize() Settings {
	s.Sensitivity = clamp(s.Sensitivity, 0, MaxSensitivity)
	s.BuzzerVolume = clamp(s.BuzzerVolume, 0, MaxBuzzerVolume)
	s.BuzzerDelay = max(s.BuzzerDelay, 0)
	if s.BuzzerDelay <= RandomStartMinDelay {
		s.RandomStart = false
	}
	return s
}

// RandomStartAllowed reports whether random start may be enabled at the current delay.
func (s Settings) RandomStartAllowed() bool {
	return s.BuzzerDelay > RandomStartMinDelay
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// SettingsStore persists Settings.
type SettingsStore interface {
	Load() (Settings, error)
	Save(Settings) error
}

// FileStore keeps Settings in a YAML file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (f *FileStore) Path() string { return f.path }

// Load reads the settings file. A missing file yields DefaultSettings.
func (f *FileStore) Load() (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := DefaultSettings()
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("failed to parse settings file: %w", err)
	}
	return s.Normalize(), nil
}

// Save writes the settings through a temporary file and a rename, so readers
// never see a partial file.
func (f *FileStore) Save(s Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := yaml.Marshal(s.Normalize())
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	defer os.Remove(tmp.Name()) // No-op after a successful rename.

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}

// MemoryStore keeps Settings in memory.
type MemoryStore struct {
	mu    sync.Mutex
	s     Settings
	saves int
}

// NewMemoryStore returns a store holding s.
func NewMemoryStore(s Settings) *MemoryStore {
	return &MemoryStore{s: s}
}

// Load returns the stored settings as given, without normalizing them.
func (m *MemoryStore) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, nil
}

// Save replaces the stored settings and counts the call. It never fails.
func (m *MemoryStore) Save(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s
	m.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
