// SPDX-License-Identifier: MIT
package pipeline

import (
	"fmt"

	"shottimer/internal/config"
)

// Settings returns the current user settings.
func (p *Pipeline) Settings() config.Settings {
	p.settingsMu.Lock()
	defer p.settingsMu.Unlock()
	return p.current
}

// SetSensitivity changes the run length used by the next session's detector.
// A running detector keeps the value it was built with.
func (p *Pipeline) SetSensitivity(sensitivity int) error {
	return p.updateSettings(func(s *config.Settings) error {
		s.Sensitivity = sensitivity
		return nil
	})
}

// SetBuzzerVolume sets the buzzer volume, 0-100.
func (p *Pipeline) SetBuzzerVolume(volume int) error {
	return p.updateSettings(func(s *config.Settings) error {
		s.BuzzerVolume = volume
		return nil
	})
}

// SetBuzzerDelay sets the seconds between start and the buzzer. A delay of
// two seconds or less turns random start off.
func (p *Pipeline) SetBuzzerDelay(seconds int) error {
	return p.updateSettings(func(s *config.Settings) error {
		s.BuzzerDelay = seconds
		return nil
	})
}

// SetRandomStart toggles the randomised buzzer delay.
func (p *Pipeline) SetRandomStart(on bool) error {
	return p.updateSettings(func(s *config.Settings) error {
		if on && !s.RandomStartAllowed() {
			return ErrRandomStartUnavailable
		}
		s.RandomStart = on
		return nil
	})
}

func (p *Pipeline) updateSettings(change func(*config.Settings) error) error {
	p.settingsMu.Lock()
	defer p.settingsMu.Unlock()

	next := p.current
	if err := change(&next); err != nil {
		return err
	}
	next = next.Normalize()
	if err := p.settings.Save(next); err != nil {
		return fmt.Errorf("pipeline: failed to save settings: %w", err)
	}
	p.current = next
	return nil
}
