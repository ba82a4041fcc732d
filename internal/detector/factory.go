// SPDX-License-Identifier: MIT
package detector

import (
	"fmt"
	"strings"
	"time"
)

// Kind selects a detector variant.
type Kind int

// Enum for available detector variants.
const (
	KindAmplitude Kind = iota
	KindSynthetic
)

// String returns the name of the variant.
func (k Kind) String() string {
	switch k {
	case KindAmplitude:
		return "amplitude"
	case KindSynthetic:
		return "synthetic"
	default:
		return "unknown"
	}
}

// ParseKind converts a case-insensitive variant name into a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "amplitude":
		return KindAmplitude, nil
	case "synthetic", "fake":
		return KindSynthetic, nil
	default:
		return 0, fmt.Errorf("detector: unknown kind %q", name)
	}
}

// Settings carries the values a detector reads at construction time.
// Later changes only take effect on the next detector built from them.
type Settings struct {
	Sensitivity     int           // Extra loud samples required beyond the first.
	Threshold       int32         // Magnitude cutoff, 0 selects DefaultThreshold.
	StartupBlackout time.Duration // Initial period ignored by the amplitude detector.
}

// New builds a detector of the given kind for 16-bit audio at sampleRate.
func New(kind Kind, sampleRate int, s Settings) (Detector, error) {
	switch kind {
	case KindAmplitude:
		opts := []AmplitudeOption{WithStartupBlackout(s.StartupBlackout)}
		if s.Threshold > 0 {
			opts = append(opts, WithThreshold(s.Threshold))
		}
		return NewAmplitude(sampleRate, SampleSizeBits, s.Sensitivity, opts...)
	case KindSynthetic:
		return NewSynthetic(sampleRate, SampleSizeBits)
	default:
		return nil, fmt.Errorf("detector: unsupported kind %d", kind)
	}
}
