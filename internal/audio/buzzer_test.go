// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"testing"
	"time"
)

func TestTone(t *testing.T) {
	tests := []struct {
		desc    string
		volume  float64
		wantMax float64
	}{
		{"full volume", 1, 1},
		{"half volume", 0.5, 0.5},
		{"clamped high", 3, 1},
		{"silent", 0, 0},
		{"clamped low", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			tone := Tone(8000, 1000, 100*time.Millisecond, tt.volume)
			if len(tone) != 800 {
				t.Fatalf("len = %d, want 800", len(tone))
			}

			var peak float64
			for _, s := range tone {
				peak = math.Max(peak, math.Abs(float64(s)))
			}
			if peak > tt.wantMax+1e-6 || peak < tt.wantMax*0.95 {
				t.Errorf("peak = %f, want about %f", peak, tt.wantMax)
			}
			if tone[0] != 0 || tone[len(tone)-1] != 0 {
				t.Errorf("tone does not fade at the edges: %f ... %f", tone[0], tone[len(tone)-1])
			}
		})
	}
}

func TestToneShorterThanFade(t *testing.T) {
	tone := Tone(8000, 440, time.Millisecond, 1)
	if len(tone) != 8 {
		t.Fatalf("len = %d, want 8", len(tone))
	}
}
