// SPDX-License-Identifier: MIT
package detector

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a complete string of shots.
type Summary struct {
	Shots        int           // Number of shots in the string.
	Total        time.Duration // Time of the last shot.
	FirstShot    time.Duration // Time from start to the first shot.
	MeanSplit    time.Duration // Mean split between consecutive shots.
	StdDevSplit  time.Duration // Sample standard deviation of the splits, 0 with fewer than two splits.
	FastestSplit time.Duration // Shortest split between consecutive shots.
}

// Summarize computes string statistics. The first event's split is the time
// from start and is reported as FirstShot rather than counted among the splits.
func Summarize(events []ShotEvent) Summary {
	if len(events) == 0 {
		return Summary{}
	}

	s := Summary{
		Shots:     len(events),
		Total:     events[len(events)-1].Time(),
		FirstShot: events[0].Split(),
	}

	splits := make([]float64, 0, len(events)-1)
	for _, e := range events[1:] {
		splits = append(splits, float64(e.SplitMillis))
	}
	if len(splits) == 0 {
		return s
	}

	s.MeanSplit = millis(stat.Mean(splits, nil))
	s.FastestSplit = millis(floats.Min(splits))
	if len(splits) > 1 {
		s.StdDevSplit = millis(stat.StdDev(splits, nil))
	}
	return s
}

func millis(v float64) time.Duration {
	return time.Duration(v * float64(time.Millisecond))
}
