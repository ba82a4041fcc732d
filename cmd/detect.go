// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"shottimer/internal/audio"
	"shottimer/internal/detector"
)

// Defaults of the detect command.
const (
	DefaultDetectChunk       = 1024
	DefaultDetectSampleRate  = 44100
	DefaultDetectSensitivity = 5
)

// ErrInvalidChunk is returned for chunks that cannot hold a 16-bit sample.
var ErrInvalidChunk = errors.New("chunk must be at least 2 bytes")

// DetectOptions are the flags of the detect command.
type DetectOptions struct {
	Chunk           int
	SampleRate      int
	Sensitivity     int
	Threshold       int32
	StartupBlackout time.Duration
}

// FileResult is the outcome of streaming one recording through a detector.
type FileResult struct {
	Path       string
	SampleRate int
	Samples    int64
	Events     []detector.ShotEvent
}

// DetectFile streams path through a fresh amplitude detector in chunks of opts.Chunk bytes.
func DetectFile(ctx context.Context, path string, opts DetectOptions) (FileResult, error) {
	if opts.Chunk < 2 {
		return FileResult{}, fmt.Errorf("%w, got %d", ErrInvalidChunk, opts.Chunk)
	}

	src := audio.NewFileSource(path, opts.SampleRate, opts.Chunk)
	format, err := src.Open()
	if err != nil {
		return FileResult{}, err
	}
	defer src.Close()

	det, err := detector.New(detector.KindAmplitude, format.SampleRate, detector.Settings{
		Sensitivity:     opts.Sensitivity,
		Threshold:       opts.Threshold,
		StartupBlackout: opts.StartupBlackout,
	})
	if err != nil {
		return FileResult{}, fmt.Errorf("%s: %w", path, err)
	}

	res := FileResult{Path: path, SampleRate: format.SampleRate}
	buf := make([]byte, format.BufferSize)
	for {
		n, err := src.Read(ctx, buf)
		res.Events = append(res.Events, det.ProcessAudio(buf[:n])...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return FileResult{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	res.Samples = det.CurrentSample()
	return res, nil
}

// Detect analyses files concurrently and writes one report per file to w,
// in argument order.
func Detect(ctx context.Context, w io.Writer, files []string, opts DetectOptions) error {
	results := make([]FileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range files {
		g.Go(func() error {
			res, err := DetectFile(ctx, path, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, res := range results {
		if err := writeReport(w, res); err != nil {
			return err
		}
	}
	return nil
}

func writeReport(w io.Writer, res FileResult) error {
	duration := time.Duration(res.Samples) * time.Second / time.Duration(max(res.SampleRate, 1))
	if _, err := fmt.Fprintf(w, "%s: %d shots in %.2fs of audio at %d Hz\n",
		res.Path, len(res.Events), duration.Seconds(), res.SampleRate); err != nil {
		return err
	}
	for _, e := range res.Events {
		if _, err := fmt.Fprintf(w, "  %s\n", e); err != nil {
			return err
		}
	}

	sum := detector.Summarize(res.Events)
	if sum.Shots == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "  total %.2f  first %.2f  avg split %.2f (sd %.2f)  best split %.2f\n",
		sum.Total.Seconds(), sum.FirstShot.Seconds(), sum.MeanSplit.Seconds(),
		sum.StdDevSplit.Seconds(), sum.FastestSplit.Seconds())
	return err
}
