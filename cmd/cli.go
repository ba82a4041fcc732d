// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"shottimer/internal/config"
	"shottimer/internal/detector"
	"shottimer/pkg/build"
)

// Commands selected by ParseArgs. An empty Command means cobra already
// handled the invocation (help or version output).
const (
	CommandRun    = "run"
	CommandList   = "list"
	CommandDetect = "detect"
)

// Invocation is the parsed command line.
type Invocation struct {
	Command string
	Options Options
	Detect  DetectOptions
	Files   []string
}

// Options are the flags of the interactive timer.
type Options struct {
	ConfigFile      string
	DeviceID        int
	SampleRate      int
	FramesPerBuffer int
	Sensitivity     int
	Verbose         bool
	Fake            bool

	changed map[string]bool
}

// Apply copies every flag given on the command line over cfg.
func (o Options) Apply(cfg *config.Config) {
	if o.changed["device"] {
		cfg.Audio.InputDevice = o.DeviceID
	}
	if o.changed["sample-rate"] {
		cfg.Audio.SampleRate = o.SampleRate
	}
	if o.changed["frames-per-buffer"] {
		cfg.Audio.FramesPerBuffer = o.FramesPerBuffer
	}
	if o.Verbose {
		cfg.Debug = true
		cfg.LogLevel = "DEBUG"
	}
	if o.Fake {
		cfg.Detector.ForceSynthetic = true
	}
}

// SensitivityOverride returns the --sensitivity value if it was given.
func (o Options) SensitivityOverride() (int, bool) {
	return o.Sensitivity, o.changed["sensitivity"]
}

// ParseArgs builds the command tree and parses args.
func ParseArgs(args []string) (*Invocation, error) {
	buildInfo := build.GetBuildFlags()
	inv := &Invocation{}
	options := &inv.Options

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.String(),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			inv.Command = CommandRun
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			inv.Command = CommandList
		},
	}
	rootCmd.AddCommand(listCmd)

	// Detect command
	detectCmd := &cobra.Command{
		Use:   "detect <file>...",
		Short: "Detect shots in raw 16-bit PCM or WAV recordings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if inv.Detect.Chunk < 2 {
				return fmt.Errorf("%w, got %d", ErrInvalidChunk, inv.Detect.Chunk)
			}
			inv.Command = CommandDetect
			inv.Files = args
			return nil
		},
	}
	detectCmd.Flags().IntVar(&inv.Detect.Chunk, "chunk", DefaultDetectChunk,
		"Bytes fed to the detector per call")
	detectCmd.Flags().IntVar(&inv.Detect.SampleRate, "sample-rate", DefaultDetectSampleRate,
		"Sample rate of raw files, measured in Hertz (Hz); WAV files use their header")
	detectCmd.Flags().IntVar(&inv.Detect.Sensitivity, "sensitivity", DefaultDetectSensitivity,
		"Loud samples beyond the first needed for a shot")
	detectCmd.Flags().Int32Var(&inv.Detect.Threshold, "threshold", detector.DefaultThreshold,
		"Amplitude a sample must exceed to count as loud")
	detectCmd.Flags().DurationVar(&inv.Detect.StartupBlackout, "blackout", config.DefaultStartupBlackout,
		"Audio ignored at the start of each file")
	rootCmd.AddCommand(detectCmd)

	// Configuration
	rootCmd.PersistentFlags().StringVarP(&options.ConfigFile, "config", "f", "",
		"Configuration file. Defaults to config.yaml or shottimer.yaml when present.")
	rootCmd.PersistentFlags().BoolVarP(&options.Verbose, "verbose", "v", false,
		"Show verbose output")

	// Audio Device Configuration
	rootCmd.Flags().IntVarP(&options.DeviceID, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	rootCmd.Flags().IntVarP(&options.SampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz). 0 probes common rates.")
	rootCmd.Flags().IntVarP(&options.FramesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")

	// Detection
	rootCmd.Flags().IntVar(&options.Sensitivity, "sensitivity", config.DefaultSensitivity,
		"Loud samples beyond the first needed for a shot; saved to the settings file")
	rootCmd.Flags().BoolVar(&options.Fake, "fake", false,
		"Produce synthetic shots instead of listening to the microphone")

	// Execute the CLI. cobra reads os.Args when given nil.
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	options.changed = make(map[string]bool)
	for _, name := range []string{"device", "sample-rate", "frames-per-buffer", "sensitivity"} {
		options.changed[name] = rootCmd.Flags().Changed(name)
	}
	return inv, nil
}
