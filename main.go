// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"shottimer/cmd"
	"shottimer/internal/audio"
	"shottimer/internal/config"
	"shottimer/internal/log"
	"shottimer/internal/pipeline"
	"shottimer/internal/transport"
	"shottimer/internal/transport/udp"
	"shottimer/internal/tui"
	"shottimer/pkg/build"
)

// main is the entry point for the shot timer.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase:
//   - Initialize build information
//   - Parse command line arguments
//   - Execute one-off commands (list, detect)
//   - Load configuration and settings, wire the pipeline
//
// 2. Session Phase:
//   - Run the timer screen; sessions start and end from it
//   - Supervise sessions with the watchdog
//   - Publish shots to the configured transports
//
// 3. Shutdown Phase:
//   - Handle quit or termination signals
//   - End the running session and release audio and network resources
func main() {
	// ==================== STARTUP PHASE ====================

	buildErr := build.Initialize()

	inv, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}
	if inv.Options.Verbose {
		log.SetLevel(log.LevelDebug)
	}
	if buildErr != nil {
		log.Debugf("development build: %v", buildErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch inv.Command {
	case cmd.CommandList:
		err = audio.ListDevices(os.Stdout)
	case cmd.CommandDetect:
		err = cmd.Detect(ctx, os.Stdout, inv.Files, inv.Detect)
	case cmd.CommandRun:
		err = run(ctx, inv.Options)
	default:
		// Help or version output.
		return
	}
	if err != nil {
		stop()
		log.Fatalf("%v", err)
	}
}

// run drives the interactive timer until the user quits or ctx is cancelled.
func run(ctx context.Context, opts cmd.Options) error {
	cfg, err := config.LoadConfig(opts.ConfigFile)
	if err != nil {
		return err
	}
	opts.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid command line: %w", err)
	}
	level, _ := log.ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = log.LevelDebug
	}
	log.SetLevel(level)

	// The timer owns the terminal, so logs go to a file beside the settings.
	logPath := filepath.Join(filepath.Dir(cfg.Session.SettingsFile), "shottimer.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)
	defer log.SetOutput(os.Stderr)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var program *tea.Program
	var buzzer pipeline.Buzzer
	if cfg.Buzzer.Enabled {
		buzzer = audio.NewPortAudioBuzzer(cfg.Buzzer.Frequency, cfg.Buzzer.Duration)
	}

	p, err := pipeline.New(pipeline.Config{
		Source:   audio.NewPortAudioSource(cfg.Audio.InputDevice, cfg.Audio.FramesPerBuffer, cfg.Audio.LowLatency, cfg.Audio.SampleRate),
		Buzzer:   buzzer,
		Settings: config.NewFileStore(cfg.Session.SettingsFile),
		// Sessions are only started from the program, so it exists by the time this runs.
		Faults:          pipeline.FaultHandlerFunc(func(err error) { tui.FaultHandler(program).HandleFailure(err) }),
		Threshold:       cfg.Detector.Threshold,
		StartupBlackout: cfg.Detector.StartupBlackout,
		ForceSynthetic:  cfg.Detector.ForceSynthetic,
	})
	if err != nil {
		return err
	}
	defer p.Close()

	if s, ok := opts.SensitivityOverride(); ok {
		if err := p.SetSensitivity(s); err != nil {
			return err
		}
	}

	publisher, err := newPublisher(cfg.Transport, p.SessionID)
	if err != nil {
		return err
	}
	p.AddListener(publisher)

	program = tui.NewProgram(ctx, p)
	p.AddListener(tui.Listener(program, p.SessionID))

	// ==================== SESSION PHASE ====================

	watchdog := pipeline.NewWatchdog(p, cfg.Session.WatchdogInterval, cfg.Session.MaxDuration)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		if err := watchdog.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	err = g.Wait()

	// ==================== SHUTDOWN PHASE ====================

	return errors.Join(err, p.Close(), publisher.Close())
}

// newPublisher builds the transports enabled in cfg. Shots are always logged.
func newPublisher(cfg config.TransportConfig, sessionID func() string) (*transport.Publisher, error) {
	transports := []transport.Transport{transport.NewLoggingTransport()}

	if cfg.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(cfg.WebSocketAddress)
		if err != nil {
			return nil, err
		}
		transports = append(transports, ws)
	}
	if cfg.UDPEnabled {
		u, err := udp.NewShotTransport(cfg.UDPTargetAddress)
		if err != nil {
			for _, t := range transports {
				t.Close()
			}
			return nil, err
		}
		transports = append(transports, u)
	}

	return transport.NewPublisher(sessionID, transports...), nil
}
