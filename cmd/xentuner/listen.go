package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xlemi/xentuner/internal/config"
	"github.com/0xlemi/xentuner/internal/device"
	"github.com/0xlemi/xentuner/internal/engine"
	"github.com/0xlemi/xentuner/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Audio settings
const channels = 2

func newListenCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Tune live input against the loaded scale",
		Long: `Opens the default input and output devices, passes audio through and
shows the nearest scale degree and its deviation.

Keys: r reloads the scale file, d switches to the default scale, q quits.
Sending SIGHUP also reloads the scale file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListen(cmd, cfg)
		},
	}
}

func runListen(cmd *cobra.Command, cfg *config.Config) error {
	if err := cfg.ValidateRealtime(); err != nil {
		return err
	}

	// The UI owns the terminal, so logs only go to --log-file
	logger, closer, err := cfg.Logger(cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer closer.Close()

	conf := engine.NewConfiguration(cfg.BaseFrequency, cfg.HalfSize, logger)
	status, scaleErr := applyScale(conf, cfg)
	if scaleErr != nil {
		logger.Warn("using default scale", "err", scaleErr)
	}

	pcfg, err := cfg.ProcessorConfig()
	if err != nil {
		return err
	}
	proc, err := engine.NewProcessor(pcfg, conf)
	if err != nil {
		return fmt.Errorf("create processor: %w", err)
	}

	stream, err := device.NewStream(device.StreamConfig{
		SampleRate:      cfg.SampleRate,
		FramesPerBuffer: cfg.FramesPerBuffer,
		Channels:        channels,
	}, proc)
	if err != nil {
		return fmt.Errorf("create audio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		return fmt.Errorf("start audio stream: %w", err)
	}
	defer func() {
		if err := stream.Stop(); err != nil {
			logger.Error("stop audio stream", "err", err)
		}
	}()
	logger.Info("stream started",
		"sample_rate", cfg.SampleRate,
		"frames", cfg.FramesPerBuffer,
		"window", cfg.BufferSize,
		"correlator", cfg.Correlator,
	)

	reload := func() (string, error) {
		return applyScale(conf, cfg)
	}
	reset := func() (string, error) {
		if err := conf.LoadDefault(); err != nil {
			return "", err
		}
		return "default scale loaded", nil
	}

	model := ui.NewModel(proc.Snapshots(), reload, reset).
		WithStatus(ui.StatusMsg{Text: status, Err: scaleErr})
	p := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		return err
	})

	g.Go(func() error {
		return watchReload(ctx, logger, func() {
			text, err := reload()
			p.Send(ui.StatusMsg{Text: text, Err: err})
		})
	})

	return g.Wait()
}

// watchReload calls reload on every SIGHUP until ctx is done.
func watchReload(ctx context.Context, logger *log.Logger, reload func()) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			logger.Info("reloading scale", "signal", "SIGHUP")
			reload()
		}
	}
}
