package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xlemi/xentuner/internal/config"
	"github.com/0xlemi/xentuner/internal/engine"
	"github.com/0xlemi/xentuner/internal/scale"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cfg := config.Default()

	root := &cobra.Command{
		Use:          "xentuner",
		Short:        "Microtonal tuner for arbitrary scales",
		Long:         "xentuner listens to an audio input, estimates its pitch and shows how far it is from the nearest degree of the loaded scale.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.Validate()
		},
		// With no subcommand, start listening
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListen(cmd, cfg)
		},
	}
	cfg.BindFlags(root.PersistentFlags())

	root.AddCommand(
		newListenCommand(cfg),
		newTableCommand(cfg),
		newProbeCommand(cfg),
		newDevicesCommand(),
	)
	return root
}

// applyScale installs the configured scale file, or the default scale when
// none is set. A file that cannot be read or parsed leaves the default scale
// in place and returns the error.
func applyScale(conf *engine.Configuration, cfg *config.Config) (string, error) {
	if cfg.ScalePath == "" {
		if err := conf.LoadDefault(); err != nil {
			return "", err
		}
		return "default scale loaded", nil
	}

	data, err := os.ReadFile(cfg.ScalePath)
	if err != nil {
		if derr := conf.LoadDefault(); derr != nil {
			return "", derr
		}
		return "", fmt.Errorf("read scale file: %w", err)
	}

	if err := conf.Import(string(data), scale.NewImporter(cfg.ScaleOptions()...)); err != nil {
		return "", fmt.Errorf("%s: %w", cfg.ScalePath, err)
	}
	return fmt.Sprintf("loaded %s", conf.Current().Scale.Label()), nil
}

// loadScale reads the configured scale file without installing it.
func loadScale(cfg *config.Config) (*scale.Scale, error) {
	if cfg.ScalePath == "" {
		return scale.Default(), nil
	}
	return scale.Load(cfg.ScalePath, cfg.ScaleOptions()...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
