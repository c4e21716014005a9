package main

import (
	"fmt"
	"io"

	"github.com/0xlemi/xentuner/internal/audio"
	"github.com/0xlemi/xentuner/internal/config"
	"github.com/0xlemi/xentuner/internal/engine"
	"github.com/spf13/cobra"
)

type probeOptions struct {
	freq     float64
	partials int
	blocks   int
	noise    float64
	seed     int64
}

func newProbeCommand(cfg *config.Config) *cobra.Command {
	var opts probeOptions

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Run a synthetic tone through the tuner and print each analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closer, err := cfg.Logger(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer closer.Close()

			conf := engine.NewConfiguration(cfg.BaseFrequency, cfg.HalfSize, logger)
			if _, err := applyScale(conf, cfg); err != nil {
				logger.Warn("using default scale", "err", err)
			}
			return runProbe(cmd.OutOrStdout(), cfg, conf, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.freq, "freq", 440, "fundamental frequency in Hz")
	cmd.Flags().IntVar(&opts.partials, "partials", 1, "number of harmonics")
	cmd.Flags().IntVar(&opts.blocks, "blocks", 0, "audio blocks to process (0 = four analysis windows)")
	cmd.Flags().Float64Var(&opts.noise, "noise", 0, "white noise amplitude")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "noise seed")
	return cmd
}

func runProbe(w io.Writer, cfg *config.Config, conf *engine.Configuration, opts probeOptions) error {
	pcfg, err := cfg.ProcessorConfig()
	if err != nil {
		return err
	}
	proc, err := engine.NewProcessor(pcfg, conf)
	if err != nil {
		return fmt.Errorf("create processor: %w", err)
	}

	synthOpts := []audio.SynthOption{audio.WithPartials(opts.partials)}
	if opts.noise > 0 {
		synthOpts = append(synthOpts, audio.WithNoise(opts.noise, opts.seed))
	}
	synth, err := audio.NewSynth(cfg.SampleRate, opts.freq, synthOpts...)
	if err != nil {
		return err
	}

	blocks := opts.blocks
	if blocks <= 0 {
		blocks = (4*cfg.BufferSize + cfg.FramesPerBuffer - 1) / cfg.FramesPerBuffer
	}

	in := make([][]float32, channels)
	out := make([][]float32, channels)
	for ch := range in {
		in[ch] = make([]float32, cfg.FramesPerBuffer)
		out[ch] = make([]float32, cfg.FramesPerBuffer)
	}

	for b := 0; b < blocks; b++ {
		synth.Fill(in)
		proc.Process(in, out)
		if snap, fresh := proc.Snapshots().Read(); fresh {
			fmt.Fprintln(w, formatSnapshot(snap))
		}
	}
	return nil
}

func formatSnapshot(s engine.Snapshot) string {
	if !s.Deviation.Voiced {
		return fmt.Sprintf("#%d  no pitch  meter %2d  level %.1f dB", s.Seq, s.MeterPosition(), s.LevelDB)
	}
	return fmt.Sprintf("#%d  %s  degree %s  %s  meter %2d  quality %.3f  level %.1f dB",
		s.Seq,
		s.FrequencyText(),
		s.DegreeText(),
		s.CentsText(),
		s.MeterPosition(),
		s.Deviation.Quality,
		s.LevelDB,
	)
}
