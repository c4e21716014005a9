// Package config holds the settings shared by every xentuner command.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/0xlemi/xentuner/internal/engine"
	"github.com/0xlemi/xentuner/internal/pitch"
	"github.com/0xlemi/xentuner/internal/scale"
	"github.com/0xlemi/xentuner/internal/tuning"
	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

// Correlator names accepted by --correlator.
const (
	CorrelatorDirect = "direct"
	CorrelatorFFT    = "fft"
)

var (
	ErrSampleRate = errors.New("sample rate must be positive")
	ErrFrames     = errors.New("frames per buffer must be positive")
	ErrBuffer     = errors.New("analysis buffer too short for the period range")
	ErrBase       = errors.New("base frequency must be positive")
	ErrHalfSize   = errors.New("map half size must be at least 1")
	ErrCapacity   = errors.New("scale capacity must be at least 1")
	ErrQuality    = errors.New("minimum quality must be in [0, 1]")
	ErrCorrelator = errors.New("unknown correlator")
	ErrLogLevel   = errors.New("unknown log level")
	ErrRealtime   = errors.New("correlator allocates and cannot run on the audio thread")
)

// Config is every tunable of the tuner.
type Config struct {
	SampleRate      float64
	FramesPerBuffer int
	BufferSize      int

	MinPeriod  int
	MaxPeriod  int // 0 means half the buffer
	MinQuality float64
	Correlator string

	BaseFrequency float64
	HalfSize      int
	MaxNotes      int
	ScalePath     string

	LogLevel string
	LogFile  string
}

// Default returns the settings the tuner ships with.
func Default() *Config {
	return &Config{
		SampleRate:      44100,
		FramesPerBuffer: 512,
		BufferSize:      engine.DefaultBufferSize,
		MinPeriod:       pitch.DefaultMinPeriod,
		MaxPeriod:       0,
		MinQuality:      pitch.DefaultMinQuality,
		Correlator:      CorrelatorDirect,
		BaseFrequency:   tuning.DefaultBaseFrequency,
		HalfSize:        tuning.DefaultHalfSize,
		MaxNotes:        scale.DefaultCapacity,
		LogLevel:        "info",
	}
}

// BindFlags registers the shared flags on fs, writing into c.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.Float64Var(&c.SampleRate, "sample-rate", c.SampleRate, "audio sample rate in Hz")
	fs.IntVar(&c.FramesPerBuffer, "frames", c.FramesPerBuffer, "frames per audio callback")
	fs.IntVar(&c.BufferSize, "buffer", c.BufferSize, "analysis window in samples")
	fs.IntVar(&c.MinPeriod, "min-period", c.MinPeriod, "shortest period searched, in samples")
	fs.IntVar(&c.MaxPeriod, "max-period", c.MaxPeriod, "longest period searched, in samples (0 = half the window)")
	fs.Float64Var(&c.MinQuality, "min-quality", c.MinQuality, "reject pitches whose correlation peak is below this")
	fs.StringVar(&c.Correlator, "correlator", c.Correlator, "autocorrelation method: direct or fft (fft is for table and probe only)")
	fs.Float64Var(&c.BaseFrequency, "base", c.BaseFrequency, "base frequency of the tuning map in Hz")
	fs.IntVar(&c.HalfSize, "half-size", c.HalfSize, "map entries on each side of the base")
	fs.IntVar(&c.MaxNotes, "max-notes", c.MaxNotes, "largest scale accepted")
	fs.StringVarP(&c.ScalePath, "scale", "s", c.ScalePath, "Scala .scl file to load")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "write logs to this file")
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.SampleRate <= 0 || math.IsNaN(c.SampleRate) || math.IsInf(c.SampleRate, 0):
		return fmt.Errorf("%w: %v", ErrSampleRate, c.SampleRate)
	case c.FramesPerBuffer <= 0:
		return fmt.Errorf("%w: %d", ErrFrames, c.FramesPerBuffer)
	case c.BaseFrequency <= 0 || math.IsNaN(c.BaseFrequency) || math.IsInf(c.BaseFrequency, 0):
		return fmt.Errorf("%w: %v", ErrBase, c.BaseFrequency)
	case c.HalfSize < 1:
		return fmt.Errorf("%w: %d", ErrHalfSize, c.HalfSize)
	case c.MaxNotes < 1:
		return fmt.Errorf("%w: %d", ErrCapacity, c.MaxNotes)
	case c.MinQuality < 0 || c.MinQuality > 1:
		return fmt.Errorf("%w: %v", ErrQuality, c.MinQuality)
	}

	if _, err := c.correlator(); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %q", ErrLogLevel, c.LogLevel)
	}

	pc, err := c.PitchConfig()
	if err != nil {
		return err
	}
	if pc.MinPeriod < 2 || pc.MaxPeriod < pc.MinPeriod || pc.MaxPeriod+1 >= c.BufferSize {
		return fmt.Errorf("%w: buffer %d, periods %d..%d", ErrBuffer, c.BufferSize, pc.MinPeriod, pc.MaxPeriod)
	}
	return nil
}

// ValidateRealtime is Validate plus the checks for running the estimator
// inside the audio callback. Only the direct correlator works without
// allocating.
func (c *Config) ValidateRealtime() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.EqualFold(c.Correlator, CorrelatorFFT) {
		return fmt.Errorf("%w: %q", ErrRealtime, c.Correlator)
	}
	return nil
}

// PitchConfig builds the estimator settings.
func (c *Config) PitchConfig() (pitch.Config, error) {
	corr, err := c.correlator()
	if err != nil {
		return pitch.Config{}, err
	}

	pc := pitch.DefaultConfig(c.BufferSize)
	pc.MinPeriod = c.MinPeriod
	if c.MaxPeriod > 0 {
		pc.MaxPeriod = c.MaxPeriod
	}
	pc.MinQuality = c.MinQuality
	pc.Correlator = corr
	return pc, nil
}

// ProcessorConfig builds the engine settings.
func (c *Config) ProcessorConfig() (engine.ProcessorConfig, error) {
	pc, err := c.PitchConfig()
	if err != nil {
		return engine.ProcessorConfig{}, err
	}
	return engine.ProcessorConfig{
		SampleRate: c.SampleRate,
		BufferSize: c.BufferSize,
		Pitch:      pc,
	}, nil
}

// ScaleOptions returns the options every scale is built with.
func (c *Config) ScaleOptions() []scale.Option {
	return []scale.Option{scale.WithCapacity(c.MaxNotes)}
}

// Logger builds the logger described by LogLevel and LogFile. When quiet is
// set and no log file is configured, log output is discarded so it cannot
// draw over a full screen UI. The returned closer releases the log file.
func (c *Config) Logger(stderr io.Writer, quiet bool) (*log.Logger, io.Closer, error) {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrLogLevel, c.LogLevel)
	}

	w := stderr
	var closer io.Closer = nopCloser{}
	switch {
	case c.LogFile != "":
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	case quiet:
		w = io.Discard
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "xentuner",
	})
	return logger, closer, nil
}

func (c *Config) correlator() (pitch.Correlator, error) {
	switch strings.ToLower(c.Correlator) {
	case CorrelatorDirect, "":
		return pitch.Direct{}, nil
	case CorrelatorFFT:
		return pitch.FFT{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrCorrelator, c.Correlator)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
