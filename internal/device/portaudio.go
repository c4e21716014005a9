// Package device connects the engine to sound hardware through PortAudio.
package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/0xlemi/xentuner/internal/audio"
	"github.com/gordonklaus/portaudio"
)

// Errors
var (
	ErrStarted    = errors.New("audio stream already started")
	ErrNotStarted = errors.New("audio stream not started")
)

// StreamConfig describes the duplex stream to open.
type StreamConfig struct {
	SampleRate      float64
	FramesPerBuffer int
	Channels        int // used for both input and output
}

// Stream runs a Processor on a PortAudio duplex stream. Input is delivered
// non-interleaved and the processor fills the output buffers.
type Stream struct {
	mu        sync.Mutex
	cfg       StreamConfig
	proc      audio.Processor
	stream    duplex
	capturing bool
}

// duplex is the part of *portaudio.Stream the Stream drives.
type duplex interface {
	Start() error
	Stop() error
	Close() error
}

// PortAudio entry points, replaced in tests.
var (
	initialize = portaudio.Initialize
	terminate  = portaudio.Terminate
	openStream = func(cfg StreamConfig, callback func(in, out [][]float32)) (duplex, error) {
		stream, err := portaudio.OpenDefaultStream(
			cfg.Channels, // input channels
			cfg.Channels, // output channels
			cfg.SampleRate,
			cfg.FramesPerBuffer,
			callback,
		)
		if err != nil {
			return nil, err
		}
		return stream, nil
	}
)

// NewStream validates cfg for a stream driven by proc. PortAudio is not
// touched until Start.
func NewStream(cfg StreamConfig, proc audio.Processor) (*Stream, error) {
	if cfg.Channels < 1 {
		return nil, fmt.Errorf("stream needs at least one channel, got %d", cfg.Channels)
	}
	if proc == nil {
		return nil, errors.New("stream needs a processor")
	}

	return &Stream{cfg: cfg, proc: proc}, nil
}

// Start initializes PortAudio, opens the default input and output devices
// and starts the callback. PortAudio is released again if any step fails.
func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capturing {
		return ErrStarted
	}

	if err := initialize(); err != nil {
		return fmt.Errorf("initialize portaudio: %w", err)
	}

	stream, err := openStream(s.cfg, s.process)
	if err != nil {
		return errors.Join(fmt.Errorf("open stream: %w", err), terminateErr())
	}

	if err := stream.Start(); err != nil {
		return errors.Join(
			fmt.Errorf("start stream: %w", err),
			closeErr(stream),
			terminateErr(),
		)
	}

	s.stream = stream
	s.capturing = true
	return nil
}

// Stop ends the stream and releases PortAudio. The stream is closed and
// PortAudio terminated even when stopping fails, and the Stream can be
// started again afterwards.
func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.capturing {
		return ErrNotStarted
	}

	var stopErr error
	if err := s.stream.Stop(); err != nil {
		stopErr = fmt.Errorf("stop stream: %w", err)
	}
	err := errors.Join(stopErr, closeErr(s.stream), terminateErr())

	s.stream = nil
	s.capturing = false
	return err
}

func closeErr(stream duplex) error {
	if err := stream.Close(); err != nil {
		return fmt.Errorf("close stream: %w", err)
	}
	return nil
}

func terminateErr() error {
	if err := terminate(); err != nil {
		return fmt.Errorf("terminate portaudio: %w", err)
	}
	return nil
}

// IsCapturing returns true while the stream is running.
func (s *Stream) IsCapturing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capturing
}

// SampleRate returns the rate the stream was opened with.
func (s *Stream) SampleRate() float64 {
	return s.cfg.SampleRate
}

// process is the PortAudio callback. It runs on the audio thread.
func (s *Stream) process(in, out [][]float32) {
	s.proc.Process(in, out)
}

// Device describes an audio device.
type Device struct {
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
}

// Devices lists the devices PortAudio can see.
func Devices() ([]Device, error) {
	if err := initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	defer terminate()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		d := Device{
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
		}
		if info.HostApi != nil {
			d.HostAPI = info.HostApi.Name
		}
		devices = append(devices, d)
	}

	return devices, nil
}
