package audio

import (
	"fmt"
	"math"
	"math/rand"
)

// Synth generates a harmonic test tone block by block, keeping phase across
// blocks. Partial k sounds at k times the fundamental with amplitude 1/k.
type Synth struct {
	sampleRate float64
	freq       float64
	amplitude  float64
	partials   int
	noise      float64
	rng        *rand.Rand
	frame      int
}

// SynthOption configures a Synth.
type SynthOption func(*Synth)

// WithPartials sets how many harmonics sound, including the fundamental.
func WithPartials(n int) SynthOption {
	return func(s *Synth) {
		s.partials = n
	}
}

// WithAmplitude sets the peak amplitude of the summed partials.
func WithAmplitude(a float64) SynthOption {
	return func(s *Synth) {
		s.amplitude = a
	}
}

// WithNoise adds deterministic white noise of the given amplitude.
func WithNoise(amplitude float64, seed int64) SynthOption {
	return func(s *Synth) {
		s.noise = amplitude
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// NewSynth returns a single-partial tone at freq with amplitude 0.5.
func NewSynth(sampleRate, freq float64, opts ...SynthOption) (*Synth, error) {
	s := &Synth{
		sampleRate: sampleRate,
		freq:       freq,
		amplitude:  0.5,
		partials:   1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("synth sample rate must be > 0: %f", sampleRate)
	}
	if freq < 0 || freq >= sampleRate/2 {
		return nil, fmt.Errorf("synth frequency must be in [0, %f): %f", sampleRate/2, freq)
	}
	if s.partials < 1 {
		return nil, fmt.Errorf("synth partials must be >= 1: %d", s.partials)
	}
	return s, nil
}

// Fill writes the next len(dst[0]) frames to every channel of dst.
func (s *Synth) Fill(dst [][]float32) {
	if len(dst) == 0 {
		return
	}

	var norm float64
	for k := 1; k <= s.partials; k++ {
		norm += 1 / float64(k)
	}

	for i := range dst[0] {
		t := float64(s.frame) / s.sampleRate
		var v float64
		for k := 1; k <= s.partials; k++ {
			f := float64(k) * s.freq
			if f >= s.sampleRate/2 {
				break
			}
			v += math.Sin(2*math.Pi*f*t) / float64(k)
		}
		v *= s.amplitude / norm
		if s.rng != nil {
			v += s.noise * (2*s.rng.Float64() - 1)
		}

		for ch := range dst {
			if i < len(dst[ch]) {
				dst[ch][i] = float32(v)
			}
		}
		s.frame++
	}
}

// Frames returns how many frames have been generated.
func (s *Synth) Frames() int {
	return s.frame
}
