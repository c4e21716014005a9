package audio

import (
	"math"
)

// SilenceDB is reported for windows with no measurable energy.
const SilenceDB = -100.0

// Processor handles one block of non-interleaved audio. len(in) and len(out)
// are channel counts; every channel slice holds the same number of frames.
type Processor interface {
	Process(in, out [][]float32)
}

// FrameBuffer accumulates analysis samples up to a fixed capacity. It never
// grows: appends to a full buffer are dropped until Reset.
type FrameBuffer struct {
	samples []float64
	n       int
}

// NewFrameBuffer creates an empty buffer holding capacity samples.
func NewFrameBuffer(capacity int) *FrameBuffer {
	return &FrameBuffer{samples: make([]float64, capacity)}
}

// Append adds one sample and reports whether the buffer is now full.
func (b *FrameBuffer) Append(v float64) bool {
	if b.n < len(b.samples) {
		b.samples[b.n] = v
		b.n++
	}
	return b.n == len(b.samples)
}

// Full returns true once Cap samples have been appended.
func (b *FrameBuffer) Full() bool {
	return b.n == len(b.samples)
}

// Len returns the number of samples held.
func (b *FrameBuffer) Len() int {
	return b.n
}

// Cap returns the buffer capacity.
func (b *FrameBuffer) Cap() int {
	return len(b.samples)
}

// Samples returns the filled part of the buffer. The slice is reused after
// Reset.
func (b *FrameBuffer) Samples() []float64 {
	return b.samples[:b.n]
}

// Reset empties the buffer.
func (b *FrameBuffer) Reset() {
	b.n = 0
}

// Level calculates the RMS and dB level of samples
func Level(samples []float64) (rms, db float64) {
	if len(samples) == 0 {
		return 0, SilenceDB
	}

	sumSquares := 0.0
	for _, sample := range samples {
		sumSquares += sample * sample
	}

	rms = math.Sqrt(sumSquares / float64(len(samples)))

	// Convert to dB with protection against log(0)
	if rms > 0.0000001 {
		db = 20 * math.Log10(rms)
	} else {
		db = SilenceDB
	}

	return rms, db
}
