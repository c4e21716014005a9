package scale

import (
	"errors"
	"fmt"
	"math"
)

// DefaultCapacity is the largest note count accepted unless a scale is
// built with WithCapacity.
const DefaultCapacity = 24

// Errors
var (
	ErrEmpty         = errors.New("scale has no notes")
	ErrCapacity      = errors.New("scale exceeds note capacity")
	ErrNotIncreasing = errors.New("scale pitches must be strictly increasing")
	ErrNonPositive   = errors.New("scale pitches must be above the base")
	ErrNotFinite     = errors.New("scale pitches must be finite")
)

// Scale is a tuning scale described by the cents offset of every degree
// above the base. The last offset is the size of the repeating period.
// A Scale is never modified after construction.
type Scale struct {
	label string
	cents []float64
}

type options struct {
	capacity int
}

// Option configures scale construction.
type Option func(*options)

// WithCapacity overrides DefaultCapacity.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

func applyOptions(opts []Option) options {
	o := options{capacity: DefaultCapacity}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// New validates cents and returns a Scale holding its own copy of them.
func New(label string, cents []float64, opts ...Option) (*Scale, error) {
	o := applyOptions(opts)

	if len(cents) == 0 {
		return nil, ErrEmpty
	}
	if len(cents) > o.capacity {
		return nil, fmt.Errorf("%w: %d notes, capacity %d", ErrCapacity, len(cents), o.capacity)
	}

	prev := 0.0
	for i, c := range cents {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: degree %d is %v", ErrNotFinite, i+1, c)
		}
		if i == 0 && c <= 0 {
			return nil, fmt.Errorf("%w: degree 1 is %.4f cents", ErrNonPositive, c)
		}
		if i > 0 && c <= prev {
			return nil, fmt.Errorf("%w: degree %d (%.4f) after %.4f", ErrNotIncreasing, i+1, c, prev)
		}
		prev = c
	}

	owned := make([]float64, len(cents))
	copy(owned, cents)

	return &Scale{label: label, cents: owned}, nil
}

// EDO returns the equal division of the 1200 cent octave into n steps.
func EDO(n int, opts ...Option) (*Scale, error) {
	if n <= 0 {
		return nil, ErrEmpty
	}

	step := 1200.0 / float64(n)
	cents := make([]float64, n)
	for i := range cents {
		cents[i] = step * float64(i+1)
	}

	return New(fmt.Sprintf("%d-EDO", n), cents, opts...)
}

// Default returns the built-in fallback scale, 24-EDO.
func Default() *Scale {
	s, err := EDO(24)
	if err != nil {
		// 24 steps always fit DefaultCapacity
		panic(err)
	}
	return s
}

// Label returns the display label.
func (s *Scale) Label() string {
	return s.label
}

// Notes returns the number of degrees per period.
func (s *Scale) Notes() int {
	return len(s.cents)
}

// Cents returns the offset of degree i+1 above the base.
func (s *Scale) Cents(i int) float64 {
	return s.cents[i]
}

// Period returns the size of the repeating period in cents.
func (s *Scale) Period() float64 {
	return s.cents[len(s.cents)-1]
}

// Offsets returns a copy of all cents offsets.
func (s *Scale) Offsets() []float64 {
	out := make([]float64, len(s.cents))
	copy(out, s.cents)
	return out
}
