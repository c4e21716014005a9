// Package tuning expands a scale into a dense frequency/degree lookup table
// centered on a base frequency.
package tuning

import (
	"errors"
	"fmt"
	"math"

	"github.com/0xlemi/xentuner/internal/scale"
)

const (
	// DefaultBaseFrequency is middle C in 12-TET with A4 = 440 Hz.
	DefaultBaseFrequency = 261.625565300599

	// DefaultHalfSize is the number of slots below the center.
	DefaultHalfSize = 1024
)

// Errors
var (
	ErrNoScale  = errors.New("tuning map needs a scale")
	ErrBase     = errors.New("base frequency must be positive and finite")
	ErrHalfSize = errors.New("half size must be at least 1")
	ErrRange    = errors.New("tuning map frequencies out of range")
)

// Entry is one slot of the map.
type Entry struct {
	Frequency float64 // Hz
	Degree    int     // scale degree within its period, 0 at the center
}

// Map is a read-only table of 2*H entries with the base frequency at index
// H. Frequencies strictly increase with the index.
type Map struct {
	entries []Entry
	center  int
	base    float64
	scale   *scale.Scale
}

// Generate builds the map for s around base with DefaultHalfSize.
func Generate(s *scale.Scale, base float64) (*Map, error) {
	return GenerateSize(s, base, DefaultHalfSize)
}

// GenerateSize builds the map with half entries below the center and
// half-1 entries above it.
//
// Walking away from the center, each step applies the next cents offset of
// the scale to the current period base. When a full period has been walked
// the period base moves to the frequency just produced, so successive periods
// compound on each other.
func GenerateSize(s *scale.Scale, base float64, half int) (*Map, error) {
	if s == nil {
		return nil, ErrNoScale
	}
	if base <= 0 || math.IsNaN(base) || math.IsInf(base, 0) {
		return nil, fmt.Errorf("%w: %v", ErrBase, base)
	}
	if half < 1 {
		return nil, fmt.Errorf("%w: %d", ErrHalfSize, half)
	}

	notes := s.Notes()
	entries := make([]Entry, 2*half)
	entries[half] = Entry{Frequency: base, Degree: 0}

	// Downward from the center
	periodBase := base
	k := 0
	for i := half - 1; i >= 0; i-- {
		f := periodBase / math.Exp2(s.Cents(k)/1200)
		entries[i] = Entry{Frequency: f, Degree: notes - (k + 1)}

		k++
		if k == notes {
			k = 0
			periodBase = f
		}
	}

	// Upward from the center
	periodBase = base
	k = 0
	for i := half + 1; i < len(entries); i++ {
		f := periodBase * math.Exp2(s.Cents(k)/1200)
		entries[i] = Entry{Frequency: f, Degree: k + 1}

		k++
		if k == notes {
			k = 0
			periodBase = f
		}
	}

	// Wide periods over many slots can leave float64 range at either end
	for i, e := range entries {
		if e.Frequency <= 0 || math.IsInf(e.Frequency, 0) || math.IsNaN(e.Frequency) {
			return nil, fmt.Errorf("%w: entry %d is %v Hz", ErrRange, i, e.Frequency)
		}
		if i > 0 && e.Frequency <= entries[i-1].Frequency {
			return nil, fmt.Errorf("%w: entry %d does not rise above %v Hz", ErrRange, i, entries[i-1].Frequency)
		}
	}

	return &Map{
		entries: entries,
		center:  half,
		base:    base,
		scale:   s,
	}, nil
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.entries)
}

// Center returns the index of the base frequency.
func (m *Map) Center() int {
	return m.center
}

// Base returns the base frequency.
func (m *Map) Base() float64 {
	return m.base
}

// Scale returns the scale the map was generated from.
func (m *Map) Scale() *scale.Scale {
	return m.scale
}

// At returns entry i.
func (m *Map) At(i int) Entry {
	return m.entries[i]
}

// IsCenter reports whether i is the base entry.
func (m *Map) IsCenter(i int) bool {
	return i == m.center
}

// Nearest returns the index whose frequency is closest to freq. The whole
// table is scanned and the first of equally close entries wins, so
// frequencies outside the table's span clamp to index 0 or the last index.
// It returns -1 for non-positive or non-finite input.
func (m *Map) Nearest(freq float64) int {
	if freq <= 0 || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return -1
	}

	best := 0
	bestDiff := math.Abs(freq - m.entries[0].Frequency)
	for i := 1; i < len(m.entries); i++ {
		diff := math.Abs(freq - m.entries[i].Frequency)
		if diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}

	return best
}

// Steps returns the cents distance from entry i down to its lower neighbour
// and up to its upper neighbour. ok is false at either end of the table.
func (m *Map) Steps(i int) (prevCents, nextCents float64, ok bool) {
	if i <= 0 || i >= len(m.entries)-1 {
		return 0, 0, false
	}

	f := m.entries[i].Frequency
	prevCents = 1200 * math.Log2(f/m.entries[i-1].Frequency)
	nextCents = 1200 * math.Log2(m.entries[i+1].Frequency/f)
	return prevCents, nextCents, true
}
