// Package pitch estimates the fundamental period of a sample window with a
// normalized autocorrelation search.
package pitch

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultMinPeriod is the shortest period searched, in samples.
	DefaultMinPeriod = 10

	// DefaultOctaveThreshold is the fraction of the peak strength every
	// submultiple must reach before a shorter period is accepted.
	DefaultOctaveThreshold = 0.90

	// DefaultMinQuality rejects the weak correlation peaks found in noise.
	// Clean periodic input peaks near 1.
	DefaultMinQuality = 0.5

	// interpolation denominators below this are treated as flat
	flatEpsilon = 1e-12
)

// Errors
var (
	ErrWindow      = errors.New("sample window length mismatch")
	ErrPeriodRange = errors.New("invalid period search range")
	ErrThreshold   = errors.New("octave threshold must be in (0, 1]")
)

// Result is the outcome of one estimate. A zero Period means no pitch was
// found.
type Result struct {
	Period  float64 // fractional samples
	Quality float64 // normalized autocorrelation at the chosen peak
}

// Voiced reports whether a period was found.
func (r Result) Voiced() bool {
	return r.Period > 0
}

// Frequency converts the period to Hz. It returns 0 when unvoiced.
func (r Result) Frequency(sampleRate float64) float64 {
	if r.Period <= 0 {
		return 0
	}
	return sampleRate / r.Period
}

// Config holds the estimator's search parameters.
type Config struct {
	MinPeriod int
	MaxPeriod int

	// OctaveThreshold scales the peak strength for the submultiple test.
	OctaveThreshold float64

	// MinQuality rejects peaks weaker than this. Zero accepts any peak.
	MinQuality float64

	// Correlator computes the lag products. Nil selects Direct.
	Correlator Correlator
}

// DefaultConfig searches periods from DefaultMinPeriod to half the window and
// rejects peaks weaker than DefaultMinQuality.
func DefaultConfig(window int) Config {
	return Config{
		MinPeriod:       DefaultMinPeriod,
		MaxPeriod:       window / 2,
		OctaveThreshold: DefaultOctaveThreshold,
		MinQuality:      DefaultMinQuality,
	}
}

// Estimator runs the period search over windows of a fixed length. All
// scratch space is allocated up front, so Estimate does not allocate when
// the correlator doesn't.
type Estimator struct {
	cfg    Config
	window int
	lo, hi int // computed lag range, MinPeriod-1 .. MaxPeriod+1

	prefix []float64 // running sum of squares, len window+1
	corr   []float64 // raw lag products
	nac    []float64 // normalized values, indexed by lag-lo
}

// NewEstimator validates cfg for windows of the given length.
func NewEstimator(window int, cfg Config) (*Estimator, error) {
	if cfg.MinPeriod < 2 || cfg.MaxPeriod < cfg.MinPeriod {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrPeriodRange, cfg.MinPeriod, cfg.MaxPeriod)
	}
	// The longest lag still needs at least one overlapping sample
	if cfg.MaxPeriod+1 >= window {
		return nil, fmt.Errorf("%w: max period %d for window %d", ErrPeriodRange, cfg.MaxPeriod, window)
	}
	if cfg.OctaveThreshold <= 0 || cfg.OctaveThreshold > 1 {
		return nil, fmt.Errorf("%w: %v", ErrThreshold, cfg.OctaveThreshold)
	}
	if cfg.Correlator == nil {
		cfg.Correlator = Direct{}
	}

	lo, hi := cfg.MinPeriod-1, cfg.MaxPeriod+1
	return &Estimator{
		cfg:    cfg,
		window: window,
		lo:     lo,
		hi:     hi,
		prefix: make([]float64, window+1),
		corr:   make([]float64, hi-lo+1),
		nac:    make([]float64, hi-lo+1),
	}, nil
}

// Window returns the expected window length.
func (e *Estimator) Window() int {
	return e.window
}

// Config returns the active configuration.
func (e *Estimator) Config() Config {
	return e.cfg
}

// NAC returns the normalized autocorrelation at lag p from the last
// Estimate call, or 0 outside the searched range.
func (e *Estimator) NAC(p int) float64 {
	if p < e.lo || p > e.hi {
		return 0
	}
	return e.nac[p-e.lo]
}

// Estimate searches x for its fundamental period.
func (e *Estimator) Estimate(x []float64) (Result, error) {
	if len(x) != e.window {
		return Result{}, fmt.Errorf("%w: got %d, want %d", ErrWindow, len(x), e.window)
	}

	e.normalize(x)

	minP, maxP := e.cfg.MinPeriod, e.cfg.MaxPeriod

	// Strongest lag in range, first occurrence wins
	best := minP
	for p := minP + 1; p <= maxP; p++ {
		if e.NAC(p) > e.NAC(best) {
			best = p
		}
	}

	left, mid, right := e.NAC(best-1), e.NAC(best), e.NAC(best+1)

	// The true period lies outside the range if the maximum sits on a slope
	if !(mid > left && mid > right) {
		return Result{}, nil
	}
	if mid < e.cfg.MinQuality {
		return Result{}, nil
	}

	period := float64(best)
	if den := 2*mid - left - right; math.Abs(den) > flatEpsilon {
		period += 0.5 * (right - left) / den
	}

	period /= float64(e.octaveDivisor(best, period, mid))

	return Result{Period: period, Quality: mid}, nil
}

// normalize fills e.nac for every lag in [lo, hi].
func (e *Estimator) normalize(x []float64) {
	n := len(x)

	e.prefix[0] = 0
	for i, v := range x {
		e.prefix[i+1] = e.prefix[i] + v*v
	}

	e.cfg.Correlator.Correlate(e.corr, x, e.lo, e.hi)

	for p := e.lo; p <= e.hi; p++ {
		head := e.prefix[n-p]
		tail := e.prefix[n] - e.prefix[p]

		d := head * tail
		if d <= 0 {
			e.nac[p-e.lo] = 0
			continue
		}
		e.nac[p-e.lo] = e.corr[p-e.lo] / math.Sqrt(d)
	}
}

// octaveDivisor finds the largest mul for which period/mul explains the
// peak: every k*period/mul position must be nearly as strong as the peak.
func (e *Estimator) octaveDivisor(best int, period, peak float64) int {
	floor := e.cfg.OctaveThreshold * peak

	for mul := best / e.cfg.MinPeriod; mul > 1; mul-- {
		strong := true
		for k := 1; k < mul; k++ {
			p := int(math.Round(float64(k) * period / float64(mul)))
			if p < e.lo || p > e.hi || e.NAC(p) < floor {
				strong = false
				break
			}
		}
		if strong {
			return mul
		}
	}

	return 1
}
