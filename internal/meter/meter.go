// Package meter maps a cents deviation onto the 41 positions of a tuning
// needle, scaled by the distance to the neighbouring scale steps.
package meter

import "math"

const (
	// Positions is the number of discrete needle positions.
	Positions = 41

	// CenterPosition is the in-tune needle position.
	CenterPosition = 20

	// Center is the normalized in-tune value.
	Center = 0.5

	// DeadZone is the deviation, in cents, treated as in tune.
	DeadZone = 1.0

	// SharpOffset is added to values on the sharp side of the needle.
	SharpOffset = 1.0 / 82

	span = Positions - 1
)

// Reading is a needle position and its normalized value in [0, 1].
type Reading struct {
	Position int
	Value    float64
}

// Centered is the in-tune reading.
var Centered = Reading{Position: CenterPosition, Value: Center}

// Map converts cents into a Reading. Sharp deviations are measured against
// nextCents, the step up to the next scale degree; flat deviations against
// prevCents, the step down to the previous one. A full step is a full
// needle swing.
func Map(cents, prevCents, nextCents float64) Reading {
	if math.IsNaN(cents) || math.Abs(cents) < DeadZone {
		return Centered
	}

	r := Centered
	if cents > 0 {
		for i := CenterPosition + 1; i <= span; i++ {
			threshold := nextCents / span * float64(i-CenterPosition)
			if cents < threshold {
				break
			}
			r = Reading{Position: i, Value: float64(i)/Positions + SharpOffset}
		}
		return r
	}

	for i := CenterPosition - 1; i >= 0; i-- {
		threshold := prevCents / span * float64(i-CenterPosition)
		if cents > threshold {
			break
		}
		r = Reading{Position: i, Value: float64(i) / Positions}
	}
	return r
}
