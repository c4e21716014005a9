package engine

import (
	"fmt"

	"github.com/0xlemi/xentuner/internal/meter"
)

// BaseLabel names the center degree of the map.
const BaseLabel = "base"

// Snapshot is what the display layer sees after each analysis window.
// Formatting happens on the reader's side so the audio path does not
// allocate.
type Snapshot struct {
	Seq        uint64
	Deviation  Deviation
	LevelDB    float64
	ScaleLabel string
	Notes      int
}

// Empty reports whether nothing has been published yet.
func (s Snapshot) Empty() bool {
	return s.Seq == 0
}

// FrequencyText is the detected frequency, blank without a pitch.
func (s Snapshot) FrequencyText() string {
	if !s.Deviation.Voiced {
		return ""
	}
	return fmt.Sprintf("%.2f Hz", s.Deviation.FrequencyHz)
}

// DegreeText names the nearest degree and its frequency, or "base" at the
// center of the map. It is blank without a pitch.
func (s Snapshot) DegreeText() string {
	d := s.Deviation
	if !d.Voiced {
		return ""
	}
	if d.IsBase {
		return fmt.Sprintf("%s (%.2f Hz)", BaseLabel, d.NearestFrequencyHz)
	}
	return fmt.Sprintf("%d (%.2f Hz)", d.NearestDegree, d.NearestFrequencyHz)
}

// CentsText is the signed deviation, blank without a pitch.
func (s Snapshot) CentsText() string {
	if !s.Deviation.Voiced {
		return ""
	}
	return fmt.Sprintf("%+.1f cents", s.Deviation.CentsDeviation)
}

// MeterValue is the normalized needle position.
func (s Snapshot) MeterValue() float64 {
	if s.Empty() {
		return meter.Center
	}
	return s.Deviation.Meter.Value
}

// MeterPosition is the needle position in [0, 40].
func (s Snapshot) MeterPosition() int {
	if s.Empty() {
		return meter.CenterPosition
	}
	return s.Deviation.Meter.Position
}
