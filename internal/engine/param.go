package engine

import (
	"sync/atomic"

	"github.com/0xlemi/xentuner/internal/meter"
)

// MeterParamID identifies the meter parameter to the host.
const MeterParamID uint32 = 0

// Parameter is an integer host parameter with lock-free access.
type Parameter struct {
	ID      uint32
	Name    string
	Unit    string
	Min     int
	Max     int
	Default int

	value atomic.Int32
}

// NewMeterParam returns the "Meter" parameter spanning every needle position.
func NewMeterParam() *Parameter {
	p := &Parameter{
		ID:      MeterParamID,
		Name:    "Meter",
		Unit:    "Meter_Level",
		Min:     0,
		Max:     meter.Positions - 1,
		Default: meter.CenterPosition,
	}
	p.value.Store(int32(p.Default))
	return p
}

// Value returns the current plain value.
func (p *Parameter) Value() int {
	return int(p.value.Load())
}

// Set stores v clamped to [Min, Max].
func (p *Parameter) Set(v int) {
	if v < p.Min {
		v = p.Min
	} else if v > p.Max {
		v = p.Max
	}
	p.value.Store(int32(v))
}

// Normalized returns the value mapped to [0, 1].
func (p *Parameter) Normalized() float64 {
	if p.Max <= p.Min {
		return 0
	}
	return float64(p.Value()-p.Min) / float64(p.Max-p.Min)
}
