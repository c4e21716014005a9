// Package engine runs the tuner pipeline inside the audio callback: it
// passes audio through, accumulates an analysis window, estimates its pitch
// and resolves the nearest degree of the active scale.
package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/0xlemi/xentuner/internal/audio"
	"github.com/0xlemi/xentuner/internal/meter"
	"github.com/0xlemi/xentuner/internal/pitch"
)

// DefaultBufferSize is the analysis window length in samples.
const DefaultBufferSize = 6144

var (
	ErrSampleRate = errors.New("sample rate must be positive")
	ErrNoConfig   = errors.New("processor needs a configuration")
)

// ProcessorConfig sets up a Processor.
type ProcessorConfig struct {
	SampleRate float64
	BufferSize int
	Pitch      pitch.Config
}

// DefaultProcessorConfig searches periods from 10 samples to half of a
// DefaultBufferSize window.
func DefaultProcessorConfig(sampleRate float64) ProcessorConfig {
	return ProcessorConfig{
		SampleRate: sampleRate,
		BufferSize: DefaultBufferSize,
		Pitch:      pitch.DefaultConfig(DefaultBufferSize),
	}
}

// Deviation is the analysis of one full window.
type Deviation struct {
	Voiced  bool
	Period  float64
	Quality float64

	FrequencyHz        float64
	NearestIndex       int
	NearestDegree      int
	NearestFrequencyHz float64
	IsBase             bool
	CentsDeviation     float64

	Meter meter.Reading
}

// MeterValue returns the normalized needle value.
func (d Deviation) MeterValue() float64 {
	return d.Meter.Value
}

// Processor is the per-stream pipeline. Process must not be called
// concurrently with itself; everything else it touches is either owned by
// the Processor or read through atomics.
type Processor struct {
	cfg     ProcessorConfig
	conf    *Configuration
	buf     *audio.FrameBuffer
	est     *pitch.Estimator
	param   *Parameter
	out     *TripleBuffer[Snapshot]
	reading meter.Reading
	last    Deviation
	seq     uint64
}

// NewProcessor builds a processor reading the map from conf. An
// unconfigured conf is given the default scale.
func NewProcessor(cfg ProcessorConfig, conf *Configuration) (*Processor, error) {
	if cfg.SampleRate <= 0 || math.IsNaN(cfg.SampleRate) {
		return nil, fmt.Errorf("%w: %v", ErrSampleRate, cfg.SampleRate)
	}
	if conf == nil {
		return nil, ErrNoConfig
	}

	est, err := pitch.NewEstimator(cfg.BufferSize, cfg.Pitch)
	if err != nil {
		return nil, fmt.Errorf("create estimator: %w", err)
	}

	if conf.State() == Unconfigured {
		if err := conf.LoadDefault(); err != nil {
			return nil, err
		}
	}

	return &Processor{
		cfg:     cfg,
		conf:    conf,
		buf:     audio.NewFrameBuffer(cfg.BufferSize),
		est:     est,
		param:   NewMeterParam(),
		out:     NewTripleBuffer[Snapshot](),
		reading: meter.Centered,
		last:    Deviation{Meter: meter.Centered},
	}, nil
}

// Process copies in to out unchanged and feeds the first input channel to
// the analysis window. Output channels without a matching input are
// silenced.
func (p *Processor) Process(in, out [][]float32) {
	for ch := range out {
		if ch < len(in) {
			copy(out[ch], in[ch])
		} else {
			clear(out[ch])
		}
	}

	if len(in) == 0 {
		return
	}

	for _, v := range in[0] {
		if p.buf.Append(float64(v)) {
			p.analyze()
		}
	}
}

// Snapshots returns the handoff the display reads from.
func (p *Processor) Snapshots() *TripleBuffer[Snapshot] {
	return p.out
}

// MeterParam returns the host-visible meter parameter.
func (p *Processor) MeterParam() *Parameter {
	return p.param
}

// Last returns the most recent analysis. It is only safe to call from the
// goroutine that calls Process.
func (p *Processor) Last() Deviation {
	return p.last
}

// Buffered returns how many samples the current window holds.
func (p *Processor) Buffered() int {
	return p.buf.Len()
}

func (p *Processor) analyze() {
	samples := p.buf.Samples()
	_, levelDB := audio.Level(samples)

	res, err := p.est.Estimate(samples)
	p.buf.Reset()
	if err != nil {
		// Window length is fixed at construction, so this only guards
		// against a changed estimator
		res = pitch.Result{}
	}

	tables := p.conf.Current()
	dev := p.resolve(res, tables)
	p.last = dev
	p.param.Set(dev.Meter.Position)

	p.seq++
	snap := Snapshot{
		Seq:       p.seq,
		Deviation: dev,
		LevelDB:   levelDB,
	}
	if tables != nil {
		snap.ScaleLabel = tables.Scale.Label()
		snap.Notes = tables.Scale.Notes()
	}
	p.out.Publish(snap)
}

// resolve finds the nearest map entry for res and updates the needle.
func (p *Processor) resolve(res pitch.Result, tables *Tables) Deviation {
	freq := res.Frequency(p.cfg.SampleRate)
	if freq <= 0 || tables == nil {
		p.reading = meter.Centered
		return Deviation{Meter: meter.Centered}
	}

	m := tables.Map
	idx := m.Nearest(freq)
	if idx < 0 || m.At(idx).Frequency <= 0 {
		p.reading = meter.Centered
		return Deviation{Meter: meter.Centered}
	}

	entry := m.At(idx)
	cents := 1200 * math.Log2(freq/entry.Frequency)

	// At the ends of the map there is no step to scale against, so the
	// needle keeps its previous reading
	if prev, next, ok := m.Steps(idx); ok {
		p.reading = meter.Map(cents, prev, next)
	}

	return Deviation{
		Voiced:             true,
		Period:             res.Period,
		Quality:            res.Quality,
		FrequencyHz:        freq,
		NearestIndex:       idx,
		NearestDegree:      entry.Degree,
		NearestFrequencyHz: entry.Frequency,
		IsBase:             m.IsCenter(idx),
		CentsDeviation:     cents,
		Meter:              p.reading,
	}
}
