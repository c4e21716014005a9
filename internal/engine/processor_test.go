package engine

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/0xlemi/xentuner/internal/meter"
	"github.com/0xlemi/xentuner/internal/scale"
	"github.com/0xlemi/xentuner/internal/tuning"
	"github.com/charmbracelet/log"
)

const (
	testRate  = 44100.0
	blockSize = 512
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func newTestProcessor(t *testing.T, half int) (*Processor, *Configuration) {
	t.Helper()
	conf := NewConfiguration(tuning.DefaultBaseFrequency, half, quietLogger())
	p, err := NewProcessor(DefaultProcessorConfig(testRate), conf)
	if err != nil {
		t.Fatal(err)
	}
	return p, conf
}

// tone feeds a stereo sine through p in fixed blocks and returns the output
type tone struct {
	freq  float64
	amp   float64
	frame int
}

func (g *tone) run(p *Processor, frames int) (in, out [][]float32) {
	for frames > 0 {
		n := blockSize
		if frames < n {
			n = frames
		}
		in = [][]float32{make([]float32, n), make([]float32, n)}
		out = [][]float32{make([]float32, n), make([]float32, n)}
		for i := 0; i < n; i++ {
			v := float32(g.amp * math.Sin(2*math.Pi*g.freq*float64(g.frame)/testRate))
			in[0][i] = v
			in[1][i] = -v
			g.frame++
		}
		p.Process(in, out)
		frames -= n
	}
	return in, out
}

func cents(c float64) float64 {
	return tuning.DefaultBaseFrequency * math.Exp2(c/1200)
}

func TestProcessPassesAudioThrough(t *testing.T) {
	p, _ := newTestProcessor(t, tuning.DefaultHalfSize)

	in := [][]float32{{0.1, -0.2, 0.3}, {0.4, 0.5, -0.6}}
	out := [][]float32{make([]float32, 3), make([]float32, 3), {9, 9, 9}}
	p.Process(in, out)

	for ch := 0; ch < 2; ch++ {
		for i := range in[ch] {
			if out[ch][i] != in[ch][i] {
				t.Errorf("channel %d frame %d: got %v, want %v", ch, i, out[ch][i], in[ch][i])
			}
		}
	}
	for i, v := range out[2] {
		if v != 0 {
			t.Errorf("unmatched output channel frame %d = %v, want silence", i, v)
		}
	}

	// Nothing to analyze and no panic
	p.Process(nil, nil)
}

func TestProcessSilence(t *testing.T) {
	p, _ := newTestProcessor(t, tuning.DefaultHalfSize)
	g := &tone{freq: 0, amp: 0}

	g.run(p, DefaultBufferSize)

	snap, fresh := p.Snapshots().Read()
	if !fresh || snap.Seq != 1 {
		t.Fatalf("expected one fresh snapshot, got seq %d fresh %v", snap.Seq, fresh)
	}
	d := snap.Deviation
	if d.Voiced || d.FrequencyHz != 0 {
		t.Errorf("silence should be unvoiced: %+v", d)
	}
	if snap.FrequencyText() != "" || snap.DegreeText() != "" || snap.CentsText() != "" {
		t.Errorf("silence text should be blank: %q %q %q", snap.FrequencyText(), snap.DegreeText(), snap.CentsText())
	}
	if snap.MeterValue() != 0.5 || snap.MeterPosition() != meter.CenterPosition {
		t.Errorf("silence meter %v / %d", snap.MeterValue(), snap.MeterPosition())
	}
	if snap.LevelDB > -99 {
		t.Errorf("silence level %v dB", snap.LevelDB)
	}
}

func TestProcessResetsBufferOnEveryWindow(t *testing.T) {
	p, _ := newTestProcessor(t, tuning.DefaultHalfSize)
	g := &tone{freq: 440, amp: 0.5}

	g.run(p, DefaultBufferSize-1)
	if p.Buffered() != DefaultBufferSize-1 {
		t.Fatalf("buffered %d", p.Buffered())
	}
	if _, fresh := p.Snapshots().Read(); fresh {
		t.Fatal("no snapshot expected before the window fills")
	}

	g.run(p, 1)
	if p.Buffered() != 0 {
		t.Fatalf("buffer not reset: %d", p.Buffered())
	}

	g.run(p, DefaultBufferSize+100)
	if p.Buffered() != 100 {
		t.Fatalf("expected 100 buffered, got %d", p.Buffered())
	}

	snap, fresh := p.Snapshots().Read()
	if !fresh || snap.Seq != 2 {
		t.Fatalf("expected latest snapshot seq 2, got %d", snap.Seq)
	}
}

func TestProcessResolvesNearestDegree(t *testing.T) {
	tests := []struct {
		name       string
		freq       float64
		wantDegree int
		wantBase   bool
		wantPos    int
		wantCents  float64
	}{
		{"in tune degree 4", cents(200), 4, false, 20, 0},
		{"12 cents sharp of degree 4", cents(212), 4, false, 29, 12},
		{"12 cents flat of degree 4", cents(188), 4, false, 11, -12},
		{"base", tuning.DefaultBaseFrequency, 0, true, 20, 0},
		{"a440", 440, 18, false, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestProcessor(t, tuning.DefaultHalfSize)
			g := &tone{freq: tt.freq, amp: 0.5}
			g.run(p, DefaultBufferSize)

			snap, _ := p.Snapshots().Read()
			d := snap.Deviation
			if !d.Voiced {
				t.Fatal("expected a pitch")
			}
			if math.Abs(d.FrequencyHz-tt.freq) > 0.01 {
				t.Errorf("frequency %.4f, want %.4f", d.FrequencyHz, tt.freq)
			}
			if d.NearestDegree != tt.wantDegree || d.IsBase != tt.wantBase {
				t.Errorf("degree %d base %v, want %d %v", d.NearestDegree, d.IsBase, tt.wantDegree, tt.wantBase)
			}
			if math.Abs(d.CentsDeviation-tt.wantCents) > 0.05 {
				t.Errorf("cents %.4f, want %.4f", d.CentsDeviation, tt.wantCents)
			}
			if d.Meter.Position != tt.wantPos {
				t.Errorf("meter position %d, want %d", d.Meter.Position, tt.wantPos)
			}
			if p.MeterParam().Value() != tt.wantPos {
				t.Errorf("meter parameter %d, want %d", p.MeterParam().Value(), tt.wantPos)
			}
			if tt.wantPos == 20 && d.MeterValue() != 0.5 {
				t.Errorf("in-tune meter value %v, want exactly 0.5", d.MeterValue())
			}
		})
	}
}

func TestSnapshotText(t *testing.T) {
	p, _ := newTestProcessor(t, tuning.DefaultHalfSize)

	g := &tone{freq: tuning.DefaultBaseFrequency, amp: 0.5}
	g.run(p, DefaultBufferSize)
	snap, _ := p.Snapshots().Read()

	if snap.DegreeText() != "base (261.63 Hz)" {
		t.Errorf("degree text %q", snap.DegreeText())
	}
	if snap.FrequencyText() != "261.63 Hz" {
		t.Errorf("frequency text %q", snap.FrequencyText())
	}
	if snap.CentsText() != "+0.0 cents" && snap.CentsText() != "-0.0 cents" {
		t.Errorf("cents text %q", snap.CentsText())
	}
	if snap.ScaleLabel != "24-EDO" || snap.Notes != 24 {
		t.Errorf("scale %q/%d", snap.ScaleLabel, snap.Notes)
	}

	g = &tone{freq: cents(212), amp: 0.5}
	g.run(p, DefaultBufferSize)
	snap, _ = p.Snapshots().Read()
	if snap.DegreeText() != "4 (293.66 Hz)" {
		t.Errorf("degree text %q", snap.DegreeText())
	}
	if snap.CentsText() != "+12.0 cents" {
		t.Errorf("cents text %q", snap.CentsText())
	}
}

func TestMeterHoldsAtMapEdge(t *testing.T) {
	// A map of four entries: two below the base, the base, one above
	p, _ := newTestProcessor(t, 2)

	g := &tone{freq: cents(12), amp: 0.5}
	g.run(p, DefaultBufferSize)
	if pos := p.Last().Meter.Position; pos != 29 {
		t.Fatalf("expected position 29 near the base, got %d", pos)
	}

	g = &tone{freq: 440, amp: 0.5}
	g.run(p, DefaultBufferSize)
	d := p.Last()
	if d.NearestIndex != 3 {
		t.Fatalf("440 Hz should clamp to the last entry, got %d", d.NearestIndex)
	}
	if d.Meter.Position != 29 {
		t.Errorf("meter should hold at the edge, got %d", d.Meter.Position)
	}

	g = &tone{}
	g.run(p, DefaultBufferSize)
	if p.Last().Meter != meter.Centered {
		t.Errorf("no pitch should center the meter, got %+v", p.Last().Meter)
	}
}

func TestProcessorFollowsScaleSwap(t *testing.T) {
	p, conf := newTestProcessor(t, tuning.DefaultHalfSize)

	s, err := scale.EDO(12)
	if err != nil {
		t.Fatal(err)
	}
	if err := conf.Load(s); err != nil {
		t.Fatal(err)
	}

	g := &tone{freq: cents(200), amp: 0.5}
	g.run(p, DefaultBufferSize)
	snap, _ := p.Snapshots().Read()

	if snap.Deviation.NearestDegree != 2 {
		t.Errorf("200 cents in 12-EDO is degree 2, got %d", snap.Deviation.NearestDegree)
	}
	if snap.ScaleLabel != "12-EDO" {
		t.Errorf("scale label %q", snap.ScaleLabel)
	}
}

func TestNewProcessorValidation(t *testing.T) {
	conf := NewConfiguration(tuning.DefaultBaseFrequency, 16, quietLogger())

	cfg := DefaultProcessorConfig(0)
	if _, err := NewProcessor(cfg, conf); !errors.Is(err, ErrSampleRate) {
		t.Errorf("expected ErrSampleRate, got %v", err)
	}

	cfg = DefaultProcessorConfig(testRate)
	cfg.BufferSize = 100
	if _, err := NewProcessor(cfg, conf); err == nil {
		t.Error("expected error for a window shorter than the period range")
	}

	if _, err := NewProcessor(DefaultProcessorConfig(testRate), nil); err == nil {
		t.Error("expected error without a configuration")
	}

	if conf.State() != Unconfigured {
		t.Errorf("failed constructors should not configure, got %v", conf.State())
	}
	if _, err := NewProcessor(DefaultProcessorConfig(testRate), conf); err != nil {
		t.Fatal(err)
	}
	if conf.State() != DefaultLoaded {
		t.Errorf("processor should load the default scale, got %v", conf.State())
	}
}

func BenchmarkProcessBlock(b *testing.B) {
	conf := NewConfiguration(tuning.DefaultBaseFrequency, tuning.DefaultHalfSize, quietLogger())
	p, err := NewProcessor(DefaultProcessorConfig(testRate), conf)
	if err != nil {
		b.Fatal(err)
	}

	in := [][]float32{make([]float32, blockSize), make([]float32, blockSize)}
	out := [][]float32{make([]float32, blockSize), make([]float32, blockSize)}
	for i := range in[0] {
		in[0][i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/testRate))
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Process(in, out)
	}
}
