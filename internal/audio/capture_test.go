package audio

import (
	"math"
	"testing"
)

func TestFrameBufferFillsAndResets(t *testing.T) {
	b := NewFrameBuffer(4)

	for i := 0; i < 3; i++ {
		if b.Append(float64(i)) {
			t.Fatalf("buffer reported full after %d samples", i+1)
		}
	}
	if !b.Append(3) {
		t.Fatal("buffer should be full after 4 samples")
	}
	if !b.Full() || b.Len() != 4 || b.Cap() != 4 {
		t.Fatalf("unexpected state len=%d cap=%d full=%v", b.Len(), b.Cap(), b.Full())
	}

	// Appends to a full buffer are dropped
	b.Append(99)
	got := b.Samples()
	for i, v := range got {
		if v != float64(i) {
			t.Errorf("sample %d = %v", i, v)
		}
	}

	b.Reset()
	if b.Len() != 0 || b.Full() || len(b.Samples()) != 0 {
		t.Fatalf("reset left len=%d", b.Len())
	}
	b.Append(7)
	if b.Samples()[0] != 7 {
		t.Errorf("expected 7 after reset, got %v", b.Samples()[0])
	}
}

func TestLevel(t *testing.T) {
	rms, db := Level(nil)
	if rms != 0 || db != SilenceDB {
		t.Errorf("empty: rms=%v db=%v", rms, db)
	}

	rms, db = Level(make([]float64, 128))
	if rms != 0 || db != SilenceDB {
		t.Errorf("silence: rms=%v db=%v", rms, db)
	}

	x := make([]float64, 4410)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * 100 * float64(i) / 44100)
	}
	rms, db = Level(x)
	if math.Abs(rms-1/math.Sqrt2) > 1e-3 {
		t.Errorf("full-scale sine rms %.4f", rms)
	}
	if math.Abs(db+3.01) > 0.01 {
		t.Errorf("full-scale sine level %.3f dB", db)
	}
}
