package synth

import (
	"math"
	"testing"
)

func energy(buf []float32) float64 {
	var e float64
	for _, s := range buf {
		e += math.Abs(float64(s))
	}
	return e
}

func TestRenderScaleLengthAndEnergy(t *testing.T) {
	freqs := []float64{440, 220}
	buf := RenderScale(freqs, 0.5, 0.1, 48000, DefaultParams())
	wantLen := int(0.5*48000) * len(freqs) * 2
	if len(buf) != wantLen {
		t.Fatalf("len = %d, want %d", len(buf), wantLen)
	}
	if energy(buf) == 0 {
		t.Fatalf("expected non-zero audio energy")
	}
}

func TestRenderScaleSlotsAreIndependent(t *testing.T) {
	// A silent slot (0 Hz) must stay silent even when its neighbor sounds.
	buf := RenderScale([]float64{440, 0}, 0.25, 0.05, 48000, DefaultParams())
	half := len(buf) / 2
	if energy(buf[:half]) == 0 {
		t.Fatalf("first slot should sound")
	}
	if e := energy(buf[half:]); e != 0 {
		t.Fatalf("second slot should be silent, energy = %f", e)
	}
}

func TestRenderNoteReleasesTowardSilence(t *testing.T) {
	params := DefaultParams()
	params.ReleaseSec = 0.05
	buf := RenderScale([]float64{440}, 1.0, 0.1, 48000, params)
	tail := buf[len(buf)-4800:]
	for i, s := range tail {
		if math.Abs(float64(s)) > 0.01 {
			t.Fatalf("tail sample %d = %f, want near silence", i, s)
		}
	}
}

func TestRenderNotePeakBounded(t *testing.T) {
	buf := RenderScale([]float64{880}, 0.5, 0.4, 48000, DefaultParams())
	for i, s := range buf {
		if math.Abs(float64(s)) > 1 {
			t.Fatalf("sample %d = %f exceeds full scale", i, s)
		}
	}
}
