package tonegrid

import (
	"encoding/binary"
	"testing"
)

func TestRenderScaleSamplesLength(t *testing.T) {
	// 120 BPM, 8 columns: 0.25s per column, 1.5s per slot, 5 slots.
	samples, err := RenderScaleSamples(8, 5, WithSampleRate(48000))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	wantFrames := int(1.5*48000) * 5
	if len(samples) != wantFrames*2 {
		t.Fatalf("len = %d, want %d", len(samples), wantFrames*2)
	}
	var energy float64
	for _, s := range samples {
		if s < 0 {
			energy -= float64(s)
		} else {
			energy += float64(s)
		}
	}
	if energy == 0 {
		t.Fatalf("expected non-zero audio energy")
	}
}

func TestRenderScaleSamplesRejectsBadGrid(t *testing.T) {
	if _, err := RenderScaleSamples(0, 5); err == nil {
		t.Fatalf("zero width should fail")
	}
	if _, err := RenderScaleSamples(8, 5, WithTempo(-1)); err == nil {
		t.Fatalf("negative tempo should fail")
	}
}

func TestEncodeWAVFloat32LEHeader(t *testing.T) {
	samples := make([]float32, 100)
	wav := EncodeWAVFloat32LE(samples, 48000, 2)
	if len(wav) != 44+len(samples)*4 {
		t.Fatalf("wav size = %d, want %d", len(wav), 44+len(samples)*4)
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatalf("bad container magic")
	}
	if got := binary.LittleEndian.Uint16(wav[20:]); got != 3 {
		t.Fatalf("format tag = %d, want 3 (IEEE float)", got)
	}
	if got := binary.LittleEndian.Uint32(wav[24:]); got != 48000 {
		t.Fatalf("sample rate = %d, want 48000", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:]); got != uint32(len(samples)*4) {
		t.Fatalf("data size = %d, want %d", got, len(samples)*4)
	}
}
