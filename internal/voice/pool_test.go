package voice

import (
	"math"
	"testing"
)

// rampBuffer returns a stereo buffer whose sample value equals its
// frame index, which makes segment boundaries easy to assert.
func rampBuffer(frames int) []float32 {
	buf := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		buf[i*2] = float32(i)
		buf[i*2+1] = float32(i)
	}
	return buf
}

func TestNextCyclesRoundRobin(t *testing.T) {
	p := NewPool(rampBuffer(100), 3, 1000, 0)
	want := []*Voice{&p.voices[0], &p.voices[1], &p.voices[2], &p.voices[0]}
	for i, w := range want {
		if got := p.Next(); got != w {
			t.Fatalf("Next() call %d returned wrong voice", i)
		}
	}
}

func TestMixPlaysSegmentAtScheduledFrame(t *testing.T) {
	p := NewPool(rampBuffer(100), 1, 1000, 0)
	v := p.Next()
	// Play buffer frames [10, 20) starting at mix frame 5.
	v.Start(0.005, 0.010, 0.010)

	dst := make([]float32, 40*2)
	p.Mix(dst, 0)
	if dst[4*2] != 0 {
		t.Fatalf("frame 4 = %f, want silence before start", dst[4*2])
	}
	if dst[5*2] != 10 {
		t.Fatalf("frame 5 = %f, want buffer frame 10", dst[5*2])
	}
	if dst[14*2] != 19 {
		t.Fatalf("frame 14 = %f, want buffer frame 19", dst[14*2])
	}
	if dst[15*2] != 0 {
		t.Fatalf("frame 15 = %f, want silence after segment end", dst[15*2])
	}
	if v.Active() {
		t.Fatalf("voice should be inactive after its segment finished")
	}
}

func TestMixStartSplitAcrossBlocks(t *testing.T) {
	p := NewPool(rampBuffer(100), 1, 1000, 0)
	v := p.Next()
	v.Start(0.050, 0, 0.020) // frames [50, 70) of the mix timeline

	first := make([]float32, 40*2)
	p.Mix(first, 0)
	for i, s := range first {
		if s != 0 {
			t.Fatalf("sample %d = %f before scheduled start", i, s)
		}
	}
	second := make([]float32, 40*2)
	p.Mix(second, 40)
	if second[9*2] != 0 {
		t.Fatalf("mix frame 49 = %f, want silence", second[9*2])
	}
	if second[10*2] != 0 {
		t.Fatalf("mix frame 50 = %f, want buffer frame 0 (value 0)", second[10*2])
	}
	if second[11*2] != 1 {
		t.Fatalf("mix frame 51 = %f, want buffer frame 1", second[11*2])
	}
}

func TestMixLateStartSkipsIntoSegment(t *testing.T) {
	p := NewPool(rampBuffer(100), 1, 1000, 0)
	v := p.Next()
	v.Start(0.010, 0, 0.050) // buffer frames [0, 50) from mix frame 10

	dst := make([]float32, 20*2)
	p.Mix(dst, 30) // block starts 20 frames into the segment
	if dst[0] != 20 {
		t.Fatalf("first sample = %f, want buffer frame 20", dst[0])
	}
}

func TestSetVolumeAppliesGain(t *testing.T) {
	buf := make([]float32, 10*2)
	for i := range buf {
		buf[i] = 1
	}
	p := NewPool(buf, 1, 1000, 0)
	v := p.Next()
	v.SetVolume(-20) // 0.1 linear
	v.Start(0, 0, 0.010)

	dst := make([]float32, 10*2)
	p.Mix(dst, 0)
	if math.Abs(float64(dst[0])-0.1) > 1e-6 {
		t.Fatalf("sample = %f, want 0.1", dst[0])
	}
}

func TestMixSumsOverlappingVoices(t *testing.T) {
	buf := make([]float32, 10*2)
	for i := range buf {
		buf[i] = 1
	}
	p := NewPool(buf, 2, 1000, 0)
	p.Next().Start(0, 0, 0.010)
	p.Next().Start(0, 0, 0.010)
	dst := make([]float32, 10*2)
	p.Mix(dst, 0)
	if dst[0] != 2 {
		t.Fatalf("sample = %f, want 2 (two unity voices)", dst[0])
	}
	if p.ActiveCount() != 2 {
		t.Fatalf("active = %d, want 2", p.ActiveCount())
	}
}

func TestPoolOriginOffset(t *testing.T) {
	p := NewPool(rampBuffer(100), 1, 1000, 2.0)
	v := p.Next()
	v.Start(2.010, 0, 0.010) // absolute 2.010s = mix frame 10

	dst := make([]float32, 20*2)
	p.Mix(dst, 0)
	if dst[9*2] != 0 {
		t.Fatalf("frame 9 = %f, want silence", dst[9*2])
	}
	if dst[10*2] != 0 || dst[11*2] != 1 {
		t.Fatalf("frames 10,11 = %f,%f, want 0,1", dst[10*2], dst[11*2])
	}
}
