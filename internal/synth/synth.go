// Package synth renders the shared scale buffer offline with a fixed
// patch: sine oscillator, linear attack, exponential release, one-pole
// low-pass.
package synth

import "math"

const twoPi = math.Pi * 2

type Params struct {
	AttackSec  float64
	ReleaseSec float64
	Gain       float64
	LPFCutoff  float64 // lowpass filter cutoff in Hz (0 = disabled)
}

func DefaultParams() Params {
	return Params{
		AttackSec:  0.01,
		ReleaseSec: 0.6,
		Gain:       0.5,
		LPFCutoff:  6000,
	}
}

// RenderScale renders every frequency in freqs back to back into one
// stereo interleaved buffer. Pitch k occupies the slot
// [k*slotSec, (k+1)*slotSec); the oscillator is held for heldSec and
// releases inside the remainder of the slot. Total length is
// slotSec * len(freqs).
func RenderScale(freqs []float64, slotSec, heldSec float64, sampleRate int, params Params) []float32 {
	slotFrames := int(slotSec * float64(sampleRate))
	out := make([]float32, slotFrames*len(freqs)*2)
	for k, freq := range freqs {
		renderNote(out[k*slotFrames*2:(k+1)*slotFrames*2], freq, heldSec, sampleRate, params)
	}
	return out
}

func renderNote(dst []float32, freq, heldSec float64, sampleRate int, params Params) {
	sr := float64(sampleRate)
	attackFrames := params.AttackSec * sr
	heldFrames := heldSec * sr
	// One-pole lowpass coefficient, same form as an RC filter.
	alpha := 1.0
	if params.LPFCutoff > 0 {
		rc := 1.0 / (twoPi * params.LPFCutoff)
		alpha = (1 / sr) / (rc + 1/sr)
	}
	releaseDecay := 1.0
	if params.ReleaseSec > 0 {
		// Per-frame multiplier decaying ~60 dB over the release time.
		releaseDecay = math.Pow(0.001, 1/(params.ReleaseSec*sr))
	}

	phase := 0.0
	env := 0.0
	lpf := 0.0
	frames := len(dst) / 2
	for i := 0; i < frames; i++ {
		fi := float64(i)
		switch {
		case fi < attackFrames:
			env = fi / attackFrames
		case fi < heldFrames:
			env = 1
		default:
			env *= releaseDecay
		}
		sig := math.Sin(phase) * env * params.Gain
		lpf += alpha * (sig - lpf)
		s := float32(lpf)
		dst[i*2] = s
		dst[i*2+1] = s
		phase += twoPi * freq / sr
		if phase > twoPi {
			phase -= twoPi
		}
	}
}
