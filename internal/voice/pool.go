// Package voice implements a fixed pool of playback voices bound to one
// shared pre-rendered stereo buffer.
package voice

import "math"

// Voice plays one segment of the pool's shared buffer at a settable
// volume. A voice is single-shot: starting it again replaces whatever
// it was playing.
type Voice struct {
	pool       *Pool
	volumeDB   float64
	gain       float64
	active     bool
	startFrame int64 // mix-timeline frame playback begins at
	bufFrame   int64 // first buffer frame of the segment
	lenFrames  int64
}

// SetVolume sets the voice output level in dB (0 = unity).
func (v *Voice) SetVolume(db float64) {
	v.volumeDB = db
	v.gain = math.Pow(10, db/20)
}

// Volume returns the last level set, in dB.
func (v *Voice) Volume() float64 { return v.volumeDB }

// Start schedules the voice to play the buffer segment
// [offsetSec, offsetSec+durSec) beginning at absolute transport time
// whenSec. Starting in the past begins playback mid-segment.
func (v *Voice) Start(whenSec, offsetSec, durSec float64) {
	sr := float64(v.pool.sampleRate)
	v.startFrame = int64(math.Round((whenSec - v.pool.origin) * sr))
	v.bufFrame = int64(math.Round(offsetSec * sr))
	v.lenFrames = int64(math.Round(durSec * sr))
	v.active = true
}

// Active reports whether the voice still has frames to play.
func (v *Voice) Active() bool { return v.active }

// Pool is a round-robin set of voices sharing one stereo interleaved
// buffer. It is not safe for concurrent use; the owner serializes
// access to Next and Mix.
type Pool struct {
	buffer     []float32
	sampleRate int
	origin     float64 // absolute seconds of mix-timeline frame 0
	voices     []Voice
	cursor     int
}

// NewPool creates size voices bound to buffer. origin is the absolute
// transport time corresponding to frame 0 of the mix timeline.
func NewPool(buffer []float32, size, sampleRate int, origin float64) *Pool {
	p := &Pool{
		buffer:     buffer,
		sampleRate: sampleRate,
		origin:     origin,
		voices:     make([]Voice, size),
	}
	for i := range p.voices {
		p.voices[i].pool = p
		p.voices[i].gain = 1
	}
	return p
}

// Next returns the voice under the round-robin cursor and advances the
// cursor, wrapping modulo the pool size.
func (p *Pool) Next() *Voice {
	v := &p.voices[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.voices)
	return v
}

// Size returns the number of voices in the pool.
func (p *Pool) Size() int { return len(p.voices) }

// Cursor returns the index Next will hand out on its next call.
func (p *Pool) Cursor() int { return p.cursor }

// Voice returns the i-th voice.
func (p *Pool) Voice(i int) *Voice { return &p.voices[i] }

// ActiveCount returns the number of voices still playing.
func (p *Pool) ActiveCount() int {
	n := 0
	for i := range p.voices {
		if p.voices[i].active {
			n++
		}
	}
	return n
}

// Mix adds every active voice's output for the block starting at
// mix-timeline frame fromFrame into dst (stereo interleaved).
func (p *Pool) Mix(dst []float32, fromFrame int64) {
	frames := int64(len(dst) / 2)
	bufFrames := int64(len(p.buffer) / 2)
	for i := range p.voices {
		v := &p.voices[i]
		if !v.active {
			continue
		}
		if fromFrame+frames <= v.startFrame {
			continue // not due yet
		}
		rel := fromFrame - v.startFrame // segment progress at block start
		if rel >= v.lenFrames {
			v.active = false
			continue
		}
		out := int64(0)
		if rel < 0 {
			out = -rel
			rel = 0
		}
		for ; out < frames && rel < v.lenFrames; out, rel = out+1, rel+1 {
			src := v.bufFrame + rel
			if src >= bufFrames {
				break
			}
			g := float32(v.gain)
			dst[out*2] += p.buffer[src*2] * g
			dst[out*2+1] += p.buffer[src*2+1] * g
		}
		if rel >= v.lenFrames || v.bufFrame+rel >= bufFrames {
			v.active = false
		}
	}
}
