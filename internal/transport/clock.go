// Package transport implements a looping sample-domain clock that fires
// registered callbacks once per loop cycle at fixed loop offsets.
package transport

import (
	"math"
	"sort"
	"sync"
)

// Handle identifies a scheduled callback. Handles are assigned by the
// clock and are never reused.
type Handle = uint64

// Callback receives the absolute transport time, in seconds, at which
// the event fired. An alias so Clock satisfies scheduler interfaces
// declared with a plain func type.
type Callback = func(when float64)

type event struct {
	handle Handle
	offset float64 // seconds into the loop window
	fn     Callback
}

// Clock is a loop transport advanced in audio frames, normally from
// inside the audio callback. All times are in seconds; the loop window
// is [loopStart, loopEnd) and the clock starts at loopStart.
type Clock struct {
	mu         sync.Mutex
	sampleRate int
	loopStart  float64
	loopEnd    float64
	pos        int64 // frames advanced since loopStart
	nextHandle Handle
	events     map[Handle]*event
}

func NewClock(sampleRate int, loopStart, loopEnd float64) *Clock {
	if sampleRate <= 0 || loopEnd <= loopStart {
		panic("transport: invalid clock parameters")
	}
	return &Clock{
		sampleRate: sampleRate,
		loopStart:  loopStart,
		loopEnd:    loopEnd,
		nextHandle: 1,
		events:     make(map[Handle]*event),
	}
}

// Schedule registers fn to fire once per loop cycle, loopOffset seconds
// after the loop start. Offsets outside the loop window wrap into it.
func (c *Clock) Schedule(loopOffset float64, fn Callback) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	length := c.loopEnd - c.loopStart
	for loopOffset < 0 {
		loopOffset += length
	}
	for loopOffset >= length {
		loopOffset -= length
	}
	h := c.nextHandle
	c.nextHandle++
	c.events[h] = &event{handle: h, offset: loopOffset, fn: fn}
	return h
}

// Clear cancels a scheduled callback. Clearing an unknown or already
// cleared handle is a no-op.
func (c *Clock) Clear(h Handle) {
	c.mu.Lock()
	delete(c.events, h)
	c.mu.Unlock()
}

// Now returns the current absolute transport time in seconds.
func (c *Clock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loopStart + float64(c.pos)/float64(c.sampleRate)
}

// Loop returns the loop window in seconds.
func (c *Clock) Loop() (start, end float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loopStart, c.loopEnd
}

// Position returns the number of frames advanced since the clock
// started.
func (c *Clock) Position() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

// SampleRate returns the clock's frame rate.
func (c *Clock) SampleRate() int { return c.sampleRate }

// Scheduled returns the number of registered callbacks.
func (c *Clock) Scheduled() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

type firing struct {
	handle  Handle
	atFrame int64
	fn      Callback
}

// Advance moves the clock forward by frames and fires every callback
// whose loop offset is crossed in the window, in crossing order.
// Callbacks run outside the clock's lock so they may call Schedule or
// Clear; two events at the same offset fire in unspecified relative
// order.
func (c *Clock) Advance(frames int) {
	if frames <= 0 {
		return
	}
	c.mu.Lock()
	from := c.pos
	to := c.pos + int64(frames)
	c.pos = to
	loopFrames := int64(math.Round((c.loopEnd - c.loopStart) * float64(c.sampleRate)))
	var due []firing
	if loopFrames > 0 {
		for _, ev := range c.events {
			offFrame := int64(math.Round(ev.offset * float64(c.sampleRate)))
			if offFrame >= loopFrames {
				offFrame = loopFrames - 1
			}
			for cycle := from / loopFrames; ; cycle++ {
				at := cycle*loopFrames + offFrame
				if at >= to {
					break
				}
				if at >= from {
					due = append(due, firing{handle: ev.handle, atFrame: at, fn: ev.fn})
				}
			}
		}
	}
	loopStart := c.loopStart
	sr := float64(c.sampleRate)
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].atFrame < due[j].atFrame })
	for _, f := range due {
		// A callback may have been cleared by an earlier firing in
		// this same window.
		c.mu.Lock()
		_, live := c.events[f.handle]
		c.mu.Unlock()
		if !live {
			continue
		}
		f.fn(loopStart + float64(f.atFrame)/sr)
	}
}
