package tonegrid

import (
	"errors"
	"fmt"
	"math"
	"sync"

	intaudio "github.com/cbegin/tonegrid-go/internal/audio"
	"github.com/cbegin/tonegrid-go/internal/debug"
	"github.com/cbegin/tonegrid-go/internal/scale"
	"github.com/cbegin/tonegrid-go/internal/synth"
	inttransport "github.com/cbegin/tonegrid-go/internal/transport"
	"github.com/cbegin/tonegrid-go/internal/voice"
)

const (
	// voicesPerRow sizes the pool at gridHeight * voicesPerRow.
	voicesPerRow = 3
	// slotFactor stretches each buffer slot (and each note's playback)
	// to slotFactor column durations, leaving room for the release tail.
	slotFactor = 6

	defaultHighVolume = -10.0 // dB, lone note in a column
	defaultLowVolume  = -20.0 // dB, fully saturated column
	defaultTempo      = 120.0
	defaultSampleRate = 44100
	beatsPerMeasure   = 4
)

// NoteID is the opaque handle returned by ScheduleNote. It is the
// transport-assigned callback handle for the note.
type NoteID uint64

// Transport is the clock/scheduler a NotePlayer runs against: a
// monotonically advancing loop clock that fires registered callbacks
// once per cycle at a fixed loop offset. The built-in sample clock
// implements it; tests or hosts may inject their own.
type Transport interface {
	// Schedule registers fn to fire once per loop cycle, loopOffset
	// seconds after loop start, and returns a cancellable handle.
	Schedule(loopOffset float64, fn func(when float64)) uint64
	// Clear cancels a scheduled callback. Idempotent.
	Clear(handle uint64)
	// Now returns the current absolute transport time in seconds.
	Now() float64
	// Loop returns the loop window in seconds.
	Loop() (start, end float64)
}

type Option func(*config)

type config struct {
	tempo      float64
	sampleRate int
	lowVolume  float64
	highVolume float64
	baseNote   int
	transport  Transport
	synth      synth.Params
}

func defaultConfig() config {
	return config{
		tempo:      defaultTempo,
		sampleRate: defaultSampleRate,
		lowVolume:  defaultLowVolume,
		highVolume: defaultHighVolume,
		baseNote:   scale.DefaultBaseNote,
		synth:      synth.DefaultParams(),
	}
}

// WithTempo sets the tempo in BPM; the grid spans one 4/4 measure.
func WithTempo(bpm float64) Option {
	return func(cfg *config) { cfg.tempo = bpm }
}

func WithSampleRate(hz int) Option {
	return func(cfg *config) { cfg.sampleRate = hz }
}

// WithVolumeRange sets the polyphony volume curve endpoints in dB:
// high for a lone note in a column, low for a saturated column.
func WithVolumeRange(low, high float64) Option {
	return func(cfg *config) {
		cfg.lowVolume = low
		cfg.highVolume = high
	}
}

// WithBaseNote sets the MIDI note of the lowest grid row.
func WithBaseNote(note int) Option {
	return func(cfg *config) { cfg.baseNote = note }
}

// WithTransport runs the player against an external transport instead
// of its own sample clock. Start/Stop are unavailable in this mode;
// the host drives time.
func WithTransport(t Transport) Option {
	return func(cfg *config) { cfg.transport = t }
}

type gridPos struct {
	x, y int
}

// NotePlayer schedules grid notes (x = time column, y = pitch row)
// against a loop transport and plays them through a pool of voices
// bound to one pre-rendered scale buffer. Construction kicks off the
// offline render; until it completes, fired notes are dropped.
type NotePlayer struct {
	gridWidth  int
	gridHeight int
	sampleRate int
	columnSec  float64 // one measure / gridWidth
	noteOffset float64 // buffer slot and playback duration, columnSec * slotFactor
	lowVolume  float64
	highVolume float64

	clock    Transport
	ownClock *inttransport.Clock // set when the player owns its transport

	mu        sync.Mutex
	pool      *voice.Pool // nil until the offline render completes
	polyphony []int
	notes     map[NoteID]gridPos
	output    *intaudio.Output

	ready chan struct{}
}

// New creates a NotePlayer for a gridWidth x gridHeight grid and starts
// the one-time offline render of the scale buffer in the background.
func New(gridWidth, gridHeight int, opts ...Option) (*NotePlayer, error) {
	if gridWidth <= 0 || gridHeight <= 0 {
		return nil, fmt.Errorf("tonegrid: grid must be positive, got %dx%d", gridWidth, gridHeight)
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.tempo <= 0 {
		return nil, errors.New("tonegrid: tempo must be positive")
	}
	if cfg.sampleRate <= 0 {
		return nil, errors.New("tonegrid: sample rate must be positive")
	}
	if cfg.lowVolume > cfg.highVolume {
		return nil, errors.New("tonegrid: low volume above high volume")
	}

	measureSec := beatsPerMeasure * 60 / cfg.tempo
	np := &NotePlayer{
		gridWidth:  gridWidth,
		gridHeight: gridHeight,
		sampleRate: cfg.sampleRate,
		columnSec:  measureSec / float64(gridWidth),
		lowVolume:  cfg.lowVolume,
		highVolume: cfg.highVolume,
		polyphony:  make([]int, gridWidth),
		notes:      make(map[NoteID]gridPos),
		ready:      make(chan struct{}),
	}
	np.noteOffset = np.columnSec * slotFactor
	if cfg.transport != nil {
		np.clock = cfg.transport
	} else {
		np.ownClock = inttransport.NewClock(cfg.sampleRate, 0, measureSec)
		np.clock = np.ownClock
	}

	go np.renderOnce(cfg)
	return np, nil
}

// renderOnce renders the whole scale into the shared buffer and
// installs the voice pool. Runs exactly once, on its own goroutine.
func (np *NotePlayer) renderOnce(cfg config) {
	freqs := scale.Build(np.gridHeight, cfg.baseNote)
	buf := synth.RenderScale(freqs, np.noteOffset, np.columnSec, np.sampleRate, cfg.synth)
	origin, _ := np.clock.Loop()

	np.mu.Lock()
	np.pool = voice.NewPool(buf, np.gridHeight*voicesPerRow, np.sampleRate, origin)
	np.mu.Unlock()
	close(np.ready)
}

// Ready reports whether the offline render has completed and the voice
// pool is usable.
func (np *NotePlayer) Ready() bool {
	select {
	case <-np.ready:
		return true
	default:
		return false
	}
}

// WaitReady blocks until the voice pool is usable.
func (np *NotePlayer) WaitReady() { <-np.ready }

// ScheduleNote registers a note at grid cell (x, y) to sound once per
// loop cycle at the column's time offset. Polyphony for column x is
// counted from this call, not from the first firing. The returned id
// stays valid until UnscheduleNote.
func (np *NotePlayer) ScheduleNote(x, y int) (NoteID, error) {
	if x < 0 || x >= np.gridWidth || y < 0 || y >= np.gridHeight {
		return 0, fmt.Errorf("tonegrid: cell (%d,%d) outside %dx%d grid", x, y, np.gridWidth, np.gridHeight)
	}
	np.mu.Lock()
	defer np.mu.Unlock()
	id := NoteID(np.clock.Schedule(float64(x)*np.columnSec, func(when float64) {
		np.fire(x, y, when)
	}))
	np.polyphony[x]++
	np.notes[id] = gridPos{x: x, y: y}
	return id, nil
}

// fire runs on the transport's dispatch path. Playback failures are
// swallowed: a missed note must not destabilize the shared scheduler.
func (np *NotePlayer) fire(x, y int, when float64) {
	defer func() {
		if r := recover(); r != nil {
			debug.Logf("fire", "note (%d,%d): %v", x, y, r)
		}
	}()
	np.mu.Lock()
	defer np.mu.Unlock()
	if np.pool == nil {
		debug.Logf("fire", "note (%d,%d) dropped: buffer not rendered yet", x, y)
		return
	}
	v := np.pool.Next()
	v.SetVolume(np.columnVolume(x))
	v.Start(when, float64(y)*np.noteOffset, np.noteOffset)
}

// columnVolume maps polyphony in column x onto the dB range: a lone
// note plays at highVolume, a column holding gridHeight or more notes
// saturates at lowVolume. Callers hold np.mu.
func (np *NotePlayer) columnVolume(x int) float64 {
	ratio := float64(np.gridHeight-np.polyphony[x]) / float64(np.gridHeight)
	vol := ratio*(np.highVolume-np.lowVolume) + np.lowVolume
	return math.Min(math.Max(vol, np.lowVolume), np.highVolume)
}

// UnscheduleNote removes a scheduled note: cancels its transport
// callback and releases its polyphony count. Passing an id that is not
// currently scheduled (including a second unschedule of the same id)
// is an error.
func (np *NotePlayer) UnscheduleNote(id NoteID) error {
	np.mu.Lock()
	defer np.mu.Unlock()
	pos, ok := np.notes[id]
	if !ok {
		return fmt.Errorf("tonegrid: note id %d is not scheduled", id)
	}
	delete(np.notes, id)
	np.polyphony[pos.x]--
	if np.polyphony[pos.x] < 0 {
		panic(fmt.Sprintf("tonegrid: polyphony for column %d went negative", pos.x))
	}
	np.clock.Clear(uint64(id))
	return nil
}

// Polyphony returns the number of currently scheduled notes in column
// x.
func (np *NotePlayer) Polyphony(x int) int {
	np.mu.Lock()
	defer np.mu.Unlock()
	return np.polyphony[x]
}

// PlayheadX returns the grid column under the transport playhead.
// Pure query; always in [0, gridWidth).
func (np *NotePlayer) PlayheadX() int {
	now := np.clock.Now()
	start, end := np.clock.Loop()
	length := end - start
	progress := math.Mod(now-start, length) / length
	if progress < 0 {
		progress++
	}
	x := int(progress * float64(np.gridWidth))
	if x < 0 {
		x = 0
	}
	if x >= np.gridWidth {
		x = np.gridWidth - 1
	}
	return x
}

// playbackSource feeds the audio device: advance the clock over the
// block (firing due callbacks), then mix active voices into it.
type playbackSource struct {
	np *NotePlayer
}

func (s *playbackSource) Process(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
	from := s.np.ownClock.Position()
	s.np.ownClock.Advance(len(dst) / 2)

	s.np.mu.Lock()
	defer s.np.mu.Unlock()
	if s.np.pool != nil {
		s.np.pool.Mix(dst, from)
	}
}

// Start opens the audio device and begins running the player's own
// transport in real time. It is an error when an external transport
// was injected; the host drives time in that mode.
func (np *NotePlayer) Start() error {
	if np.ownClock == nil {
		return errors.New("tonegrid: external transport drives playback")
	}
	np.mu.Lock()
	defer np.mu.Unlock()
	if np.output != nil {
		np.output.Play()
		return nil
	}
	out, err := intaudio.NewOutput(np.sampleRate, &playbackSource{np: np})
	if err != nil {
		return err
	}
	np.output = out
	out.Play()
	return nil
}

// Stop closes the audio device. Scheduled notes stay scheduled.
func (np *NotePlayer) Stop() error {
	np.mu.Lock()
	out := np.output
	np.output = nil
	np.mu.Unlock()
	if out == nil {
		return nil
	}
	return out.Stop()
}
