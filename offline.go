package tonegrid

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cbegin/tonegrid-go/internal/scale"
	"github.com/cbegin/tonegrid-go/internal/synth"
)

// RenderScaleSamples renders, synchronously, the shared scale buffer a
// NotePlayer of the given grid size would use: every row's pitch played
// once in sequence, highest first, stereo interleaved float32.
func RenderScaleSamples(gridWidth, gridHeight int, opts ...Option) ([]float32, error) {
	if gridWidth <= 0 || gridHeight <= 0 {
		return nil, fmt.Errorf("tonegrid: grid must be positive, got %dx%d", gridWidth, gridHeight)
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.tempo <= 0 || cfg.sampleRate <= 0 {
		return nil, fmt.Errorf("tonegrid: invalid tempo or sample rate")
	}
	columnSec := beatsPerMeasure * 60 / cfg.tempo / float64(gridWidth)
	freqs := scale.Build(gridHeight, cfg.baseNote)
	return synth.RenderScale(freqs, columnSec*slotFactor, columnSec, cfg.sampleRate, cfg.synth), nil
}

// EncodeWAVFloat32LE wraps samples in a float32 PCM WAV container.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
