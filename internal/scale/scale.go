// Package scale derives the fixed pitch ladder a tone grid plays.
package scale

import "math"

// Major pentatonic degrees in semitones above the octave root.
var pentatonic = [5]int{0, 2, 4, 7, 9}

// DefaultBaseNote is the MIDI note the lowest grid row starts from (C3).
const DefaultBaseNote = 48

// Build returns one frequency per grid row, index 0 = highest pitch.
// Rows walk a 5-note pentatonic cycle upward from baseNote, one octave
// per full cycle, then the sequence is reversed so the top grid row
// sounds highest.
func Build(rows int, baseNote int) []float64 {
	freqs := make([]float64, rows)
	for i := 0; i < rows; i++ {
		note := baseNote + 12*(i/len(pentatonic)) + pentatonic[i%len(pentatonic)]
		freqs[rows-1-i] = Frequency(note)
	}
	return freqs
}

// Frequency converts a MIDI note number to Hz (equal temperament, A4=440).
func Frequency(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}
