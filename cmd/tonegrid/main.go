package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	tonegrid "github.com/cbegin/tonegrid-go"
	"github.com/cbegin/tonegrid-go/internal/debug"
)

func main() {
	var (
		width      = flag.Int("width", 16, "grid columns (time slots)")
		height     = flag.Int("height", 10, "grid rows (pitches)")
		tempo      = flag.Float64("tempo", 120, "tempo in BPM; the grid spans one measure")
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate")
		baseNote   = flag.Int("base-note", 48, "MIDI note of the lowest row")
		exportPath = flag.String("export", "", "write the rendered scale buffer as WAV and exit")
	)
	flag.Parse()

	if os.Getenv("TONEGRID_DEBUG") != "" {
		if err := debug.Enable("tonegrid-debug.log"); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	opts := []tonegrid.Option{
		tonegrid.WithTempo(*tempo),
		tonegrid.WithSampleRate(*sampleRate),
		tonegrid.WithBaseNote(*baseNote),
	}

	if *exportPath != "" {
		samples, err := tonegrid.RenderScaleSamples(*width, *height, opts...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "render: %v\n", err)
			os.Exit(1)
		}
		wav := tonegrid.EncodeWAVFloat32LE(samples, *sampleRate, 2)
		if err := os.WriteFile(*exportPath, wav, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s (%d samples)\n", *exportPath, len(samples))
		return
	}

	np, err := tonegrid.New(*width, *height, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tonegrid: %v\n", err)
		os.Exit(1)
	}
	if err := np.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "audio: %v\n", err)
		os.Exit(1)
	}
	defer np.Stop()

	p := tea.NewProgram(newModel(np, *width, *height, *tempo))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tui: %v\n", err)
		os.Exit(1)
	}
}
