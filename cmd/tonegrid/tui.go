package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	tonegrid "github.com/cbegin/tonegrid-go"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("150"))
	cellOn      = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	cellOff     = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	playheadOn  = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Background(lipgloss.Color("236"))
	playheadOff = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Background(lipgloss.Color("236"))
	cursorStyle = lipgloss.NewStyle().Reverse(true)
)

// model is the grid editor: each cell holds the NoteID of its
// scheduled note, or 0 when the cell is empty.
type model struct {
	np     *tonegrid.NotePlayer
	width  int
	height int
	tempo  float64

	cells    [][]tonegrid.NoteID
	cursorX  int
	cursorY  int
	playhead int
	status   string
}

func newModel(np *tonegrid.NotePlayer, width, height int, tempo float64) model {
	cells := make([][]tonegrid.NoteID, height)
	for y := range cells {
		cells[y] = make([]tonegrid.NoteID, width)
	}
	return model{np: np, width: width, height: height, tempo: tempo, cells: cells}
}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.playhead = m.np.PlayheadX()
		return m, tickCmd()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.np.Stop()
		return m, tea.Quit
	case "up", "k":
		if m.cursorY > 0 {
			m.cursorY--
		}
	case "down", "j":
		if m.cursorY < m.height-1 {
			m.cursorY++
		}
	case "left", "h":
		if m.cursorX > 0 {
			m.cursorX--
		}
	case "right", "l":
		if m.cursorX < m.width-1 {
			m.cursorX++
		}
	case " ", "enter":
		m.toggle(m.cursorX, m.cursorY)
	case "c":
		m.clearAll()
	}
	return m, nil
}

func (m *model) toggle(x, y int) {
	if id := m.cells[y][x]; id != 0 {
		if err := m.np.UnscheduleNote(id); err != nil {
			m.status = err.Error()
			return
		}
		m.cells[y][x] = 0
		m.status = fmt.Sprintf("cleared (%d,%d)", x, y)
		return
	}
	id, err := m.np.ScheduleNote(x, y)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.cells[y][x] = id
	m.status = fmt.Sprintf("scheduled (%d,%d)", x, y)
}

func (m *model) clearAll() {
	for y := range m.cells {
		for x, id := range m.cells[y] {
			if id == 0 {
				continue
			}
			if err := m.np.UnscheduleNote(id); err == nil {
				m.cells[y][x] = 0
			}
		}
	}
	m.status = "cleared grid"
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("tonegrid"))
	state := "rendering scale buffer..."
	if m.np.Ready() {
		state = fmt.Sprintf("%.0f BPM", m.tempo)
	}
	b.WriteString(statusStyle.Render(fmt.Sprintf("  %s", state)))
	b.WriteString("\n\n")

	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			glyph := " ◦ "
			style := cellOff
			if m.cells[y][x] != 0 {
				glyph = " ● "
				style = cellOn
			}
			if x == m.playhead {
				if m.cells[y][x] != 0 {
					style = playheadOn
				} else {
					style = playheadOff
				}
			}
			if x == m.cursorX && y == m.cursorY {
				style = cursorStyle
			}
			b.WriteString(style.Render(glyph))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("arrows/hjkl move · space toggle · c clear · q quit"))
	b.WriteString("\n")
	return b.String()
}
