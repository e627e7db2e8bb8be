// ABOUTME: Bubbletea model for the transport TUI
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"
	"time"

	"github.com/Resonate-Protocol/resonate-daw/internal/engine"
	"github.com/Resonate-Protocol/resonate-daw/internal/project"
	"github.com/Resonate-Protocol/resonate-daw/internal/session"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	// seekStep is how far left/right move the playhead
	seekStep = 5.0

	// volumeStep is how far +/- change the selected track's volume
	volumeStep = 0.1

	refreshInterval = 100 * time.Millisecond
)

// Controller is the session surface the TUI drives
type Controller interface {
	TogglePlay() error
	Stop()
	Seek(seconds float64)
	State() engine.PlaybackState
	Project() *project.Project
	UpdateTrack(u session.TrackUpdate) error
}

// Model represents the TUI state
type Model struct {
	ctl Controller

	// Transport
	state engine.PlaybackState

	// Project
	projectName string
	duration    float64
	tracks      []project.Track
	selected    int

	// Last command error
	lastErr string

	// Dimensions
	width  int
	height int
}

// tickMsg triggers a state refresh
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		m.refresh()
		return m, tick()
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderTracks()
	s += m.renderHelp()

	return s
}

// renderHeader renders project and transport status
func (m Model) renderHeader() string {
	name := m.projectName
	if name == "" {
		name = "(no project)"
	}

	position := fmt.Sprintf("%s / %s", formatTime(m.state.CurrentTime), formatTime(m.duration))

	s := fmt.Sprintf(`┌─ Resonate DAW ───────────────────────────────────────┐
│ Project:  %-42s │
│ State:    %-8s %-33s │
`, truncate(name, 42), stateIcon(m.state.State), position)

	if m.lastErr != "" {
		s += fmt.Sprintf("│ Error:    %-42s │\n", truncate(m.lastErr, 42))
	}

	s += "├──────────────────────────────────────────────────────┤\n"
	return s
}

// renderTracks renders one line per track with its mixer settings
func (m Model) renderTracks() string {
	if len(m.tracks) == 0 {
		return "│ No tracks                                            │\n"
	}

	s := ""
	for i, t := range m.tracks {
		cursor := " "
		if i == m.selected {
			cursor = ">"
		}

		flags := ""
		if t.Muted {
			flags += "M"
		} else {
			flags += "-"
		}
		if t.Solo {
			flags += "S"
		} else {
			flags += "-"
		}

		name := t.Name
		if name == "" {
			name = t.ID
		}

		volume := int(t.Volume*100 + 0.5)
		s += fmt.Sprintf("│%s %-16s %s [%s] %3d%% pan %+.1f%-4s│\n",
			cursor, truncate(name, 16), flags, renderBar(min(volume, 100), 100, 10), volume, t.Pan, "")
	}

	return s
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `├──────────────────────────────────────────────────────┤
│ space:Play/Pause  s:Stop  ←/→:Seek  ↑/↓:Track  q:Quit│
│ m:Mute  o:Solo  +/-:Volume  (mix applies on play)    │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.ctl == nil {
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}

	var err error
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		err = m.ctl.TogglePlay()
	case "s":
		m.ctl.Stop()
	case "left":
		m.ctl.Seek(max(m.state.CurrentTime-seekStep, 0))
	case "right":
		m.ctl.Seek(m.state.CurrentTime + seekStep)
	case "up":
		if m.selected > 0 {
			m.selected--
		}
	case "down":
		if m.selected < len(m.tracks)-1 {
			m.selected++
		}
	case "m":
		err = m.updateSelected(func(t project.Track, u *session.TrackUpdate) {
			muted := !t.Muted
			u.Muted = &muted
		})
	case "o":
		err = m.updateSelected(func(t project.Track, u *session.TrackUpdate) {
			solo := !t.Solo
			u.Solo = &solo
		})
	case "+", "=":
		err = m.updateSelected(func(t project.Track, u *session.TrackUpdate) {
			volume := t.Volume + volumeStep
			u.Volume = &volume
		})
	case "-":
		err = m.updateSelected(func(t project.Track, u *session.TrackUpdate) {
			volume := max(t.Volume-volumeStep, 0)
			u.Volume = &volume
		})
	default:
		return m, nil
	}

	if err != nil {
		m.lastErr = err.Error()
	} else {
		m.lastErr = ""
	}
	m.refresh()

	return m, nil
}

// updateSelected sends a track update built from the selected track
func (m *Model) updateSelected(build func(t project.Track, u *session.TrackUpdate)) error {
	if m.selected < 0 || m.selected >= len(m.tracks) {
		return nil
	}
	t := m.tracks[m.selected]
	u := session.TrackUpdate{TrackID: t.ID}
	build(t, &u)
	return m.ctl.UpdateTrack(u)
}

// refresh pulls transport state and the project snapshot
func (m *Model) refresh() {
	if m.ctl == nil {
		return
	}

	m.state = m.ctl.State()

	p := m.ctl.Project()
	if p == nil {
		m.projectName = ""
		m.duration = 0
		m.tracks = nil
		m.selected = 0
		return
	}

	m.projectName = p.Name
	if m.projectName == "" {
		m.projectName = p.ID
	}
	m.duration = engine.End(p.Tracks)
	m.tracks = p.Tracks
	if m.selected >= len(m.tracks) {
		m.selected = max(len(m.tracks)-1, 0)
	}
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func formatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	tenths := int(seconds*10 + 0.5)
	return fmt.Sprintf("%02d:%02d.%d", tenths/600, (tenths/10)%60, tenths%10)
}

func stateIcon(s engine.State) string {
	switch s {
	case engine.Playing:
		return "▶ play"
	case engine.Paused:
		return "⏸ pause"
	default:
		return "■ stop"
	}
}
