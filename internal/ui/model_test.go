// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests key handling, refresh and rendering against a fake session
package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/Resonate-Protocol/resonate-daw/internal/engine"
	"github.com/Resonate-Protocol/resonate-daw/internal/project"
	"github.com/Resonate-Protocol/resonate-daw/internal/session"
	tea "github.com/charmbracelet/bubbletea"
)

type fakeSession struct {
	state   engine.PlaybackState
	project *project.Project
	toggles int
	stops   int
	seeks   []float64
	updates []session.TrackUpdate
	err     error
}

func (f *fakeSession) TogglePlay() error {
	if f.err != nil {
		return f.err
	}
	f.toggles++
	f.state.IsPlaying = !f.state.IsPlaying
	if f.state.IsPlaying {
		f.state.State = engine.Playing
	} else {
		f.state.State = engine.Paused
	}
	return nil
}

func (f *fakeSession) Stop()                       { f.stops++ }
func (f *fakeSession) Seek(seconds float64)        { f.seeks = append(f.seeks, seconds) }
func (f *fakeSession) State() engine.PlaybackState { return f.state }
func (f *fakeSession) Project() *project.Project   { return f.project }

func (f *fakeSession) UpdateTrack(u session.TrackUpdate) error {
	f.updates = append(f.updates, u)
	for i := range f.project.Tracks {
		t := &f.project.Tracks[i]
		if t.ID != u.TrackID {
			continue
		}
		if u.Muted != nil {
			t.Muted = *u.Muted
		}
		if u.Solo != nil {
			t.Solo = *u.Solo
		}
		if u.Volume != nil {
			t.Volume = *u.Volume
		}
	}
	return nil
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		state: engine.PlaybackState{State: engine.Stopped, CurrentTime: 12},
		project: &project.Project{
			ID:   "p1",
			Name: "Demo",
			Tracks: []project.Track{
				{ID: "drums", Name: "Drums", Volume: 1, Clips: []project.Clip{{ID: "c1", EndTime: 30}}},
				{ID: "bass", Name: "Bass", Volume: 0.5},
			},
		},
	}
}

func press(m Model, key string) Model {
	var msg tea.KeyMsg
	switch key {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func TestNewModel(t *testing.T) {
	model := NewModel(newFakeSession())

	if model.projectName != "Demo" {
		t.Errorf("expected project name Demo, got %q", model.projectName)
	}
	if len(model.tracks) != 2 {
		t.Errorf("expected 2 tracks, got %d", len(model.tracks))
	}
	if model.duration != 30 {
		t.Errorf("expected duration 30, got %v", model.duration)
	}
	if model.selected != 0 {
		t.Errorf("expected first track selected, got %d", model.selected)
	}
}

func TestNewModelWithoutController(t *testing.T) {
	model := NewModel(nil)

	if model.projectName != "" || model.tracks != nil {
		t.Error("expected empty model without controller")
	}

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("expected quit command")
	}
}

func TestTogglePlayKey(t *testing.T) {
	fake := newFakeSession()
	model := press(NewModel(fake), " ")

	if fake.toggles != 1 {
		t.Errorf("expected 1 toggle, got %d", fake.toggles)
	}
	if !model.state.IsPlaying {
		t.Error("expected model to reflect playing state")
	}
}

func TestStopKey(t *testing.T) {
	fake := newFakeSession()
	press(NewModel(fake), "s")

	if fake.stops != 1 {
		t.Errorf("expected 1 stop, got %d", fake.stops)
	}
}

func TestSeekKeys(t *testing.T) {
	fake := newFakeSession()
	model := NewModel(fake)

	press(model, "right")
	press(model, "left")

	fake.state.CurrentTime = 2
	press(NewModel(fake), "left")

	want := []float64{17, 7, 0}
	if len(fake.seeks) != len(want) {
		t.Fatalf("expected seeks %v, got %v", want, fake.seeks)
	}
	for i := range want {
		if fake.seeks[i] != want[i] {
			t.Errorf("seek %d: expected %v, got %v", i, want[i], fake.seeks[i])
		}
	}
}

func TestTrackSelection(t *testing.T) {
	model := NewModel(newFakeSession())

	model = press(model, "up")
	if model.selected != 0 {
		t.Errorf("expected selection to stay at 0, got %d", model.selected)
	}

	model = press(model, "down")
	model = press(model, "down")
	if model.selected != 1 {
		t.Errorf("expected selection to stop at 1, got %d", model.selected)
	}
}

func TestMuteSoloVolumeKeys(t *testing.T) {
	fake := newFakeSession()
	model := NewModel(fake)

	model = press(model, "down")
	model = press(model, "m")
	model = press(model, "o")
	model = press(model, "-")

	if len(fake.updates) != 3 {
		t.Fatalf("expected 3 updates, got %d", len(fake.updates))
	}
	for _, u := range fake.updates {
		if u.TrackID != "bass" {
			t.Errorf("expected update for bass, got %s", u.TrackID)
		}
	}

	bass := model.tracks[1]
	if !bass.Muted || !bass.Solo {
		t.Errorf("expected bass muted and soloed, got %+v", bass)
	}
	if bass.Volume < 0.39 || bass.Volume > 0.41 {
		t.Errorf("expected volume 0.4, got %v", bass.Volume)
	}
}

func TestVolumeDoesNotGoNegative(t *testing.T) {
	fake := newFakeSession()
	fake.project.Tracks[0].Volume = 0.05
	model := NewModel(fake)

	model = press(model, "-")
	if model.tracks[0].Volume != 0 {
		t.Errorf("expected volume 0, got %v", model.tracks[0].Volume)
	}
}

func TestCommandErrorShown(t *testing.T) {
	fake := newFakeSession()
	fake.err = errors.New("engine unavailable")
	model := press(NewModel(fake), " ")

	if model.lastErr != "engine unavailable" {
		t.Errorf("expected error to be recorded, got %q", model.lastErr)
	}

	fake.err = nil
	model = press(model, " ")
	if model.lastErr != "" {
		t.Errorf("expected error cleared, got %q", model.lastErr)
	}
}

func TestTickRefreshes(t *testing.T) {
	fake := newFakeSession()
	model := NewModel(fake)

	fake.state.CurrentTime = 20
	fake.project = nil

	updated, cmd := model.Update(tickMsg{})
	model = updated.(Model)

	if cmd == nil {
		t.Error("expected another tick to be scheduled")
	}
	if model.state.CurrentTime != 20 {
		t.Errorf("expected position 20, got %v", model.state.CurrentTime)
	}
	if model.tracks != nil || model.projectName != "" {
		t.Error("expected project to be cleared")
	}
}

func TestView(t *testing.T) {
	model := NewModel(newFakeSession())

	if model.View() != "Loading..." {
		t.Error("expected loading view before window size")
	}

	updated, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	view := updated.(Model).View()

	for _, want := range []string{"Demo", "Drums", "Bass", "00:12.0 / 00:30.0", "stop"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestTruncateFunction(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"this is longer than allowed", 10, "this is..."},
		{"", 10, ""},
		{"abc", 3, "abc"},
		{"abcde", 4, "a..."},
	}

	for _, tt := range tests {
		result := truncate(tt.input, tt.maxLen)
		if result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, expected %q",
				tt.input, tt.maxLen, result, tt.expected)
		}
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "00:00.0"},
		{-3, "00:00.0"},
		{5.25, "00:05.3"},
		{61.5, "01:01.5"},
		{3599.9, "59:59.9"},
	}

	for _, tt := range tests {
		if got := formatTime(tt.seconds); got != tt.expected {
			t.Errorf("formatTime(%v) = %q, expected %q", tt.seconds, got, tt.expected)
		}
	}
}

func TestRenderBar(t *testing.T) {
	if got := renderBar(50, 100, 4); got != "██░░" {
		t.Errorf("expected half bar, got %q", got)
	}
	if got := renderBar(0, 100, 2); got != "░░" {
		t.Errorf("expected empty bar, got %q", got)
	}
}
