// ABOUTME: Playback session binding a project snapshot to a transport
// ABOUTME: The control surface used by the CLI, TUI and control server
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Resonate-Protocol/resonate-daw/internal/engine"
	"github.com/Resonate-Protocol/resonate-daw/internal/project"
	"github.com/google/uuid"
)

var (
	// ErrNoProject means no project snapshot has been loaded
	ErrNoProject = errors.New("no project loaded")

	// ErrUnknownTrack means a track update named a track the project lacks
	ErrUnknownTrack = errors.New("unknown track")
)

// TrackUpdate changes mixer settings of one track. Nil fields are left alone.
type TrackUpdate struct {
	TrackID string   `json:"trackId"`
	Volume  *float64 `json:"volume,omitempty"`
	Pan     *float64 `json:"pan,omitempty"`
	Muted   *bool    `json:"muted,omitempty"`
	Solo    *bool    `json:"solo,omitempty"`
}

// Session owns one transport and the project it plays. Track settings
// changed through the session apply from the next Play.
type Session struct {
	id        string
	assets    engine.Loader
	transport *engine.Transport

	mu      sync.Mutex
	project *project.Project
}

// New creates a session around a transport and the cache feeding it
func New(assets engine.Loader, transport *engine.Transport) *Session {
	return &Session{
		id:        uuid.New().String(),
		assets:    assets,
		transport: transport,
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Load replaces the project. Playback stops first.
func (s *Session) Load(p *project.Project) error {
	if p == nil {
		return fmt.Errorf("%w: nil project", project.ErrInvalidProject)
	}
	if err := p.Validate(); err != nil {
		return err
	}

	s.transport.Stop()

	s.mu.Lock()
	s.project = p.Clone()
	s.mu.Unlock()

	log.Printf("Loaded project %s (%q): %d tracks, %d assets",
		p.ID, p.Name, len(p.Tracks), len(p.AssetRefs()))
	return nil
}

// Project returns a copy of the loaded project, or nil
func (s *Session) Project() *project.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.Clone()
}

// Preload decodes every asset the project references and returns the failures
func (s *Session) Preload(ctx context.Context) (map[string]error, error) {
	p := s.Project()
	if p == nil {
		return nil, ErrNoProject
	}

	failures := s.assets.Preload(ctx, p.AssetRefs())
	for ref, err := range failures {
		log.Printf("Preload failed for %s: %v", ref, err)
	}
	return failures, nil
}

// Play starts the transport with the current track settings
func (s *Session) Play() error {
	p := s.Project()
	if p == nil {
		return ErrNoProject
	}
	return s.transport.Play(p.Tracks)
}

// Pause pauses the transport
func (s *Session) Pause() error {
	return s.transport.Pause()
}

// Stop stops the transport and rewinds
func (s *Session) Stop() {
	s.transport.Stop()
}

// Seek moves the playhead
func (s *Session) Seek(seconds float64) {
	s.transport.Seek(seconds)
}

// TogglePlay pauses while playing and plays otherwise
func (s *Session) TogglePlay() error {
	if s.transport.State() == engine.Playing {
		return s.Pause()
	}
	return s.Play()
}

// State returns the transport snapshot
func (s *Session) State() engine.PlaybackState {
	return s.transport.PlaybackState()
}

// UpdateTrack applies u to the project. The change is heard from the next Play.
func (s *Session) UpdateTrack(u TrackUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.project == nil {
		return ErrNoProject
	}
	t, ok := s.project.Track(u.TrackID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTrack, u.TrackID)
	}

	updated := *t
	if u.Volume != nil {
		updated.Volume = *u.Volume
	}
	if u.Pan != nil {
		updated.Pan = *u.Pan
	}
	if u.Muted != nil {
		updated.Muted = *u.Muted
	}
	if u.Solo != nil {
		updated.Solo = *u.Solo
	}
	if err := updated.Validate(); err != nil {
		return err
	}

	*t = updated
	return nil
}

// Close stops playback and releases the output
func (s *Session) Close() error {
	return s.transport.Close()
}
