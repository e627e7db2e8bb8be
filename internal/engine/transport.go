// ABOUTME: Transport state machine
// ABOUTME: Owns the playback clock and drives scheduling on play, pause, stop and seek
package engine

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/resonate-daw/internal/clock"
	"github.com/Resonate-Protocol/resonate-daw/internal/project"
	"github.com/Resonate-Protocol/resonate-daw/pkg/audio"
	"github.com/Resonate-Protocol/resonate-daw/pkg/audio/output"
)

// State is the transport state
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText encodes the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "stopped":
		*s = Stopped
	case "playing":
		*s = Playing
	case "paused":
		*s = Paused
	default:
		return fmt.Errorf("unknown transport state %q", text)
	}
	return nil
}

// PlaybackState is the transport snapshot reported to callers
type PlaybackState struct {
	IsPlaying   bool    `json:"isPlaying"`
	State       State   `json:"state"`
	CurrentTime float64 `json:"currentTimeSeconds"`
}

// Transport is the playback state machine. All tracks of one Play are
// scheduled against a single start instant.
type Transport struct {
	clock     clock.Clock
	out       output.Output
	bus       *Bus
	scheduler *Scheduler

	mu       sync.Mutex
	outOpen  bool
	state    State
	position float64   // seconds, valid while not Playing
	origin   time.Time // instant at which position 0 would have played
	tracks   []project.Track
}

type transportConfig struct {
	clock      clock.Clock
	sampleRate int
	policy     SeekPolicy
}

// Option configures a Transport
type Option func(*transportConfig)

// WithClock sets the time source
func WithClock(c clock.Clock) Option {
	return func(cfg *transportConfig) {
		cfg.clock = c
	}
}

// WithSampleRate sets the bus rate. It must match the asset cache rate.
func WithSampleRate(rate int) Option {
	return func(cfg *transportConfig) {
		cfg.sampleRate = rate
	}
}

// WithSeekPolicy sets how clips sounding at the start position are handled
func WithSeekPolicy(p SeekPolicy) Option {
	return func(cfg *transportConfig) {
		cfg.policy = p
	}
}

// NewTransport creates a stopped transport. The output is opened on the first Play.
func NewTransport(cache Resolver, out output.Output, opts ...Option) *Transport {
	cfg := transportConfig{
		clock:      clock.Real{},
		sampleRate: audio.DefaultSampleRate,
		policy:     SeekResume,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Transport{
		clock:     cfg.clock,
		out:       out,
		bus:       NewBus(cfg.sampleRate),
		scheduler: NewScheduler(cache, cfg.policy),
		state:     Stopped,
	}
}

// Bus returns the master bus
func (t *Transport) Bus() *Bus {
	return t.bus
}

// Play starts playback of tracks from the current position. Valid from
// Stopped or Paused.
func (t *Transport) Play(tracks []project.Track) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == Playing {
		return &TransitionError{Op: "play", From: t.state}
	}

	if !t.outOpen {
		if err := t.out.Open(t.bus.Format(), t.bus); err != nil {
			return fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
		}
		t.outOpen = true
	}

	t.tracks = project.CloneTracks(tracks)
	t.start(t.clock.Now())
	t.state = Playing
	return nil
}

// start schedules every audible track from t.position with one start instant
func (t *Transport) start(now time.Time) {
	t.origin = now.Add(-clock.FromSeconds(t.position))
	tb := t.bus.Anchor(now)

	units := 0
	audible := AudibleTracks(t.tracks)
	for _, track := range audible {
		m := NewMixer(track)
		units += t.scheduler.ScheduleTrack(m, track, now, t.position, tb)
		// The output may already be pulling; attach fully scheduled mixers only
		t.bus.Attach(m)
	}

	log.Printf("Started playback at %.3fs (%s): %d of %d tracks audible, %d units",
		t.position, t.scheduler.Policy(), len(audible), len(t.tracks), units)
}

// Pause stops playback and keeps the position. Valid only from Playing.
func (t *Transport) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Playing {
		return &TransitionError{Op: "pause", From: t.state}
	}

	t.position = clock.Seconds(t.clock.Now().Sub(t.origin))
	n := t.bus.Halt()
	t.state = Paused

	log.Printf("Paused playback at %.3fs (%d units halted)", t.position, n)
	return nil
}

// Stop halts playback and rewinds to zero. Valid from any state.
func (t *Transport) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Transport) stopLocked() {
	n := t.bus.Halt()
	t.position = 0
	t.state = Stopped

	if n > 0 {
		log.Printf("Stopped playback (%d units halted)", n)
	}
}

// Seek moves the playhead. Negative positions clamp to zero. While playing,
// the last played tracks are rescheduled from the new position.
func (t *Transport) Seek(seconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seconds = max(seconds, 0)
	t.position = seconds

	if t.state == Playing {
		t.bus.Halt()
		t.start(t.clock.Now())
	}
}

// PlaybackState returns the state and position, live while playing
func (t *Transport) PlaybackState() PlaybackState {
	t.mu.Lock()
	defer t.mu.Unlock()

	position := t.position
	if t.state == Playing {
		position = clock.Seconds(t.clock.Now().Sub(t.origin))
	}

	return PlaybackState{
		IsPlaying:   t.state == Playing,
		State:       t.state,
		CurrentTime: position,
	}
}

// State returns the transport state
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Live returns the number of live playback units
func (t *Transport) Live() int {
	return t.bus.Live()
}

// Units snapshots the live playback units
func (t *Transport) Units() []UnitInfo {
	return t.bus.Units()
}

// Close stops playback and releases the output
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	if !t.outOpen {
		return nil
	}
	t.outOpen = false
	if err := t.out.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}
