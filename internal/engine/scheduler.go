// ABOUTME: Clip scheduler
// ABOUTME: Turns a track's clips into playback units aligned to one transport start
package engine

import (
	"log"
	"time"

	"github.com/Resonate-Protocol/resonate-daw/internal/asset"
	"github.com/Resonate-Protocol/resonate-daw/internal/clock"
	"github.com/Resonate-Protocol/resonate-daw/internal/project"
)

// SeekPolicy decides what happens to clips already sounding at the start position
type SeekPolicy int

const (
	// SeekResume plays the remainder of a clip that started before the position
	SeekResume SeekPolicy = iota

	// SeekSkip only plays clips starting at or after the position
	SeekSkip
)

func (p SeekPolicy) String() string {
	switch p {
	case SeekResume:
		return "resume"
	case SeekSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// ParseSeekPolicy maps "resume" and "skip" to a policy
func ParseSeekPolicy(s string) (SeekPolicy, bool) {
	switch s {
	case "resume", "":
		return SeekResume, true
	case "skip":
		return SeekSkip, true
	default:
		return SeekResume, false
	}
}

// Resolver is the non-blocking view of the asset cache the scheduler needs
type Resolver interface {
	Lookup(ref string) (*asset.Asset, bool)
	Warm(ref string)
}

// Window is the part of a clip that renders for one play, in seconds
type Window struct {
	Start    float64 // timeline position where the unit begins
	Offset   float64 // position in the asset
	Duration float64
}

// Starts reports whether a clip produces audio when playback begins at
// position, before the asset length is known
func Starts(c project.Clip, position float64, policy SeekPolicy) bool {
	if c.StartTime >= position {
		return true
	}
	return policy == SeekResume && c.EndTime > position
}

// ClipWindow computes the region of c that renders when playback begins at
// position. The duration is truncated to the asset tail; ok is false when
// nothing would render.
func ClipWindow(c project.Clip, position, assetDuration float64, policy SeekPolicy) (w Window, ok bool) {
	if !Starts(c, position, policy) {
		return Window{}, false
	}

	if c.StartTime >= position {
		w = Window{
			Start:    c.StartTime,
			Offset:   c.SourceOffset,
			Duration: c.PlayDuration(),
		}
	} else {
		elapsed := position - c.StartTime
		w = Window{
			Start:    position,
			Offset:   c.SourceOffset + elapsed,
			Duration: c.EndTime - position,
		}
	}

	w.Duration = min(w.Duration, max(0, assetDuration-w.Offset))
	return w, w.Duration > 0
}

// Scheduler creates playback units for clips
type Scheduler struct {
	cache  Resolver
	policy SeekPolicy
}

// NewScheduler creates a scheduler reading assets from cache
func NewScheduler(cache Resolver, policy SeekPolicy) *Scheduler {
	return &Scheduler{cache: cache, policy: policy}
}

// Policy returns the seek policy
func (s *Scheduler) Policy() SeekPolicy {
	return s.policy
}

// ScheduleTrack schedules every clip of t into m for a play that began at
// playStart from position seconds. A clip lands at playStart + (start - position).
// Clips whose asset is not decoded yet stay silent for this play and start
// loading in the background. It returns the number of units scheduled.
func (s *Scheduler) ScheduleTrack(m *Mixer, t project.Track, playStart time.Time, position float64, tb Timebase) int {
	scheduled := 0
	for _, c := range t.Clips {
		if !Starts(c, position, s.policy) {
			continue
		}

		a, ok := s.cache.Lookup(c.AssetRef)
		if !ok {
			log.Printf("Clip %s silent: asset %s not loaded yet", c.ID, c.AssetRef)
			s.cache.Warm(c.AssetRef)
			continue
		}

		w, ok := ClipWindow(c, position, a.Duration(), s.policy)
		if !ok {
			continue
		}

		wallStart := playStart.Add(clock.FromSeconds(w.Start - position))
		u := newUnit(t.ID, c.ID, a.Buffer, w.Offset, w.Duration, wallStart, tb.FrameAt(wallStart))
		if u == nil {
			continue
		}
		m.Schedule(u)
		scheduled++
	}
	return scheduled
}
