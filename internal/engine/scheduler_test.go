// ABOUTME: Tests for clip window computation and scheduling
// ABOUTME: Checks truncation, seek policies and wall-clock alignment
package engine

import (
	"math"
	"testing"
	"time"

	"github.com/Resonate-Protocol/resonate-daw/internal/project"
)

func TestClipWindow(t *testing.T) {
	tests := []struct {
		name     string
		clip     project.Clip
		position float64
		assetDur float64
		policy   SeekPolicy
		ok       bool
		want     Window
	}{
		{
			name:     "full clip",
			clip:     clip("c", "a", 2, 6, 0),
			assetDur: 10,
			ok:       true,
			want:     Window{Start: 2, Offset: 0, Duration: 4},
		},
		{
			name:     "asset shorter than clip",
			clip:     clip("c", "a", 0, 5, 8),
			assetDur: 10,
			ok:       true,
			want:     Window{Start: 0, Offset: 8, Duration: 2},
		},
		{
			name:     "offset past asset end",
			clip:     clip("c", "a", 0, 5, 10),
			assetDur: 10,
			ok:       false,
		},
		{
			name:     "starts after position",
			clip:     clip("c", "a", 5, 7, 1),
			position: 3,
			assetDur: 10,
			ok:       true,
			want:     Window{Start: 5, Offset: 1, Duration: 2},
		},
		{
			name:     "resume mid clip",
			clip:     clip("c", "a", 2, 6, 1),
			position: 3,
			assetDur: 10,
			policy:   SeekResume,
			ok:       true,
			want:     Window{Start: 3, Offset: 2, Duration: 3},
		},
		{
			name:     "resume truncated by asset",
			clip:     clip("c", "a", 0, 8, 0),
			position: 4,
			assetDur: 5,
			policy:   SeekResume,
			ok:       true,
			want:     Window{Start: 4, Offset: 4, Duration: 1},
		},
		{
			name:     "skip mid clip",
			clip:     clip("c", "a", 2, 6, 1),
			position: 3,
			assetDur: 10,
			policy:   SeekSkip,
			ok:       false,
		},
		{
			name:     "clip already over",
			clip:     clip("c", "a", 0, 2, 0),
			position: 2,
			assetDur: 10,
			policy:   SeekResume,
			ok:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClipWindow(tt.clip, tt.position, tt.assetDur, tt.policy)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v (%+v)", tt.ok, ok, got)
			}
			if !ok {
				return
			}
			if math.Abs(got.Start-tt.want.Start) > 1e-9 ||
				math.Abs(got.Offset-tt.want.Offset) > 1e-9 ||
				math.Abs(got.Duration-tt.want.Duration) > 1e-9 {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestScheduleTrackAlignsToPlayStart(t *testing.T) {
	assets := newMemAssets()
	assets.add("a", 10, 1)

	bus := NewBus(testRate)
	tb := bus.Anchor(epoch)
	s := NewScheduler(assets, SeekResume)
	tr := track("t", clip("c1", "a", 1, 3, 0), clip("c2", "a", 6, 7, 0))

	m := NewMixer(tr)
	playStart := epoch
	n := s.ScheduleTrack(m, tr, playStart, 2, tb)
	if n != 2 {
		t.Fatalf("expected 2 units, got %d", n)
	}

	units := m.Units()
	byClip := make(map[string]UnitInfo)
	for _, u := range units {
		byClip[u.ClipID] = u
	}

	// c1 resumes at the play start, c2 lands 4s later
	if !byClip["c1"].WallStart.Equal(playStart) {
		t.Errorf("c1 wall start = %v, want %v", byClip["c1"].WallStart, playStart)
	}
	if got := byClip["c2"].WallStart.Sub(playStart); got != 4*time.Second {
		t.Errorf("c2 wall offset = %v, want 4s", got)
	}
	if byClip["c2"].StartFrame != 4*testRate {
		t.Errorf("c2 start frame = %d, want %d", byClip["c2"].StartFrame, 4*testRate)
	}
	if byClip["c1"].Offset != 1 || byClip["c1"].Duration != 1 {
		t.Errorf("c1 resumed region = %v+%v, want 1+1", byClip["c1"].Offset, byClip["c1"].Duration)
	}
}

func TestScheduleTrackWarmsMissingAssets(t *testing.T) {
	assets := newMemAssets()
	s := NewScheduler(assets, SeekResume)
	tr := track("t", clip("c1", "later.wav", 0, 1, 0))

	m := NewMixer(tr)
	if n := s.ScheduleTrack(m, tr, epoch, 0, NewBus(testRate).Anchor(epoch)); n != 0 {
		t.Errorf("expected no units for an unloaded asset, got %d", n)
	}
	if len(assets.warmed) != 1 || assets.warmed[0] != "later.wav" {
		t.Errorf("expected later.wav to be warmed, got %v", assets.warmed)
	}
}

func TestParseSeekPolicy(t *testing.T) {
	if p, ok := ParseSeekPolicy("skip"); !ok || p != SeekSkip {
		t.Errorf("expected skip, got %v %v", p, ok)
	}
	if p, ok := ParseSeekPolicy(""); !ok || p != SeekResume {
		t.Errorf("expected resume default, got %v %v", p, ok)
	}
	if _, ok := ParseSeekPolicy("rewind"); ok {
		t.Error("expected unknown policy to fail")
	}
	if SeekSkip.String() != "skip" || SeekResume.String() != "resume" {
		t.Error("unexpected policy names")
	}
}
