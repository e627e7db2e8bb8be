// ABOUTME: One-shot playback units
// ABOUTME: A unit renders one clip's region of a decoded buffer at an absolute bus frame
package engine

import (
	"time"

	"github.com/Resonate-Protocol/resonate-daw/pkg/audio"
	"github.com/google/uuid"
)

// PlaybackUnit is a single scheduled rendering of one clip region.
// It covers bus frames [StartFrame, StartFrame+length) and reads the
// buffer from srcFrame onward.
type PlaybackUnit struct {
	ID        uuid.UUID
	TrackID   string
	ClipID    string
	WallStart time.Time

	StartFrame int64
	buf        *audio.Buffer
	srcFrame   int
	length     int
}

// UnitInfo describes a live unit
type UnitInfo struct {
	ID         string
	TrackID    string
	ClipID     string
	WallStart  time.Time
	StartFrame int64
	Offset     float64 // seconds into the asset
	Duration   float64 // seconds rendered
}

// newUnit builds a unit for the region [offset, offset+duration) seconds of buf.
// It returns nil when the region holds no frames.
func newUnit(trackID, clipID string, buf *audio.Buffer, offset, duration float64, wallStart time.Time, startFrame int64) *PlaybackUnit {
	srcFrame := buf.FrameAt(offset)
	length := buf.FrameAt(offset+duration) - srcFrame
	if length <= 0 {
		return nil
	}

	return &PlaybackUnit{
		ID:         uuid.New(),
		TrackID:    trackID,
		ClipID:     clipID,
		WallStart:  wallStart,
		StartFrame: startFrame,
		buf:        buf,
		srcFrame:   srcFrame,
		length:     length,
	}
}

// EndFrame is the first bus frame after the unit
func (u *PlaybackUnit) EndFrame() int64 {
	return u.StartFrame + int64(u.length)
}

// Frames returns how many frames the unit renders
func (u *PlaybackUnit) Frames() int {
	return u.length
}

// Info snapshots the unit for diagnostics
func (u *PlaybackUnit) Info() UnitInfo {
	rate := float64(u.buf.Format.SampleRate)
	return UnitInfo{
		ID:         u.ID.String(),
		TrackID:    u.TrackID,
		ClipID:     u.ClipID,
		WallStart:  u.WallStart,
		StartFrame: u.StartFrame,
		Offset:     float64(u.srcFrame) / rate,
		Duration:   float64(u.length) / rate,
	}
}

// mix adds the unit's frames that fall inside [blockStart, blockStart+frames)
// into the stereo accumulator, scaled by the channel gains
func (u *PlaybackUnit) mix(acc []int64, blockStart int64, frames int, gainL, gainR float64) {
	from := max(blockStart, u.StartFrame)
	to := min(blockStart+int64(frames), u.EndFrame())
	if from >= to {
		return
	}

	channels := u.buf.Format.Channels
	right := min(channels-1, 1)
	samples := u.buf.Samples
	for f := from; f < to; f++ {
		src := (u.srcFrame + int(f-u.StartFrame)) * channels
		dst := int(f-blockStart) * 2
		acc[dst] += int64(float64(samples[src]) * gainL)
		acc[dst+1] += int64(float64(samples[src+right]) * gainR)
	}
}
