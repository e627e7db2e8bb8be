// ABOUTME: Offline rendering of tracks to a buffer
// ABOUTME: Drives the same scheduler, mixers and bus without an output device
package engine

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"github.com/Resonate-Protocol/resonate-daw/internal/project"
	"github.com/Resonate-Protocol/resonate-daw/pkg/audio"
)

// offlineBlockFrames is the render block size used when bouncing
const offlineBlockFrames = 4096

// Loader is a Resolver that can also load assets synchronously
type Loader interface {
	Resolver
	Preload(ctx context.Context, refs []string) map[string]error
}

// End returns the timeline position where the last clip of tracks ends
func End(tracks []project.Track) float64 {
	end := 0.0
	for _, t := range tracks {
		for _, c := range t.Clips {
			end = max(end, c.EndTime)
		}
	}
	return end
}

// RenderOffline mixes tracks from position `from` for `length` seconds into
// a stereo buffer. A length of zero renders to the end of the last audible
// clip. Unlike live playback every asset is loaded first; clips whose asset
// fails to load stay silent.
func RenderOffline(ctx context.Context, cache Loader, tracks []project.Track, from, length float64, opts ...Option) (*audio.Buffer, error) {
	cfg := transportConfig{
		sampleRate: audio.DefaultSampleRate,
		policy:     SeekResume,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	from = max(from, 0)

	audible := AudibleTracks(tracks)
	var refs []string
	for _, t := range audible {
		for _, c := range t.Clips {
			if Starts(c, from, cfg.policy) {
				refs = append(refs, c.AssetRef)
			}
		}
	}
	for ref, err := range cache.Preload(ctx, refs) {
		log.Printf("Bounce: clip asset %s unavailable: %v", ref, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if length <= 0 {
		length = End(audible) - from
	}
	if length <= 0 {
		return nil, errors.New("nothing to render after the start position")
	}

	bus := NewBus(cfg.sampleRate)
	scheduler := NewScheduler(cache, cfg.policy)
	epoch := time.Unix(0, 0)
	tb := bus.Anchor(epoch)
	for _, t := range audible {
		m := NewMixer(t)
		scheduler.ScheduleTrack(m, t, epoch, from, tb)
		bus.Attach(m)
	}

	format := bus.Format()
	frames := int(math.Round(length * float64(format.SampleRate)))
	samples := make([]int32, frames*format.Channels)
	for pos := 0; pos < len(samples); pos += offlineBlockFrames * format.Channels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(pos+offlineBlockFrames*format.Channels, len(samples))
		bus.Read(samples[pos:end])
	}

	return &audio.Buffer{Samples: samples, Format: format}, nil
}
