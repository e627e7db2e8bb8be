// ABOUTME: Shared fixtures for engine tests
// ABOUTME: In-memory asset resolver, scripted output and clip builders
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Resonate-Protocol/resonate-daw/internal/asset"
	"github.com/Resonate-Protocol/resonate-daw/internal/clock"
	"github.com/Resonate-Protocol/resonate-daw/internal/project"
	"github.com/Resonate-Protocol/resonate-daw/pkg/audio"
	"github.com/Resonate-Protocol/resonate-daw/pkg/audio/output"
)

// testRate keeps test buffers small: one frame per millisecond
const testRate = 1000

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// memAssets resolves refs from a fixed set of buffers
type memAssets struct {
	mu     sync.Mutex
	assets map[string]*asset.Asset
	warmed []string
}

func newMemAssets() *memAssets {
	return &memAssets{assets: make(map[string]*asset.Asset)}
}

// add registers a constant-valued stereo asset of the given length
func (m *memAssets) add(ref string, seconds float64, value int32) {
	frames := int(seconds * testRate)
	samples := make([]int32, frames*2)
	for i := range samples {
		samples[i] = value
	}
	m.assets[ref] = &asset.Asset{
		ID:     ref,
		Ref:    ref,
		Buffer: &audio.Buffer{Samples: samples, Format: audio.EngineFormat(testRate)},
	}
}

func (m *memAssets) Lookup(ref string) (*asset.Asset, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[ref]
	return a, ok
}

func (m *memAssets) Warm(ref string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warmed = append(m.warmed, ref)
}

func (m *memAssets) Preload(ctx context.Context, refs []string) map[string]error {
	failures := make(map[string]error)
	for _, ref := range refs {
		if _, ok := m.Lookup(ref); !ok {
			failures[ref] = fmt.Errorf("not found: %s", ref)
		}
	}
	return failures
}

// gatedAssets blocks every Lookup until release is closed
type gatedAssets struct {
	*memAssets
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedAssets(assets *memAssets) *gatedAssets {
	return &gatedAssets{
		memAssets: assets,
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (g *gatedAssets) Lookup(ref string) (*asset.Asset, bool) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.memAssets.Lookup(ref)
}

// fakeOutput records Open and Close without pulling
type fakeOutput struct {
	openErr error
	opens   int
	closes  int
	src     output.Source
	format  audio.Format
}

func (f *fakeOutput) Open(format audio.Format, src output.Source) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.opens++
	f.src = src
	f.format = format
	return nil
}

func (f *fakeOutput) Close() error {
	f.closes++
	return nil
}

var errNoDevice = errors.New("no output device")

func newTestTransport(assets *memAssets, opts ...Option) (*Transport, *fakeOutput, *clock.Manual) {
	clk := clock.NewManual(epoch)
	out := &fakeOutput{}
	opts = append([]Option{WithClock(clk), WithSampleRate(testRate)}, opts...)
	return NewTransport(assets, out, opts...), out, clk
}

func clip(id, ref string, start, end, offset float64) project.Clip {
	return project.Clip{ID: id, AssetRef: ref, StartTime: start, EndTime: end, SourceOffset: offset}
}

func track(id string, clips ...project.Clip) project.Track {
	return project.Track{ID: id, Name: id, Volume: 1, Clips: clips}
}

// readFrames pulls frames stereo frames from the bus
func readFrames(b *Bus, frames int) ([]int32, int) {
	samples := make([]int32, frames*2)
	n := b.Read(samples)
	return samples, n
}
