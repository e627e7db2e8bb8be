// ABOUTME: Shared fixtures for asset tests
// ABOUTME: Builds WAV payloads and scripted fetchers
package asset

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Resonate-Protocol/resonate-daw/pkg/audio"
	"github.com/Resonate-Protocol/resonate-daw/pkg/audio/encode"
)

// wavBytes returns a WAV file of the given length filled with a constant sample
func wavBytes(t *testing.T, sampleRate, channels int, seconds float64, value int32) []byte {
	t.Helper()

	frames := int(seconds * float64(sampleRate))
	samples := make([]int32, frames*channels)
	for i := range samples {
		samples[i] = value
	}
	buf := &audio.Buffer{
		Samples: samples,
		Format:  audio.Format{Codec: "pcm", SampleRate: sampleRate, Channels: channels, BitDepth: 24},
	}

	var out bytes.Buffer
	if err := encode.WriteWAV(&out, buf, 24); err != nil {
		t.Fatalf("failed to build wav: %v", err)
	}
	return out.Bytes()
}

// mapFetcher serves payloads from memory, optionally holding every fetch until release is closed
type mapFetcher struct {
	mu       sync.Mutex
	payloads map[string][]byte
	calls    atomic.Int64
	entered  chan struct{}
	release  chan struct{}
}

func newMapFetcher(payloads map[string][]byte) *mapFetcher {
	return &mapFetcher{payloads: payloads}
}

func (f *mapFetcher) gate() {
	f.entered = make(chan struct{}, 64)
	f.release = make(chan struct{})
}

func (f *mapFetcher) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	f.calls.Add(1)
	if f.entered != nil {
		f.entered <- struct{}{}
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.payloads[ref]
	if !ok {
		return nil, "", fmt.Errorf("not found: %s", ref)
	}
	return data, "", nil
}

// flacHeaderOnly is a FLAC stream whose STREAMINFO declares 2^36-1 stereo
// samples and which carries no frames
func flacHeaderOnly() []byte {
	var b bytes.Buffer
	b.WriteString("fLaC")
	b.Write([]byte{0x80, 0x00, 0x00, 34})
	binary.Write(&b, binary.BigEndian, uint16(4096))
	binary.Write(&b, binary.BigEndian, uint16(4096))
	b.Write([]byte{0, 0, 0, 0, 0, 0})
	binary.Write(&b, binary.BigEndian, uint64(44100)<<44|uint64(1)<<41|uint64(15)<<36|(1<<36-1))
	b.Write(make([]byte, 16))
	return b.Bytes()
}

// panicFetcher panics for one ref and delegates the rest
type panicFetcher struct {
	Fetcher
	ref string
}

func (f panicFetcher) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	if ref == f.ref {
		panic("fetcher exploded")
	}
	return f.Fetcher.Fetch(ctx, ref)
}
