// ABOUTME: Tests for offline rendering
// ABOUTME: Checks bounce length, placement and missing-asset tolerance
package engine

import (
	"context"
	"testing"

	"github.com/Resonate-Protocol/resonate-daw/internal/project"
)

func TestRenderOffline(t *testing.T) {
	assets := newMemAssets()
	assets.add("a.wav", 2, 400)

	tracks := []project.Track{
		track("t", clip("c", "a.wav", 1, 2, 0)),
		track("broken", clip("x", "missing.wav", 0, 3, 0)),
	}

	buf, err := RenderOffline(context.Background(), assets, tracks, 0, 0, WithSampleRate(testRate))
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	// Renders to the end of the last clip, the missing asset's clip included
	if buf.Frames() != 3*testRate {
		t.Fatalf("expected %d frames, got %d", 3*testRate, buf.Frames())
	}
	if buf.Samples[0] != 0 {
		t.Errorf("expected silence before the clip, got %d", buf.Samples[0])
	}
	if got := buf.Samples[2*testRate]; got != 400 {
		t.Errorf("expected clip audio at 1s, got %d", got)
	}
	if got := buf.Samples[2*(2*testRate)]; got != 0 {
		t.Errorf("expected silence after the clip, got %d", got)
	}
}

func TestRenderOfflineFromPosition(t *testing.T) {
	assets := newMemAssets()
	assets.add("a.wav", 4, 7)

	tracks := []project.Track{track("t", clip("c", "a.wav", 0, 4, 0))}
	buf, err := RenderOffline(context.Background(), assets, tracks, 3, 0, WithSampleRate(testRate))
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if buf.Frames() != testRate {
		t.Errorf("expected 1s of audio, got %d frames", buf.Frames())
	}
	if buf.Samples[0] != 7 {
		t.Errorf("expected the clip to resume at the start position, got %d", buf.Samples[0])
	}

	if _, err := RenderOffline(context.Background(), assets, tracks, 5, 0, WithSampleRate(testRate)); err == nil {
		t.Error("expected error when nothing is left to render")
	}
}

func TestRenderOfflineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := RenderOffline(ctx, newMemAssets(), nil, 0, 1, WithSampleRate(testRate)); err == nil {
		t.Error("expected error for cancelled context")
	}
}
