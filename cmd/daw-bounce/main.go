// ABOUTME: Offline bounce of a project to a WAV file
// ABOUTME: Mixes a timeline range through the engine without an output device
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Resonate-Protocol/resonate-daw/internal/asset"
	"github.com/Resonate-Protocol/resonate-daw/internal/config"
	"github.com/Resonate-Protocol/resonate-daw/internal/engine"
	"github.com/Resonate-Protocol/resonate-daw/internal/project"
	"github.com/Resonate-Protocol/resonate-daw/pkg/audio/encode"
)

var (
	projectFile = flag.String("project", "", "Project JSON file to render (required)")
	outFile     = flag.String("out", "bounce.wav", "Output WAV file")
	assetRoot   = flag.String("assets", "", "Directory relative asset refs resolve against (default: project directory)")
	from        = flag.Float64("from", 0, "Timeline position to start from, in seconds")
	length      = flag.Float64("length", 0, "Seconds to render (0 renders to the end of the last clip)")
	bitDepth    = flag.Int("bit-depth", 24, "Output bit depth: 16 or 24")
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}

	flag.IntVar(&cfg.SampleRate, "rate", cfg.SampleRate, "Render sample rate")
	flag.StringVar(&cfg.SeekPolicy, "seek-policy", cfg.SeekPolicy, "Clips under the start position: resume or skip")
	flag.Parse()

	if *projectFile == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	p, err := project.LoadFile(*projectFile)
	if err != nil {
		log.Fatalf("Failed to load project: %v", err)
	}

	root := *assetRoot
	if root == "" {
		root = filepath.Dir(*projectFile)
	}

	cache := asset.NewCache(
		asset.NewFetcher(root, cfg.FetchTimeout),
		cfg.SampleRate,
		asset.WithTimeout(cfg.FetchTimeout),
		asset.WithConcurrency(cfg.PreloadConcurrency),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Rendering %s from %.2fs at %d Hz", *projectFile, *from, cfg.SampleRate)

	buf, err := engine.RenderOffline(ctx, cache, p.Tracks, *from, *length,
		engine.WithSampleRate(cfg.SampleRate),
		engine.WithSeekPolicy(cfg.Policy()),
	)
	if err != nil {
		log.Fatalf("Render failed: %v", err)
	}

	f, err := os.Create(*outFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}

	if err := encode.WriteWAV(f, buf, *bitDepth); err != nil {
		f.Close()
		log.Fatalf("Failed to write WAV: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("Failed to close output file: %v", err)
	}

	log.Printf("Wrote %s: %.2fs, %d-bit", *outFile, buf.Duration(), *bitDepth)
}
