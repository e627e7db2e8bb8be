// ABOUTME: Entry point for the Resonate DAW playback engine
// ABOUTME: Parses CLI flags, loads a project and runs the transport
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Resonate-Protocol/resonate-daw/internal/asset"
	"github.com/Resonate-Protocol/resonate-daw/internal/config"
	"github.com/Resonate-Protocol/resonate-daw/internal/control"
	"github.com/Resonate-Protocol/resonate-daw/internal/engine"
	"github.com/Resonate-Protocol/resonate-daw/internal/project"
	"github.com/Resonate-Protocol/resonate-daw/internal/session"
	"github.com/Resonate-Protocol/resonate-daw/internal/ui"
	"github.com/Resonate-Protocol/resonate-daw/internal/version"
	"github.com/Resonate-Protocol/resonate-daw/pkg/audio/output"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	projectFile = flag.String("project", "", "Project JSON file to load")
	assetRoot   = flag.String("assets", "", "Directory relative asset refs resolve against (default: project directory)")
	name        = flag.String("name", "", "Friendly name (default: hostname-resonate-daw)")
	logFile     = flag.String("log-file", "resonate-daw.log", "Log file path")
	autoplay    = flag.Bool("play", false, "Start playback once the project is loaded")
	watch       = flag.Bool("watch", false, "Reload the project when its file changes")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}

	flag.IntVar(&cfg.SampleRate, "rate", cfg.SampleRate, "Engine sample rate")
	flag.StringVar(&cfg.Output, "output", cfg.Output, "Output backend: oto, malgo or null")
	flag.IntVar(&cfg.ControlPort, "port", cfg.ControlPort, "Control server port (0 disables)")
	flag.DurationVar(&cfg.FetchTimeout, "fetch-timeout", cfg.FetchTimeout, "Timeout for one asset fetch and decode")
	flag.IntVar(&cfg.PreloadConcurrency, "preload-concurrency", cfg.PreloadConcurrency, "Parallel asset loads during preload")
	flag.StringVar(&cfg.SeekPolicy, "seek-policy", cfg.SeekPolicy, "Clips under the playhead on play: resume or skip")
	noMDNS := flag.Bool("no-mdns", !cfg.MDNS, "Disable mDNS advertisement")
	flag.Parse()
	cfg.MDNS = !*noMDNS

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	displayName := *name
	if displayName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		displayName = fmt.Sprintf("%s-resonate-daw", hostname)
	}

	log.Printf("Starting %s %s: %s", version.Product, version.Version, displayName)
	log.Printf("Engine: %d Hz, output %s, seek policy %s", cfg.SampleRate, cfg.Output, cfg.SeekPolicy)

	root := *assetRoot
	if root == "" && *projectFile != "" {
		root = filepath.Dir(*projectFile)
	}

	cache := asset.NewCache(
		asset.NewFetcher(root, cfg.FetchTimeout),
		cfg.SampleRate,
		asset.WithTimeout(cfg.FetchTimeout),
		asset.WithConcurrency(cfg.PreloadConcurrency),
	)

	out, err := output.New(cfg.Output)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}

	transport := engine.NewTransport(cache, out,
		engine.WithSampleRate(cfg.SampleRate),
		engine.WithSeekPolicy(cfg.Policy()),
	)
	sess := session.New(cache, transport)

	if *projectFile != "" {
		if err := loadProject(sess, *projectFile); err != nil {
			log.Fatalf("Failed to load project: %v", err)
		}

		if *autoplay {
			if err := sess.Play(); err != nil {
				log.Printf("Play failed: %v", err)
			}
		}

		if *watch {
			w, err := project.Watch(*projectFile, func(p *project.Project) {
				if err := sess.Load(p); err != nil {
					log.Printf("Reload rejected: %v", err)
					return
				}
				if _, err := sess.Preload(context.Background()); err != nil {
					log.Printf("Preload after reload failed: %v", err)
				}
			})
			if err != nil {
				log.Fatalf("Failed to watch project: %v", err)
			}
			defer w.Close()
		}
	}

	// Control server
	var srv *control.Server
	if cfg.ControlPort > 0 {
		srv, err = control.NewServer(control.Config{
			Port:       cfg.ControlPort,
			Name:       displayName,
			EnableMDNS: cfg.MDNS,
		}, sess)
		if err != nil {
			log.Fatalf("Failed to create control server: %v", err)
		}

		go func() {
			if err := srv.Start(); err != nil {
				log.Printf("Control server error: %v", err)
			}
		}()
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if useTUI {
		runTUI(ui.Run(sess), sigChan)
	} else {
		log.Printf("Press Ctrl-C to stop")
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down", sig)
	}

	if srv != nil {
		srv.Stop()
	}

	if err := sess.Close(); err != nil {
		log.Printf("Error closing session: %v", err)
	}

	log.Printf("Engine stopped")
}

// loadProject reads a project file into the session and decodes its assets
func loadProject(sess *session.Session, path string) error {
	p, err := project.LoadFile(path)
	if err != nil {
		return err
	}
	if err := sess.Load(p); err != nil {
		return err
	}

	failures, err := sess.Preload(context.Background())
	if err != nil {
		return err
	}
	if len(failures) > 0 {
		log.Printf("%d of %d assets failed to load; their clips stay silent", len(failures), len(p.AssetRefs()))
	}
	return nil
}

// runTUI blocks until the TUI exits or a shutdown signal arrives
func runTUI(prog *tea.Program, sigChan <-chan os.Signal) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := prog.Run(); err != nil {
			log.Printf("TUI error: %v", err)
		}
	}()

	select {
	case <-done:
		log.Printf("Received quit from TUI")
	case sig := <-sigChan:
		log.Printf("Received %v signal, shutting down", sig)
		prog.Quit()
		<-done
	}
}
