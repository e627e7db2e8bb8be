// ABOUTME: Command-line remote for a running DAW engine
// ABOUTME: Sends one control command over WebSocket and prints the resulting state
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/Resonate-Protocol/resonate-daw/internal/control"
	"github.com/Resonate-Protocol/resonate-daw/internal/discovery"
	"github.com/Resonate-Protocol/resonate-daw/internal/engine"
	"github.com/Resonate-Protocol/resonate-daw/internal/project"
	"github.com/Resonate-Protocol/resonate-daw/internal/session"
)

var (
	serverAddr = flag.String("server", "", "Control server address host:port (default: discover via mDNS)")
	timeout    = flag.Duration("timeout", 5*time.Second, "How long to wait for discovery and replies")
	verbose    = flag.Bool("v", false, "Log protocol traffic")
)

// errorGrace is how long a state reply is held back in case an error follows
const errorGrace = 150 * time.Millisecond

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: daw-ctl [flags] <command> [args]

Commands:
  state                     print the transport state
  play | pause | stop       transport control
  seek <seconds>            move the playhead
  load <project.json>       replace the project
  preload                   decode every asset of the project
  mute|unmute <track>       change a track's mute flag
  solo|unsolo <track>       change a track's solo flag
  volume <track> <gain>     set a track's volume
  pan <track> <-1..1>       set a track's pan

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	addr, path, err := resolveServer()
	if err != nil {
		fail(err)
	}

	client := control.NewClient(addr).WithPath(path)
	if err := client.Connect(); err != nil {
		fail(err)
	}
	defer client.Close()

	// Initial state follows the hello
	state, err := waitState(client, 0)
	if err != nil {
		fail(err)
	}

	args := flag.Args()
	switch args[0] {
	case "state":
		printState(state)
		return
	case "preload":
		if err := client.Preload(); err != nil {
			fail(err)
		}
		select {
		case p := <-client.Preloaded:
			for ref, msg := range p.Failed {
				fmt.Printf("failed: %s: %s\n", ref, msg)
			}
			fmt.Printf("preload complete, %d failures\n", len(p.Failed))
		case e := <-client.Errors:
			fail(fmt.Errorf("%s: %s", e.Code, e.Message))
		case <-time.After(*timeout):
			fail(fmt.Errorf("timed out waiting for preload"))
		}
		return
	}

	if err := sendCommand(client, args); err != nil {
		fail(err)
	}

	state, err = waitState(client, errorGrace)
	if err != nil {
		fail(err)
	}
	printState(state)
}

// sendCommand maps command-line arguments onto one control message
func sendCommand(c *control.Client, args []string) error {
	need := func(n int) error {
		if len(args) != n+1 {
			return fmt.Errorf("%s takes %d argument(s)", args[0], n)
		}
		return nil
	}

	switch args[0] {
	case "play":
		return c.Play()
	case "pause":
		return c.Pause()
	case "stop":
		return c.Stop()
	case "seek":
		if err := need(1); err != nil {
			return err
		}
		seconds, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid position: %w", err)
		}
		return c.Seek(seconds)
	case "load":
		if err := need(1); err != nil {
			return err
		}
		p, err := project.LoadFile(args[1])
		if err != nil {
			return err
		}
		return c.LoadProject(p)
	case "mute", "unmute":
		if err := need(1); err != nil {
			return err
		}
		muted := args[0] == "mute"
		return c.UpdateTrack(session.TrackUpdate{TrackID: args[1], Muted: &muted})
	case "solo", "unsolo":
		if err := need(1); err != nil {
			return err
		}
		solo := args[0] == "solo"
		return c.UpdateTrack(session.TrackUpdate{TrackID: args[1], Solo: &solo})
	case "volume", "pan":
		if err := need(2); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", args[0], err)
		}
		u := session.TrackUpdate{TrackID: args[1]}
		if args[0] == "volume" {
			u.Volume = &v
		} else {
			u.Pan = &v
		}
		return c.UpdateTrack(u)
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// waitState returns the next state, or the error reported within grace of it
func waitState(c *control.Client, grace time.Duration) (engine.PlaybackState, error) {
	deadline := time.After(*timeout)

	var state engine.PlaybackState
	select {
	case state = <-c.States:
	case e := <-c.Errors:
		return state, fmt.Errorf("%s: %s", e.Code, e.Message)
	case <-deadline:
		return state, fmt.Errorf("timed out waiting for state")
	}

	if grace > 0 {
		select {
		case e := <-c.Errors:
			return state, fmt.Errorf("%s: %s", e.Code, e.Message)
		case <-time.After(grace):
		}
	}
	return state, nil
}

// resolveServer returns the server address and path, browsing mDNS when none is given
func resolveServer() (string, string, error) {
	if *serverAddr != "" {
		return *serverAddr, control.Path, nil
	}

	disc := discovery.NewManager(discovery.Config{})
	defer disc.Stop()
	disc.Browse()

	select {
	case server := <-disc.Servers():
		return server.Addr(), server.Path, nil
	case <-time.After(*timeout):
		return "", "", fmt.Errorf("no control server found after %v", *timeout)
	}
}

func printState(s engine.PlaybackState) {
	fmt.Printf("%s at %.2fs\n", s.State, s.CurrentTime)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "daw-ctl: %v\n", err)
	os.Exit(1)
}
