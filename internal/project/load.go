// ABOUTME: Project snapshot decoding and validation
// ABOUTME: Reads JSON snapshots from readers or files and checks invariants
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrInvalidProject is wrapped by every validation failure
var ErrInvalidProject = errors.New("invalid project")

// Decode reads and validates a JSON project snapshot
func Decode(r io.Reader) (*Project, error) {
	var p Project
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadFile reads a project snapshot from disk
func LoadFile(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open project: %w", err)
	}
	defer f.Close()

	p, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Validate checks the snapshot invariants the engine relies on
func (p *Project) Validate() error {
	ids := make(map[string]bool, len(p.Tracks))
	for i, t := range p.Tracks {
		if t.ID == "" {
			return fmt.Errorf("%w: track %d has no id", ErrInvalidProject, i)
		}
		if ids[t.ID] {
			return fmt.Errorf("%w: duplicate track id %q", ErrInvalidProject, t.ID)
		}
		ids[t.ID] = true

		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a single track and its clips
func (t *Track) Validate() error {
	if t.Volume < 0 {
		return fmt.Errorf("%w: track %q volume %v is negative", ErrInvalidProject, t.ID, t.Volume)
	}
	if t.Pan < -1 || t.Pan > 1 {
		return fmt.Errorf("%w: track %q pan %v outside [-1, 1]", ErrInvalidProject, t.ID, t.Pan)
	}

	for _, c := range t.Clips {
		switch {
		case c.AssetRef == "":
			return fmt.Errorf("%w: clip %q has no asset", ErrInvalidProject, c.ID)
		case c.StartTime < 0:
			return fmt.Errorf("%w: clip %q starts before zero", ErrInvalidProject, c.ID)
		case c.EndTime <= c.StartTime:
			return fmt.Errorf("%w: clip %q ends at or before its start", ErrInvalidProject, c.ID)
		case c.SourceOffset < 0:
			return fmt.Errorf("%w: clip %q has a negative source offset", ErrInvalidProject, c.ID)
		}
	}
	return nil
}
