// ABOUTME: Tests for the project file watcher
// ABOUTME: Writes project files to a temp dir and waits for reloads
package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const watchedProject = `{"id":"p1","bpm":120,"tracks":[{"id":"t1","volume":1,"pan":0,"clips":[]}]}`

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.json")
	if err := os.WriteFile(path, []byte(watchedProject), 0o644); err != nil {
		t.Fatalf("failed to write project: %v", err)
	}

	changes := make(chan *Project, 4)
	w, err := Watch(path, func(p *Project) { changes <- p })
	if err != nil {
		t.Fatalf("failed to watch: %v", err)
	}
	defer w.Close()

	updated := `{"id":"p2","bpm":90,"tracks":[]}`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("failed to rewrite project: %v", err)
	}

	select {
	case p := <-changes:
		if p.ID != "p2" || p.BPM != 90 {
			t.Errorf("expected reloaded p2 at 90 BPM, got %s at %v", p.ID, p.BPM)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatchSkipsInvalidAndOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.json")
	if err := os.WriteFile(path, []byte(watchedProject), 0o644); err != nil {
		t.Fatalf("failed to write project: %v", err)
	}

	changes := make(chan *Project, 4)
	w, err := Watch(path, func(p *Project) { changes <- p })
	if err != nil {
		t.Fatalf("failed to watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte(watchedProject), 0o644); err != nil {
		t.Fatalf("failed to write other file: %v", err)
	}
	if err := os.WriteFile(path, []byte(`{"id":`), 0o644); err != nil {
		t.Fatalf("failed to write invalid project: %v", err)
	}

	select {
	case p := <-changes:
		t.Errorf("expected no reload, got %+v", p)
	case <-time.After(600 * time.Millisecond):
	}
}

func TestWatchMissingDir(t *testing.T) {
	_, err := Watch(filepath.Join(t.TempDir(), "missing", "project.json"), func(*Project) {})
	if err == nil {
		t.Error("expected error watching a missing directory")
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	w, err := Watch(filepath.Join(t.TempDir(), "project.json"), func(*Project) {})
	if err != nil {
		t.Fatalf("failed to watch: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("unexpected second close error: %v", err)
	}
}
