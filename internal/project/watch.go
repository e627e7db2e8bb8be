// ABOUTME: Project file watcher for hot reload
// ABOUTME: Re-reads a project snapshot whenever its file is written or replaced
package project

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the bursts of events a single save produces
const reloadDelay = 200 * time.Millisecond

// Watcher reloads a project file when it changes on disk
type Watcher struct {
	path     string
	onChange func(*Project)
	watcher  *fsnotify.Watcher

	closed    chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// Watch calls onChange with every valid version of the file at path written
// after Watch returns. Invalid versions are logged and skipped.
func Watch(path string, onChange func(*Project)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	// Watch the directory: editors often replace the file instead of writing it
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch project dir: %w", err)
	}

	w := &Watcher{
		path:     abs,
		onChange: onChange,
		watcher:  watcher,
		closed:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.watchLoop()

	log.Printf("Watching %s for changes", abs)
	return w, nil
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.closed:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Project watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	p, err := LoadFile(w.path)
	if err != nil {
		log.Printf("Project reload failed for %s: %v", w.path, err)
		return
	}
	log.Printf("Reloaded project %s", w.path)
	w.onChange(p)
}

// Close stops watching
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closed)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}
