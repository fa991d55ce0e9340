// Package watch reports edits to emitter input files so that a long-running
// profile can reload and renormalize the source when its inputs change.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce is how long a file must stay quiet before its change is reported.
const Debounce = 100 * time.Millisecond

// Change is a settled edit of one watched file.
type Change struct {
	File    string // absolute path
	Removed bool   // the file no longer exists
}

// Watcher monitors a fixed set of files. It watches their parent
// directories, so files that editors replace by rename are still seen.
type Watcher struct {
	Changes <-chan Change

	files   map[string]bool
	dirs    []string
	changes chan Change
	done    chan struct{}
	watcher *fsnotify.Watcher
}

// New creates a watcher for files. Empty paths are ignored.
func New(files ...string) (*Watcher, error) {
	set := make(map[string]bool, len(files))
	seenDir := make(map[string]bool)
	var dirs []string
	for _, f := range files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("watch: %s: %w", f, err)
		}
		set[abs] = true
		if dir := filepath.Dir(abs); !seenDir[dir] {
			seenDir[dir] = true
			dirs = append(dirs, dir)
		}
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("watch: no files to watch")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	ch := make(chan Change, 16)
	return &Watcher{
		Changes: ch,
		files:   set,
		dirs:    dirs,
		changes: ch,
		done:    make(chan struct{}),
		watcher: fw,
	}, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	for _, dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			w.watcher.Close()
			return fmt.Errorf("watch: %s: %w", dir, err)
		}
	}
	go w.loop()
	return nil
}

// Stop closes the watcher, waits for its goroutine, and closes Changes.
// Stop must only be called after a successful Start.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(Debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				for file := range pending {
					w.emit(file)
				}
				return
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !w.files[name] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[name] = time.Now()
			}

		case now := <-ticker.C:
			for file, t := range pending {
				if now.Sub(t) >= Debounce {
					w.emit(file)
					delete(pending, file)
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// emit reports file without blocking. A full buffer already holds a
// pending reload, so the change is dropped.
func (w *Watcher) emit(file string) {
	_, err := os.Stat(file)
	select {
	case w.changes <- Change{File: file, Removed: os.IsNotExist(err)}:
	default:
	}
}
