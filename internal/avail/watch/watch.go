// Package watch recompiles a module whenever its source file, or any
// module it Uses or Extends, changes on disk, using fsnotify the way
// pack example runsys-core watches its asset directories.
package watch

import (
	"fmt"
	"io"

	"github.com/fsnotify/fsnotify"
)

// Watcher tracks a module's source file plus its transitive Uses/Extends
// dependencies, invoking Recompile whenever any of them changes.
type Watcher struct {
	fsw       *fsnotify.Watcher
	tracked   map[string]bool
	Recompile func(changedPath string)
	Log       io.Writer
}

// New constructs a Watcher with no files tracked yet.
func New() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create filesystem watcher: %w", err)
	}
	return &Watcher{fsw: fsw, tracked: make(map[string]bool)}, nil
}

// Track adds path to the watched set, typically called once per module
// dependency discovered while resolving a module header's Uses/Extends
// clause (§4.8, §6).
func (w *Watcher) Track(path string) error {
	if w.tracked[path] {
		return nil
	}
	if err := w.fsw.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	w.tracked[path] = true
	return nil
}

// Run blocks, dispatching Recompile for every write/create event on a
// tracked path, until Close is called.
func (w *Watcher) Run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if w.Recompile != nil {
				w.Recompile(ev.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.Log != nil {
				fmt.Fprintf(w.Log, "watch error: %v\n", err)
			}
		}
	}
}

// Close stops watching and releases the underlying OS resources.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
