// Package watcher polls a directory tree for changes.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ngenohkevin/tagdeck/internal/logging"
)

// Event types.
const (
	EventCreate = "create"
	EventModify = "modify"
	EventDelete = "delete"
)

// Event represents a file system change.
type Event struct {
	Type string `json:"type"`
	Path string `json:"path"`
	Time int64  `json:"time"`
}

// Watcher watches one folder at a time.
type Watcher struct {
	interval   time.Duration
	metaFolder string

	mu       sync.Mutex
	root     string
	depth    int
	state    map[string]int64 // path -> mtime
	onChange func()
	cancel   context.CancelFunc
	done     chan struct{}
	last     []Event
}

// New creates a watcher polling every interval. Entries inside the meta
// folder are ignored.
func New(interval time.Duration, metaFolder string) *Watcher {
	if interval == 0 {
		interval = 2 * time.Second
	}
	return &Watcher{
		interval:   interval,
		metaFolder: metaFolder,
	}
}

// WatchFolder replaces the current watch with one on root. Changes up to
// depth levels below root trigger onChange once per poll.
func (w *Watcher) WatchFolder(root string, onChange func(), depth int) error {
	w.StopWatching()

	if depth <= 0 {
		depth = 1
	}
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &fs.PathError{Op: "watch", Path: root, Err: fs.ErrInvalid}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	w.mu.Lock()
	w.root = root
	w.depth = depth
	w.onChange = onChange
	w.state = w.scan(root, depth)
	w.cancel = cancel
	w.done = done
	w.mu.Unlock()

	go w.watchLoop(ctx, done)

	logging.Info("watching folder", logging.String("path", root), logging.Int("depth", depth))
	return nil
}

// StopWatching ends the current watch, if any, and waits for the poller.
func (w *Watcher) StopWatching() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	root := w.root
	w.root = ""
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	logging.Debug("stopped watching folder", logging.String("path", root))
}

// Watching returns the watched folder, empty when idle
func (w *Watcher) Watching() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.root
}

// LastEvents returns the events of the most recent change
func (w *Watcher) LastEvents() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Event(nil), w.last...)
}

func (w *Watcher) watchLoop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.checkChanges(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// scan records the mtime of every entry up to depth levels below root
func (w *Watcher) scan(root string, depth int) map[string]int64 {
	state := make(map[string]int64)
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if path == root {
			return nil
		}
		if d.Name() == w.metaFolder {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		level := strings.Count(relPath, string(filepath.Separator)) + 1
		if level > depth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		state[relPath] = info.ModTime().UnixNano()
		if d.IsDir() && level == depth {
			return filepath.SkipDir
		}
		return nil
	})
	return state
}

func (w *Watcher) checkChanges(ctx context.Context) {
	w.mu.Lock()
	root, depth, old := w.root, w.depth, w.state
	w.mu.Unlock()

	newState := w.scan(root, depth)
	now := time.Now().Unix()

	var events []Event
	for path, mtime := range newState {
		oldMtime, exists := old[path]
		if !exists {
			events = append(events, Event{Type: EventCreate, Path: path, Time: now})
		} else if mtime != oldMtime {
			events = append(events, Event{Type: EventModify, Path: path, Time: now})
		}
	}
	for path := range old {
		if _, exists := newState[path]; !exists {
			events = append(events, Event{Type: EventDelete, Path: path, Time: now})
		}
	}

	// A stop between scan and here must not fire the callback
	if ctx.Err() != nil {
		return
	}

	w.mu.Lock()
	w.state = newState
	onChange := w.onChange
	if len(events) > 0 {
		w.last = events
	}
	w.mu.Unlock()

	if len(events) > 0 {
		logging.Debug("folder changed", logging.String("path", root), logging.Int("events", len(events)))
		// Run apart from the poller so the callback may stop or replace the watch
		if onChange != nil {
			go onChange()
		}
	}
}
