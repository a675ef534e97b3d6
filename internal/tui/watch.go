package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/imkarma/rcvlf/internal/workspace"
)

const watchDebounce = 200 * time.Millisecond

// Watcher reports changes to a workspace database made by other processes.
// Bursts of writes (the database and its WAL files) collapse into one
// notification.
type Watcher struct {
	fs      *fsnotify.Watcher
	changes chan struct{}

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
	once  sync.Once
}

// WatchWorkspace starts watching the workspace directory dir.
func WatchWorkspace(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		fs:      fw,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Changes delivers one value per settled burst of database writes.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	})
	return err
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !isDatabaseWrite(event) {
				continue
			}
			w.trigger()
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(watchDebounce, w.notify)
}

func (w *Watcher) notify() {
	select {
	case <-w.done:
	case w.changes <- struct{}{}:
	default:
		// A notification is already waiting.
	}
}

// isDatabaseWrite matches writes to rcvlf.db and its -wal/-shm companions.
func isDatabaseWrite(event fsnotify.Event) bool {
	if !strings.HasPrefix(filepath.Base(event.Name), workspace.DatabaseFile) {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
