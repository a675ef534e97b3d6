// Package workspace wires a planner directory (.rcvlf/) together: config,
// logger, database and the in-memory store restored from it. Every state
// the store publishes is written back to the database.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/imkarma/rcvlf/internal/config"
	"github.com/imkarma/rcvlf/internal/logging"
	"github.com/imkarma/rcvlf/internal/storage"
	"github.com/imkarma/rcvlf/internal/store"
)

// DirName is the workspace directory created by `rcvlf init`.
const DirName = ".rcvlf"

// File names inside the workspace directory.
const (
	ConfigFile   = "config.yaml"
	DatabaseFile = "rcvlf.db"
)

// ErrNotInitialized is returned when no workspace exists at the given root.
var ErrNotInitialized = errors.New("rcvlf not initialized. Run: rcvlf init")

// Workspace bundles everything a command needs.
type Workspace struct {
	Dir    string
	Config *config.Config
	Log    *logging.Logger
	DB     *storage.DB
	Store  *store.Store

	unsubscribe func()
	saveErr     error
}

// Path returns the path to a file inside the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Init creates a new workspace under root with a default config and an
// empty database.
func Init(root string) (string, error) {
	dir := filepath.Join(root, DirName)
	if _, err := os.Stat(dir); err == nil {
		return "", fmt.Errorf("rcvlf already initialized in this directory (%s/ exists)", DirName)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", DirName, err)
	}

	if err := config.Save(filepath.Join(dir, ConfigFile), config.DefaultConfig()); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}

	db, err := storage.Open(filepath.Join(dir, DatabaseFile))
	if err != nil {
		return "", fmt.Errorf("create database: %w", err)
	}
	return dir, db.Close()
}

// Open loads the workspace under root and restores the store from the
// database.
func Open(root string) (*Workspace, error) {
	dir := filepath.Join(root, DirName)
	dbPath := filepath.Join(dir, DatabaseFile)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, ErrNotInitialized
	}

	cfg, err := config.Load(filepath.Join(dir, ConfigFile))
	if err != nil {
		return nil, err
	}

	log, err := logging.New(dir, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		log.Close()
		return nil, err
	}

	w := &Workspace{
		Dir:    dir,
		Config: cfg,
		Log:    log,
		DB:     db,
		Store:  store.New(),
	}
	if err := w.Reload(); err != nil {
		w.close()
		return nil, err
	}
	w.unsubscribe = w.Store.Subscribe(w.persist)
	return w, nil
}

// Reload replaces the store's state with what is in the database.
func (w *Workspace) Reload() error {
	state, err := w.DB.LoadState()
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if err := w.Store.Restore(state); err != nil {
		return fmt.Errorf("restore state: %w", err)
	}
	w.Log.Debug("state restored", "tasks", len(state.Tasks))
	return nil
}

// persist writes the current snapshot. Listeners cannot return errors, so
// the first failure is kept and reported by Close.
func (w *Workspace) persist() {
	state := w.Store.State()
	if err := w.DB.SaveState(state); err != nil {
		w.Log.Error("save state failed", "error", err)
		if w.saveErr == nil {
			w.saveErr = err
		}
		return
	}
	w.Log.Debug("state saved", "tasks", len(state.Tasks), "active", state.ActiveTaskID)
}

// Err returns the first persistence failure, if any.
func (w *Workspace) Err() error {
	return w.saveErr
}

// Record appends an event to a task's history.
func (w *Workspace) Record(taskID, eventType, content string) {
	w.Log.WithTask(taskID).Info(content, "event", eventType)
	if err := w.DB.AddEvent(taskID, eventType, content); err != nil {
		w.Log.Error("record event failed", "task_id", taskID, "error", err)
	}
}

// Close detaches persistence and releases resources. It reports any save
// failure that happened while the workspace was open.
func (w *Workspace) Close() error {
	if w.unsubscribe != nil {
		w.unsubscribe()
	}
	err := w.close()
	if w.saveErr != nil {
		return fmt.Errorf("save state: %w", w.saveErr)
	}
	return err
}

func (w *Workspace) close() error {
	err := w.DB.Close()
	w.Log.Close()
	return err
}
