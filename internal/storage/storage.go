// Package storage persists project snapshots and the task event log in SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/imkarma/rcvlf/internal/task"
	_ "modernc.org/sqlite"
)

// Project metadata keys.
const (
	keyRootTaskID   = "root_task_id"
	keyActiveTaskID = "active_task_id"
)

// DB provides access to the planner database.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at the given path.
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL lets the UI read while a CLI command writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id           TEXT PRIMARY KEY,
		parent_id    TEXT,
		position     INTEGER NOT NULL DEFAULT 0,
		name         TEXT NOT NULL,
		status       TEXT NOT NULL DEFAULT 'pending',
		confidence   REAL NOT NULL,
		value        INTEGER NOT NULL,
		learning     INTEGER NOT NULL,
		resolution   INTEGER NOT NULL DEFAULT 0,
		focus        INTEGER NOT NULL DEFAULT 0,
		total_score  REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS project (
		key    TEXT PRIMARY KEY,
		value  TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id     TEXT NOT NULL,
		event_type  TEXT NOT NULL,
		content     TEXT DEFAULT '',
		timestamp   DATETIME NOT NULL
	);
	`
	_, err := d.db.Exec(schema)
	return err
}

// SaveState replaces the stored snapshot with state in one transaction.
func (d *DB) SaveState(state task.ProjectState) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	positions := childPositions(state)
	stmt, err := tx.Prepare(
		`INSERT INTO tasks (id, parent_id, position, name, status, confidence, value, learning, resolution, focus, total_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for id, t := range state.Tasks {
		var parentID any
		if t.ParentID != "" {
			parentID = t.ParentID
		}
		_, err := stmt.Exec(
			id, parentID, positions[id], t.Name, string(t.Status),
			t.Confidence, t.Value, t.Learning, t.Resolution, t.Focus, t.TotalScore,
		)
		if err != nil {
			return fmt.Errorf("insert task %s: %w", id, err)
		}
	}

	meta := map[string]string{
		keyRootTaskID:   state.RootTaskID,
		keyActiveTaskID: state.ActiveTaskID,
	}
	for key, value := range meta {
		_, err := tx.Exec(
			`INSERT INTO project (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value,
		)
		if err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// childPositions maps every task id to its index in the parent's ChildIDs.
func childPositions(state task.ProjectState) map[string]int {
	positions := make(map[string]int, len(state.Tasks))
	for _, t := range state.Tasks {
		for i, childID := range t.ChildIDs {
			positions[childID] = i
		}
	}
	return positions
}

// LoadState reads the stored snapshot. An empty database yields an empty state.
func (d *DB) LoadState() (task.ProjectState, error) {
	state := task.NewProjectState()

	rows, err := d.db.Query(
		`SELECT id, parent_id, name, status, confidence, value, learning, resolution, focus, total_score
		 FROM tasks ORDER BY parent_id, position`,
	)
	if err != nil {
		return state, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	// Rows arrive grouped by parent in child order.
	var order []string
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return state, err
		}
		state.Tasks[t.ID] = t
		order = append(order, t.ID)
	}
	if err := rows.Err(); err != nil {
		return state, fmt.Errorf("query tasks: %w", err)
	}

	for _, id := range order {
		t := state.Tasks[id]
		if t.ParentID == "" {
			continue
		}
		parent, ok := state.Tasks[t.ParentID]
		if !ok {
			return state, task.Errorf(task.KindInvalidTree, "Invalid parent reference: %s", t.ParentID)
		}
		parent.ChildIDs = append(parent.ChildIDs, id)
		state.Tasks[t.ParentID] = parent
	}

	if state.RootTaskID, err = d.meta(keyRootTaskID); err != nil {
		return state, err
	}
	if state.ActiveTaskID, err = d.meta(keyActiveTaskID); err != nil {
		return state, err
	}
	return state, nil
}

func (d *DB) meta(key string) (string, error) {
	var value string
	err := d.db.QueryRow(`SELECT value FROM project WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

// scanTask scans a single task from *sql.Rows.
func scanTask(rows *sql.Rows) (task.Task, error) {
	var t task.Task
	var parentID sql.NullString
	var status string
	err := rows.Scan(
		&t.ID, &parentID, &t.Name, &status, &t.Confidence, &t.Value,
		&t.Learning, &t.Resolution, &t.Focus, &t.TotalScore,
	)
	if err != nil {
		return t, fmt.Errorf("scan task: %w", err)
	}
	t.Status = task.Status(status)
	t.ChildIDs = []string{}
	if parentID.Valid {
		t.ParentID = parentID.String
	}
	return t, nil
}

// AddEvent records an event for a task.
func (d *DB) AddEvent(taskID, eventType, content string) error {
	now := time.Now().UTC()
	_, err := d.db.Exec(
		`INSERT INTO events (task_id, event_type, content, timestamp) VALUES (?, ?, ?, ?)`,
		taskID, eventType, content, now,
	)
	if err != nil {
		return fmt.Errorf("add event: %w", err)
	}
	return nil
}

// GetEvents returns all events for a task, oldest first.
func (d *DB) GetEvents(taskID string) ([]Event, error) {
	rows, err := d.db.Query(
		`SELECT id, task_id, event_type, content, timestamp FROM events WHERE task_id = ? ORDER BY timestamp, id`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Type, &e.Content, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
