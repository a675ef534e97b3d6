package storage

import "time"

// Event types recorded in the history log.
const (
	EventCreated       = "created"
	EventStatusChanged = "status_changed"
	EventScoreUpdated  = "score_updated"
	EventPlanned       = "planned"
)

// Event represents something that happened to a task.
type Event struct {
	ID        int64     `json:"id"`
	TaskID    string    `json:"task_id"`
	Type      string    `json:"event_type"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
