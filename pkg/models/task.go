package models

import "time"

// TaskStatus represents the current handling state of a task.
type TaskStatus string

const (
	StatusNotStarted TaskStatus = "not_started"
	StatusInProgress TaskStatus = "in_progress"
	StatusClosed     TaskStatus = "closed"
)

// AllStatuses lists the statuses accepted at the input boundary, in
// display order.
var AllStatuses = []TaskStatus{StatusNotStarted, StatusInProgress, StatusClosed}

// ValidStatus reports whether s is one of the three accepted statuses.
func ValidStatus(s TaskStatus) bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

// Task represents a single row of the task board. CreatedAt is assigned once
// when the task is created and never changed by edits; UpdatedAt is stamped
// on every mutating operation. A zero time means the value is absent and will
// be backfilled before the next save.
type Task struct {
	ID         string
	Title      string
	Status     TaskStatus
	Owner      string
	NextAction string
	Notes      string
	Source     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Snapshot returns the task's free-text fields plus status as a flat map,
// used for audit before/after records.
func (t Task) Snapshot() map[string]string {
	return map[string]string{
		"title":       t.Title,
		"status":      string(t.Status),
		"owner":       t.Owner,
		"next_action": t.NextAction,
		"notes":       t.Notes,
		"source":      t.Source,
	}
}

// Session carries the acting identity through every operation. It replaces
// ambient session state so tests can inject a fixed actor.
type Session struct {
	Actor string
}

// ActorOrAnonymous returns the session actor, or "anonymous" when unset.
func (s Session) ActorOrAnonymous() string {
	if s.Actor == "" {
		return "anonymous"
	}
	return s.Actor
}
