package core

import (
	"strings"
	"time"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

// Clock abstracts "now" so operations are deterministic under test.
type Clock interface {
	Now() time.Time
}

// zoneClock is the production Clock: the wall clock pinned to a single
// fixed zone. The zone is a configuration constant, not a per-user setting.
type zoneClock struct {
	loc *time.Location
}

// NewZoneClock creates a Clock that reports the current time in loc.
func NewZoneClock(loc *time.Location) Clock {
	return &zoneClock{loc: loc}
}

func (c *zoneClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// storageLayouts are the accepted persisted timestamp formats, tried in
// order when parsing.
var storageLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// Timestamps formats and parses the two persisted timestamp columns. The
// WithTime flag is read once from configuration and applied uniformly.
type Timestamps struct {
	WithTime bool
	Loc      *time.Location
}

// NewTimestamps builds the formatting helper for the given configuration.
func NewTimestamps(withTime bool, loc *time.Location) Timestamps {
	return Timestamps{WithTime: withTime, Loc: loc}
}

// Format renders a timestamp in the configured storage format. The zero
// time renders as the empty string.
func (ts Timestamps) Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if ts.WithTime {
		return t.In(ts.Loc).Format("2006-01-02 15:04:05")
	}
	return t.In(ts.Loc).Format("2006-01-02")
}

// Parse reads a persisted timestamp leniently. Missing sentinels and values
// that match no known layout yield the zero time, never an error: a corrupt
// cell must not prevent the table from loading.
func (ts Timestamps) Parse(s string) time.Time {
	if IsMissing(s) {
		return time.Time{}
	}
	s = strings.TrimSpace(s)
	for _, layout := range storageLayouts {
		if t, err := time.ParseInLocation(layout, s, ts.Loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

// AutofillMissing backfills absent CreatedAt/UpdatedAt values with now.
// Present values are never replaced, so applying it twice changes nothing.
// It runs once after load (healing previously corrupted data) and once
// immediately before every save (final safety net).
func AutofillMissing(tasks []models.Task, now time.Time) {
	for i := range tasks {
		if tasks[i].CreatedAt.IsZero() {
			tasks[i].CreatedAt = now
		}
		if tasks[i].UpdatedAt.IsZero() {
			tasks[i].UpdatedAt = now
		}
	}
}

// SetUpdatedNow stamps the task's UpdatedAt. Every mutating operation calls
// this; CreatedAt is deliberately out of its reach.
func SetUpdatedNow(t *models.Task, now time.Time) {
	t.UpdatedAt = now
}
