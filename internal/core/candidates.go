package core

import (
	"strings"
	"time"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

// ContainsAnyKeyword reports whether text contains at least one of the given
// keywords, case-insensitively. Empty keywords are skipped.
func ContainsAnyKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// ClosingCandidates returns the tasks proposed for closure: in progress,
// marked awaiting-reply by a keyword in their next-action or notes text, and
// not updated since now-maxAge. The result is a pure filtered view; nothing
// is mutated and a task with an absent UpdatedAt never qualifies.
func ClosingCandidates(tasks []models.Task, keywords []string, now time.Time, maxAge time.Duration) []models.Task {
	threshold := now.Add(-maxAge)

	var out []models.Task
	for _, t := range tasks {
		if t.Status != models.StatusInProgress {
			continue
		}
		if !ContainsAnyKeyword(t.NextAction, keywords) && !ContainsAnyKeyword(t.Notes, keywords) {
			continue
		}
		if t.UpdatedAt.IsZero() || !t.UpdatedAt.Before(threshold) {
			continue
		}
		out = append(out, t)
	}
	return out
}
