package core

import (
	"time"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

// MergeTables reconciles the local table with a remote table fetched after a
// version conflict, record-by-record keyed by ID:
//
//   - rows present in both: local edits win on every non-timestamp field;
//     UpdatedAt resolves to now when the two sides differ, CreatedAt keeps
//     the earlier of the two values;
//   - rows present only locally are kept (new local work);
//   - rows present only remotely are kept (the other session's work).
//
// Local order is preserved; remote-only rows append in remote order. The
// inputs are not mutated.
func MergeTables(local, remote []models.Task, now time.Time) []models.Task {
	remoteByID := make(map[string]models.Task, len(remote))
	for _, r := range remote {
		remoteByID[r.ID] = r
	}

	merged := make([]models.Task, 0, len(local)+len(remote))
	localIDs := make(map[string]bool, len(local))

	for _, l := range local {
		localIDs[l.ID] = true
		r, inRemote := remoteByID[l.ID]
		if !inRemote {
			merged = append(merged, l)
			continue
		}

		m := l
		m.CreatedAt = earlierNonZero(l.CreatedAt, r.CreatedAt)
		if !snapshotsEqual(l, r) {
			m.UpdatedAt = now
		}
		merged = append(merged, m)
	}

	for _, r := range remote {
		if !localIDs[r.ID] {
			merged = append(merged, r)
		}
	}

	return merged
}

func snapshotsEqual(a, b models.Task) bool {
	return a.Title == b.Title &&
		a.Status == b.Status &&
		a.Owner == b.Owner &&
		a.NextAction == b.NextAction &&
		a.Notes == b.Notes &&
		a.Source == b.Source
}

func earlierNonZero(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case b.Before(a):
		return b
	default:
		return a
	}
}
