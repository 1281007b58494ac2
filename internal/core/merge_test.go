package core

import (
	"testing"
	"time"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

func TestMergeTables_LocalWinsOnSharedRows(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, tokyo)
	earlier := now.Add(-2 * time.Hour)

	local := []models.Task{
		{ID: "t1", Title: "local title", Status: models.StatusInProgress, UpdatedAt: earlier},
	}
	remote := []models.Task{
		{ID: "t1", Title: "remote title", Status: models.StatusClosed, UpdatedAt: earlier},
	}

	merged := MergeTables(local, remote, now)

	if len(merged) != 1 {
		t.Fatalf("expected 1 row, got %d", len(merged))
	}
	if merged[0].Title != "local title" || merged[0].Status != models.StatusInProgress {
		t.Fatalf("expected local fields to win, got %+v", merged[0])
	}
	if !merged[0].UpdatedAt.Equal(now) {
		t.Fatalf("expected UpdatedAt resolved to now on diverging rows, got %v", merged[0].UpdatedAt)
	}
}

func TestMergeTables_IdenticalRowsKeepTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, tokyo)
	earlier := now.Add(-2 * time.Hour)

	local := []models.Task{{ID: "t1", Title: "same", UpdatedAt: earlier}}
	remote := []models.Task{{ID: "t1", Title: "same", UpdatedAt: earlier}}

	merged := MergeTables(local, remote, now)

	if !merged[0].UpdatedAt.Equal(earlier) {
		t.Fatalf("identical rows must keep their timestamp, got %v", merged[0].UpdatedAt)
	}
}

func TestMergeTables_KeepsBothSidesUniqueRows(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, tokyo)

	local := []models.Task{
		{ID: "shared", Title: "shared"},
		{ID: "local-only", Title: "mine"},
	}
	remote := []models.Task{
		{ID: "shared", Title: "shared"},
		{ID: "remote-only", Title: "theirs"},
	}

	merged := MergeTables(local, remote, now)

	if len(merged) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(merged))
	}
	// Local order first, remote-only rows appended.
	if merged[0].ID != "shared" || merged[1].ID != "local-only" || merged[2].ID != "remote-only" {
		t.Fatalf("unexpected order: %s, %s, %s", merged[0].ID, merged[1].ID, merged[2].ID)
	}
}

func TestMergeTables_EarlierCreatedAtWins(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, tokyo)
	older := now.AddDate(0, -1, 0)
	newer := now.AddDate(0, 0, -1)

	local := []models.Task{{ID: "t1", CreatedAt: newer}}
	remote := []models.Task{{ID: "t1", CreatedAt: older}}

	merged := MergeTables(local, remote, now)

	if !merged[0].CreatedAt.Equal(older) {
		t.Fatalf("expected earlier CreatedAt kept, got %v", merged[0].CreatedAt)
	}
}

func TestMergeTables_EmptyRemote(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, tokyo)
	local := []models.Task{{ID: "t1", Title: "only"}}

	merged := MergeTables(local, nil, now)

	if len(merged) != 1 || merged[0].Title != "only" {
		t.Fatalf("expected local table unchanged, got %+v", merged)
	}
}
