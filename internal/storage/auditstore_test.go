package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

func newTestAuditStore(t *testing.T) (AuditStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.csv")
	// Date-only task timestamps must not leak into the audit trail.
	return NewAuditStore(path, core.NewTimestamps(false, jst)), path
}

func sampleRecord(action models.AuditAction, taskID string) models.AuditRecord {
	return models.AuditRecord{
		Time:   time.Date(2026, 3, 14, 9, 26, 53, 0, jst),
		Actor:  "alice",
		Action: action,
		TaskID: taskID,
		Before: map[string]string{"status": "in_progress"},
		After:  map[string]string{"status": "closed"},
	}
}

func TestAuditStore_AppendAndRead(t *testing.T) {
	store, _ := newTestAuditStore(t)

	if err := store.Append(sampleRecord(models.AuditClose, "t1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Append(sampleRecord(models.AuditUpdate, "t2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := store.Records(AuditFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	// Oldest first, fields intact.
	rec := records[0]
	if rec.Action != models.AuditClose || rec.Actor != "alice" || rec.TaskID != "t1" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Before["status"] != "in_progress" || rec.After["status"] != "closed" {
		t.Fatalf("snapshots did not round trip: %+v", rec)
	}
}

func TestAuditStore_TimestampAlwaysCarriesTime(t *testing.T) {
	store, path := newTestAuditStore(t)
	if err := store.Append(sampleRecord(models.AuditCreate, "t1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), "2026-03-14 09:26:53") {
		t.Fatalf("expected second-precision timestamp, got:\n%s", data)
	}
}

func TestAuditStore_Filter(t *testing.T) {
	store, _ := newTestAuditStore(t)
	_ = store.Append(sampleRecord(models.AuditClose, "t1"))
	_ = store.Append(sampleRecord(models.AuditUpdate, "t1"))
	_ = store.Append(sampleRecord(models.AuditClose, "t2"))

	records, err := store.Records(AuditFilter{TaskID: "t1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records for t1, got %d", len(records))
	}

	records, err = store.Records(AuditFilter{TaskID: "t1", Action: models.AuditClose})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 close record for t1, got %d", len(records))
	}
}

func TestAuditStore_NilSnapshots(t *testing.T) {
	store, _ := newTestAuditStore(t)
	rec := sampleRecord(models.AuditCreate, "t1")
	rec.Before = nil

	if err := store.Append(rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, _ := store.Records(AuditFilter{})
	if records[0].Before != nil {
		t.Fatalf("expected nil before snapshot, got %+v", records[0].Before)
	}
	if records[0].After == nil {
		t.Fatal("expected after snapshot kept")
	}
}

func TestAuditStore_EmptyFile(t *testing.T) {
	store, _ := newTestAuditStore(t)

	records, err := store.Records(AuditFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}
