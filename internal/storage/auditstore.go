package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// auditColumns is the audit file header, in persisted order. The before and
// after cells hold JSON-encoded field snapshots.
var auditColumns = []string{"ts", "actor", "action", "task_id", "before", "after"}

// AuditFilter narrows the records returned by Records. Empty fields match
// everything.
type AuditFilter struct {
	TaskID string
	Action models.AuditAction
}

// AuditStore defines the interface for the append-only audit trail.
// Records are never mutated or deleted once written.
type AuditStore interface {
	Append(rec models.AuditRecord) error
	Records(filter AuditFilter) ([]models.AuditRecord, error)
}

// csvAuditStore implements AuditStore over a CSV file with the same atomic
// replacement discipline as the task store.
type csvAuditStore struct {
	path string
	ts   core.Timestamps

	mu sync.Mutex
}

// NewAuditStore creates an AuditStore backed by the CSV file at path.
// Timestamps in the audit file always carry the time component regardless of
// the task-table format flag.
func NewAuditStore(path string, ts core.Timestamps) AuditStore {
	ts.WithTime = true
	return &csvAuditStore{path: path, ts: ts}
}

// Append loads the existing trail (or starts an empty one), adds the record,
// and writes the whole file back atomically.
func (s *csvAuditStore) Append(rec models.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows()
	if err != nil {
		return fmt.Errorf("appending audit record: %w", err)
	}

	row, err := s.encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("appending audit record: %w", err)
	}
	rows = append(rows, row)

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(auditColumns); err != nil {
		return fmt.Errorf("appending audit record: writing header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("appending audit record: writing rows: %w", err)
	}
	if err := atomicWrite(s.path, buf.Bytes()); err != nil {
		return fmt.Errorf("appending audit record: %w", err)
	}
	return nil
}

// Records reads the audit trail and returns the entries matching the filter,
// oldest first.
func (s *csvAuditStore) Records(filter AuditFilter) ([]models.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows()
	if err != nil {
		return nil, fmt.Errorf("reading audit records: %w", err)
	}

	var out []models.AuditRecord
	for _, row := range rows {
		rec := s.decodeRecord(row)
		if filter.TaskID != "" && rec.TaskID != filter.TaskID {
			continue
		}
		if filter.Action != "" && rec.Action != filter.Action {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// readRows returns the existing data rows, skipping the header. A missing
// file yields no rows.
func (s *csvAuditStore) readRows() ([][]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	var rows [][]string
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing audit CSV: %w", err)
		}
		if first {
			first = false
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *csvAuditStore) encodeRecord(rec models.AuditRecord) ([]string, error) {
	before, err := encodeSnapshot(rec.Before)
	if err != nil {
		return nil, fmt.Errorf("encoding before snapshot: %w", err)
	}
	after, err := encodeSnapshot(rec.After)
	if err != nil {
		return nil, fmt.Errorf("encoding after snapshot: %w", err)
	}
	return []string{
		s.ts.Format(rec.Time),
		core.SanitizeCell(rec.Actor),
		string(rec.Action),
		rec.TaskID,
		core.SanitizeCell(before),
		core.SanitizeCell(after),
	}, nil
}

func (s *csvAuditStore) decodeRecord(row []string) models.AuditRecord {
	cell := func(i int) string {
		if i >= len(row) {
			return ""
		}
		return row[i]
	}
	return models.AuditRecord{
		Time:   s.ts.Parse(cell(0)),
		Actor:  core.DesanitizeCell(cell(1)),
		Action: models.AuditAction(cell(2)),
		TaskID: cell(3),
		Before: decodeSnapshot(core.DesanitizeCell(cell(4))),
		After:  decodeSnapshot(core.DesanitizeCell(cell(5))),
	}
}

// encodeSnapshot serialises a field snapshot as JSON. A nil snapshot (absent
// before/after) encodes as the empty string.
func encodeSnapshot(snap map[string]string) (string, error) {
	if snap == nil {
		return "", nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeSnapshot is lenient: malformed JSON yields nil rather than failing
// the whole read.
func decodeSnapshot(s string) map[string]string {
	if s == "" {
		return nil
	}
	var snap map[string]string
	if err := json.Unmarshal([]byte(s), &snap); err != nil {
		return nil
	}
	return snap
}
