// Package storage persists the task table and the audit trail as UTF-8 CSV
// files (byte-order marked for spreadsheet compatibility), with atomic
// replace-on-write so a crash mid-save never corrupts the existing file.
package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// utf8BOM is written ahead of the header so spreadsheet applications decode
// the file as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// taskColumns is the mandatory header, in persisted order.
var taskColumns = []string{
	"id", "created_at", "updated_at", "title", "status",
	"owner", "next_action", "notes", "source",
}

// headerSynonyms folds common alternative column names onto the canonical
// ones during load.
var headerSynonyms = map[string]string{
	"assignee":    "owner",
	"assigned_to": "owner",
	"updated_by":  "owner",
	"created":     "created_at",
	"opened":      "created_at",
	"updated":     "updated_at",
	"last_updated": "updated_at",
	"modified":    "updated_at",
	"task":        "title",
	"subject":     "title",
	"state":       "status",
	"remarks":     "notes",
	"memo":        "notes",
	"next":        "next_action",
}

// TaskStore defines the interface for durable task-table persistence.
type TaskStore interface {
	Load() ([]models.Task, error)
	Save(tasks []models.Task) error
	Invalidate()
}

// csvTaskStore implements TaskStore over a single CSV file, fronted by a
// short-TTL in-memory cache to avoid redundant disk reads within a session.
type csvTaskStore struct {
	path  string
	ts    core.Timestamps
	clock core.Clock
	ttl   time.Duration

	mu       sync.Mutex
	cached   []models.Task
	cachedAt time.Time
}

// NewTaskStore creates a TaskStore backed by the CSV file at path. A ttl of
// zero disables the read cache.
func NewTaskStore(path string, ts core.Timestamps, clock core.Clock, ttl time.Duration) TaskStore {
	return &csvTaskStore{path: path, ts: ts, clock: clock, ttl: ttl}
}

// Load reads the task table. A missing file is not an error: it yields an
// empty table. Every returned row has a non-empty, unique ID, and absent
// timestamps are backfilled to now.
func (s *csvTaskStore) Load() ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && s.ttl > 0 && time.Since(s.cachedAt) < s.ttl {
		return cloneTasks(s.cached), nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.cached = []models.Task{}
			s.cachedAt = time.Now()
			return []models.Task{}, nil
		}
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	tasks, err := DecodeTasks(data, s.ts)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	core.AutofillMissing(tasks, s.clock.Now())

	s.cached = cloneTasks(tasks)
	s.cachedAt = time.Now()
	return tasks, nil
}

// Save writes the table back atomically: autofill, sanitize hazardous cells,
// write to a temp file in the same directory, sync, then rename over the
// destination.
func (s *csvTaskStore) Save(tasks []models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := cloneTasks(tasks)
	core.AutofillMissing(out, s.clock.Now())

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(taskColumns); err != nil {
		return fmt.Errorf("saving tasks: writing header: %w", err)
	}
	for _, t := range out {
		record := []string{
			t.ID,
			s.ts.Format(t.CreatedAt),
			s.ts.Format(t.UpdatedAt),
			core.SanitizeCell(t.Title),
			core.SanitizeCell(string(t.Status)),
			core.SanitizeCell(t.Owner),
			core.SanitizeCell(t.NextAction),
			core.SanitizeCell(t.Notes),
			core.SanitizeCell(t.Source),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("saving tasks: writing row %s: %w", t.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("saving tasks: %w", err)
	}

	if err := atomicWrite(s.path, buf.Bytes()); err != nil {
		return fmt.Errorf("saving tasks: %w", err)
	}

	s.cached = cloneTasks(out)
	s.cachedAt = time.Now()
	return nil
}

// Invalidate drops the read cache so the next Load hits the file. Callers
// invoke it after any successful mutation.
func (s *csvTaskStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
}

// DecodeTasks decodes CSV bytes into tasks, normalising the header, healing
// blank and duplicate IDs, and parsing timestamps leniently. It is exported
// so the conflict-merge path can decode a fetched remote table with the same
// rules the local store uses.
func DecodeTasks(data []byte, ts core.Timestamps) ([]models.Task, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return []models.Task{}, nil
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[normalizeHeader(name)] = i
	}

	seen := make(map[string]bool)
	var tasks []models.Task
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}

		cell := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}
		text := func(col string) string {
			return core.DesanitizeCell(core.CleanValue(cell(col)))
		}

		t := models.Task{
			ID:         strings.TrimSpace(cell("id")),
			Title:      text("title"),
			Status:     models.TaskStatus(text("status")),
			Owner:      text("owner"),
			NextAction: text("next_action"),
			Notes:      text("notes"),
			Source:     text("source"),
			CreatedAt:  ts.Parse(cell("created_at")),
			UpdatedAt:  ts.Parse(cell("updated_at")),
		}

		// Blank and duplicate IDs are rewritten; the first occurrence of a
		// duplicate keeps its original ID.
		if core.IsMissing(t.ID) || seen[t.ID] {
			t.ID = uuid.NewString()
		}
		seen[t.ID] = true

		tasks = append(tasks, t)
	}

	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// normalizeHeader canonicalises a column name: full-width spaces collapse to
// ASCII spaces, surrounding whitespace is trimmed, and common synonyms fold
// onto the mandatory column names.
func normalizeHeader(name string) string {
	name = strings.ReplaceAll(name, "　", " ")
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "_")
	if canonical, ok := headerSynonyms[name]; ok {
		return canonical
	}
	return name
}

// atomicWrite replaces path with data via a temp file in the same directory
// so readers never observe a partial file.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func cloneTasks(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)
	return out
}
