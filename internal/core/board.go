// Package core contains the business logic for the task board: value
// sanitisation, timestamp autofill, the closing-candidate query, the
// conflict-merge policy, and the Board service orchestrating persistence,
// remote sync, and audit logging.
package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/valter-silva-au/taskboard/internal/integration"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// DeleteConfirmToken is the literal a caller must supply before any delete
// proceeds. Comparison is case-insensitive after trimming.
const DeleteConfirmToken = "DELETE"

// TaskStore is the subset of storage.TaskStore the board needs. Defining it
// here keeps core independent of the storage package.
type TaskStore interface {
	Load() ([]models.Task, error)
	Save(tasks []models.Task) error
	Invalidate()
}

// AuditStore is the subset of storage.AuditStore the board needs.
type AuditStore interface {
	Append(rec models.AuditRecord) error
}

// ValidationError marks input rejected before any mutation took place.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a rejected-input error, as
// opposed to an I/O or sync failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TaskInput holds the fields accepted when creating a task.
type TaskInput struct {
	Title      string
	Status     models.TaskStatus
	Owner      string
	NextAction string
	Notes      string
	Source     string
}

// TaskChanges holds a partial update; nil fields are left untouched.
type TaskChanges struct {
	Title      *string
	Status     *models.TaskStatus
	Owner      *string
	NextAction *string
	Notes      *string
	Source     *string
}

// ListFilter narrows the List view. Zero values match everything.
type ListFilter struct {
	Status  models.TaskStatus
	Owners  []string
	Keyword string
}

// Board defines the task operations. Every mutating operation follows the
// same sequence: validate, mutate in memory, autofill, save locally, sync
// remotely, then write the audit record. The local file is the system of
// record for durability: a remote failure surfaces an error but never rolls
// back the local save.
type Board interface {
	Create(ctx context.Context, session models.Session, input TaskInput) (*models.Task, error)
	Update(ctx context.Context, session models.Session, taskID string, changes TaskChanges) (*models.Task, error)
	CloseTasks(ctx context.Context, session models.Session, taskIDs []string) ([]models.Task, error)
	Delete(ctx context.Context, session models.Session, taskID, confirm string) error
	DeleteBulk(ctx context.Context, session models.Session, taskIDs []string, confirm string) error
	List(filter ListFilter) ([]models.Task, error)
	Candidates() ([]models.Task, error)
	SyncNow(ctx context.Context, session models.Session, includeAudit bool) error
}

// BoardDeps bundles the collaborators a Board orchestrates. Events may be
// nil; DecodeTable decodes a fetched remote table for conflict merging.
type BoardDeps struct {
	Store       TaskStore
	Audit       AuditStore
	Syncer      integration.ContentSyncer
	Clock       Clock
	Timestamps  Timestamps
	Events      EventLogger
	DecodeTable func(data []byte) ([]models.Task, error)
}

type board struct {
	cfg  models.Config
	deps BoardDeps
}

// NewBoard creates a Board with all dependencies injected.
func NewBoard(cfg models.Config, deps BoardDeps) Board {
	if deps.Events == nil {
		deps.Events = nopEventLogger{}
	}
	return &board{cfg: cfg, deps: deps}
}

// Create validates the input, appends a new task with a fresh ID, and
// persists. CreatedAt and UpdatedAt are both set to now.
func (b *board) Create(ctx context.Context, session models.Session, input TaskInput) (*models.Task, error) {
	now := b.deps.Clock.Now()
	t := models.Task{
		ID:         uuid.NewString(),
		Title:      strings.TrimSpace(CleanValue(input.Title)),
		Status:     input.Status,
		Owner:      CleanValue(input.Owner),
		NextAction: CleanValue(input.NextAction),
		Notes:      CleanValue(input.Notes),
		Source:     CleanValue(input.Source),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if t.Status == "" {
		t.Status = models.StatusInProgress
	}
	if err := b.validateTask(t); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	tasks, err := b.deps.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	tasks = append(tasks, t)

	if err := b.persist(ctx, session, tasks, fmt.Sprintf("create task %s", t.ID)); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	b.writeAudit(ctx, session, models.AuditCreate, t.ID, nil, t.Snapshot())
	b.logEvent("INFO", "task.created", t.Title, map[string]any{"task_id": t.ID, "actor": session.ActorOrAnonymous()})
	return &t, nil
}

// Update applies a partial change to one task. UpdatedAt is stamped to now;
// CreatedAt is never touched by an edit.
func (b *board) Update(ctx context.Context, session models.Session, taskID string, changes TaskChanges) (*models.Task, error) {
	tasks, err := b.deps.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", taskID, err)
	}

	i := indexByID(tasks, taskID)
	if i < 0 {
		return nil, fmt.Errorf("updating task: %w", validationErrorf("task %s not found", taskID))
	}

	before := tasks[i].Snapshot()
	applyChanges(&tasks[i], changes)
	if err := b.validateTask(tasks[i]); err != nil {
		return nil, fmt.Errorf("updating task %s: %w", taskID, err)
	}
	SetUpdatedNow(&tasks[i], b.deps.Clock.Now())

	if err := b.persist(ctx, session, tasks, fmt.Sprintf("update task %s", taskID)); err != nil {
		return nil, fmt.Errorf("updating task %s: %w", taskID, err)
	}

	updated := tasks[i]
	b.writeAudit(ctx, session, models.AuditUpdate, taskID, before, updated.Snapshot())
	b.logEvent("INFO", "task.updated", updated.Title, map[string]any{"task_id": taskID, "actor": session.ActorOrAnonymous()})
	return &updated, nil
}

// CloseTasks transitions the given tasks to closed. It behaves exactly like
// Update with the status forced to closed, one audit record per task.
func (b *board) CloseTasks(ctx context.Context, session models.Session, taskIDs []string) ([]models.Task, error) {
	if len(taskIDs) == 0 {
		return nil, fmt.Errorf("closing tasks: %w", validationErrorf("no task IDs given"))
	}

	tasks, err := b.deps.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("closing tasks: %w", err)
	}

	befores := make(map[string]map[string]string, len(taskIDs))
	now := b.deps.Clock.Now()
	for _, id := range taskIDs {
		i := indexByID(tasks, id)
		if i < 0 {
			return nil, fmt.Errorf("closing tasks: %w", validationErrorf("task %s not found", id))
		}
		befores[id] = tasks[i].Snapshot()
		tasks[i].Status = models.StatusClosed
		SetUpdatedNow(&tasks[i], now)
	}

	if err := b.persist(ctx, session, tasks, fmt.Sprintf("close %d task(s)", len(taskIDs))); err != nil {
		return nil, fmt.Errorf("closing tasks: %w", err)
	}

	var closed []models.Task
	for _, id := range taskIDs {
		i := indexByID(tasks, id)
		closed = append(closed, tasks[i])
		b.writeAudit(ctx, session, models.AuditClose, id, befores[id], tasks[i].Snapshot())
		b.logEvent("INFO", "task.closed", tasks[i].Title, map[string]any{"task_id": id, "actor": session.ActorOrAnonymous()})
	}
	return closed, nil
}

// Delete removes one task after confirmation. The pre-delete snapshot goes
// into the audit record.
func (b *board) Delete(ctx context.Context, session models.Session, taskID, confirm string) error {
	if err := checkConfirm(confirm); err != nil {
		return fmt.Errorf("deleting task %s: %w", taskID, err)
	}
	return b.deleteByIDs(ctx, session, []string{taskID}, models.AuditDelete)
}

// DeleteBulk removes several tasks after a single confirmation.
func (b *board) DeleteBulk(ctx context.Context, session models.Session, taskIDs []string, confirm string) error {
	if err := checkConfirm(confirm); err != nil {
		return fmt.Errorf("deleting tasks: %w", err)
	}
	if len(taskIDs) == 0 {
		return fmt.Errorf("deleting tasks: %w", validationErrorf("no task IDs given"))
	}
	return b.deleteByIDs(ctx, session, taskIDs, models.AuditDeleteBulk)
}

func (b *board) deleteByIDs(ctx context.Context, session models.Session, taskIDs []string, action models.AuditAction) error {
	tasks, err := b.deps.Store.Load()
	if err != nil {
		return fmt.Errorf("deleting: %w", err)
	}

	befores := make(map[string]map[string]string, len(taskIDs))
	drop := make(map[string]bool, len(taskIDs))
	for _, id := range taskIDs {
		i := indexByID(tasks, id)
		if i < 0 {
			return fmt.Errorf("deleting: %w", validationErrorf("task %s not found", id))
		}
		befores[id] = tasks[i].Snapshot()
		drop[id] = true
	}

	kept := tasks[:0:0]
	for _, t := range tasks {
		if !drop[t.ID] {
			kept = append(kept, t)
		}
	}

	if err := b.persist(ctx, session, kept, fmt.Sprintf("delete %d task(s)", len(taskIDs))); err != nil {
		return fmt.Errorf("deleting: %w", err)
	}

	for _, id := range taskIDs {
		b.writeAudit(ctx, session, action, id, befores[id], nil)
		b.logEvent("INFO", "task.deleted", id, map[string]any{"task_id": id, "actor": session.ActorOrAnonymous()})
	}
	return nil
}

// List returns the tasks matching the filter, most recently updated first.
func (b *board) List(filter ListFilter) ([]models.Task, error) {
	tasks, err := b.deps.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	var out []models.Task
	for _, t := range tasks {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if len(filter.Owners) > 0 && !containsString(filter.Owners, t.Owner) {
			continue
		}
		if filter.Keyword != "" {
			kw := []string{filter.Keyword}
			if !ContainsAnyKeyword(t.Title, kw) && !ContainsAnyKeyword(t.Notes, kw) && !ContainsAnyKeyword(t.NextAction, kw) {
				continue
			}
		}
		out = append(out, t)
	}

	sortByUpdatedDesc(out)
	return out, nil
}

// Candidates returns the closing-candidate view over the current table.
func (b *board) Candidates() ([]models.Task, error) {
	tasks, err := b.deps.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("listing closing candidates: %w", err)
	}
	maxAge := time.Duration(b.cfg.CandidateMaxAgeDays) * 24 * time.Hour
	return ClosingCandidates(tasks, b.cfg.ReplyKeywords, b.deps.Clock.Now(), maxAge), nil
}

// SyncNow pushes the current table (and optionally the audit file) to the
// remote without mutating anything. Conflicts go through the same merge
// policy as mutating operations.
func (b *board) SyncNow(ctx context.Context, session models.Session, includeAudit bool) error {
	tasks, err := b.deps.Store.Load()
	if err != nil {
		return fmt.Errorf("syncing: %w", err)
	}
	if err := b.persist(ctx, session, tasks, "manual sync"); err != nil {
		return fmt.Errorf("syncing: %w", err)
	}
	if includeAudit {
		msg := b.commitMessage("manual audit sync")
		if err := b.deps.Syncer.Sync(ctx, b.cfg.AuditPath, b.cfg.GitHub.AuditPath, msg, session); err != nil {
			return fmt.Errorf("syncing audit log: %w", err)
		}
	}
	return nil
}

// persist saves the table locally, then syncs it to the remote. On a version
// conflict it fetches the latest remote table, merges it with the local one
// keyed by ID, saves the merged table, and retries the sync exactly once.
// The local save is never rolled back on remote failure.
func (b *board) persist(ctx context.Context, session models.Session, tasks []models.Task, action string) error {
	if err := b.deps.Store.Save(tasks); err != nil {
		return err
	}

	msg := b.commitMessage(action)
	err := b.deps.Syncer.Sync(ctx, b.cfg.TasksPath, b.cfg.GitHub.TasksPath, msg, session)
	if errors.Is(err, integration.ErrConflict) {
		b.logEvent("WARN", "sync.conflict", action, nil)
		if err := b.mergeAndRetry(ctx, session, tasks, msg); err != nil {
			b.logEvent("ERROR", "sync.failed", action, map[string]any{"error": err.Error()})
			return err
		}
		err = nil
	}
	if err != nil {
		b.logEvent("ERROR", "sync.failed", action, map[string]any{"error": err.Error()})
		return err
	}

	b.deps.Store.Invalidate()
	b.logEvent("INFO", "sync.ok", action, nil)
	return nil
}

// mergeAndRetry implements the documented conflict policy: fetch the latest
// remote table, merge record-by-record, save the merged table, retry once.
// A second conflict surfaces to the caller, who must reload and redo.
func (b *board) mergeAndRetry(ctx context.Context, session models.Session, local []models.Task, message string) error {
	remote, _, err := b.deps.Syncer.Fetch(ctx, b.cfg.GitHub.TasksPath)
	if err != nil {
		return fmt.Errorf("resolving sync conflict: %w", err)
	}

	var remoteTasks []models.Task
	if len(remote) > 0 && b.deps.DecodeTable != nil {
		remoteTasks, err = b.deps.DecodeTable(remote)
		if err != nil {
			return fmt.Errorf("resolving sync conflict: decoding remote table: %w", err)
		}
	}

	merged := MergeTables(local, remoteTasks, b.deps.Clock.Now())
	if err := b.deps.Store.Save(merged); err != nil {
		return fmt.Errorf("resolving sync conflict: saving merged table: %w", err)
	}

	if err := b.deps.Syncer.Sync(ctx, b.cfg.TasksPath, b.cfg.GitHub.TasksPath, message+" [merged]", session); err != nil {
		return fmt.Errorf("retrying after conflict merge: %w", err)
	}
	return nil
}

// writeAudit appends one audit record and mirrors the audit file to the
// remote. Audit failures are reported to the event log but never fail the
// task mutation that triggered them: the task change is already committed.
func (b *board) writeAudit(ctx context.Context, session models.Session, action models.AuditAction, taskID string, before, after map[string]string) {
	rec := models.AuditRecord{
		Time:   b.deps.Clock.Now(),
		Actor:  session.ActorOrAnonymous(),
		Action: action,
		TaskID: taskID,
		Before: before,
		After:  after,
	}
	if err := b.deps.Audit.Append(rec); err != nil {
		b.logEvent("ERROR", "audit.append_failed", string(action), map[string]any{"task_id": taskID, "error": err.Error()})
		return
	}

	msg := b.commitMessage(fmt.Sprintf("audit %s %s", action, taskID))
	if err := b.deps.Syncer.Sync(ctx, b.cfg.AuditPath, b.cfg.GitHub.AuditPath, msg, session); err != nil {
		b.logEvent("WARN", "audit.sync_failed", string(action), map[string]any{"task_id": taskID, "error": err.Error()})
	}
}

func (b *board) commitMessage(action string) string {
	return fmt.Sprintf("taskboard: %s (%s)", action, b.deps.Timestamps.Format(b.deps.Clock.Now()))
}

// validateTask enforces the input-boundary rules: non-empty title, known
// status, and (when a fixed owner list is configured) a listed owner.
func (b *board) validateTask(t models.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return validationErrorf("title is required")
	}
	if !models.ValidStatus(t.Status) {
		return validationErrorf("status %q is invalid, must be one of: %s, %s, %s",
			t.Status, models.StatusNotStarted, models.StatusInProgress, models.StatusClosed)
	}
	if len(b.cfg.FixedOwners) > 0 && t.Owner != "" && !containsString(b.cfg.FixedOwners, t.Owner) {
		return validationErrorf("owner %q is not in the configured owner list", t.Owner)
	}
	return nil
}

func (b *board) logEvent(level, eventType, message string, data map[string]any) {
	_ = b.deps.Events.LogEvent(level, eventType, message, data)
}

func applyChanges(t *models.Task, changes TaskChanges) {
	if changes.Title != nil {
		t.Title = strings.TrimSpace(CleanValue(*changes.Title))
	}
	if changes.Status != nil {
		t.Status = *changes.Status
	}
	if changes.Owner != nil {
		t.Owner = CleanValue(*changes.Owner)
	}
	if changes.NextAction != nil {
		t.NextAction = CleanValue(*changes.NextAction)
	}
	if changes.Notes != nil {
		t.Notes = CleanValue(*changes.Notes)
	}
	if changes.Source != nil {
		t.Source = CleanValue(*changes.Source)
	}
}

func checkConfirm(confirm string) error {
	if strings.ToUpper(strings.TrimSpace(confirm)) != DeleteConfirmToken {
		return validationErrorf("confirmation token must be %q", DeleteConfirmToken)
	}
	return nil
}

func indexByID(tasks []models.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func sortByUpdatedDesc(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].UpdatedAt.After(tasks[j].UpdatedAt)
	})
}
