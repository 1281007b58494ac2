package models

import "time"

// AuditAction identifies which mutating operation produced an audit record.
type AuditAction string

const (
	AuditCreate     AuditAction = "create"
	AuditUpdate     AuditAction = "update"
	AuditDelete     AuditAction = "delete"
	AuditDeleteBulk AuditAction = "delete_bulk"
	AuditClose      AuditAction = "close"
)

// ValidAuditAction reports whether a is a known audit action.
func ValidAuditAction(a AuditAction) bool {
	switch a {
	case AuditCreate, AuditUpdate, AuditDelete, AuditDeleteBulk, AuditClose:
		return true
	}
	return false
}

// AuditRecord is one append-only entry in the audit trail. Before and After
// hold field snapshots of the task around the mutation; Before is nil for
// create, After is nil for delete.
type AuditRecord struct {
	Time   time.Time
	Actor  string
	Action AuditAction
	TaskID string
	Before map[string]string
	After  map[string]string
}
