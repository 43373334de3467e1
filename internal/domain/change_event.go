package domain

import "time"

// ChangeOperation describes a persisted activity operation for a project.
type ChangeOperation string

// ChangeOperation values used by the local activity ledger.
const (
	ChangeOperationCreate   ChangeOperation = "create"
	ChangeOperationUpdate   ChangeOperation = "update"
	ChangeOperationPhase    ChangeOperation = "phase"
	ChangeOperationDecision ChangeOperation = "decision"
	ChangeOperationDiscard  ChangeOperation = "discard"
	ChangeOperationArchive  ChangeOperation = "archive"
	ChangeOperationRestore  ChangeOperation = "restore"
)

// ChangeEvent represents a single activity-log entry for a project.
type ChangeEvent struct {
	ID         int64
	ProjectID  string
	Operation  ChangeOperation
	Metadata   map[string]string
	OccurredAt time.Time
}
