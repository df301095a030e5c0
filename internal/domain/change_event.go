package domain

import (
	"slices"
	"time"
)

// ChangeOperation describes a persisted activity operation for a task.
type ChangeOperation string

// ChangeOperation values used by the local activity ledger.
const (
	ChangeOperationCreate  ChangeOperation = "create"
	ChangeOperationMove    ChangeOperation = "move"
	ChangeOperationReorder ChangeOperation = "reorder"
	ChangeOperationArchive ChangeOperation = "archive"
)

// ActorType describes who made a change.
type ActorType string

// ActorType values.
const (
	ActorTypeUser   ActorType = "user"
	ActorTypeAgent  ActorType = "agent"
	ActorTypeSystem ActorType = "system"
)

// Valid reports whether op is a known operation.
func (op ChangeOperation) Valid() bool {
	return slices.Contains([]ChangeOperation{ChangeOperationCreate, ChangeOperationMove, ChangeOperationReorder, ChangeOperationArchive}, op)
}

// ChangeEvent represents a single activity-log entry for a board task.
type ChangeEvent struct {
	ID         int64
	BoardID    string
	TaskID     string
	Operation  ChangeOperation
	ActorType  ActorType
	Metadata   map[string]string
	OccurredAt time.Time
}
