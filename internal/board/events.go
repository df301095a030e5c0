package board

import (
	"errors"
	"time"
)

// ErrDuplicateTask reports a task id supplied to more than one column slot.
var ErrDuplicateTask = errors.New("duplicate task id")

// ErrDuplicateColumn reports a column id supplied more than once.
var ErrDuplicateColumn = errors.New("duplicate column id")

// ErrInvalidColumn reports an empty column id.
var ErrInvalidColumn = errors.New("invalid column id")

// ColumnSpec describes one fixed column of the board.
type ColumnSpec struct {
	ID    string
	Title string
	Color string
}

// Card is the task summary the board holds for rendering and ordering.
type Card struct {
	ID          string
	ColumnID    string
	Title       string
	Description string
	Priority    string
	DueAt       *time.Time
	Assignee    string
	AvatarRef   string
}

// Move describes one committed change of a task's place.
type Move struct {
	TaskID       string
	FromColumnID string
	ToColumnID   string
	FromIndex    int
	ToIndex      int
}

// CrossColumn reports whether the move changes the task's column.
func (m Move) CrossColumn() bool {
	return m.FromColumnID != m.ToColumnID
}

// Store receives committed moves. A non-nil error rejects the move and rolls it back.
type Store interface {
	MoveTask(move Move) error
}

// StoreFunc adapts a function to Store.
type StoreFunc func(move Move) error

// MoveTask calls f.
func (f StoreFunc) MoveTask(move Move) error {
	return f(move)
}

// Listener receives board events.
type Listener interface {
	TaskMoved(taskID, fromColumnID, toColumnID string)
	TaskReordered(taskID, columnID string, newIndex int)
	TaskOpened(taskID string)
	MoveRejected(move Move, reason error)
}

// NopListener ignores every event. Embed it to implement a subset of Listener.
type NopListener struct{}

// TaskMoved ignores the event.
func (NopListener) TaskMoved(string, string, string) {}

// TaskReordered ignores the event.
func (NopListener) TaskReordered(string, string, int) {}

// TaskOpened ignores the event.
func (NopListener) TaskOpened(string) {}

// MoveRejected ignores the event.
func (NopListener) MoveRejected(Move, error) {}

// Logger is the structured logging surface the controller writes drag lifecycle entries to.
type Logger interface {
	Debug(msg any, keyvals ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(any, ...any) {}

// Result is the terminal state of one drag session.
type Result int

// Drag session results.
const (
	ResultIgnored Result = iota
	ResultCommitted
	ResultCancelled
	ResultRejected
	ResultOpened
)

// String returns a stable name for logging.
func (r Result) String() string {
	switch r {
	case ResultCommitted:
		return "committed"
	case ResultCancelled:
		return "cancelled"
	case ResultRejected:
		return "rejected"
	case ResultOpened:
		return "opened"
	default:
		return "ignored"
	}
}

// Outcome reports how a drag session or gesture ended.
type Outcome struct {
	Result Result
	Move   Move
	TaskID string
	Err    error
}
