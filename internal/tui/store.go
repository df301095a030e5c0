package tui

import (
	"fmt"

	"github.com/evanschultz/ngoboard/internal/app"
	"github.com/evanschultz/ngoboard/internal/board"
	"github.com/evanschultz/ngoboard/internal/domain"
)

// moveQueue is the controller's Store. It applies column rules synchronously
// against the loaded board and queues accepted moves for persistence.
type moveQueue struct {
	ctrl    *board.Controller
	columns map[string]domain.Column
	pending []board.Move
	// inflight counts drained moves whose persistence has not reported back.
	inflight int
}

func newMoveQueue() *moveQueue {
	return &moveQueue{columns: map[string]domain.Column{}}
}

// setColumns replaces the column rules with those of a freshly loaded board.
func (q *moveQueue) setColumns(view app.BoardView) {
	q.columns = make(map[string]domain.Column, len(view.Columns))
	for _, col := range view.Columns {
		q.columns[col.Column.ID] = col.Column
	}
}

// MoveTask runs after the controller applied move, so the target already holds the task.
func (q *moveQueue) MoveTask(move board.Move) error {
	col, ok := q.columns[move.ToColumnID]
	if !ok {
		return fmt.Errorf("%w: %q", app.ErrUnknownColumn, move.ToColumnID)
	}
	occupied := 0
	if q.ctrl != nil {
		occupied = len(q.ctrl.TaskIDs(move.ToColumnID))
	}
	if move.CrossColumn() {
		occupied--
	}
	if err := app.CheckMove(col, max(occupied, 0), move.CrossColumn()); err != nil {
		return err
	}
	q.pending = append(q.pending, move)
	return nil
}

// drain returns and clears queued moves, marking them in flight.
func (q *moveQueue) drain() []board.Move {
	out := q.pending
	q.pending = nil
	q.inflight += len(out)
	return out
}

// settle records one persisted or failed move.
func (q *moveQueue) settle() {
	q.inflight = max(0, q.inflight-1)
}

// settled reports whether the store has answered every drained move.
func (q *moveQueue) settled() bool {
	return q.inflight == 0 && len(q.pending) == 0
}

// boardEvents collects controller events for the next Update pass.
type boardEvents struct {
	titles   func(id string) string
	opened   string
	notice   string
	activity string
}

// TaskMoved records a cross-column move.
func (e *boardEvents) TaskMoved(taskID, _, toColumnID string) {
	e.activity = fmt.Sprintf("moved %q to %s", e.titles(taskID), e.titles(toColumnID))
}

// TaskReordered records a reorder.
func (e *boardEvents) TaskReordered(taskID, columnID string, newIndex int) {
	e.activity = fmt.Sprintf("reordered %q in %s (#%d)", e.titles(taskID), e.titles(columnID), newIndex+1)
}

// TaskOpened records the task to show in the detail overlay.
func (e *boardEvents) TaskOpened(taskID string) {
	e.opened = taskID
}

// MoveRejected records a transient notice.
func (e *boardEvents) MoveRejected(move board.Move, reason error) {
	e.notice = fmt.Sprintf("move of %q undone: %v", e.titles(move.TaskID), reason)
}

// take returns and clears the collected events.
func (e *boardEvents) take() (opened, notice, activity string) {
	opened, notice, activity = e.opened, e.notice, e.activity
	e.opened, e.notice, e.activity = "", "", ""
	return opened, notice, activity
}
