package board

import (
	"fmt"
	"slices"
)

// DragState is the render-facing view of the current drag session.
type DragState struct {
	Active         bool
	TaskID         string
	SourceColumnID string
	SourceIndex    int
	Origin         Point
	Pointer        Point
	HomeRect       Rect
	Target         Target
	HasTarget      bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithListener sets the event listener.
func WithListener(l Listener) Option {
	return func(c *Controller) {
		if l != nil {
			c.listener = l
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(l Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithResolver replaces the default closest-corners resolver.
func WithResolver(r Resolver) Option {
	return func(c *Controller) {
		c.resolver = r
	}
}

// Controller owns column ordering and the drag session state machine.
// It is not safe for concurrent use.
type Controller struct {
	columns  []ColumnSpec
	order    map[string][]string
	cards    map[string]Card
	store    Store
	listener Listener
	logger   Logger
	resolver Resolver
	layout   *Layout
	session  *DragState
}

// NewController validates the initial columns and cards and builds the ordering.
// Cards are placed in their ColumnID in input order.
func NewController(columns []ColumnSpec, cards []Card, store Store, opts ...Option) (*Controller, error) {
	c := &Controller{
		order:    map[string][]string{},
		cards:    map[string]Card{},
		store:    store,
		listener: NopListener{},
		logger:   nopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	for _, col := range columns {
		if col.ID == "" {
			return nil, ErrInvalidColumn
		}
		if _, ok := c.order[col.ID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, col.ID)
		}
		c.columns = append(c.columns, col)
		c.order[col.ID] = []string{}
	}
	for _, card := range cards {
		if _, ok := c.cards[card.ID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTask, card.ID)
		}
		if _, ok := c.order[card.ColumnID]; !ok {
			return nil, fmt.Errorf("%w: task %q references %q", ErrInvalidColumn, card.ID, card.ColumnID)
		}
		c.cards[card.ID] = card
		c.order[card.ColumnID] = append(c.order[card.ColumnID], card.ID)
	}
	return c, nil
}

// SetLayout installs the drop candidates registered for the current frame.
func (c *Controller) SetLayout(l *Layout) {
	c.layout = l
}

// Layout returns the current frame layout.
func (c *Controller) Layout() *Layout {
	return c.layout
}

// Columns returns the fixed column order.
func (c *Controller) Columns() []ColumnSpec {
	return slices.Clone(c.columns)
}

// HasColumn reports whether columnID is one of the board columns.
func (c *Controller) HasColumn(columnID string) bool {
	_, ok := c.order[columnID]
	return ok
}

// TaskIDs returns the ordered task ids of one column.
func (c *Controller) TaskIDs(columnID string) []string {
	ids, ok := c.order[columnID]
	if !ok {
		return nil
	}
	return slices.Clone(ids)
}

// Locate returns the column and index that currently hold taskID.
func (c *Controller) Locate(taskID string) (string, int, bool) {
	for _, col := range c.columns {
		if idx := slices.Index(c.order[col.ID], taskID); idx >= 0 {
			return col.ID, idx, true
		}
	}
	return "", 0, false
}

// Card returns the summary for one task.
func (c *Controller) Card(taskID string) (Card, bool) {
	card, ok := c.cards[taskID]
	return card, ok
}

// Snapshot returns a deep copy of the column to task-order mapping.
func (c *Controller) Snapshot() map[string][]string {
	out := make(map[string][]string, len(c.order))
	for id, ids := range c.order {
		out[id] = slices.Clone(ids)
	}
	return out
}

// DragState returns the current session, or an inactive state when idle.
func (c *Controller) DragState() DragState {
	if c.session == nil {
		return DragState{}
	}
	return *c.session
}

// Dragging reports whether a session is active.
func (c *Controller) Dragging() bool {
	return c.session != nil
}

// BeginDrag starts a session for taskID. It returns false when a session is
// already active or the task is not on the board.
func (c *Controller) BeginDrag(taskID string, origin Point) bool {
	if c.session != nil {
		return false
	}
	col, idx, ok := c.Locate(taskID)
	if !ok {
		c.logger.Debug("drag ignored for unknown task", "task_id", taskID)
		return false
	}
	home, _ := c.layout.CardRect(taskID)
	c.session = &DragState{
		Active:         true,
		TaskID:         taskID,
		SourceColumnID: col,
		SourceIndex:    idx,
		Origin:         origin,
		Pointer:        origin,
		HomeRect:       home,
	}
	c.logger.Debug("drag started", "task_id", taskID, "column_id", col, "index", idx)
	return true
}

// UpdateDragTarget resolves the hover target for pointer. It never mutates ordering.
// It reports whether the resolved target changed.
func (c *Controller) UpdateDragTarget(pointer Point) bool {
	if c.session == nil {
		return false
	}
	prev, hadPrev := c.session.Target, c.session.HasTarget
	c.session.Pointer = pointer
	c.session.Target, c.session.HasTarget = c.resolver.Resolve(ResolveInput{
		Layout:       c.layout,
		Sequences:    c,
		ActiveTaskID: c.session.TaskID,
		Origin:       c.session.Origin,
		Pointer:      pointer,
		HomeRect:     c.session.HomeRect,
	})
	return hadPrev != c.session.HasTarget || prev != c.session.Target
}

// CancelDrag ends the active session without mutation.
func (c *Controller) CancelDrag() Outcome {
	if c.session == nil {
		return Outcome{Result: ResultIgnored}
	}
	taskID := c.session.TaskID
	c.session = nil
	c.logger.Debug("drag cancelled", "task_id", taskID)
	return Outcome{Result: ResultCancelled, TaskID: taskID}
}

// EndDrag resolves the drop at pointer and commits it. A nil pointer cancels.
// The session is terminated in every case.
func (c *Controller) EndDrag(pointer *Point) Outcome {
	if c.session == nil {
		return Outcome{Result: ResultIgnored}
	}
	if pointer == nil {
		return c.CancelDrag()
	}
	c.UpdateDragTarget(*pointer)
	s := *c.session
	c.session = nil

	if !s.HasTarget {
		c.logger.Debug("drop outside targets", "task_id", s.TaskID)
		return Outcome{Result: ResultCancelled, TaskID: s.TaskID}
	}
	srcCol, srcIdx, ok := c.Locate(s.TaskID)
	if !ok || srcCol != s.SourceColumnID || !c.HasColumn(s.Target.ColumnID) {
		c.logger.Debug("drop for stale task", "task_id", s.TaskID)
		return Outcome{Result: ResultCancelled, TaskID: s.TaskID}
	}
	if s.Target.ColumnID == srcCol && s.Target.Index == srcIdx {
		return Outcome{Result: ResultCancelled, TaskID: s.TaskID}
	}

	move := Move{
		TaskID:       s.TaskID,
		FromColumnID: srcCol,
		ToColumnID:   s.Target.ColumnID,
		FromIndex:    srcIdx,
		ToIndex:      s.Target.Index,
	}
	before := c.Snapshot()
	c.apply(move)
	if c.store != nil {
		if err := c.store.MoveTask(move); err != nil {
			c.order = before
			c.restoreCardColumn(move.TaskID, move.FromColumnID)
			c.logger.Debug("move rejected", "task_id", move.TaskID, "err", err)
			c.listener.MoveRejected(move, err)
			return Outcome{Result: ResultRejected, Move: move, TaskID: move.TaskID, Err: err}
		}
	}
	c.logger.Debug("drop committed", "task_id", move.TaskID, "from", move.FromColumnID, "to", move.ToColumnID, "index", move.ToIndex)
	if move.CrossColumn() {
		c.listener.TaskMoved(move.TaskID, move.FromColumnID, move.ToColumnID)
	} else {
		c.listener.TaskReordered(move.TaskID, move.ToColumnID, move.ToIndex)
	}
	return Outcome{Result: ResultCommitted, Move: move, TaskID: move.TaskID}
}

// apply mutates ordering for one validated move.
func (c *Controller) apply(move Move) {
	if !move.CrossColumn() {
		c.order[move.FromColumnID] = Splice(c.order[move.FromColumnID], move.FromIndex, move.ToIndex)
		return
	}
	src, dst, ok := Transfer(c.order[move.FromColumnID], c.order[move.ToColumnID], move.TaskID, move.ToIndex)
	if !ok {
		return
	}
	c.order[move.FromColumnID] = src
	c.order[move.ToColumnID] = dst
	c.restoreCardColumn(move.TaskID, move.ToColumnID)
}

func (c *Controller) restoreCardColumn(taskID, columnID string) {
	if card, ok := c.cards[taskID]; ok {
		card.ColumnID = columnID
		c.cards[taskID] = card
	}
}

// Reject rolls back a previously committed move after an asynchronous store failure.
// The task returns to FromColumnID at FromIndex. It reports false when the task is gone.
func (c *Controller) Reject(move Move, reason error) bool {
	col, idx, ok := c.Locate(move.TaskID)
	if !ok || !c.HasColumn(move.FromColumnID) {
		return false
	}
	c.order[col] = slices.Delete(slices.Clone(c.order[col]), idx, idx+1)
	c.order[move.FromColumnID] = insertAt(c.order[move.FromColumnID], move.FromIndex, move.TaskID)
	c.restoreCardColumn(move.TaskID, move.FromColumnID)
	c.logger.Debug("move rolled back", "task_id", move.TaskID, "column_id", move.FromColumnID, "err", reason)
	c.listener.MoveRejected(move, reason)
	return true
}

// OpenTask dispatches TaskOpened for a known task.
func (c *Controller) OpenTask(taskID string) bool {
	if _, ok := c.cards[taskID]; !ok {
		return false
	}
	c.listener.TaskOpened(taskID)
	return true
}

// Sync reconciles the board with a fresh task list from the store. Removed
// tasks disappear and new tasks append to their column. Tasks that stay in
// the same column keep the board order, so optimistic moves not yet persisted
// survive. An active session whose task vanished is cancelled.
func (c *Controller) Sync(cards []Card) {
	c.reconcile(cards, true)
}

// Reload replaces the board ordering with the store's. Use it when no moves
// are awaiting persistence. An active session whose task left its column is cancelled.
func (c *Controller) Reload(cards []Card) {
	c.reconcile(cards, false)
}

func (c *Controller) reconcile(cards []Card, keepOrder bool) {
	next := make(map[string]Card, len(cards))
	incoming := make(map[string][]string, len(c.columns))
	for _, card := range cards {
		if _, dup := next[card.ID]; dup || !c.HasColumn(card.ColumnID) {
			continue
		}
		next[card.ID] = card
		incoming[card.ColumnID] = append(incoming[card.ColumnID], card.ID)
	}

	order := make(map[string][]string, len(c.columns))
	for _, col := range c.columns {
		if !keepOrder {
			order[col.ID] = append([]string{}, incoming[col.ID]...)
			continue
		}
		kept := make([]string, 0, len(incoming[col.ID]))
		for _, id := range c.order[col.ID] {
			if card, ok := next[id]; ok && card.ColumnID == col.ID {
				kept = append(kept, id)
			}
		}
		for _, id := range incoming[col.ID] {
			if !slices.Contains(kept, id) {
				kept = append(kept, id)
			}
		}
		order[col.ID] = kept
	}
	c.order = order
	c.cards = next

	if c.session != nil {
		col, idx, ok := c.Locate(c.session.TaskID)
		if !ok || col != c.session.SourceColumnID {
			c.logger.Debug("drag cancelled by sync", "task_id", c.session.TaskID)
			c.session = nil
			return
		}
		c.session.SourceIndex = idx
	}
}
