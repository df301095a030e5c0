package app

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/evanschultz/ngoboard/internal/board"
	"github.com/evanschultz/ngoboard/internal/domain"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Boards []BoardTemplate
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service implements board use cases over a Repository.
type Service struct {
	repo      Repository
	idGen     IDGenerator
	clock     Clock
	templates []BoardTemplate
}

// NewService constructs a service; empty templates fall back to the built-in NGO pipelines.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	templates := sanitizeBoardTemplates(cfg.Boards)
	if len(templates) == 0 {
		templates = DefaultBoardTemplates()
	}
	return &Service{
		repo:      repo,
		idGen:     idGen,
		clock:     clock,
		templates: templates,
	}
}

// ColumnView is one column with its ordered, unarchived tasks.
type ColumnView struct {
	Column domain.Column
	Tasks  []domain.Task
}

// BoardView is a fully loaded board.
type BoardView struct {
	Board   domain.Board
	Columns []ColumnView
}

// Column returns the view of one column by id.
func (v BoardView) Column(columnID string) (ColumnView, bool) {
	for _, col := range v.Columns {
		if col.Column.ID == columnID {
			return col, true
		}
	}
	return ColumnView{}, false
}

// EnsureBoards creates every configured board and column that does not exist yet.
func (s *Service) EnsureBoards(ctx context.Context) ([]domain.Board, error) {
	existing, err := s.repo.ListBoards(ctx)
	if err != nil {
		return nil, err
	}
	have := map[string]struct{}{}
	for _, b := range existing {
		have[b.ID] = struct{}{}
	}
	now := s.clock()
	for idx, tpl := range s.templates {
		if _, ok := have[tpl.ID]; ok {
			continue
		}
		b, err := domain.NewBoard(tpl.ID, tpl.Name, tpl.Kind, idx, now)
		if err != nil {
			return nil, fmt.Errorf("create board %q: %w", tpl.ID, err)
		}
		if err := s.repo.CreateBoard(ctx, b); err != nil {
			return nil, fmt.Errorf("persist board %q: %w", tpl.ID, err)
		}
		for pos, ct := range tpl.Columns {
			col, err := domain.NewColumn(domain.ColumnInput{
				ID:       ColumnID(tpl.ID, ct.ID),
				BoardID:  tpl.ID,
				Title:    ct.Title,
				Color:    ct.Color,
				Status:   cmp.Or(ct.Status, ct.ID),
				WIPLimit: ct.WIPLimit,
				Position: pos,
				Locked:   ct.Locked,
			}, now)
			if err != nil {
				return nil, fmt.Errorf("create column %q: %w", ct.ID, err)
			}
			if err := s.repo.CreateColumn(ctx, col); err != nil {
				return nil, fmt.Errorf("persist column %q: %w", ct.ID, err)
			}
		}
	}
	return s.ListBoards(ctx)
}

// ListBoards lists boards in position order.
func (s *Service) ListBoards(ctx context.Context) ([]domain.Board, error) {
	boards, err := s.repo.ListBoards(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(boards, func(a, b domain.Board) int {
		if a.Position == b.Position {
			return strings.Compare(a.ID, b.ID)
		}
		return a.Position - b.Position
	})
	return boards, nil
}

// LoadBoard returns a board with its columns and ordered tasks.
// Tasks whose status matches no column are left out.
func (s *Service) LoadBoard(ctx context.Context, boardID string) (BoardView, error) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return BoardView{}, domain.ErrInvalidID
	}
	b, err := s.repo.GetBoard(ctx, boardID)
	if err != nil {
		return BoardView{}, err
	}
	columns, err := s.listColumns(ctx, boardID)
	if err != nil {
		return BoardView{}, err
	}
	tasks, err := s.repo.ListTasks(ctx, boardID, false)
	if err != nil {
		return BoardView{}, err
	}
	sortTasks(tasks)

	view := BoardView{Board: b, Columns: make([]ColumnView, 0, len(columns))}
	byStatus := map[string]int{}
	for _, col := range columns {
		byStatus[col.Status] = len(view.Columns)
		view.Columns = append(view.Columns, ColumnView{Column: col, Tasks: []domain.Task{}})
	}
	for _, task := range tasks {
		idx, ok := byStatus[task.Status]
		if !ok {
			continue
		}
		view.Columns[idx].Tasks = append(view.Columns[idx].Tasks, task)
	}
	return view, nil
}

// CreateTaskInput holds input values for create task operations.
type CreateTaskInput struct {
	BoardID     string
	ColumnID    string
	Title       string
	Description string
	Priority    domain.Priority
	DueAt       *time.Time
	Assignee    *domain.Assignee
}

// CreateTask appends a new task to the end of a column.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (domain.Task, error) {
	view, err := s.LoadBoard(ctx, in.BoardID)
	if err != nil {
		return domain.Task{}, err
	}
	col, ok := view.Column(in.ColumnID)
	if !ok {
		return domain.Task{}, fmt.Errorf("%w: %q", ErrUnknownColumn, in.ColumnID)
	}
	position := 0
	for _, t := range col.Tasks {
		if t.Position >= position {
			position = t.Position + 1
		}
	}
	task, err := domain.NewTask(domain.TaskInput{
		ID:          s.idGen(),
		BoardID:     view.Board.ID,
		Status:      col.Column.Status,
		Position:    position,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		DueAt:       in.DueAt,
		Assignee:    in.Assignee,
	}, s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// MoveTaskInput holds input values for move task operations.
type MoveTaskInput struct {
	TaskID     string
	ToColumnID string
	// Index is the insertion point in the target column with the moved task removed.
	Index int
	Actor domain.ActorType
}

// MoveTask places a task at Index of the target column, enforcing column rules.
// Rejections wrap ErrMoveRejected together with the specific rule error.
func (s *Service) MoveTask(ctx context.Context, in MoveTaskInput) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, strings.TrimSpace(in.TaskID))
	if err != nil {
		return domain.Task{}, err
	}
	if task.ArchivedAt != nil {
		return domain.Task{}, ErrNotFound
	}
	if in.Index < 0 {
		return domain.Task{}, domain.ErrInvalidPosition
	}
	view, err := s.LoadBoard(ctx, task.BoardID)
	if err != nil {
		return domain.Task{}, err
	}
	to, ok := view.Column(in.ToColumnID)
	if !ok {
		return domain.Task{}, fmt.Errorf("%w: %q", ErrUnknownColumn, in.ToColumnID)
	}
	from, fromIdx, ok := locateTask(view, task.ID)
	if !ok {
		return domain.Task{}, fmt.Errorf("%w: task %q has status %q", ErrUnknownColumn, task.ID, task.Status)
	}

	cross := from.Column.ID != to.Column.ID
	if err := CheckMove(to.Column, len(to.Tasks), cross); err != nil {
		return domain.Task{}, err
	}

	op := domain.ChangeOperationReorder
	var positions []PositionUpdate
	newIndex := in.Index
	if !cross {
		ids := taskIDs(from.Tasks)
		newIndex = min(newIndex, len(ids)-1)
		if newIndex == fromIdx {
			return task, nil
		}
		positions = reindex(board.Splice(ids, fromIdx, newIndex), from.Column.Status)
	} else {
		op = domain.ChangeOperationMove
		src, dst, _ := board.Transfer(taskIDs(from.Tasks), taskIDs(to.Tasks), task.ID, in.Index)
		newIndex = slices.Index(dst, task.ID)
		positions = append(reindex(src, from.Column.Status), reindex(dst, to.Column.Status)...)
	}

	now := s.clock()
	if err := task.Move(to.Column.Status, newIndex, now); err != nil {
		return domain.Task{}, err
	}
	actor := in.Actor
	if actor == "" {
		actor = domain.ActorTypeUser
	}
	event := domain.ChangeEvent{
		BoardID:   task.BoardID,
		TaskID:    task.ID,
		Operation: op,
		ActorType: actor,
		Metadata: map[string]string{
			"from_column_id": from.Column.ID,
			"to_column_id":   to.Column.ID,
			"from_index":     strconv.Itoa(fromIdx),
			"to_index":       strconv.Itoa(newIndex),
			"title":          task.Title,
		},
		OccurredAt: now.UTC(),
	}
	if err := s.repo.ApplyMove(ctx, MoveRecord{Task: task, Positions: positions, Event: event}); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// CheckMove applies column rules to a task arriving in to, which currently holds occupied tasks.
func CheckMove(to domain.Column, occupied int, crossColumn bool) error {
	if !crossColumn {
		return nil
	}
	if to.Locked {
		return fmt.Errorf("%w: %w: %s", ErrMoveRejected, ErrColumnLocked, to.Title)
	}
	if !to.Accepts(occupied) {
		return fmt.Errorf("%w: %w: %s allows %d", ErrMoveRejected, ErrWIPLimitReached, to.Title, to.WIPLimit)
	}
	return nil
}

// ListChangeEvents lists recent change events for a board.
func (s *Service) ListChangeEvents(ctx context.Context, boardID string, limit int) ([]domain.ChangeEvent, error) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListChangeEvents(ctx, boardID, limit)
}

// listColumns lists board columns in position order.
func (s *Service) listColumns(ctx context.Context, boardID string) ([]domain.Column, error) {
	columns, err := s.repo.ListColumns(ctx, boardID)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(columns, func(a, b domain.Column) int {
		return a.Position - b.Position
	})
	return columns, nil
}

// locateTask finds the column view and index holding taskID.
func locateTask(view BoardView, taskID string) (ColumnView, int, bool) {
	for _, col := range view.Columns {
		for idx, t := range col.Tasks {
			if t.ID == taskID {
				return col, idx, true
			}
		}
	}
	return ColumnView{}, 0, false
}

// sortTasks orders tasks by position, then creation time, then id.
func sortTasks(tasks []domain.Task) {
	slices.SortStableFunc(tasks, func(a, b domain.Task) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func taskIDs(tasks []domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

// reindex assigns dense positions to ids in order.
func reindex(ids []string, status string) []PositionUpdate {
	out := make([]PositionUpdate, 0, len(ids))
	for pos, id := range ids {
		out = append(out, PositionUpdate{TaskID: id, Status: status, Position: pos})
	}
	return out
}
