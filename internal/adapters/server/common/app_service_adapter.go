package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evanschultz/ngoboard/internal/app"
	"github.com/evanschultz/ngoboard/internal/domain"
)

// defaultEventLimit bounds activity feed requests without an explicit limit.
const defaultEventLimit = 50

// maxEventLimit caps activity feed requests.
const maxEventLimit = 500

// AppServiceAdapter exposes *app.Service through BoardService.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter constructs the adapter; a nil service yields nil.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	if service == nil {
		return nil
	}
	return &AppServiceAdapter{service: service}
}

// ListBoards returns every board in position order.
func (a *AppServiceAdapter) ListBoards(ctx context.Context) ([]BoardSummary, error) {
	boards, err := a.service.ListBoards(ctx)
	if err != nil {
		return nil, mapAppError("list boards", err)
	}
	out := make([]BoardSummary, 0, len(boards))
	for _, b := range boards {
		out = append(out, boardSummary(b))
	}
	return out, nil
}

// GetBoard loads one board with its ordered tasks.
func (a *AppServiceAdapter) GetBoard(ctx context.Context, boardID string) (BoardDetail, error) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return BoardDetail{}, fmt.Errorf("get board: %w", errors.Join(ErrInvalidRequest, errors.New("board_id is required")))
	}
	view, err := a.service.LoadBoard(ctx, boardID)
	if err != nil {
		return BoardDetail{}, mapAppError("get board", err)
	}
	return boardDetail(view), nil
}

// MoveTask applies one move through the service rules.
func (a *AppServiceAdapter) MoveTask(ctx context.Context, req MoveTaskRequest) (TaskDetail, error) {
	req.TaskID = strings.TrimSpace(req.TaskID)
	req.ToColumnID = strings.TrimSpace(req.ToColumnID)
	switch {
	case req.TaskID == "":
		return TaskDetail{}, fmt.Errorf("move task: %w", errors.Join(ErrInvalidRequest, errors.New("task_id is required")))
	case req.ToColumnID == "":
		return TaskDetail{}, fmt.Errorf("move task: %w", errors.Join(ErrInvalidRequest, errors.New("to_column_id is required")))
	case req.Index < 0:
		return TaskDetail{}, fmt.Errorf("move task: %w", errors.Join(ErrInvalidRequest, errors.New("index must be >= 0")))
	}
	actor, err := parseActor(req.Actor)
	if err != nil {
		return TaskDetail{}, fmt.Errorf("move task: %w", errors.Join(ErrInvalidRequest, err))
	}
	task, err := a.service.MoveTask(ctx, app.MoveTaskInput{
		TaskID:     req.TaskID,
		ToColumnID: req.ToColumnID,
		Index:      req.Index,
		Actor:      actor,
	})
	if err != nil {
		return TaskDetail{}, mapAppError("move task", err)
	}
	return taskDetail(task), nil
}

// ListEvents returns recent activity, newest first.
func (a *AppServiceAdapter) ListEvents(ctx context.Context, req ListEventsRequest) ([]EventDetail, error) {
	limit := req.Limit
	switch {
	case limit < 0:
		return nil, fmt.Errorf("list events: %w", errors.Join(ErrInvalidRequest, errors.New("limit must be >= 0")))
	case limit == 0:
		limit = defaultEventLimit
	case limit > maxEventLimit:
		limit = maxEventLimit
	}
	events, err := a.service.ListChangeEvents(ctx, req.BoardID, limit)
	if err != nil {
		return nil, mapAppError("list events", err)
	}
	out := make([]EventDetail, 0, len(events))
	for _, ev := range events {
		out = append(out, EventDetail{
			ID:         ev.ID,
			TaskID:     ev.TaskID,
			Operation:  string(ev.Operation),
			Actor:      string(ev.ActorType),
			Metadata:   ev.Metadata,
			OccurredAt: ev.OccurredAt,
		})
	}
	return out, nil
}

// parseActor defaults empty actors to agent, since transport callers are tools.
func parseActor(raw string) (domain.ActorType, error) {
	switch actor := domain.ActorType(strings.ToLower(strings.TrimSpace(raw))); actor {
	case "":
		return domain.ActorTypeAgent, nil
	case domain.ActorTypeUser, domain.ActorTypeAgent, domain.ActorTypeSystem:
		return actor, nil
	default:
		return "", fmt.Errorf("unsupported actor %q", raw)
	}
}

// mapAppError maps app and domain errors into adapter categories.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrMoveRejected):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrMoveRejected, err))
	case errors.Is(err, app.ErrUnknownColumn),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidPosition),
		errors.Is(err, domain.ErrInvalidStatus):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}

func boardSummary(b domain.Board) BoardSummary {
	return BoardSummary{ID: b.ID, Name: b.Name, Kind: string(b.Kind), Position: b.Position}
}

func boardDetail(view app.BoardView) BoardDetail {
	out := BoardDetail{
		BoardSummary: boardSummary(view.Board),
		Columns:      make([]ColumnDetail, 0, len(view.Columns)),
	}
	for _, col := range view.Columns {
		detail := ColumnDetail{
			ID:       col.Column.ID,
			Title:    col.Column.Title,
			Status:   col.Column.Status,
			Color:    col.Column.Color,
			WIPLimit: col.Column.WIPLimit,
			Locked:   col.Column.Locked,
			Tasks:    make([]TaskDetail, 0, len(col.Tasks)),
		}
		for _, task := range col.Tasks {
			detail.Tasks = append(detail.Tasks, taskDetail(task))
		}
		out.Columns = append(out.Columns, detail)
	}
	return out
}

func taskDetail(t domain.Task) TaskDetail {
	out := TaskDetail{
		ID:          t.ID,
		BoardID:     t.BoardID,
		Status:      t.Status,
		Position:    t.Position,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		DueAt:       t.DueAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.Assignee != nil {
		out.Assignee = t.Assignee.Name
		out.AvatarRef = t.Assignee.AvatarRef
	}
	return out
}
