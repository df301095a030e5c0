// Package common defines transport-neutral contracts shared by the HTTP and MCP adapters.
package common

import (
	"context"
	"time"
)

// BoardSummary describes one board without its tasks.
type BoardSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Position int    `json:"position"`
}

// BoardDetail is one board with its columns and ordered tasks.
type BoardDetail struct {
	BoardSummary
	Columns []ColumnDetail `json:"columns"`
}

// ColumnDetail is one column of a BoardDetail.
type ColumnDetail struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Status   string       `json:"status"`
	Color    string       `json:"color,omitempty"`
	WIPLimit int          `json:"wip_limit,omitempty"`
	Locked   bool         `json:"locked,omitempty"`
	Tasks    []TaskDetail `json:"tasks"`
}

// TaskDetail is the wire form of one task card.
type TaskDetail struct {
	ID          string     `json:"id"`
	BoardID     string     `json:"board_id"`
	Status      string     `json:"status"`
	Position    int        `json:"position"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	Assignee    string     `json:"assignee,omitempty"`
	AvatarRef   string     `json:"avatar_ref,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EventDetail is one entry of the board activity feed.
type EventDetail struct {
	ID         int64             `json:"id"`
	TaskID     string            `json:"task_id"`
	Operation  string            `json:"operation"`
	Actor      string            `json:"actor"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// MoveTaskRequest asks to place a task at Index of ToColumnID.
type MoveTaskRequest struct {
	TaskID     string `json:"task_id"`
	ToColumnID string `json:"to_column_id"`
	Index      int    `json:"index"`
	Actor      string `json:"actor,omitempty"`
}

// ListEventsRequest selects recent activity for one board.
type ListEventsRequest struct {
	BoardID string
	Limit   int
}

// BoardService is the app-facing surface consumed by both transports.
type BoardService interface {
	ListBoards(context.Context) ([]BoardSummary, error)
	GetBoard(context.Context, string) (BoardDetail, error)
	MoveTask(context.Context, MoveTaskRequest) (TaskDetail, error)
	ListEvents(context.Context, ListEventsRequest) ([]EventDetail, error)
}
