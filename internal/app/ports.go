package app

import (
	"context"

	"github.com/evanschultz/ngoboard/internal/domain"
)

// PositionUpdate is one task's persisted place after a move.
type PositionUpdate struct {
	TaskID   string
	Status   string
	Position int
}

// MoveRecord is everything a repository writes atomically for one accepted move.
type MoveRecord struct {
	Task      domain.Task
	Positions []PositionUpdate
	Event     domain.ChangeEvent
}

// Repository persists boards, columns, tasks and the change ledger.
type Repository interface {
	CreateBoard(context.Context, domain.Board) error
	GetBoard(context.Context, string) (domain.Board, error)
	ListBoards(context.Context) ([]domain.Board, error)

	CreateColumn(context.Context, domain.Column) error
	ListColumns(context.Context, string) ([]domain.Column, error)

	CreateTask(context.Context, domain.Task) error
	GetTask(context.Context, string) (domain.Task, error)
	ListTasks(context.Context, string, bool) ([]domain.Task, error)
	ApplyMove(context.Context, MoveRecord) error

	ListChangeEvents(context.Context, string, int) ([]domain.ChangeEvent, error)
}
