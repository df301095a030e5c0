package domain

import (
	"strings"
	"time"
)

// Column is one fixed stage of a pipeline board.
type Column struct {
	ID        string
	BoardID   string
	Title     string
	Color     string
	Status    string
	WIPLimit  int
	Position  int
	Locked    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ColumnInput holds values used to create a column.
type ColumnInput struct {
	ID       string
	BoardID  string
	Title    string
	Color    string
	Status   string
	WIPLimit int
	Position int
	Locked   bool
}

// NewColumn constructs a validated column. An empty status defaults to the column id.
func NewColumn(in ColumnInput, now time.Time) (Column, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.BoardID = strings.TrimSpace(in.BoardID)
	in.Title = strings.TrimSpace(in.Title)
	in.Status = strings.TrimSpace(in.Status)
	if in.ID == "" || in.BoardID == "" {
		return Column{}, ErrInvalidID
	}
	if in.Title == "" {
		return Column{}, ErrInvalidName
	}
	if in.Position < 0 {
		return Column{}, ErrInvalidPosition
	}
	if in.WIPLimit < 0 {
		return Column{}, ErrInvalidWIPLimit
	}
	if in.Status == "" {
		in.Status = in.ID
	}

	return Column{
		ID:        in.ID,
		BoardID:   in.BoardID,
		Title:     in.Title,
		Color:     strings.TrimSpace(in.Color),
		Status:    in.Status,
		WIPLimit:  in.WIPLimit,
		Position:  in.Position,
		Locked:    in.Locked,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// Accepts reports whether a column holding count tasks can take one more.
func (c Column) Accepts(count int) bool {
	return c.WIPLimit == 0 || count < c.WIPLimit
}
