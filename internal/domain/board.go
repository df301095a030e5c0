package domain

import (
	"slices"
	"strings"
	"time"
)

// BoardKind names the pipeline a board models.
type BoardKind string

// BoardKind values.
const (
	BoardKindTasks       BoardKind = "tasks"
	BoardKindRecruitment BoardKind = "recruitment"
	BoardKindVolunteers  BoardKind = "volunteers"
)

var validBoardKinds = []BoardKind{BoardKindTasks, BoardKindRecruitment, BoardKindVolunteers}

// ParseBoardKind normalizes a kind string; empty input yields tasks.
func ParseBoardKind(raw string) (BoardKind, error) {
	k := BoardKind(strings.ToLower(strings.TrimSpace(raw)))
	if k == "" {
		return BoardKindTasks, nil
	}
	if !slices.Contains(validBoardKinds, k) {
		return "", ErrInvalidBoardKind
	}
	return k, nil
}

// Board is one pipeline of columns.
type Board struct {
	ID        string
	Slug      string
	Name      string
	Kind      BoardKind
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBoard constructs a validated board.
func NewBoard(id, name string, kind BoardKind, position int, now time.Time) (Board, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return Board{}, ErrInvalidID
	}
	if name == "" {
		return Board{}, ErrInvalidName
	}
	if position < 0 {
		return Board{}, ErrInvalidPosition
	}
	if kind == "" {
		kind = BoardKindTasks
	}
	if !slices.Contains(validBoardKinds, kind) {
		return Board{}, ErrInvalidBoardKind
	}
	return Board{
		ID:        id,
		Slug:      normalizeSlug(name),
		Name:      name,
		Kind:      kind,
		Position:  position,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// normalizeSlug lowercases s and collapses runs of non-alphanumerics into one dash.
func normalizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	dash := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
