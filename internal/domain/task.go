package domain

import (
	"slices"
	"strings"
	"time"
)

// Priority describes task urgency.
type Priority string

// Priority values.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// ParsePriority normalizes a priority string; empty input yields medium.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if p == "" {
		return PriorityMedium, nil
	}
	if !slices.Contains(validPriorities, p) {
		return "", ErrInvalidPriority
	}
	return p, nil
}

// Assignee identifies the person responsible for a task.
type Assignee struct {
	Name      string
	AvatarRef string
}

// Initials returns up to two uppercase initials for avatar fallbacks.
func (a Assignee) Initials() string {
	var out []rune
	for _, part := range strings.Fields(a.Name) {
		for _, r := range part {
			out = append(out, r)
			break
		}
		if len(out) == 2 {
			break
		}
	}
	return strings.ToUpper(string(out))
}

// Task is one card on a pipeline board.
type Task struct {
	ID          string
	BoardID     string
	Status      string
	Position    int
	Title       string
	Description string
	Priority    Priority
	DueAt       *time.Time
	Assignee    *Assignee
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ArchivedAt  *time.Time
}

// TaskInput holds values used to create a task.
type TaskInput struct {
	ID          string
	BoardID     string
	Status      string
	Position    int
	Title       string
	Description string
	Priority    Priority
	DueAt       *time.Time
	Assignee    *Assignee
}

// NewTask validates input and constructs a task.
func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.BoardID = strings.TrimSpace(in.BoardID)
	in.Status = strings.TrimSpace(in.Status)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	if in.ID == "" || in.BoardID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Status == "" {
		return Task{}, ErrInvalidStatus
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}
	if in.Position < 0 {
		return Task{}, ErrInvalidPosition
	}
	priority, err := ParsePriority(string(in.Priority))
	if err != nil {
		return Task{}, err
	}
	in.Priority = priority

	return Task{
		ID:          in.ID,
		BoardID:     in.BoardID,
		Status:      in.Status,
		Position:    in.Position,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		DueAt:       normalizeDueAt(in.DueAt),
		Assignee:    normalizeAssignee(in.Assignee),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// Move places the task in the column carrying status at position.
func (t *Task) Move(status string, position int, now time.Time) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return ErrInvalidStatus
	}
	if position < 0 {
		return ErrInvalidPosition
	}
	t.Status = status
	t.Position = position
	t.UpdatedAt = now.UTC()
	return nil
}

// Overdue reports whether dueAt has passed at now. A nil due date is never overdue.
func Overdue(dueAt *time.Time, now time.Time) bool {
	return dueAt != nil && dueAt.Before(now.UTC())
}

func normalizeDueAt(dueAt *time.Time) *time.Time {
	if dueAt == nil {
		return nil
	}
	ts := dueAt.UTC().Truncate(time.Second)
	return &ts
}

func normalizeAssignee(a *Assignee) *Assignee {
	if a == nil {
		return nil
	}
	out := Assignee{Name: strings.TrimSpace(a.Name), AvatarRef: strings.TrimSpace(a.AvatarRef)}
	if out.Name == "" {
		return nil
	}
	return &out
}
