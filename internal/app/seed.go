package app

import (
	"context"
	"fmt"
	"time"

	"github.com/evanschultz/ngoboard/internal/domain"
)

type seedTask struct {
	column      string
	title       string
	description string
	priority    domain.Priority
	dueInDays   int
	assignee    string
}

var demoTasks = map[string][]seedTask{
	"tasks": {
		{column: "todo", title: "Draft Q3 donor newsletter", description: "Collect **impact stories** from field coordinators.\n\n- Food bank numbers\n- School kit drive", priority: domain.PriorityHigh, dueInDays: 5, assignee: "Amara Okafor"},
		{column: "todo", title: "Renew venue insurance", priority: domain.PriorityUrgent, dueInDays: 2},
		{column: "progress", title: "Grant report for city council", description: "Attach the audited spend summary.", priority: domain.PriorityHigh, dueInDays: 9, assignee: "Luis Ortega"},
		{column: "review", title: "Update volunteer handbook", assignee: "Mei Chen"},
		{column: "done", title: "Spring fundraiser recap", priority: domain.PriorityLow},
	},
	"recruitment": {
		{column: "applied", title: "Field coordinator: J. Mensah", assignee: "Amara Okafor"},
		{column: "applied", title: "Grant writer: R. Patel"},
		{column: "interview", title: "Logistics lead: S. Novak", priority: domain.PriorityHigh, dueInDays: 3, assignee: "Luis Ortega"},
	},
	"volunteers": {
		{column: "prospect", title: "Weekend pantry shift: T. Brooks"},
		{column: "onboarding", title: "Tutoring program: K. Ito", description: "Background check submitted.", assignee: "Mei Chen"},
		{column: "active", title: "Driver roster: P. Silva"},
	},
}

// SeedDemo ensures the configured boards exist and fills empty built-in boards with demo tasks.
// It returns the number of tasks created.
func (s *Service) SeedDemo(ctx context.Context) (int, error) {
	boards, err := s.EnsureBoards(ctx)
	if err != nil {
		return 0, err
	}
	created := 0
	now := s.clock()
	for _, b := range boards {
		seeds, ok := demoTasks[b.ID]
		if !ok {
			continue
		}
		view, err := s.LoadBoard(ctx, b.ID)
		if err != nil {
			return created, err
		}
		if boardHasTasks(view) {
			continue
		}
		for _, st := range seeds {
			in := CreateTaskInput{
				BoardID:     b.ID,
				ColumnID:    ColumnID(b.ID, st.column),
				Title:       st.title,
				Description: st.description,
				Priority:    st.priority,
			}
			if _, ok := view.Column(in.ColumnID); !ok {
				continue
			}
			if st.dueInDays > 0 {
				due := now.Add(time.Duration(st.dueInDays) * 24 * time.Hour)
				in.DueAt = &due
			}
			if st.assignee != "" {
				in.Assignee = &domain.Assignee{Name: st.assignee}
			}
			if _, err := s.CreateTask(ctx, in); err != nil {
				return created, fmt.Errorf("seed task %q: %w", st.title, err)
			}
			created++
		}
	}
	return created, nil
}

func boardHasTasks(view BoardView) bool {
	for _, col := range view.Columns {
		if len(col.Tasks) > 0 {
			return true
		}
	}
	return false
}
