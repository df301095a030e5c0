package app

import (
	"cmp"
	"strings"

	"github.com/evanschultz/ngoboard/internal/domain"
)

// BoardTemplate describes a board created on first run.
type BoardTemplate struct {
	ID      string
	Name    string
	Kind    domain.BoardKind
	Columns []ColumnTemplate
}

// ColumnTemplate describes one column of a BoardTemplate.
type ColumnTemplate struct {
	ID       string
	Title    string
	Color    string
	Status   string
	WIPLimit int
	Locked   bool
}

// ColumnID returns the stored id of a templated column.
func ColumnID(boardID, columnID string) string {
	return boardID + "-" + columnID
}

// DefaultBoardTemplates returns the built-in task, recruitment and volunteer pipelines.
func DefaultBoardTemplates() []BoardTemplate {
	return []BoardTemplate{
		{
			ID:   "tasks",
			Name: "Tasks",
			Kind: domain.BoardKindTasks,
			Columns: []ColumnTemplate{
				{ID: "todo", Title: "To Do", Color: "39"},
				{ID: "progress", Title: "In Progress", Color: "214", WIPLimit: 5},
				{ID: "review", Title: "Review", Color: "170"},
				{ID: "done", Title: "Done", Color: "42"},
			},
		},
		{
			ID:   "recruitment",
			Name: "Recruitment",
			Kind: domain.BoardKindRecruitment,
			Columns: []ColumnTemplate{
				{ID: "applied", Title: "Applied", Color: "39"},
				{ID: "screening", Title: "Screening", Color: "75"},
				{ID: "interview", Title: "Interview", Color: "214", WIPLimit: 4},
				{ID: "offer", Title: "Offer", Color: "170"},
				{ID: "hired", Title: "Hired", Color: "42"},
			},
		},
		{
			ID:   "volunteers",
			Name: "Volunteers",
			Kind: domain.BoardKindVolunteers,
			Columns: []ColumnTemplate{
				{ID: "prospect", Title: "Prospect", Color: "39"},
				{ID: "onboarding", Title: "Onboarding", Color: "214"},
				{ID: "active", Title: "Active", Color: "42"},
				{ID: "alumni", Title: "Alumni", Color: "244", Locked: true},
			},
		},
	}
}

// sanitizeBoardTemplates trims templates, drops unusable entries and dedupes
// column ids and effective statuses within each board.
func sanitizeBoardTemplates(in []BoardTemplate) []BoardTemplate {
	out := make([]BoardTemplate, 0, len(in))
	seen := map[string]struct{}{}
	for _, tpl := range in {
		tpl.ID = normalizeTemplateID(tpl.ID, tpl.Name)
		tpl.Name = strings.TrimSpace(tpl.Name)
		if tpl.ID == "" || tpl.Name == "" {
			continue
		}
		if _, ok := seen[tpl.ID]; ok {
			continue
		}
		seen[tpl.ID] = struct{}{}

		cols := make([]ColumnTemplate, 0, len(tpl.Columns))
		colSeen := map[string]struct{}{}
		statusSeen := map[string]struct{}{}
		for _, ct := range tpl.Columns {
			ct.ID = normalizeTemplateID(ct.ID, ct.Title)
			ct.Title = strings.TrimSpace(ct.Title)
			ct.Status = strings.TrimSpace(ct.Status)
			if ct.ID == "" || ct.Title == "" {
				continue
			}
			if _, ok := colSeen[ct.ID]; ok {
				continue
			}
			status := cmp.Or(ct.Status, ct.ID)
			if _, ok := statusSeen[status]; ok {
				continue
			}
			colSeen[ct.ID] = struct{}{}
			statusSeen[status] = struct{}{}
			if ct.WIPLimit < 0 {
				ct.WIPLimit = 0
			}
			cols = append(cols, ct)
		}
		if len(cols) == 0 {
			continue
		}
		tpl.Columns = cols
		out = append(out, tpl)
	}
	return out
}

// normalizeTemplateID lowercases id, falling back to a dashed form of name.
func normalizeTemplateID(id, name string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if id != "" {
		return id
	}
	fields := strings.Fields(strings.ToLower(name))
	return strings.Join(fields, "-")
}
