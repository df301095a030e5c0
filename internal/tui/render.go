package tui

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/ngoboard/internal/board"
	"github.com/evanschultz/ngoboard/internal/domain"
)

var (
	accentColor = lipgloss.Color("62")
	mutedColor  = lipgloss.Color("241")
	dimColor    = lipgloss.Color("239")
	warnColor   = lipgloss.Color("203")
	hoverColor  = lipgloss.Color("212")
)

// cardState is the render state of one card.
type cardState struct {
	selected bool
	dragging bool
}

// View handles view.
func (m Model) View() tea.View {
	var content string
	switch {
	case m.err != nil:
		content = "error: " + m.err.Error() + "\n\npress r to retry • q quit\n"
	case !m.ready || m.ctrl == nil:
		content = "loading..."
	default:
		content = m.renderBoard()
	}
	v := tea.NewView(content)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// renderBoard renders header, tabs, columns and footer.
func (m Model) renderBoard() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dimColor)

	drag := m.ctrl.DragState()
	header := titleStyle.Render("ngoboard") + "  " + m.view.Board.Name
	if drag.Active {
		header += statusStyle.Render("  [dragging]")
	}

	columns := m.ctrl.Columns()
	views := make([]string, 0, len(columns))
	for idx, col := range columns {
		views = append(views, m.renderColumn(idx, col, drag))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, views...)

	sections := []string{header, m.renderTabs(), "", body}
	sections = append(sections, m.renderStatusLine(), statusStyle.Render(m.activityLine()))
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(mutedColor).
		BorderTop(true).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	full := content + "\n" + helpLine

	overlay := ""
	switch {
	case m.help.ShowAll:
		overlay = m.renderHelpOverlay(m.width - 8)
	case m.detailTaskID != "":
		overlay = m.renderDetail(m.width - 8)
	}
	if overlay != "" {
		height := lipgloss.Height(full)
		if m.height > 0 {
			height = m.height
		}
		full = overlayOnContent(full, overlay, max(1, m.width), max(1, height))
	}
	return full
}

// renderTabs renders the board switcher line.
func (m Model) renderTabs() string {
	active := lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	inactive := lipgloss.NewStyle().Foreground(mutedColor)
	parts := make([]string, 0, len(m.boards))
	for idx, b := range m.boards {
		if idx == m.boardIdx {
			parts = append(parts, active.Render("["+b.Name+"]"))
			continue
		}
		parts = append(parts, inactive.Render(" "+b.Name+" "))
	}
	return strings.Join(parts, " ")
}

// renderStatusLine shows the active notice or the latest status.
func (m Model) renderStatusLine() string {
	if m.notice.text != "" && m.now().Before(m.notice.until) {
		return lipgloss.NewStyle().Bold(true).Foreground(warnColor).Render(m.notice.text)
	}
	if m.status == "" || m.status == "ready" {
		return ""
	}
	return lipgloss.NewStyle().Foreground(dimColor).Render(m.status)
}

// activityLine summarizes the most recent change events.
func (m Model) activityLine() string {
	if len(m.activity) == 0 {
		return "no recent activity"
	}
	parts := make([]string, 0, len(m.activity))
	for _, ev := range m.activity {
		parts = append(parts, activitySummary(ev))
	}
	return truncate("recent: "+strings.Join(parts, " • "), max(16, m.width))
}

// activitySummary renders one change event.
func activitySummary(ev domain.ChangeEvent) string {
	title := ev.Metadata["title"]
	if title == "" {
		title = ev.TaskID
	}
	switch ev.Operation {
	case domain.ChangeOperationMove:
		return fmt.Sprintf("%s → %s", title, ev.Metadata["to_column_id"])
	case domain.ChangeOperationReorder:
		return fmt.Sprintf("%s reordered", title)
	case domain.ChangeOperationCreate:
		return fmt.Sprintf("%s created", title)
	default:
		return fmt.Sprintf("%s %s", title, ev.Operation)
	}
}

// renderColumn is the column container: header, cards, insertion line and empty placeholder.
func (m Model) renderColumn(idx int, col board.ColumnSpec, drag board.DragState) string {
	width := m.innerWidth()
	ids := m.ctrl.TaskIDs(col.ID)
	accent := columnAccent(col.Color)

	style := m.columnStyle()
	hovered := drag.Active && drag.HasTarget && drag.Target.ColumnID == col.ID
	switch {
	case hovered:
		style = style.BorderForeground(hoverColor)
	case !drag.Active && idx == m.selectedColumn:
		style = style.BorderForeground(accent)
	}

	title := fmt.Sprintf("%s (%d)", col.Title, len(ids))
	if rec, ok := m.columnByID(col.ID); ok {
		if rec.WIPLimit > 0 {
			title = fmt.Sprintf("%s (%d/%d)", col.Title, len(ids), rec.WIPLimit)
		}
		if rec.Locked {
			title += " locked"
		}
	}
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	lines := []string{headerStyle.Render(truncate(title, width))}
	if rec, ok := m.columnByID(col.ID); ok && m.showWIPWarnings && rec.WIPLimit > 0 && len(ids) > rec.WIPLimit {
		lines[0] = lipgloss.NewStyle().Bold(true).Foreground(warnColor).Render(truncate("! "+title, width))
	}

	insertAt := -1
	if hovered {
		insertAt = drag.Target.Index
		if drag.Target.ColumnID == drag.SourceColumnID && insertAt >= drag.SourceIndex {
			insertAt++
		}
	}
	gap := func(at int) string {
		if at == insertAt {
			return lipgloss.NewStyle().Foreground(hoverColor).Render(strings.Repeat("─", width))
		}
		return ""
	}

	lines = append(lines, gap(0))
	visible := m.visibleCards()
	if len(ids) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(mutedColor).Italic(true).Render(truncate("drop tasks here", width)))
	}
	for taskIdx, id := range ids {
		if taskIdx >= visible {
			more := fmt.Sprintf("+%d more", len(ids)-visible)
			lines[len(lines)-1] = lipgloss.NewStyle().Foreground(mutedColor).Render(truncate(more, width))
			break
		}
		card, _ := m.ctrl.Card(id)
		state := cardState{
			selected: !drag.Active && idx == m.selectedColumn && taskIdx == m.selectedTask,
			dragging: m.gesture.IsDragging(id),
		}
		titleLine, metaLine := m.renderCard(card, state, width)
		lines = append(lines, titleLine, metaLine, gap(taskIdx+1))
	}
	return style.Render(fitLines(strings.Join(lines, "\n"), m.innerHeight()))
}

// renderCard is the card renderer: a title row and a meta row, each at most width cells.
func (m Model) renderCard(card board.Card, state cardState, width int) (string, string) {
	prefix := "  "
	switch {
	case state.dragging:
		prefix = "⠿ "
	case state.selected:
		prefix = "│ "
	}
	titleStyle := lipgloss.NewStyle().Foreground(priorityColor(card.Priority))
	metaStyle := lipgloss.NewStyle().Foreground(mutedColor)
	if state.selected {
		titleStyle = titleStyle.Bold(true)
	}
	if state.dragging {
		titleStyle = titleStyle.Faint(true)
		metaStyle = metaStyle.Faint(true)
	}

	title := titleStyle.Render(prefix + truncate(card.Title, max(1, width-2)))
	meta := metaStyle.Render(truncate(prefix+cardMeta(card, m.now()), width))
	return title, meta
}

// cardMeta joins assignee initials, priority and due date.
func cardMeta(card board.Card, now time.Time) string {
	parts := make([]string, 0, 3)
	if card.Assignee != "" {
		parts = append(parts, "@"+domain.Assignee{Name: card.Assignee}.Initials())
	}
	if card.Priority != "" {
		parts = append(parts, card.Priority)
	}
	if card.DueAt != nil {
		due := "due " + card.DueAt.Local().Format("01-02")
		if domain.Overdue(card.DueAt, now) {
			due = "overdue " + card.DueAt.Local().Format("01-02")
		}
		parts = append(parts, due)
	}
	return strings.Join(parts, " · ")
}

// priorityColor maps a priority to a title color.
func priorityColor(priority string) color.Color {
	switch domain.Priority(priority) {
	case domain.PriorityUrgent:
		return lipgloss.Color("196")
	case domain.PriorityHigh:
		return lipgloss.Color("214")
	case domain.PriorityLow:
		return lipgloss.Color("245")
	default:
		return lipgloss.Color("252")
	}
}

// columnAccent returns the configured column color or the default accent.
func columnAccent(raw string) color.Color {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return accentColor
	}
	return lipgloss.Color(raw)
}

// renderDetail renders the task detail overlay with its markdown description.
func (m Model) renderDetail(maxWidth int) string {
	card, ok := m.ctrl.Card(m.detailTaskID)
	if !ok {
		return ""
	}
	width := clamp(maxWidth, 32, 80)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(priorityColor(card.Priority))
	labelStyle := lipgloss.NewStyle().Foreground(mutedColor)

	column := card.ColumnID
	for _, spec := range m.ctrl.Columns() {
		if spec.ID == card.ColumnID {
			column = spec.Title
		}
	}
	lines := []string{
		titleStyle.Render(card.Title),
		labelStyle.Render("id: " + card.ID),
		labelStyle.Render("column: " + column),
	}
	if meta := cardMeta(card, m.now()); meta != "" {
		lines = append(lines, labelStyle.Render(meta))
	}
	if card.Assignee != "" {
		who := "assignee: " + card.Assignee
		if card.AvatarRef != "" {
			who += " (" + card.AvatarRef + ")"
		}
		lines = append(lines, labelStyle.Render(who))
	}
	if desc := m.markdown.render(card.Description, width-4); desc != "" {
		lines = append(lines, "", desc)
	}
	lines = append(lines, "", labelStyle.Render("y copy id • esc close"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

// renderHelpOverlay renders the full key help.
func (m Model) renderHelpOverlay(maxWidth int) string {
	h := m.help
	h.ShowAll = true
	h.SetWidth(clamp(maxWidth, 32, 100))
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Keys"),
		h.View(m.keys),
		"",
		lipgloss.NewStyle().Foreground(mutedColor).Render("drag a card with the mouse to move it; click to open"),
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	overlayLayer := lipgloss.NewLayer(centered).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
