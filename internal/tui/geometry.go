package tui

import (
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/ngoboard/internal/board"
)

// Board geometry in terminal cells. Update registers drop candidates from the
// same numbers View renders with.
const (
	// boardTop is the first row of the column boxes: header, tabs, spacer.
	boardTop = 3
	// footerRows covers the status, activity and bordered help lines.
	footerRows = 4
	// cardsOffset is the header and spacer rows inside a column before the first card.
	cardsOffset = 2
	// cardRows is title, meta and gap per card.
	cardRows = 3
	// contentInset is the left border plus left padding of a column box.
	contentInset = 2
	minInnerRows = 8
)

// columnWidth returns the lipgloss width for each column box.
func (m Model) columnWidth() int {
	n := len(m.view.Columns)
	if n == 0 {
		return 24
	}
	w := 28
	if m.width > 0 {
		const colOverhead = 3
		if candidate := m.width/n - colOverhead; candidate > 0 {
			w = candidate
		}
	}
	return clamp(w, 18, 40)
}

// columnStyle returns the column box style.
func (m Model) columnStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("239")).
		Padding(0, 1).
		MarginRight(1).
		Width(m.columnWidth())
}

// columnPitch is the rendered width of one column including its margin.
func (m Model) columnPitch() int {
	return lipgloss.Width(m.columnStyle().Render(""))
}

// innerWidth is the usable content width inside a column box.
func (m Model) innerWidth() int {
	return max(1, m.columnPitch()-5)
}

// innerHeight is the number of content rows inside a column box.
func (m Model) innerHeight() int {
	if m.height <= 0 {
		return 14
	}
	return max(minInnerRows, m.height-boardTop-footerRows-2)
}

// boardBottom is the first row below the column boxes.
func (m Model) boardBottom() int {
	return boardTop + m.innerHeight() + 2
}

// visibleCards is how many cards fit in one column.
func (m Model) visibleCards() int {
	return max(0, (m.innerHeight()-cardsOffset)/cardRows)
}

// cardRect returns the screen rectangle of the card at taskIdx in column colIdx.
func (m Model) cardRect(colIdx, taskIdx int) board.Rect {
	return board.Rect{
		X: float64(colIdx*m.columnPitch() + contentInset),
		Y: float64(boardTop + 1 + cardsOffset + taskIdx*cardRows),
		W: float64(m.innerWidth()),
		H: cardRows - 1,
	}
}

// sentinelRect is the card-sized slot after the last visible card.
func (m Model) sentinelRect(colIdx, cards int) board.Rect {
	slot := min(cards, m.visibleCards())
	bottom := boardTop + 1 + m.innerHeight()
	top := min(boardTop+1+cardsOffset+slot*cardRows, bottom-(cardRows-1))
	return board.Rect{
		X: float64(colIdx*m.columnPitch() + contentInset),
		Y: float64(top),
		W: float64(m.innerWidth()),
		H: cardRows - 1,
	}
}

// sentinelZone covers the column body below its last visible card.
func (m Model) sentinelZone(colIdx, cards int) board.Rect {
	top := boardTop + 1 + cardsOffset + min(cards, m.visibleCards())*cardRows
	bottom := boardTop + 1 + m.innerHeight()
	if top >= bottom {
		return board.Rect{}
	}
	return board.Rect{
		X: float64(colIdx*m.columnPitch() + contentInset),
		Y: float64(top),
		W: float64(m.innerWidth()),
		H: float64(bottom - top),
	}
}

// columnAt returns the column index under screen column x.
func (m Model) columnAt(x int) (int, bool) {
	n := len(m.view.Columns)
	pitch := m.columnPitch()
	if n == 0 || pitch <= 0 || x < 0 {
		return 0, false
	}
	idx := x / pitch
	return idx, idx < n
}

// buildLayout registers every visible card and one sentinel per column.
func (m Model) buildLayout() *board.Layout {
	l := board.NewLayout()
	if m.ctrl == nil {
		return l
	}
	visible := m.visibleCards()
	for colIdx, col := range m.ctrl.Columns() {
		ids := m.ctrl.TaskIDs(col.ID)
		for taskIdx, id := range ids {
			if taskIdx >= visible {
				break
			}
			l.AddCard(col.ID, id, m.cardRect(colIdx, taskIdx))
		}
		l.AddSentinelZone(col.ID, m.sentinelRect(colIdx, len(ids)), m.sentinelZone(colIdx, len(ids)))
	}
	return l
}

// relayout installs a fresh layout on the controller.
func (m Model) relayout() {
	if m.ctrl != nil {
		m.ctrl.SetLayout(m.buildLayout())
	}
}

// pointerFor converts mouse cell coordinates.
func pointerFor(x, y int) board.Point {
	return board.Point{X: float64(x), Y: float64(y)}
}
