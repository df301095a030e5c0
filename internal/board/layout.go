package board

// CandidateKind identifies what a registered drop candidate represents.
type CandidateKind int

// Drop candidate kinds.
const (
	CandidateCard CandidateKind = iota
	CandidateSentinel
)

// Candidate is one rendered drop target for the current frame.
type Candidate struct {
	Kind     CandidateKind
	ColumnID string
	TaskID   string
	Rect     Rect
	// Zone is the column body a sentinel claims outright; zero for cards.
	Zone Rect
}

// Layout collects the drop candidates registered by column containers for one frame.
// Registration order is significant: it breaks resolver ties.
type Layout struct {
	candidates []Candidate
	cards      map[string]int
	sentinels  map[string]int
}

// NewLayout constructs an empty frame layout.
func NewLayout() *Layout {
	return &Layout{
		cards:     map[string]int{},
		sentinels: map[string]int{},
	}
}

// AddCard registers one rendered card as a drop candidate.
func (l *Layout) AddCard(columnID, taskID string, rect Rect) {
	if taskID == "" || columnID == "" {
		return
	}
	if idx, ok := l.cards[taskID]; ok {
		l.candidates[idx] = Candidate{Kind: CandidateCard, ColumnID: columnID, TaskID: taskID, Rect: rect}
		return
	}
	l.cards[taskID] = len(l.candidates)
	l.candidates = append(l.candidates, Candidate{Kind: CandidateCard, ColumnID: columnID, TaskID: taskID, Rect: rect})
}

// AddSentinel registers the empty-space target of one column. Columns register it even when empty.
func (l *Layout) AddSentinel(columnID string, rect Rect) {
	l.AddSentinelZone(columnID, rect, Rect{})
}

// AddSentinelZone registers a sentinel together with the free column body
// below the last card. A pointer inside zone resolves to the sentinel without scoring.
func (l *Layout) AddSentinelZone(columnID string, rect, zone Rect) {
	if columnID == "" {
		return
	}
	c := Candidate{Kind: CandidateSentinel, ColumnID: columnID, Rect: rect, Zone: zone}
	if idx, ok := l.sentinels[columnID]; ok {
		l.candidates[idx] = c
		return
	}
	l.sentinels[columnID] = len(l.candidates)
	l.candidates = append(l.candidates, c)
}

// ZoneAt returns the sentinel whose zone contains p, if any.
func (l *Layout) ZoneAt(p Point) (Candidate, bool) {
	if l == nil {
		return Candidate{}, false
	}
	for _, c := range l.candidates {
		if c.Kind == CandidateSentinel && !c.Zone.Empty() && c.Zone.Contains(p) {
			return c, true
		}
	}
	return Candidate{}, false
}

// Candidates returns the registered candidates in registration order.
func (l *Layout) Candidates() []Candidate {
	if l == nil {
		return nil
	}
	return append([]Candidate(nil), l.candidates...)
}

// CardRect returns the rendered rectangle of one card.
func (l *Layout) CardRect(taskID string) (Rect, bool) {
	if l == nil {
		return Rect{}, false
	}
	idx, ok := l.cards[taskID]
	if !ok {
		return Rect{}, false
	}
	return l.candidates[idx].Rect, true
}

// HasSentinel reports whether a column registered its empty-space target.
func (l *Layout) HasSentinel(columnID string) bool {
	if l == nil {
		return false
	}
	_, ok := l.sentinels[columnID]
	return ok
}

// HitCard returns the card under p, if any.
func (l *Layout) HitCard(p Point) (Candidate, bool) {
	if l == nil {
		return Candidate{}, false
	}
	for _, c := range l.candidates {
		if c.Kind == CandidateCard && c.Rect.Contains(p) {
			return c, true
		}
	}
	return Candidate{}, false
}

// Len returns the number of registered candidates.
func (l *Layout) Len() int {
	if l == nil {
		return 0
	}
	return len(l.candidates)
}
