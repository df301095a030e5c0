package board

import (
	"slices"
	"sort"
)

// Target is one resolved drop location.
type Target struct {
	ColumnID string
	// Index is the insertion position in the column sequence with the active task removed.
	Index int
	// OverID is the hovered task id, or the column id when the sentinel won.
	OverID string
	// Home marks a release over the dragged card's own slot.
	Home bool
}

// Sequences exposes the column orderings the resolver indexes into.
type Sequences interface {
	TaskIDs(columnID string) []string
	Locate(taskID string) (columnID string, index int, ok bool)
}

// ResolveInput carries everything needed to resolve one pointer position.
type ResolveInput struct {
	Layout       *Layout
	Sequences    Sequences
	ActiveTaskID string
	Origin       Point
	Pointer      Point
	// HomeRect is the dragged card's rendered rectangle at drag start; zero when unknown.
	HomeRect Rect
}

// Collision is one scored candidate.
type Collision struct {
	Candidate Candidate
	Score     float64
}

// Resolver maps a pointer position to a drop target using closest-corners collision detection.
type Resolver struct {
	// MaxDistance rejects winners whose score exceeds it; zero disables the bound.
	MaxDistance float64
}

// DragRect returns the rectangle of the dragged card at the current pointer.
func DragRect(home Rect, origin, pointer Point) Rect {
	if home.Empty() {
		return RectAt(pointer)
	}
	return home.Translate(pointer.Sub(origin))
}

// ClosestCorners scores every candidate except the active card, ascending, ties in registration order.
func ClosestCorners(drag Rect, candidates []Candidate, activeTaskID string) []Collision {
	out := make([]Collision, 0, len(candidates))
	for _, c := range candidates {
		if c.Kind == CandidateCard && c.TaskID == activeTaskID {
			continue
		}
		out = append(out, Collision{Candidate: c, Score: cornerScore(drag, c.Rect)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score < out[j].Score
	})
	return out
}

// Resolve returns the drop target for in, or false when nothing qualifies.
func (r Resolver) Resolve(in ResolveInput) (Target, bool) {
	if in.Sequences == nil || in.ActiveTaskID == "" {
		return Target{}, false
	}
	srcColumn, srcIndex, ok := in.Sequences.Locate(in.ActiveTaskID)
	if !ok {
		return Target{}, false
	}
	if !in.HomeRect.Empty() && in.HomeRect.Contains(in.Pointer) {
		return Target{ColumnID: srcColumn, Index: srcIndex, OverID: in.ActiveTaskID, Home: true}, true
	}
	if zone, ok := in.Layout.ZoneAt(in.Pointer); ok {
		if target, ok := targetFor(zone, in.Sequences, in.ActiveTaskID); ok {
			return target, true
		}
	}

	drag := DragRect(in.HomeRect, in.Origin, in.Pointer)
	for _, hit := range ClosestCorners(drag, in.Layout.Candidates(), in.ActiveTaskID) {
		if r.MaxDistance > 0 && hit.Score > r.MaxDistance {
			// Sorted ascending: nothing further can qualify.
			return Target{}, false
		}
		target, ok := targetFor(hit.Candidate, in.Sequences, in.ActiveTaskID)
		if !ok {
			// Candidate registered by a stale frame; try the next closest.
			continue
		}
		return target, true
	}
	return Target{}, false
}

// targetFor converts one winning candidate into a column/index pair.
func targetFor(c Candidate, seqs Sequences, activeTaskID string) (Target, bool) {
	ids := without(seqs.TaskIDs(c.ColumnID), activeTaskID)
	switch c.Kind {
	case CandidateCard:
		col, _, ok := seqs.Locate(c.TaskID)
		if !ok || col != c.ColumnID {
			return Target{}, false
		}
		idx := slices.Index(ids, c.TaskID)
		if idx < 0 {
			return Target{}, false
		}
		return Target{ColumnID: c.ColumnID, Index: idx, OverID: c.TaskID}, true
	case CandidateSentinel:
		if !knownColumn(seqs, c.ColumnID) {
			return Target{}, false
		}
		return Target{ColumnID: c.ColumnID, Index: len(ids), OverID: c.ColumnID}, true
	default:
		return Target{}, false
	}
}

// columnChecker is implemented by sequence sources that can tell empty columns from unknown ones.
type columnChecker interface {
	HasColumn(columnID string) bool
}

func knownColumn(seqs Sequences, columnID string) bool {
	if cc, ok := seqs.(columnChecker); ok {
		return cc.HasColumn(columnID)
	}
	return true
}
