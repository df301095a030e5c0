package board

import "slices"

// Splice moves the element at from to position to, shifting the elements between.
// Out-of-range indexes are clamped; the input slice is not modified.
func Splice(ids []string, from, to int) []string {
	out := slices.Clone(ids)
	if len(out) == 0 || from < 0 || from >= len(out) {
		return out
	}
	id := out[from]
	out = slices.Delete(out, from, from+1)
	return insertAt(out, to, id)
}

// Transfer removes taskID from src and inserts it into dst at index.
// It returns false when taskID is not in src. Inputs are not modified.
func Transfer(src, dst []string, taskID string, index int) ([]string, []string, bool) {
	from := slices.Index(src, taskID)
	if from < 0 {
		return slices.Clone(src), slices.Clone(dst), false
	}
	nextSrc := slices.Delete(slices.Clone(src), from, from+1)
	nextDst := insertAt(without(dst, taskID), index, taskID)
	return nextSrc, nextDst, true
}

// insertAt inserts id at index, clamped to [0, len(ids)].
func insertAt(ids []string, index int, id string) []string {
	index = clamp(index, 0, len(ids))
	return slices.Insert(slices.Clone(ids), index, id)
}

// without returns a copy of ids with id removed.
func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
