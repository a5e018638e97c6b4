package curve

import (
	"sort"
)

// segment returns the index of the first node time >= t. A result of len(times)
// means t lies beyond the last node.
//
// This uses binary search for O(log n) complexity instead of O(n) linear search.
func segment(times []float64, t float64) int {
	return sort.SearchFloat64s(times, t)
}

// bracketOrBoundary returns the indices (i-1, i) of the two node times around t.
// If t is outside the node range, it returns the nearest boundary pair.
// ok is false when there are fewer than two nodes.
func bracketOrBoundary(times []float64, t float64) (lo, hi int, ok bool) {
	if len(times) < 2 {
		return 0, 0, false
	}
	idx := segment(times, t)
	if idx <= 0 {
		return 0, 1, true
	}
	if idx >= len(times) {
		return len(times) - 2, len(times) - 1, true
	}
	return idx - 1, idx, true
}
