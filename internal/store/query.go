package store

import (
	"sort"
	"strings"
)

// TopK ranks values by score and returns at most limit of them, highest
// first. Values are stable-sorted ascending by score and the last limit
// entries are returned in reverse. Equal scores come out in ascending less
// order, and the lesser key survives a cut at the limit. limit <= 0 yields an
// empty result.
func TopK[V any](values []V, limit int, score func(V) float64, less func(a, b V) bool) []V {
	if limit <= 0 || len(values) == 0 {
		return []V{}
	}

	sorted := make([]V, len(values))
	copy(sorted, values)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := score(sorted[i]), score(sorted[j])
		if si != sj {
			return si < sj
		}
		// Reversed so that ties read in ascending tiebreak order after the flip.
		return less(sorted[j], sorted[i])
	})

	if limit > len(sorted) {
		limit = len(sorted)
	}
	out := make([]V, 0, limit)
	for i := len(sorted) - 1; i >= len(sorted)-limit; i-- {
		out = append(out, sorted[i])
	}
	return out
}

// Filter returns the values that satisfy every predicate. A nil predicate
// imposes no constraint.
func Filter[V any](values []V, predicates ...func(V) bool) []V {
	out := make([]V, 0, len(values))
outer:
	for _, v := range values {
		for _, p := range predicates {
			if p != nil && !p(v) {
				continue outer
			}
		}
		out = append(out, v)
	}
	return out
}

// Contains is a case-sensitive substring predicate builder. An empty needle
// yields nil, meaning no constraint.
func Contains[V any](needle string, field func(V) string) func(V) bool {
	if needle == "" {
		return nil
	}
	return func(v V) bool { return strings.Contains(field(v), needle) }
}

// Equals is an equality predicate builder. A nil want yields no constraint.
func Equals[V any, T comparable](want *T, field func(V) T) func(V) bool {
	if want == nil {
		return nil
	}
	w := *want
	return func(v V) bool { return field(v) == w }
}

// Between is an inclusive range predicate builder. Nil bounds are open.
func Between[V any](from, to *int64, field func(V) int64) func(V) bool {
	if from == nil && to == nil {
		return nil
	}
	return func(v V) bool {
		ts := field(v)
		if from != nil && ts < *from {
			return false
		}
		if to != nil && ts > *to {
			return false
		}
		return true
	}
}
