package helpers

import (
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// Sorted returns a sorted copy of values.
func Sorted[V constraints.Ordered](values []V) []V {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return sorted
}
