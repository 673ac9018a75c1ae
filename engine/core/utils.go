package core

import "golang.org/x/exp/constraints"

// Clamp returns `f` limited to [low, high].
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// GrowSlice extends s to at least n entries, padding with the zero value.
func GrowSlice[T any](s []T, n int) []T {
	if n <= len(s) {
		return s
	}
	var zero T
	for len(s) < n {
		s = append(s, zero)
	}
	return s
}
