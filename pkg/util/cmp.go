package util

// EqualSlices reports whether a and b hold equal elements in the same
// order, using the provided comparison.
func EqualSlices[T any](a, b []T, equal func(x, y T) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
