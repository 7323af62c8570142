package util

import (
	"fmt"
	"sort"
)

// EqualSlices compares a and b element-wise with equal. With ignoreOrder the
// slices are compared as multisets, ordered by their printed form.
func EqualSlices[T any](a, b []T, equal func(x, y T) bool, ignoreOrder bool) bool {
	if len(a) != len(b) {
		return false
	}

	if ignoreOrder {
		a = sortedCopy(a)
		b = sortedCopy(b)
	}

	for i := range a {
		if !equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// AnyOf reports whether pred holds for some element of s.
func AnyOf[T any](s []T, pred func(T) bool) bool {
	for _, v := range s {
		if pred(v) {
			return true
		}
	}
	return false
}

func sortedCopy[T any](s []T) []T {
	out := append([]T(nil), s...)
	sort.SliceStable(out, func(i, j int) bool {
		return fmt.Sprint(out[i]) < fmt.Sprint(out[j])
	})
	return out
}
