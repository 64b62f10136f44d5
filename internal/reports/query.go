// Package reports builds the administrative and public report payloads from
// in-memory collections of users and content.
package reports

import (
	"cmp"
	"slices"
)

// Predicate selects items for Filter.
type Predicate[T any] func(T) bool

// Filter returns the items matching every predicate, in input order.
func Filter[T any](items []T, preds ...Predicate[T]) []T {
	out := make([]T, 0, len(items))
outer:
	for _, item := range items {
		for _, pred := range preds {
			if !pred(item) {
				continue outer
			}
		}
		out = append(out, item)
	}
	return out
}

// SortBy returns a sorted copy of items. Ties keep their input order.
func SortBy[T any, K cmp.Ordered](items []T, key func(T) K, desc bool) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		c := cmp.Compare(key(a), key(b))
		if desc {
			return -c
		}
		return c
	})
	return out
}

// Paginate returns at most limit items starting at skip. Out of range
// windows yield an empty page.
func Paginate[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || skip >= len(items) {
		return []T{}
	}
	end := skip + limit
	if end > len(items) || end < skip {
		end = len(items)
	}
	return slices.Clone(items[skip:end])
}
