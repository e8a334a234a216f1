// Package sorting orders small result sets by a single extracted key.
package sorting

import (
	"cmp"
	"slices"
)

// QuickSort returns items ordered ascending by key. The last element of each
// partition is the pivot; elements are split into strictly-less, equal and
// strictly-greater groups which keep their input order, so the sort is stable.
//
// Slices of length <= 1 are returned as is. Longer inputs produce a new slice
// and leave items untouched. Keys compare with cmp.Compare: NaN sorts below
// every number and equals other NaNs, so no element is ever dropped.
func QuickSort[T any, K cmp.Ordered](items []T, key func(T) K) []T {
	if len(items) <= 1 {
		return items
	}

	pivot := key(items[len(items)-1])
	var less, equal, greater []T
	for _, item := range items {
		switch cmp.Compare(key(item), pivot) {
		case -1:
			less = append(less, item)
		case 0:
			equal = append(equal, item)
		default:
			greater = append(greater, item)
		}
	}

	out := make([]T, 0, len(items))
	out = append(out, QuickSort(less, key)...)
	out = append(out, equal...)
	out = append(out, QuickSort(greater, key)...)
	return out
}

// Descending sorts ascending and then reverses the whole result, so equal keys
// end up in reverse input order.
func Descending[T any, K cmp.Ordered](items []T, key func(T) K) []T {
	out := QuickSort(items, key)
	if len(out) <= 1 {
		return out
	}
	slices.Reverse(out)
	return out
}
