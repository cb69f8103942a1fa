// Package container provides compile-time-flavored, read-only associative
// containers backed by a sorted array plus binary search: FlatMap,
// FlatMultiMap and FlatSet. None of the three ever mutates after
// construction, so they carry no locks and are safe for concurrent reads
// from the moment the constructor returns.
package container

import (
	"fmt"

	"golang.org/x/exp/slices"

	kerrors "kanaconv/internal/errors"
)

// Pair is one (key, value) entry of a FlatMap/FlatMultiMap source array.
type Pair[K any, V any] struct {
	Key   K
	Value V
}

// FlatMap is a read-only map over a sorted, duplicate-free array of pairs.
// Construct it once from a fixed array; find_or_null-style lookups are
// O(log n) and allocation-free.
type FlatMap[K any, V any] struct {
	pairs []Pair[K, V]
	cmp   func(a, b K) int
}

// NewFlatMap sorts a copy of pairs by cmp and verifies no two adjacent keys
// compare equal. A duplicate key is a fatal construction error: the caller
// passed an ill-formed static table.
func NewFlatMap[K any, V any](pairs []Pair[K, V], cmp func(a, b K) int) (*FlatMap[K, V], error) {
	sorted := append([]Pair[K, V](nil), pairs...)
	slices.SortFunc(sorted, func(a, b Pair[K, V]) int { return cmp(a.Key, b.Key) })
	for i := 1; i < len(sorted); i++ {
		if cmp(sorted[i-1].Key, sorted[i].Key) == 0 {
			return nil, kerrors.NewContainerDuplicateKey(
				fmt.Sprintf("FlatMap: duplicate key at sorted index %d", i))
		}
	}
	return &FlatMap[K, V]{pairs: sorted, cmp: cmp}, nil
}

// MustNewFlatMap panics on a duplicate-key construction error. Reserved for
// package-init-time static tables where a duplicate is a programming bug
// that should fail fast at startup, not propagate as a runtime error.
func MustNewFlatMap[K any, V any](pairs []Pair[K, V], cmp func(a, b K) int) *FlatMap[K, V] {
	m, err := NewFlatMap(pairs, cmp)
	if err != nil {
		panic(err)
	}
	return m
}

// FindOrNull returns the value associated with k, or (zero, false) if no
// entry compares equal to k under the map's comparator.
func (m *FlatMap[K, V]) FindOrNull(k K) (V, bool) {
	idx, found := slices.BinarySearchFunc(m.pairs, k, func(p Pair[K, V], k K) int { return m.cmp(p.Key, k) })
	if !found {
		var zero V
		return zero, false
	}
	return m.pairs[idx].Value, true
}

// Len reports the number of unique entries.
func (m *FlatMap[K, V]) Len() int { return len(m.pairs) }

// FlatMultiMap is a read-only multimap over a sorted (non-unique) array of
// pairs. EqualSpan returns the contiguous run of entries whose keys compare
// equal to the query key; in-span order is unspecified (it is whatever
// SortFunc's internal pivoting left it in).
type FlatMultiMap[K any, V any] struct {
	pairs []Pair[K, V]
	cmp   func(a, b K) int
}

// NewFlatMultiMap sorts a copy of pairs by key only; duplicate keys are
// permitted and expected.
func NewFlatMultiMap[K any, V any](pairs []Pair[K, V], cmp func(a, b K) int) *FlatMultiMap[K, V] {
	sorted := append([]Pair[K, V](nil), pairs...)
	slices.SortFunc(sorted, func(a, b Pair[K, V]) int { return cmp(a.Key, b.Key) })
	return &FlatMultiMap[K, V]{pairs: sorted, cmp: cmp}
}

// EqualSpan returns every pair whose key compares equal to k.
func (m *FlatMultiMap[K, V]) EqualSpan(k K) []Pair[K, V] {
	anchor, found := slices.BinarySearchFunc(m.pairs, k, func(p Pair[K, V], k K) int { return m.cmp(p.Key, k) })
	if !found {
		return nil
	}
	start, end := anchor, anchor+1
	for start > 0 && m.cmp(m.pairs[start-1].Key, k) == 0 {
		start--
	}
	for end < len(m.pairs) && m.cmp(m.pairs[end].Key, k) == 0 {
		end++
	}
	return m.pairs[start:end]
}

// Len reports the total number of entries, including duplicates.
func (m *FlatMultiMap[K, V]) Len() int { return len(m.pairs) }

// FlatSet is a read-only set over a sorted, duplicate-free array.
type FlatSet[T any] struct {
	items []T
	cmp   func(a, b T) int
}

// NewFlatSet sorts and dedups a copy of items. Unlike FlatMap, a duplicate
// entry in the source array is not an error: the set simply collapses it,
// matching set semantics.
func NewFlatSet[T any](items []T, cmp func(a, b T) int) *FlatSet[T] {
	sorted := append([]T(nil), items...)
	slices.SortFunc(sorted, cmp)
	sorted = slices.CompactFunc(sorted, func(a, b T) bool { return cmp(a, b) == 0 })
	return &FlatSet[T]{items: sorted, cmp: cmp}
}

// Contains reports whether x is a member of the set.
func (s *FlatSet[T]) Contains(x T) bool {
	_, found := slices.BinarySearchFunc(s.items, x, s.cmp)
	return found
}

// Len reports the number of unique members.
func (s *FlatSet[T]) Len() int { return len(s.items) }
