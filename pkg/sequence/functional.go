// Package sequence provides lazy iterators and ordering helpers used by
// the simulation pipeline.
package sequence

import (
	"iter"
	"sort"
)

// Iterator is a lazy sequence over values of T. Transformations return
// new iterators; nothing runs until the sequence is drained.
type Iterator[T any] struct {
	seq iter.Seq[T]
}

// From wraps a slice. The iterator reads the slice lazily, so callers
// mutating the slice afterwards should Collect first.
func From[T any](data []T) *Iterator[T] {
	return &Iterator[T]{seq: func(yield func(T) bool) {
		for _, v := range data {
			if !yield(v) {
				return
			}
		}
	}}
}

// FromMap wraps a map's values. Iteration order follows map order and
// is therefore unspecified.
func FromMap[K comparable, T any](data map[K]T) *Iterator[T] {
	return &Iterator[T]{seq: func(yield func(T) bool) {
		for _, v := range data {
			if !yield(v) {
				return
			}
		}
	}}
}

// Seq exposes the underlying sequence for range-over-func callers.
func (i *Iterator[T]) Seq() iter.Seq[T] { return i.seq }

// Collect drains the iterator into a fresh slice.
func (i *Iterator[T]) Collect() []T {
	var out []T
	i.seq(func(v T) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Filter keeps the elements pred accepts.
func (i *Iterator[T]) Filter(pred func(T) bool) *Iterator[T] {
	src := i.seq
	return &Iterator[T]{seq: func(yield func(T) bool) {
		src(func(v T) bool {
			if pred(v) {
				return yield(v)
			}
			return true
		})
	}}
}

// Sort collects the sequence and yields it ordered by less. The sort
// is stable.
func (i *Iterator[T]) Sort(less func(a, b T) bool) *Iterator[T] {
	data := i.Collect()
	sort.SliceStable(data, func(a, b int) bool { return less(data[a], data[b]) })
	return From(data)
}

// Count drains the iterator and reports how many elements it yielded.
func (i *Iterator[T]) Count() int {
	n := 0
	i.seq(func(T) bool {
		n++
		return true
	})
	return n
}

// ToArray drains the iterator, mapping every element through fn.
func ToArray[T, S any](i *Iterator[T], fn func(T) S) []S {
	var out []S
	i.seq(func(v T) bool {
		out = append(out, fn(v))
		return true
	})
	return out
}
