// Package generic holds small type-parameterized building blocks shared
// across the simulation packages.
package generic

import "sync"

// Pool is a typed wrapper over sync.Pool.
type Pool[T any] struct {
	inner sync.Pool
}

// NewPool builds a pool that calls generate when empty.
func NewPool[T any](generate func() T) *Pool[T] {
	return &Pool[T]{inner: sync.Pool{New: func() any { return generate() }}}
}

func (p *Pool[T]) Get() T  { return p.inner.Get().(T) }
func (p *Pool[T]) Put(v T) { p.inner.Put(v) }
