// Package memory provides allocation helpers for the hot matching path.
package memory

import "sync"

// Pool is a typed object pool. The order book recycles Order structs
// through it so steady-state matching allocates little per fill.
type Pool[T any] struct {
	p *sync.Pool
}

func NewPool[T any](ctor func() *T) *Pool[T] {
	return &Pool[T]{
		p: &sync.Pool{
			New: func() any { return ctor() },
		},
	}
}

func (p *Pool[T]) Get() *T {
	return p.p.Get().(*T)
}

func (p *Pool[T]) Put(v *T) {
	p.p.Put(v)
}
