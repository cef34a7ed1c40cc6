package memory

import "sync"

// Pool is a typed object pool over sync.Pool.
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

// Put returns an object to the pool. Callers must drop every reference
// to it first; the pool may hand it to the next Get immediately.
func (p *Pool[T]) Put(v *T) {
	p.p.Put(v)
}
