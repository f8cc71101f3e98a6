// Package pool provides a small fixed-capacity object pool.
//
// The audio path allocates its working buffers up front and recycles
// them; there is no heap growth after startup.
package pool

import (
	"errors"
	"time"
)

// ErrExhausted reports that no slot became free within the timeout.
var ErrExhausted = errors.New("pool: exhausted")

// Pool hands out a fixed set of values allocated at construction.
type Pool[T any] struct {
	slots chan T
}

// New builds a pool of count values produced by alloc.
func New[T any](count int, alloc func() T) *Pool[T] {
	if count < 1 {
		count = 1
	}
	p := &Pool[T]{slots: make(chan T, count)}
	for i := 0; i < count; i++ {
		p.slots <- alloc()
	}
	return p
}

// Cap reports the total number of slots.
func (p *Pool[T]) Cap() int { return cap(p.slots) }

// Acquire blocks until a slot is free or the timeout passes.
// A timeout <= 0 means do not wait at all.
func (p *Pool[T]) Acquire(timeout time.Duration) (*Guard[T], error) {
	if timeout <= 0 {
		select {
		case v := <-p.slots:
			return &Guard[T]{pool: p, value: v}, nil
		default:
			return nil, ErrExhausted
		}
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case v := <-p.slots:
		return &Guard[T]{pool: p, value: v}, nil
	case <-t.C:
		return nil, ErrExhausted
	}
}

// Guard owns one pool slot until released.
type Guard[T any] struct {
	pool     *Pool[T]
	value    T
	released bool
}

// Value returns the held slot value.
func (g *Guard[T]) Value() T { return g.value }

// Release returns the slot to the pool. Safe to call more than once.
func (g *Guard[T]) Release() {
	if g == nil || g.released {
		return
	}
	g.released = true
	g.pool.slots <- g.value
}
