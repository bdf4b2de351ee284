// Package cache holds the process-wide resolution caches: class handles and
// member IDs computed once on first use and read lock-free afterwards.
//
// A Cell is a single lazily initialised slot. Readers pay one atomic load once
// the cell is populated; the first callers serialise on a mutex and re-check,
// so concurrent first use runs the initialiser exactly once. Failures are
// returned to the caller and leave the cell empty, so a later call retries.
//
//	var widgetClass cache.Cell[ffi.Ref]
//	cls, err := widgetClass.Get(func() (ffi.Ref, error) { ... })
//
// A Registry is a keyed set of cells shared by a runtime. Shutdown tears every
// populated entry down in insertion order.
package cache

import (
	"sync"
	"sync/atomic"
)

// Cell is a lazily initialised value. The zero Cell is empty and ready to use.
type Cell[T any] struct {
	v  atomic.Pointer[T]
	mu sync.Mutex
}

// Get returns the cached value, running init if the cell is empty.
func (c *Cell[T]) Get(init func() (T, error)) (T, error) {
	if p := c.v.Load(); p != nil {
		return *p, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p := c.v.Load(); p != nil {
		return *p, nil
	}

	v, err := init()
	if err != nil {
		var zero T
		return zero, err
	}
	c.v.Store(&v)
	return v, nil
}

// Peek returns the cached value without initialising.
func (c *Cell[T]) Peek() (T, bool) {
	if p := c.v.Load(); p != nil {
		return *p, true
	}
	var zero T
	return zero, false
}

// Loaded reports whether the cell holds a value.
func (c *Cell[T]) Loaded() bool {
	return c.v.Load() != nil
}

// Reset empties the cell, passing the previous value to teardown when set.
// It reports whether the cell held a value.
func (c *Cell[T]) Reset(teardown func(T)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.v.Swap(nil)
	if p == nil {
		return false
	}
	if teardown != nil {
		teardown(*p)
	}
	return true
}
