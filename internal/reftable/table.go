package reftable

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("reference table closed")

// Table is a concurrency-safe reference table.
type Table struct {
	entries   []entry
	freeList  []uint64
	observers []Observer
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	tag       Tag
	closed    bool
}

type entry struct {
	value any
	valid bool
}

// New creates an empty table whose handles carry tag.
func New(tag Tag) *Table {
	return &Table{
		tag:      tag,
		entries:  make([]entry, 0, 64),
		freeList: make([]uint64, 0, 16),
	}
}

// Insert stores value and returns its handle, or 0 once the table is closed.
func (t *Table) Insert(value any) Handle {
	h, err := t.insert(value)
	if err != nil {
		return 0
	}
	t.notify(Event{Type: EventCreated, Handle: h, Tag: t.tag, Value: value})
	return h
}

func (t *Table) insert(value any) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrClosed
	}

	e := entry{value: value, valid: true}
	if len(t.freeList) > 0 {
		idx := t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		t.entries[idx] = e
		return makeHandle(t.tag, idx), nil
	}

	if uint64(len(t.entries)) >= indexMax {
		return 0, errors.New("reference table full")
	}
	t.entries = append(t.entries, e)
	return makeHandle(t.tag, uint64(len(t.entries)-1)), nil
}

// Owns reports whether h was issued by this table (valid or not).
func (t *Table) Owns(h Handle) bool {
	return h != 0 && h.Tag() == t.tag
}

// Get retrieves the referent of h.
func (t *Table) Get(h Handle) (any, bool) {
	if !t.Owns(h) || h.index() == 0 {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := h.index() - 1
	if idx >= uint64(len(t.entries)) {
		return nil, false
	}
	e := t.entries[idx]
	if !e.valid {
		return nil, false
	}
	return e.value, true
}

// Remove invalidates h and returns its referent.
func (t *Table) Remove(h Handle) (any, bool) {
	value, ok := t.remove(h)
	if !ok {
		return nil, false
	}
	t.notify(Event{Type: EventDropped, Handle: h, Tag: t.tag, Value: value})
	return value, true
}

func (t *Table) remove(h Handle) (any, bool) {
	if !t.Owns(h) || h.index() == 0 {
		return nil, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := h.index() - 1
	if idx >= uint64(len(t.entries)) {
		return nil, false
	}
	e := &t.entries[idx]
	if !e.valid {
		return nil, false
	}

	value := e.value
	e.valid = false
	e.value = nil
	t.freeList = append(t.freeList, idx)
	return value, true
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, e := range t.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each iterates over live handles until fn returns false.
func (t *Table) Each(fn func(Handle, any) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i, e := range t.entries {
		if e.valid {
			if !fn(makeHandle(t.tag, uint64(i)), e.value) {
				break
			}
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Clear removes every live handle, notifying observers.
func (t *Table) Clear() {
	// Collect handles first to avoid holding the lock during Remove
	var handles []Handle
	t.Each(func(h Handle, _ any) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		t.Remove(h)
	}
}

// Close clears the table and stops accepting inserts.
func (t *Table) Close() error {
	t.Clear()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.entries = nil
	t.freeList = nil
	return nil
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnRefEvent(e)
	}
}
