// Package reftable implements reference tables: integer handles mapped to
// referents, with free-list slot reuse and lifecycle observers.
//
// Each table carries a tag in the high bits of its handles, so handles from a
// local table and a global table never collide and a handle identifies the
// table that issued it:
//
//	locals := reftable.New(reftable.TagLocal)
//	h := locals.Insert(obj)
//	obj, ok := locals.Get(h)
//	locals.Remove(h)
//
// Handle 0 is reserved and always invalid.
package reftable

// Handle is an opaque reference issued by a Table.
type Handle uint64

// Tag identifies the table a handle came from.
type Tag uint8

const (
	TagLocal  Tag = 1
	TagGlobal Tag = 2
)

const (
	tagShift = 24
	indexMax = 1<<tagShift - 1
)

// Tag returns the tag of the issuing table.
func (h Handle) Tag() Tag {
	return Tag(h >> tagShift)
}

func (h Handle) index() uint64 {
	return uint64(h) & indexMax
}

func makeHandle(tag Tag, index uint64) Handle {
	return Handle(uint64(tag)<<tagShift | (index + 1))
}

// EventType identifies a lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

// Event represents a reference lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Tag    Tag
	Type   EventType
}

// Observer receives notifications about reference lifecycle events.
type Observer interface {
	OnRefEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnRefEvent calls f(e).
func (f ObserverFunc) OnRefEvent(e Event) { f(e) }
