package cache

import (
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// KeyKind distinguishes the kinds of cached identity.
type KeyKind uint8

const (
	KeyClass KeyKind = iota
	KeyMethod
	KeyStaticMethod
	KeyField
	KeyStaticField
)

var keyKindNames = [...]string{
	KeyClass:        "class",
	KeyMethod:       "method",
	KeyStaticMethod: "static-method",
	KeyField:        "field",
	KeyStaticField:  "static-field",
}

func (k KeyKind) String() string {
	if int(k) < len(keyKindNames) {
		return keyKindNames[k]
	}
	return "unknown"
}

// Key identifies a cached entry. Member and Signature are empty for classes.
// Loader is empty for the default loader.
type Key struct {
	Loader    string
	Class     string
	Member    string
	Signature string
	Kind      KeyKind
}

// ClassKey returns the key of a class handle.
func ClassKey(loader, class string) Key {
	return Key{Kind: KeyClass, Loader: loader, Class: class}
}

// String renders the canonical form: kind:loader/class.member:signature.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(k.Kind.String())
	b.WriteByte(':')
	if k.Loader != "" {
		b.WriteString(k.Loader)
		b.WriteByte('!')
	}
	b.WriteString(k.Class)
	if k.Member != "" {
		b.WriteByte('.')
		b.WriteString(k.Member)
	}
	if k.Signature != "" {
		b.WriteByte(':')
		b.WriteString(k.Signature)
	}
	return b.String()
}

// Registry is a concurrency-safe keyed cache.
type Registry struct {
	entries sync.Map // map[Key]*Cell[any]
	order   []Key
	mu      sync.Mutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) cell(key Key) *Cell[any] {
	if c, ok := r.entries.Load(key); ok {
		return c.(*Cell[any])
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	c, loaded := r.entries.LoadOrStore(key, &Cell[any]{})
	if !loaded {
		r.order = append(r.order, key)
	}
	return c.(*Cell[any])
}

// Resolve returns the value for key, running init on first use. Concurrent
// first callers run init once; an init error is returned unmodified and
// nothing is cached.
func (r *Registry) Resolve(key Key, init func() (any, error)) (any, error) {
	c := r.cell(key)
	if v, ok := c.Peek(); ok {
		return v, nil
	}
	return c.Get(func() (any, error) {
		v, err := init()
		if err != nil {
			Logger().Debug("cache: resolve failed", zap.Stringer("key", key), zap.Error(err))
			return nil, err
		}
		Logger().Debug("cache: resolved", zap.Stringer("key", key))
		return v, nil
	})
}

// Lookup returns a resolved value without initialising.
func (r *Registry) Lookup(key Key) (any, bool) {
	c, ok := r.entries.Load(key)
	if !ok {
		return nil, false
	}
	return c.(*Cell[any]).Peek()
}

// Reset empties the entry for key, passing the old value to teardown.
// A later Resolve runs its initialiser again.
func (r *Registry) Reset(key Key, teardown func(any)) bool {
	c, ok := r.entries.Load(key)
	if !ok {
		return false
	}
	return c.(*Cell[any]).Reset(teardown)
}

// Len returns the number of resolved entries.
func (r *Registry) Len() int {
	n := 0
	r.entries.Range(func(_, c any) bool {
		if c.(*Cell[any]).Loaded() {
			n++
		}
		return true
	})
	return n
}

// Keys returns the resolved keys in first-use order.
func (r *Registry) Keys() []Key {
	r.mu.Lock()
	order := append([]Key(nil), r.order...)
	r.mu.Unlock()

	keys := make([]Key, 0, len(order))
	for _, k := range order {
		if _, ok := r.Lookup(k); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// Shutdown empties every resolved entry in first-use order, passing each
// value to teardown, and returns the combined teardown errors. It must not
// run concurrently with other registry use.
func (r *Registry) Shutdown(teardown func(Key, any) error) error {
	var errs error
	for _, k := range r.Keys() {
		c, _ := r.entries.Load(k)
		c.(*Cell[any]).Reset(func(v any) {
			if teardown != nil {
				errs = multierr.Append(errs, teardown(k, v))
			}
		})
	}

	r.mu.Lock()
	r.order = nil
	r.mu.Unlock()
	r.entries.Clear()

	if errs != nil {
		Logger().Warn("cache: shutdown completed with errors", zap.Error(errs))
	}
	return errs
}
