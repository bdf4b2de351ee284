// Package ref owns runtime object handles.
//
// A Local owns a transient handle that is only valid on the thread that
// produced it; a Global owns a durable handle usable from any attached thread.
// Each wrapper owns at most one handle and releases it exactly once:
//
//	obj := ref.NewLocal(env, raw, jtype.Object("com/example/Widget"))
//	defer obj.Close()
//
//	g, err := obj.Promote() // obj is now empty
//	defer g.Close()
//
// Move transfers ownership and empties the source. Release hands the raw
// handle to the caller, who becomes responsible for deleting it. NewRef is the
// only way to obtain a second owner: it asks the runtime for an independently
// counted handle to the same object.
//
// Globals come from Promote or AdoptGlobal and nowhere else. Wrappers are not
// safe for concurrent use.
package ref

import (
	"github.com/wippyai/jni-bind/decl"
	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/jtype"
	"github.com/wippyai/jni-bind/sig"
)

// Local owns a transient handle.
type Local struct {
	env   ffi.Env
	class *decl.Class
	typ   jtype.Type
	raw   ffi.Ref
}

// NewLocal takes ownership of a transient handle produced on env.
// A zero handle yields an empty wrapper.
func NewLocal(env ffi.Env, raw ffi.Ref, t jtype.Type) *Local {
	return &Local{env: env, raw: raw, typ: t}
}

// WithClass attaches the declaration the object is bound to and returns l.
func (l *Local) WithClass(c *decl.Class) *Local {
	l.class = c
	if c != nil && l.typ.Rank == 0 && l.typ.Kind != jtype.KindString {
		l.typ = jtype.Object(c.Name)
	}
	return l
}

// Handle borrows the raw handle. The wrapper keeps ownership.
func (l *Local) Handle() ffi.Ref {
	if l == nil {
		return 0
	}
	return l.raw
}

// IsEmpty reports whether l owns nothing.
func (l *Local) IsEmpty() bool { return l == nil || l.raw == 0 }

// JavaType returns the declared type of the referent. A nil wrapper
// reports the zero Type.
func (l *Local) JavaType() jtype.Type {
	if l == nil {
		return jtype.Type{}
	}
	return l.typ
}

// Descriptor returns the bound declaration, or nil.
func (l *Local) Descriptor() *decl.Class {
	if l == nil {
		return nil
	}
	return l.class
}

// Env returns the environment the handle belongs to.
func (l *Local) Env() ffi.Env { return l.env }

// Move returns a new wrapper owning l's handle and empties l.
func (l *Local) Move() *Local {
	if l == nil {
		return nil
	}
	m := *l
	l.raw = 0
	return &m
}

// Release empties l and returns its handle; the caller must delete it.
func (l *Local) Release() ffi.Ref {
	if l == nil {
		return 0
	}
	raw := l.raw
	l.raw = 0
	return raw
}

// Close deletes the handle. Closing an empty wrapper does nothing.
func (l *Local) Close() error {
	if l.IsEmpty() {
		return nil
	}
	l.env.DeleteLocalRef(l.raw)
	l.raw = 0
	return nil
}

// NewRef returns an independent owner of a new local handle to the same
// object.
func (l *Local) NewRef() (*Local, error) {
	if l.IsEmpty() {
		return nil, errors.EmptyReference(errors.PhaseLifetime, "new reference")
	}
	raw := l.env.NewLocalRef(l.raw)
	if raw == 0 {
		return nil, errors.New(errors.PhaseLifetime, errors.KindInvalidData).
			JavaType(l.String()).Detail("runtime returned a null local reference").Build()
	}
	return &Local{env: l.env, raw: raw, typ: l.typ, class: l.class}, nil
}

// Promote creates a durable handle, deletes the transient one and empties l.
func (l *Local) Promote() (*Global, error) {
	if l.IsEmpty() {
		return nil, errors.EmptyReference(errors.PhaseLifetime, "promote")
	}
	raw := l.env.NewGlobalRef(l.raw)
	if raw == 0 {
		return nil, errors.New(errors.PhaseLifetime, errors.KindInvalidData).
			JavaType(l.String()).Detail("runtime returned a null global reference").Build()
	}
	l.env.DeleteLocalRef(l.raw)
	l.raw = 0
	return &Global{env: l.env, raw: raw, typ: l.typ, class: l.class}, nil
}

// String renders the wire type of the referent.
func (l *Local) String() string {
	return sig.Encode(l.typ, "")
}

// Global owns a durable handle.
type Global struct {
	env   ffi.Env
	class *decl.Class
	typ   jtype.Type
	raw   ffi.Ref
}

// AdoptGlobal takes ownership of a handle that is already durable.
func AdoptGlobal(env ffi.Env, raw ffi.Ref, t jtype.Type) *Global {
	return &Global{env: env, raw: raw, typ: t}
}

// WithClass attaches the declaration the object is bound to and returns g.
func (g *Global) WithClass(c *decl.Class) *Global {
	g.class = c
	if c != nil && g.typ.Rank == 0 && g.typ.Kind != jtype.KindString {
		g.typ = jtype.Object(c.Name)
	}
	return g
}

// Handle borrows the raw handle. The wrapper keeps ownership.
func (g *Global) Handle() ffi.Ref {
	if g == nil {
		return 0
	}
	return g.raw
}

// IsEmpty reports whether g owns nothing.
func (g *Global) IsEmpty() bool { return g == nil || g.raw == 0 }

// JavaType returns the declared type of the referent. A nil wrapper
// reports the zero Type.
func (g *Global) JavaType() jtype.Type {
	if g == nil {
		return jtype.Type{}
	}
	return g.typ
}

// Descriptor returns the bound declaration, or nil.
func (g *Global) Descriptor() *decl.Class {
	if g == nil {
		return nil
	}
	return g.class
}

// Move returns a new wrapper owning g's handle and empties g.
func (g *Global) Move() *Global {
	if g == nil {
		return nil
	}
	m := *g
	g.raw = 0
	return &m
}

// Release empties g and returns its handle; the caller must delete it.
func (g *Global) Release() ffi.Ref {
	if g == nil {
		return 0
	}
	raw := g.raw
	g.raw = 0
	return raw
}

// Close deletes the handle through the environment that created or adopted
// it. Use CloseIn when that thread has since detached.
func (g *Global) Close() error {
	if g.IsEmpty() {
		return nil
	}
	return g.CloseIn(g.env)
}

// CloseIn deletes the handle through env, which may belong to any attached
// thread.
func (g *Global) CloseIn(env ffi.Env) error {
	if g.IsEmpty() {
		return nil
	}
	if env == nil {
		return errors.NotAttached("closing a global reference needs an attached environment")
	}
	env.DeleteGlobalRef(g.raw)
	g.raw = 0
	return nil
}

// NewLocal returns a transient owner of the same object on env.
func (g *Global) NewLocal(env ffi.Env) (*Local, error) {
	if g.IsEmpty() {
		return nil, errors.EmptyReference(errors.PhaseLifetime, "new local reference")
	}
	raw := env.NewLocalRef(g.raw)
	if raw == 0 {
		return nil, errors.New(errors.PhaseLifetime, errors.KindInvalidData).
			JavaType(g.String()).Detail("runtime returned a null local reference").Build()
	}
	return &Local{env: env, raw: raw, typ: g.typ, class: g.class}, nil
}

// NewRef returns an independent durable owner of the same object.
func (g *Global) NewRef(env ffi.Env) (*Global, error) {
	if g.IsEmpty() {
		return nil, errors.EmptyReference(errors.PhaseLifetime, "new reference")
	}
	raw := env.NewGlobalRef(g.raw)
	if raw == 0 {
		return nil, errors.New(errors.PhaseLifetime, errors.KindInvalidData).
			JavaType(g.String()).Detail("runtime returned a null global reference").Build()
	}
	return &Global{env: env, raw: raw, typ: g.typ, class: g.class}, nil
}

func (g *Global) String() string {
	return sig.Encode(g.typ, "")
}
