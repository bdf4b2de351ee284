package binding

import (
	"github.com/wippyai/jni-bind/decl"
	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/invoke"
	"github.com/wippyai/jni-bind/jtype"
	"github.com/wippyai/jni-bind/ref"
	"github.com/wippyai/jni-bind/selector"
)

// Object is a transient instance of a bound class. It owns one local
// reference; Close releases it.
type Object struct {
	class *Class
	local *ref.Local
}

// Class returns the binding of the object's declared class.
func (o *Object) Class() *Class { return o.class }

// Local returns the owning reference wrapper.
func (o *Object) Local() *ref.Local { return o.local }

// Handle borrows the object handle; zero for null.
func (o *Object) Handle() ffi.Ref {
	if o == nil {
		return 0
	}
	return o.local.Handle()
}

// IsNull reports whether the object is null or released.
func (o *Object) IsNull() bool { return o == nil || o.local.IsEmpty() }

// JavaType returns the declared type; zero for a nil Object.
func (o *Object) JavaType() jtype.Type {
	if o == nil {
		return jtype.Type{}
	}
	return o.class.JavaType()
}

// Descriptor returns the declaration of the object's class.
func (o *Object) Descriptor() *decl.Class {
	if o == nil {
		return nil
	}
	return o.class.desc
}

// Env returns the environment the reference belongs to.
func (o *Object) Env() ffi.Env { return o.local.Env() }

// Close deletes the reference. Calling it again does nothing.
func (o *Object) Close() error {
	if o == nil {
		return nil
	}
	return o.local.Close()
}

// Move transfers ownership to a new Object; o becomes null.
func (o *Object) Move() *Object {
	return &Object{class: o.class, local: o.local.Move()}
}

// Release gives up ownership and returns the raw handle.
func (o *Object) Release() ffi.Ref { return o.local.Release() }

// NewRef returns an independently owned reference to the same object.
func (o *Object) NewRef() (*Object, error) {
	l, err := o.local.NewRef()
	if err != nil {
		return nil, err
	}
	return &Object{class: o.class, local: l}, nil
}

// Promote converts the object to a durable reference. o becomes null.
func (o *Object) Promote() (*GlobalObject, error) {
	g, err := o.local.Promote()
	if err != nil {
		return nil, err
	}
	return &GlobalObject{class: o.class, global: g}, nil
}

// Call invokes instance method name with the overload args select.
func (o *Object) Call(name string, args ...any) (Value, error) {
	env, err := o.env(name)
	if err != nil {
		return Value{}, err
	}
	return o.class.Method(name).Call(env, o, args...)
}

// CallOverload invokes overload index of instance method name.
func (o *Object) CallOverload(name string, index int, args ...any) (Value, error) {
	env, err := o.env(name)
	if err != nil {
		return Value{}, err
	}
	return o.class.Method(name).CallOverload(env, o, index, args...)
}

// CallSelected invokes an instance method selection made ahead of time.
func (o *Object) CallSelected(s selector.Selection, args ...any) (Value, error) {
	env, err := o.env(s.Name)
	if err != nil {
		return Value{}, err
	}
	return o.class.Method(s.Name).CallSelected(env, o, s, args...)
}

func (o *Object) env(member string) (ffi.Env, error) {
	if o == nil {
		return nil, errors.EmptyReference(errors.PhaseInvoke, member)
	}
	if o.IsNull() {
		return nil, errors.EmptyReference(errors.PhaseInvoke, o.class.desc.Name+"."+member)
	}
	return o.local.Env(), nil
}

// Get reads instance field name.
func (o *Object) Get(name string) (Value, error) {
	f, err := o.field(name)
	if err != nil {
		return Value{}, err
	}
	res, err := invoke.GetField(o.local.Env(), f)
	if err != nil {
		return Value{}, err
	}
	return o.class.value(res), nil
}

// Set writes v to instance field name.
func (o *Object) Set(name string, v any) error {
	f, err := o.field(name)
	if err != nil {
		return err
	}
	return invoke.SetField(o.local.Env(), f, v)
}

func (o *Object) field(name string) (invoke.Field, error) {
	if o == nil {
		return invoke.Field{}, errors.EmptyReference(errors.PhaseInvoke, name)
	}
	c := o.class
	fd, owner, ok := c.desc.Field(name)
	if !ok {
		return invoke.Field{}, errors.NotFound(errors.PhaseSelect, "field", c.desc.Name+"."+name)
	}
	if o.IsNull() {
		return invoke.Field{}, errors.EmptyReference(errors.PhaseInvoke, c.desc.Name+"."+name)
	}
	env := o.local.Env()
	// Self resolves against the declaring class, and so does the lookup
	// signature.
	fd.Type = fd.Type.ResolveSelf(owner.Name)
	fid, err := c.fieldID(env, fd, false)
	if err != nil {
		return invoke.Field{}, err
	}
	return invoke.Field{
		Class:  c.desc.Name,
		Name:   name,
		Target: o.local.Handle(),
		ID:     fid,
		Type:   fd.Type,
	}, nil
}

// IsSameObject reports whether o and other refer to the same object.
func (o *Object) IsSameObject(other invoke.Handler) bool {
	return o.local.Env().IsSameObject(o.Handle(), other.Handle())
}

// GlobalObject is a durable instance of a bound class, safe to keep across
// calls and threads.
type GlobalObject struct {
	class  *Class
	global *ref.Global
}

// Class returns the binding of the object's declared class.
func (g *GlobalObject) Class() *Class { return g.class }

// Global returns the owning reference wrapper.
func (g *GlobalObject) Global() *ref.Global { return g.global }

// Handle borrows the object handle.
func (g *GlobalObject) Handle() ffi.Ref {
	if g == nil {
		return 0
	}
	return g.global.Handle()
}

// JavaType returns the declared type; zero for a nil GlobalObject.
func (g *GlobalObject) JavaType() jtype.Type {
	if g == nil {
		return jtype.Type{}
	}
	return g.class.JavaType()
}

// Descriptor returns the declaration of the object's class.
func (g *GlobalObject) Descriptor() *decl.Class {
	if g == nil {
		return nil
	}
	return g.class.desc
}

// Local returns a transient reference to the object for use on env.
func (g *GlobalObject) Local(env ffi.Env) (*Object, error) {
	l, err := g.global.NewLocal(env)
	if err != nil {
		return nil, err
	}
	return &Object{class: g.class, local: l.WithClass(g.class.desc)}, nil
}

// Close deletes the durable reference through the environment that created
// it.
func (g *GlobalObject) Close() error { return g.global.Close() }

// CloseIn deletes the durable reference through env.
func (g *GlobalObject) CloseIn(env ffi.Env) error { return g.global.CloseIn(env) }
