// Package binding provides named, type-checked dispatch over bound classes.
//
// A Class pairs a declaration with a runtime and the loader that vends it.
// Members are addressed by name; the overload is chosen from the Go values
// supplied, or fixed by index when called from generated code:
//
//	widgets := binding.Bind(rt, Widget)
//	w, err := widgets.New(env, int32(3))
//	if err != nil {
//		return err
//	}
//	defer w.Close()
//	if _, err := w.Call("resize", float32(2), float32(4)); err != nil {
//		return err
//	}
//
// Class handles, method ids and field ids are resolved once per runtime and
// cached in its registry. Calls that raise a managed exception return a
// pending-exception error and leave the exception pending; Catch turns it
// into a Throwable.
package binding

import (
	"go.uber.org/zap"

	"github.com/wippyai/jni-bind/cache"
	"github.com/wippyai/jni-bind/decl"
	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/invoke"
	"github.com/wippyai/jni-bind/jtype"
	"github.com/wippyai/jni-bind/jvm"
	"github.com/wippyai/jni-bind/loader"
	"github.com/wippyai/jni-bind/ref"
	"github.com/wippyai/jni-bind/selector"
	"github.com/wippyai/jni-bind/sig"
)

// Class is a declared class bound to a runtime.
type Class struct {
	rt     *jvm.Runtime
	desc   *decl.Class
	loader *loader.Loader
}

// Bind binds cls to rt through the loader the runtime's topology assigns it.
func Bind(rt *jvm.Runtime, cls *decl.Class) *Class {
	return &Class{rt: rt, desc: cls, loader: rt.Loaders().LoaderFor(cls)}
}

// BindWithLoader binds cls through l. The class is loaded by whichever of l
// and its ancestors vends it.
func BindWithLoader(rt *jvm.Runtime, cls *decl.Class, l *loader.Loader) (*Class, error) {
	vendor, ok := l.Vendor(cls)
	if !ok {
		return nil, errors.New(errors.PhaseLoader, errors.KindNotFound).
			Path(cls.Name).Detail("no loader in %s vends the class", l.Path()).Build()
	}
	return &Class{rt: rt, desc: cls, loader: vendor}, nil
}

// Name returns the slash-delimited class name.
func (c *Class) Name() string { return c.desc.Name }

// Descriptor returns the bound declaration.
func (c *Class) Descriptor() *decl.Class { return c.desc }

// Loader returns the loader that vends the class.
func (c *Class) Loader() *loader.Loader { return c.loader }

// Runtime returns the runtime the class is bound to.
func (c *Class) Runtime() *jvm.Runtime { return c.rt }

// JavaType returns the object type of the class.
func (c *Class) JavaType() jtype.Type { return jtype.Object(c.desc.Name) }

func (c *Class) loaderKey() string {
	if c.loader.IsDefault() {
		return ""
	}
	return c.loader.Path()
}

func (c *Class) key(kind cache.KeyKind, member, signature string) cache.Key {
	return cache.Key{Loader: c.loaderKey(), Class: c.desc.Name, Member: member, Signature: signature, Kind: kind}
}

// Resolve returns the class handle, resolving and caching it as a durable
// reference on first use. The handle is borrowed and stays valid until the
// runtime shuts down.
func (c *Class) Resolve(env ffi.Env) (ffi.Ref, error) {
	v, err := c.rt.Registry().Resolve(cache.ClassKey(c.loaderKey(), c.desc.Name), func() (any, error) {
		raw, err := c.load(env)
		if err != nil {
			return nil, err
		}
		Logger().Debug("binding: class resolved",
			zap.String("class", c.desc.Name),
			zap.Stringer("loader", c.loader))
		return ref.NewLocal(env, raw, jtype.Object(jtype.ClassClass)).Promote()
	})
	if err != nil {
		return 0, err
	}
	return v.(*ref.Global).Handle(), nil
}

func (c *Class) load(env ffi.Env) (ffi.Ref, error) {
	if c.loader.IsDefault() {
		raw := env.FindClass(c.desc.Name)
		if raw == 0 {
			return 0, errors.PendingException(errors.PhaseResolve, []string{c.desc.Name}, nil)
		}
		return raw, nil
	}

	obj, ok := loaderObject(c.rt, c.loader)
	if !ok {
		return 0, errors.NotInitialized(errors.PhaseLoader, "loader object for "+c.loader.Path())
	}
	loaderClass := env.GetObjectClass(obj.Handle())
	defer env.DeleteLocalRef(loaderClass)
	mid := env.GetMethodID(loaderClass, "loadClass", loadClassSig)
	if mid == 0 {
		return 0, errors.PendingException(errors.PhaseResolve, []string{c.desc.Name, "loadClass"}, nil)
	}

	res, err := invoke.Method(env, invoke.Call{
		Class:    jtype.ClassLoaderClass,
		Name:     "loadClass",
		Target:   obj.Handle(),
		Method:   mid,
		Overload: loadClassOverload,
	}, []any{sig.ToBinaryName(c.desc.Name)})
	if err != nil {
		return 0, errors.PendingException(errors.PhaseResolve, []string{c.desc.Name}, err)
	}
	if res.IsNull() {
		return 0, errors.NotFound(errors.PhaseResolve, "class", c.desc.Name)
	}
	return res.Ref.Release(), nil
}

var (
	loadClassOverload = decl.Returns(jtype.Object(jtype.ClassClass), jtype.String)
	loadClassSig      = loadClassOverload.Signature(jtype.ClassLoaderClass)
)

// methodID resolves and caches the id of a selected method or constructor.
func (c *Class) methodID(env ffi.Env, s selector.Selection) (ffi.MethodID, error) {
	kind := cache.KeyMethod
	if s.Static {
		kind = cache.KeyStaticMethod
	}
	v, err := c.rt.Registry().Resolve(c.key(kind, s.Name, s.Signature), func() (any, error) {
		cls, err := c.Resolve(env)
		if err != nil {
			return nil, err
		}
		var mid ffi.MethodID
		if s.Static {
			mid = env.GetStaticMethodID(cls, s.Name, s.Signature)
		} else {
			mid = env.GetMethodID(cls, s.Name, s.Signature)
		}
		if mid == 0 {
			return nil, errors.PendingException(errors.PhaseResolve, []string{c.desc.Name, s.Name + s.Signature}, nil)
		}
		return mid, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(ffi.MethodID), nil
}

// fieldID resolves and caches the id of a field.
func (c *Class) fieldID(env ffi.Env, f decl.Field, static bool) (ffi.FieldID, error) {
	kind := cache.KeyField
	if static {
		kind = cache.KeyStaticField
	}
	signature := f.Signature(c.desc.Name)
	v, err := c.rt.Registry().Resolve(c.key(kind, f.Name, signature), func() (any, error) {
		cls, err := c.Resolve(env)
		if err != nil {
			return nil, err
		}
		var fid ffi.FieldID
		if static {
			fid = env.GetStaticFieldID(cls, f.Name, signature)
		} else {
			fid = env.GetFieldID(cls, f.Name, signature)
		}
		if fid == 0 {
			return nil, errors.PendingException(errors.PhaseResolve, []string{c.desc.Name, f.Name}, nil)
		}
		return fid, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(ffi.FieldID), nil
}

// New constructs an instance with the constructor args select.
func (c *Class) New(env ffi.Env, args ...any) (*Object, error) {
	s, err := selector.SelectConstructor(c.desc, args)
	if err != nil {
		return nil, err
	}
	return c.NewSelected(env, s, args...)
}

// NewOverload constructs an instance with constructor index.
func (c *Class) NewOverload(env ffi.Env, index int, args ...any) (*Object, error) {
	s, err := selector.ConstructorAt(c.desc, index)
	if err != nil {
		return nil, err
	}
	return c.NewSelected(env, s, args...)
}

// NewSelected constructs an instance with a constructor selection made
// ahead of time, as generated code does.
func (c *Class) NewSelected(env ffi.Env, s selector.Selection, args ...any) (*Object, error) {
	if s.Name != sig.ConstructorName {
		return nil, errors.InvalidInput(errors.PhaseSelect, "selection "+s.Name+" is not a constructor")
	}
	cls, err := c.Resolve(env)
	if err != nil {
		return nil, err
	}
	mid, err := c.methodID(env, s)
	if err != nil {
		return nil, err
	}
	l, err := invoke.Construct(env, invoke.Call{
		Class:    c.desc.Name,
		Name:     sig.ConstructorName,
		Target:   cls,
		Method:   mid,
		Overload: s.Overload,
	}, args)
	if err != nil {
		return nil, err
	}
	return c.Wrap(l), nil
}

// Method returns the instance method called name.
func (c *Class) Method(name string) *Method {
	return &Method{class: c, name: name}
}

// StaticMethod returns the static method called name.
func (c *Class) StaticMethod(name string) *Method {
	return &Method{class: c, name: name, static: true}
}

// CallStatic calls static method name with the overload args select.
func (c *Class) CallStatic(env ffi.Env, name string, args ...any) (Value, error) {
	return c.StaticMethod(name).Call(env, nil, args...)
}

// CallStaticOverload calls overload index of static method name.
func (c *Class) CallStaticOverload(env ffi.Env, name string, index int, args ...any) (Value, error) {
	return c.StaticMethod(name).CallOverload(env, nil, index, args...)
}

// CallStaticSelected calls a static method selection made ahead of time.
func (c *Class) CallStaticSelected(env ffi.Env, s selector.Selection, args ...any) (Value, error) {
	return c.StaticMethod(s.Name).CallSelected(env, nil, s, args...)
}

// GetStatic reads static field name.
func (c *Class) GetStatic(env ffi.Env, name string) (Value, error) {
	f, err := c.staticField(env, name)
	if err != nil {
		return Value{}, err
	}
	res, err := invoke.GetField(env, f)
	if err != nil {
		return Value{}, err
	}
	return c.value(res), nil
}

// SetStatic writes v to static field name.
func (c *Class) SetStatic(env ffi.Env, name string, v any) error {
	f, err := c.staticField(env, name)
	if err != nil {
		return err
	}
	return invoke.SetField(env, f, v)
}

func (c *Class) staticField(env ffi.Env, name string) (invoke.Field, error) {
	fd, ok := c.desc.StaticField(name)
	if !ok {
		return invoke.Field{}, errors.NotFound(errors.PhaseSelect, "static field", c.desc.Name+"."+name)
	}
	cls, err := c.Resolve(env)
	if err != nil {
		return invoke.Field{}, err
	}
	fid, err := c.fieldID(env, fd, true)
	if err != nil {
		return invoke.Field{}, err
	}
	return invoke.Field{
		Class:  c.desc.Name,
		Name:   name,
		Target: cls,
		ID:     fid,
		Type:   fd.Type.ResolveSelf(c.desc.Name),
		Static: true,
	}, nil
}

// Wrap takes ownership of l as an instance of the class. l is emptied.
func (c *Class) Wrap(l *ref.Local) *Object {
	o := &Object{class: c}
	if !l.IsEmpty() {
		o.local = l.Move().WithClass(c.desc)
	}
	return o
}

// IsInstance reports whether obj is an instance of the class. Null is an
// instance of every class.
func (c *Class) IsInstance(env ffi.Env, obj selector.Typed) (bool, error) {
	cls, err := c.Resolve(env)
	if err != nil {
		return false, err
	}
	h, ok := obj.(invoke.Handler)
	if !ok {
		return false, errors.Unsupported(errors.PhaseInvoke, "instance check on a value without a handle")
	}
	return env.IsInstanceOf(h.Handle(), cls), nil
}

// related returns a binding for class name as seen from c: c itself, one of
// its declared ancestors, or a bare binding.
func (c *Class) related(name string) *Class {
	if name == c.desc.Name {
		return c
	}
	for _, a := range c.desc.Ancestors() {
		if a.Name == name {
			return Bind(c.rt, a)
		}
	}
	return Bind(c.rt, decl.NewClass(name))
}

func (c *Class) value(res invoke.Result) Value {
	return Value{Result: res, class: c}
}

// Method is a named method of a bound class. The overload is chosen per
// call.
type Method struct {
	class  *Class
	name   string
	static bool
}

// Name returns the method name.
func (m *Method) Name() string { return m.name }

// Static reports whether the method is static.
func (m *Method) Static() bool { return m.static }

// Call invokes the method on target, which is ignored for static methods.
func (m *Method) Call(env ffi.Env, target *Object, args ...any) (Value, error) {
	s, err := selector.Select(m.class.desc, m.name, m.static, args)
	if err != nil {
		return Value{}, err
	}
	return m.CallSelected(env, target, s, args...)
}

// CallOverload invokes overload index of the method on target.
func (m *Method) CallOverload(env ffi.Env, target *Object, index int, args ...any) (Value, error) {
	s, err := selector.At(m.class.desc, m.name, m.static, index)
	if err != nil {
		return Value{}, err
	}
	return m.CallSelected(env, target, s, args...)
}

// CallSelected invokes an overload selection made ahead of time, as
// generated code does.
func (m *Method) CallSelected(env ffi.Env, target *Object, s selector.Selection, args ...any) (Value, error) {
	if s.Name != m.name || s.Static != m.static {
		return Value{}, errors.InvalidInput(errors.PhaseSelect, "selection "+s.Name+" does not belong to method "+m.name)
	}
	c := m.class
	mid, err := c.methodID(env, s)
	if err != nil {
		return Value{}, err
	}

	var recv ffi.Ref
	if m.static {
		if recv, err = c.Resolve(env); err != nil {
			return Value{}, err
		}
	} else {
		if target.IsNull() {
			return Value{}, errors.EmptyReference(errors.PhaseInvoke, c.desc.Name+"."+m.name)
		}
		recv = target.Handle()
	}

	res, err := invoke.Method(env, invoke.Call{
		Class:    c.desc.Name,
		Name:     m.name,
		Target:   recv,
		Method:   mid,
		Overload: s.Overload,
		Static:   m.static,
	}, args)
	if err != nil {
		return Value{}, err
	}
	return c.value(res), nil
}
