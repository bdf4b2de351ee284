package fakevm

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/internal/reftable"
	"github.com/wippyai/jni-bind/jtype"
	"github.com/wippyai/jni-bind/sig"
)

// Env is a per-thread environment. Local references are scoped to it and
// every method body runs in a frame whose locals are released on return.
type Env struct {
	vm      *VM
	locals  *reftable.Table
	pending *object
	pins    map[uintptr]*pin
	frames  [][]reftable.Handle
}

type pin struct {
	obj *object
	buf reflect.Value
}

// VM returns the runtime that owns env.
func (env *Env) VM() *VM { return env.vm }

// LocalCount returns the number of live local references.
func (env *Env) LocalCount() int { return env.locals.Len() }

// PinCount returns the number of unreleased array views.
func (env *Env) PinCount() int { return len(env.pins) }

func (env *Env) resolve(r ffi.Ref) *object {
	if r == 0 {
		return nil
	}
	h := reftable.Handle(r)
	var (
		v  any
		ok bool
	)
	if h.Tag() == reftable.TagGlobal {
		v, ok = env.vm.globals.Get(h)
	} else {
		v, ok = env.locals.Get(h)
	}
	if !ok {
		panic(fmt.Sprintf("fakevm: use of invalid reference %#x", uintptr(r)))
	}
	return v.(*object)
}

func (env *Env) local(o *object) ffi.Ref {
	if o == nil {
		return 0
	}
	h := env.locals.Insert(o)
	if n := len(env.frames); n > 0 {
		env.frames[n-1] = append(env.frames[n-1], h)
	}
	return ffi.Ref(h)
}

// invoke runs a member body in a fresh frame and re-issues a reference
// result as a local of the caller's frame.
func (env *Env) invoke(impl Method, this ffi.Ref, args []ffi.Value, refResult bool) ffi.Value {
	if impl == nil {
		return 0
	}
	env.frames = append(env.frames, nil)
	result := impl(env, this, args)

	var out *object
	if refResult && result != 0 {
		out = env.resolve(result.Ref())
	}
	frame := env.frames[len(env.frames)-1]
	env.frames = env.frames[:len(env.frames)-1]
	for _, h := range frame {
		env.locals.Remove(h)
	}
	if refResult {
		return ffi.RefValue(env.local(out))
	}
	return result
}

func (env *Env) classOf(r ffi.Ref) *class {
	o := env.resolve(r)
	if o == nil || o.meta == nil {
		panic(fmt.Sprintf("fakevm: reference %#x is not a class", uintptr(r)))
	}
	return o.meta
}

func (env *Env) FindClass(name string) ffi.Ref {
	env.vm.stats.classLookups.Add(1)
	c, ok := env.vm.lookupClass(name)
	if !ok || c.loader != "" {
		env.ThrowClass("java/lang/NoClassDefFoundError", name)
		return 0
	}
	return env.local(c.object)
}

func (env *Env) GetSuperclass(cls ffi.Ref) ffi.Ref {
	c := env.classOf(cls)
	if c.super == nil {
		return 0
	}
	return env.local(c.super.object)
}

func (env *Env) GetObjectClass(obj ffi.Ref) ffi.Ref {
	o := env.resolve(obj)
	if o == nil {
		panic("fakevm: GetObjectClass on null")
	}
	return env.local(o.class.object)
}

func (env *Env) IsInstanceOf(obj, cls ffi.Ref) bool {
	o := env.resolve(obj)
	if o == nil {
		return true
	}
	return o.class.isSubclassOf(env.classOf(cls))
}

func (env *Env) IsSameObject(a, b ffi.Ref) bool {
	return env.resolve(a) == env.resolve(b)
}

func (env *Env) GetMethodID(cls ffi.Ref, name, s string) ffi.MethodID {
	env.vm.stats.memberLookups.Add(1)
	c := env.classOf(cls)
	if name == sig.ConstructorName {
		if m, ok := c.ctors[s]; ok {
			return env.vm.methodID(m)
		}
	} else {
		for k := c; k != nil; k = k.super {
			if m, ok := k.methods[name+s]; ok {
				return env.vm.methodID(m)
			}
		}
	}
	env.ThrowClass("java/lang/NoSuchMethodError", c.name+"."+name+s)
	return 0
}

func (env *Env) GetStaticMethodID(cls ffi.Ref, name, s string) ffi.MethodID {
	env.vm.stats.memberLookups.Add(1)
	c := env.classOf(cls)
	for k := c; k != nil; k = k.super {
		if m, ok := k.statics[name+s]; ok {
			return env.vm.methodID(m)
		}
	}
	env.ThrowClass("java/lang/NoSuchMethodError", c.name+"."+name+s)
	return 0
}

func (env *Env) GetFieldID(cls ffi.Ref, name, s string) ffi.FieldID {
	env.vm.stats.memberLookups.Add(1)
	c := env.classOf(cls)
	for k := c; k != nil; k = k.super {
		if m, ok := k.fields[name+":"+s]; ok {
			return ffi.FieldID(env.vm.methodID(m))
		}
	}
	env.ThrowClass("java/lang/NoSuchFieldError", c.name+"."+name)
	return 0
}

func (env *Env) GetStaticFieldID(cls ffi.Ref, name, s string) ffi.FieldID {
	env.vm.stats.memberLookups.Add(1)
	c := env.classOf(cls)
	for k := c; k != nil; k = k.super {
		if m, ok := k.sfields[name+":"+s]; ok {
			return ffi.FieldID(env.vm.methodID(m))
		}
	}
	env.ThrowClass("java/lang/NoSuchFieldError", c.name+"."+name)
	return 0
}

func (env *Env) NewLocalRef(obj ffi.Ref) ffi.Ref {
	return env.local(env.resolve(obj))
}

func (env *Env) DeleteLocalRef(obj ffi.Ref) {
	if obj == 0 {
		return
	}
	if _, ok := env.locals.Remove(reftable.Handle(obj)); !ok {
		env.vm.stats.invalidDeletes.Add(1)
	}
}

func (env *Env) NewGlobalRef(obj ffi.Ref) ffi.Ref {
	o := env.resolve(obj)
	if o == nil {
		return 0
	}
	return ffi.Ref(env.vm.globals.Insert(o))
}

func (env *Env) DeleteGlobalRef(obj ffi.Ref) {
	if obj == 0 {
		return
	}
	if _, ok := env.vm.globals.Remove(reftable.Handle(obj)); !ok {
		env.vm.stats.invalidDeletes.Add(1)
	}
}

func (env *Env) GetObjectRefType(obj ffi.Ref) ffi.RefKind {
	h := reftable.Handle(obj)
	if _, ok := env.locals.Get(h); ok {
		return ffi.RefLocal
	}
	if _, ok := env.vm.globals.Get(h); ok {
		return ffi.RefGlobal
	}
	return ffi.RefInvalid
}

func (env *Env) NewObject(cls ffi.Ref, ctor ffi.MethodID, args []ffi.Value) ffi.Ref {
	c := env.classOf(cls)
	m := env.vm.member(uintptr(ctor))
	if m == nil || m.name != sig.ConstructorName || m.class != c {
		panic(fmt.Sprintf("fakevm: NewObject on %s with a foreign method id", c.name))
	}
	obj := env.vm.newObject(c)
	this := env.local(obj)
	env.vm.record(ffi.CallVoidMethod, m)
	env.invoke(m.impl, this, args, false)
	if env.pending != nil {
		env.DeleteLocalRef(this)
		return 0
	}
	return this
}

func (env *Env) Call(op ffi.CallOp, target ffi.Ref, mid ffi.MethodID, args []ffi.Value) ffi.Value {
	m := env.vm.member(uintptr(mid))
	if m == nil || m.field || m.name == sig.ConstructorName {
		panic(fmt.Sprintf("fakevm: %s with invalid method id %d", op, mid))
	}
	if want := ffi.CallOpFor(valueKind(m.ret), m.static); op != want {
		panic(fmt.Sprintf("fakevm: %s used for %s.%s%s, want %s", op, m.class.name, m.name, m.sig, want))
	}

	impl := m.impl
	if !m.static {
		this := env.resolve(target)
		if this == nil {
			env.ThrowClass("java/lang/NullPointerException", m.name)
			return 0
		}
		impl = this.class.dispatch(m)
	}
	env.vm.record(op, m)
	return env.invoke(impl, target, args, op.Result() == jtype.KindObject)
}

func (c *class) dispatch(m *member) Method {
	for k := c; k != nil; k = k.super {
		if o, ok := k.methods[m.name+m.sig]; ok {
			return o.impl
		}
	}
	return m.impl
}

func (env *Env) field(op ffi.FieldOp, fid ffi.FieldID) *member {
	m := env.vm.member(uintptr(fid))
	if m == nil || !m.field {
		panic(fmt.Sprintf("fakevm: %s with invalid field id %d", op, fid))
	}
	if want := ffi.FieldOpFor(valueKind(m.typ), m.static, op.Set()); op != want {
		panic(fmt.Sprintf("fakevm: %s used for %s.%s, want %s", op, m.class.name, m.name, want))
	}
	return m
}

func (env *Env) GetField(op ffi.FieldOp, target ffi.Ref, fid ffi.FieldID) ffi.Value {
	m := env.field(op, fid)
	env.vm.objMu.Lock()
	var v any
	if m.static {
		v = m.class.svalues[m]
	} else {
		obj := env.resolve(target)
		if obj == nil {
			env.vm.objMu.Unlock()
			env.ThrowClass("java/lang/NullPointerException", m.name)
			return 0
		}
		v = obj.fields[m]
	}
	env.vm.objMu.Unlock()

	if o, ok := v.(*object); ok {
		return ffi.RefValue(env.local(o))
	}
	return v.(ffi.Value)
}

func (env *Env) SetField(op ffi.FieldOp, target ffi.Ref, fid ffi.FieldID, v ffi.Value) {
	m := env.field(op, fid)
	var stored any = v
	if valueKind(m.typ) == jtype.KindObject {
		stored = env.resolve(v.Ref())
	}

	env.vm.objMu.Lock()
	defer env.vm.objMu.Unlock()
	if m.static {
		m.class.svalues[m] = stored
		return
	}
	obj := env.resolve(target)
	if obj == nil {
		env.ThrowClass("java/lang/NullPointerException", m.name)
		return
	}
	obj.fields[m] = stored
}

func (env *Env) NewStringUTF(s string) ffi.Ref {
	return env.local(env.vm.newString(s))
}

func (env *Env) GetStringUTF(str ffi.Ref) string {
	o := env.resolve(str)
	if o == nil {
		return ""
	}
	return o.str
}

func (env *Env) Throw(obj ffi.Ref) int32 {
	o := env.resolve(obj)
	if o == nil || !o.class.isSubclassOf(env.vm.builtin("java/lang/Throwable")) {
		return -1
	}
	env.pending = o
	return 0
}

func (env *Env) ThrowNew(cls ffi.Ref, msg string) int32 {
	c := env.classOf(cls)
	if !c.isSubclassOf(env.vm.builtin("java/lang/Throwable")) {
		return -1
	}
	env.pending = env.vm.newThrowable(c, msg)
	return 0
}

func (env *Env) ExceptionOccurred() ffi.Ref {
	return env.local(env.pending)
}

func (env *Env) ExceptionCheck() bool {
	return env.pending != nil
}

func (env *Env) ExceptionClear() {
	env.pending = nil
}

// ThrowClass raises a new exception of the named class.
func (env *Env) ThrowClass(name, msg string) {
	c, ok := env.vm.lookupClass(name)
	if !ok {
		panic("fakevm: unknown exception class " + name)
	}
	env.pending = env.vm.newThrowable(c, msg)
}

// PendingClass returns the class name of the pending exception, or "".
func (env *Env) PendingClass() string {
	if env.pending == nil {
		return ""
	}
	return env.pending.class.name
}

// Str returns the contents of a string reference.
func (env *Env) Str(r ffi.Ref) string { return env.GetStringUTF(r) }

// ClassName returns the class name of a non-null object.
func (env *Env) ClassName(obj ffi.Ref) string {
	return env.resolve(obj).class.name
}

// Data returns the host value attached to obj with SetData.
func (env *Env) Data(obj ffi.Ref) any {
	env.vm.objMu.Lock()
	defer env.vm.objMu.Unlock()
	return env.resolve(obj).data
}

// SetData attaches a host value to obj.
func (env *Env) SetData(obj ffi.Ref, v any) {
	o := env.resolve(obj)
	env.vm.objMu.Lock()
	o.data = v
	env.vm.objMu.Unlock()
}

// FieldValue reads an instance field by name. Reference fields are returned
// as new local references.
func (env *Env) FieldValue(obj ffi.Ref, name string) ffi.Value {
	o := env.resolve(obj)
	m := o.class.fieldNamed(name)
	env.vm.objMu.Lock()
	v := o.fields[m]
	env.vm.objMu.Unlock()
	if r, ok := v.(*object); ok {
		return ffi.RefValue(env.local(r))
	}
	return v.(ffi.Value)
}

// SetFieldValue writes an instance field by name.
func (env *Env) SetFieldValue(obj ffi.Ref, name string, v ffi.Value) {
	o := env.resolve(obj)
	m := o.class.fieldNamed(name)
	var stored any = v
	if valueKind(m.typ) == jtype.KindObject {
		stored = env.resolve(v.Ref())
	}
	env.vm.objMu.Lock()
	o.fields[m] = stored
	env.vm.objMu.Unlock()
}

func (c *class) fieldNamed(name string) *member {
	for k := c; k != nil; k = k.super {
		for _, m := range k.fields {
			if m.name == name {
				return m
			}
		}
	}
	panic(fmt.Sprintf("fakevm: %s has no field %s", c.name, name))
}

// NewClassLoader returns a class loader object that can load classes
// defined with ClassDef.Loader set to name, as well as every visible class.
func (env *Env) NewClassLoader(name string) ffi.Ref {
	obj := env.vm.newObject(env.vm.builtin("java/lang/ClassLoader"))
	obj.data = name
	return env.local(obj)
}

func valueKind(t jtype.Type) jtype.Kind {
	if t.Rank > 0 || t.Kind.IsReference() {
		return jtype.KindObject
	}
	return t.Kind
}

func binaryToInternal(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

var _ ffi.Env = (*Env)(nil)
