// Package array projects runtime arrays into Go.
//
// Object arrays, and arrays of arrays, are accessed element by element: Get
// returns a new local reference owned by the caller and Set consumes the
// reference it is given. Primitive arrays are accessed in bulk by pinning a
// view of their elements:
//
//	a, _ := array.FromSlice(env, []int32{1, 2, 3})
//	p, _ := array.Pin[int32](a, true)
//	p.Elems()[0] = 10
//	p.Release() // copies back
//
// Index bounds are checked by the runtime, which raises its own exception.
package array

import (
	"unsafe"

	"github.com/wippyai/jni-bind/decl"
	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/jtype"
	"github.com/wippyai/jni-bind/ref"
)

// Array owns a runtime array.
type Array struct {
	local  *ref.Local
	typ    jtype.Type
	length int
	cached bool
}

// New allocates an array of type t (rank one or more) with size elements.
// elemClass is the element class handle and is required unless t is a
// rank-1 primitive array.
func New(env ffi.Env, t jtype.Type, size int, elemClass ffi.Ref) (*Array, error) {
	if t.Rank < 1 {
		return nil, errors.TypeMismatch(errors.PhaseArray, nil, "array", t.String())
	}
	if size < 0 || size > 1<<31-1 {
		return nil, errors.OutOfBounds(errors.PhaseArray, []string{t.String()}, size, 1<<31-1)
	}

	var raw ffi.Ref
	if op, ok := primitiveOp(t); ok {
		raw = env.NewPrimitiveArray(op, int32(size))
	} else {
		if elemClass == 0 {
			return nil, errors.New(errors.PhaseArray, errors.KindInvalidInput).
				JavaType(t.String()).Detail("object arrays need an element class").Build()
		}
		raw = env.NewObjectArray(int32(size), elemClass, 0)
	}
	if raw == 0 {
		return nil, pending(t, "new")
	}
	return &Array{local: ref.NewLocal(env, raw, t), typ: t}, nil
}

// Wrap takes ownership of an array reference. l is emptied.
func Wrap(l *ref.Local) (*Array, error) {
	if l.IsEmpty() {
		return nil, errors.EmptyReference(errors.PhaseArray, "wrap")
	}
	t := l.JavaType()
	if t.Rank < 1 {
		return nil, errors.TypeMismatch(errors.PhaseArray, nil, "array", t.String())
	}
	return &Array{local: l.Move(), typ: t}, nil
}

// Type returns the array type.
func (a *Array) Type() jtype.Type { return a.typ }

// Elem returns the element type.
func (a *Array) Elem() jtype.Type { return a.typ.Elem() }

// Storage reports the array storage: a specific primitive array for rank one
// primitives, the generic object array otherwise.
func (a *Array) Storage() jtype.Storage { return a.typ.Storage() }

// JavaType returns the array type, so arrays can be passed as arguments. A
// nil array reports the zero Type and passes as null.
func (a *Array) JavaType() jtype.Type {
	if a == nil {
		return jtype.Type{}
	}
	return a.typ
}

// Descriptor returns the element declaration, if the array was wrapped from
// a bound reference.
func (a *Array) Descriptor() *decl.Class {
	if a == nil {
		return nil
	}
	return a.local.Descriptor()
}

// Handle borrows the array handle.
func (a *Array) Handle() ffi.Ref {
	if a == nil {
		return 0
	}
	return a.local.Handle()
}

// Local returns the owning wrapper.
func (a *Array) Local() *ref.Local { return a.local }

// Close deletes the array reference.
func (a *Array) Close() error {
	if a == nil {
		return nil
	}
	return a.local.Close()
}

// Len returns the element count. Primitive array lengths are cached.
func (a *Array) Len() int {
	if a.cached {
		return a.length
	}
	n := int(a.local.Env().GetArrayLength(a.local.Handle()))
	if _, ok := primitiveOp(a.typ); ok {
		a.length, a.cached = n, true
	}
	return n
}

// Get returns element i as a new local reference owned by the caller.
func (a *Array) Get(i int) (*ref.Local, error) {
	if err := a.objectElems("get"); err != nil {
		return nil, err
	}
	env := a.local.Env()
	raw := env.GetObjectArrayElement(a.local.Handle(), int32(i))
	if env.ExceptionCheck() {
		return nil, pending(a.typ, "get")
	}
	return ref.NewLocal(env, raw, a.typ.Elem()), nil
}

// GetArray returns element i of an array of arrays.
func (a *Array) GetArray(i int) (*Array, error) {
	if a.typ.Rank < 2 {
		return nil, errors.TypeMismatch(errors.PhaseArray, nil, "array of arrays", a.typ.String())
	}
	l, err := a.Get(i)
	if err != nil {
		return nil, err
	}
	if l.IsEmpty() {
		return nil, errors.EmptyReference(errors.PhaseArray, "get array element")
	}
	return Wrap(l)
}

// Set stores v at index i and consumes v, which may be nil for null.
func (a *Array) Set(i int, v *ref.Local) error {
	defer v.Close()
	if err := a.objectElems("set"); err != nil {
		return err
	}
	env := a.local.Env()
	env.SetObjectArrayElement(a.local.Handle(), int32(i), v.Handle())
	if env.ExceptionCheck() {
		return pending(a.typ, "set")
	}
	return nil
}

func (a *Array) objectElems(op string) error {
	if _, ok := primitiveOp(a.typ); ok {
		return errors.New(errors.PhaseArray, errors.KindUnsupported).
			JavaType(a.typ.String()).Detail("%s: primitive arrays are accessed by pinning", op).Build()
	}
	return nil
}

// Pinned is a view of a primitive array's elements.
type Pinned[T jtype.Element] struct {
	arr      *Array
	ptr      unsafe.Pointer
	elems    []T
	copyBack bool
}

// Pin pins a rank-1 primitive array whose element kind matches T. When
// copyBack is set, Release writes changes to the view back to the array.
func Pin[T jtype.Element](a *Array, copyBack bool) (*Pinned[T], error) {
	op, ok := primitiveOp(a.typ)
	if !ok {
		return nil, errors.New(errors.PhaseArray, errors.KindUnsupported).
			JavaType(a.typ.String()).Detail("only rank-1 primitive arrays can be pinned").Build()
	}
	if k := jtype.KindOf[T](); k != op.Elem() {
		return nil, errors.TypeMismatch(errors.PhaseArray, nil, k.String(), a.typ.String())
	}

	env := a.local.Env()
	n := a.Len()
	ptr, _ := env.GetArrayElements(op, a.local.Handle())
	if ptr == nil {
		return nil, pending(a.typ, "pin")
	}
	return &Pinned[T]{arr: a, ptr: ptr, elems: unsafe.Slice((*T)(ptr), n), copyBack: copyBack}, nil
}

// Elems returns the pinned elements. The slice is invalid after Release.
func (p *Pinned[T]) Elems() []T { return p.elems }

// Release unpins the array. Calling it again does nothing.
func (p *Pinned[T]) Release() error {
	if p.ptr == nil {
		return nil
	}
	mode := ffi.ReleaseAbort
	if p.copyBack {
		mode = ffi.ReleaseCommit
	}
	op, _ := primitiveOp(p.arr.typ)
	p.arr.local.Env().ReleaseArrayElements(op, p.arr.local.Handle(), p.ptr, mode)
	p.ptr = nil
	p.elems = nil
	return nil
}

// ToSlice copies a primitive array into a new Go slice.
func ToSlice[T jtype.Element](a *Array) ([]T, error) {
	p, err := Pin[T](a, false)
	if err != nil {
		return nil, err
	}
	out := append([]T(nil), p.Elems()...)
	return out, p.Release()
}

// FromSlice allocates a primitive array holding a copy of s.
func FromSlice[T jtype.Element](env ffi.Env, s []T) (*Array, error) {
	a, err := New(env, jtype.Type{Kind: jtype.KindOf[T](), Rank: 1}, len(s), 0)
	if err != nil {
		return nil, err
	}
	if len(s) == 0 {
		return a, nil
	}
	p, err := Pin[T](a, true)
	if err != nil {
		a.Close()
		return nil, err
	}
	copy(p.Elems(), s)
	return a, p.Release()
}

// FromStrings allocates a java/lang/String array holding s.
func FromStrings(env ffi.Env, s []string) (*Array, error) {
	cls := env.FindClass(jtype.StringClass)
	if cls == 0 {
		return nil, pending(jtype.String.Array(1), "new")
	}
	defer env.DeleteLocalRef(cls)

	a, err := New(env, jtype.String.Array(1), len(s), cls)
	if err != nil {
		return nil, err
	}
	for i, v := range s {
		if err := a.Set(i, ref.NewLocal(env, env.NewStringUTF(v), jtype.String)); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// Strings copies a string array into a Go slice. Null elements become "".
func (a *Array) Strings() ([]string, error) {
	if a.typ.Rank != 1 || a.typ.ClassName() != jtype.StringClass {
		return nil, errors.TypeMismatch(errors.PhaseArray, nil, "[]string", a.typ.String())
	}
	env := a.local.Env()
	out := make([]string, a.Len())
	for i := range out {
		l, err := a.Get(i)
		if err != nil {
			return nil, err
		}
		out[i] = env.GetStringUTF(l.Handle())
		l.Close()
	}
	return out, nil
}

func primitiveOp(t jtype.Type) (ffi.ArrayOp, bool) {
	if t.Rank != 1 {
		return 0, false
	}
	return ffi.ArrayOpFor(t.Kind)
}

func pending(t jtype.Type, op string) error {
	return errors.PendingException(errors.PhaseArray, []string{t.String(), op}, nil)
}
