package fakevm

import (
	"fmt"
	"reflect"
	"strconv"
	"unsafe"

	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/jtype"
)

var elemTypes = [...]reflect.Type{
	jtype.KindBoolean: reflect.TypeFor[bool](),
	jtype.KindByte:    reflect.TypeFor[int8](),
	jtype.KindChar:    reflect.TypeFor[uint16](),
	jtype.KindShort:   reflect.TypeFor[int16](),
	jtype.KindInt:     reflect.TypeFor[int32](),
	jtype.KindLong:    reflect.TypeFor[int64](),
	jtype.KindFloat:   reflect.TypeFor[float32](),
	jtype.KindDouble:  reflect.TypeFor[float64](),
}

func (env *Env) array(arr ffi.Ref) *object {
	o := env.resolve(arr)
	if o == nil || !o.class.isArray {
		panic(fmt.Sprintf("fakevm: reference %#x is not an array", uintptr(arr)))
	}
	return o
}

func (env *Env) NewPrimitiveArray(op ffi.ArrayOp, length int32) ffi.Ref {
	if length < 0 {
		env.ThrowClass("java/lang/NegativeArraySizeException", strconv.Itoa(int(length)))
		return 0
	}
	t := jtype.Type{Kind: op.Elem(), Rank: 1}
	obj := env.vm.newObject(env.vm.arrayClass(t))
	obj.array = reflect.MakeSlice(reflect.SliceOf(elemTypes[op.Elem()]), int(length), int(length)).Interface()
	return env.local(obj)
}

func (env *Env) NewObjectArray(length int32, elemClass, init ffi.Ref) ffi.Ref {
	if length < 0 {
		env.ThrowClass("java/lang/NegativeArraySizeException", strconv.Itoa(int(length)))
		return 0
	}
	t := env.classOf(elemClass).asType().Array(1)

	fill := env.resolve(init)
	items := make([]*object, length)
	for i := range items {
		items[i] = fill
	}
	obj := env.vm.newObject(env.vm.arrayClass(t))
	obj.array = items
	return env.local(obj)
}

func (env *Env) GetArrayLength(arr ffi.Ref) int32 {
	o := env.array(arr)
	env.vm.objMu.Lock()
	defer env.vm.objMu.Unlock()
	return int32(reflect.ValueOf(o.array).Len())
}

func (env *Env) GetObjectArrayElement(arr ffi.Ref, index int32) ffi.Ref {
	o := env.array(arr)
	items, ok := o.array.([]*object)
	if !ok {
		panic("fakevm: GetObjectArrayElement on " + o.class.name)
	}
	env.vm.objMu.Lock()
	if index < 0 || int(index) >= len(items) {
		env.vm.objMu.Unlock()
		env.throwIndex(index, len(items))
		return 0
	}
	item := items[index]
	env.vm.objMu.Unlock()
	return env.local(item)
}

func (env *Env) SetObjectArrayElement(arr ffi.Ref, index int32, v ffi.Ref) {
	o := env.array(arr)
	items, ok := o.array.([]*object)
	if !ok {
		panic("fakevm: SetObjectArrayElement on " + o.class.name)
	}
	item := env.resolve(v)
	if item != nil && !item.class.isSubclassOf(env.vm.classFor(o.class.elem)) {
		env.ThrowClass("java/lang/ArrayStoreException", item.class.name)
		return
	}
	env.vm.objMu.Lock()
	defer env.vm.objMu.Unlock()
	if index < 0 || int(index) >= len(items) {
		env.throwIndex(index, len(items))
		return
	}
	items[index] = item
}

func (env *Env) throwIndex(index int32, length int) {
	env.ThrowClass("java/lang/ArrayIndexOutOfBoundsException",
		fmt.Sprintf("Index %d out of bounds for length %d", index, length))
}

func (env *Env) GetArrayElements(op ffi.ArrayOp, arr ffi.Ref) (unsafe.Pointer, bool) {
	o := env.array(arr)
	if o.class.elem.Rank != 0 || o.class.elem.Kind != op.Elem() {
		panic(fmt.Sprintf("fakevm: Get%sElements on %s", op, o.class.name))
	}

	env.vm.objMu.Lock()
	src := reflect.ValueOf(o.array)
	n := src.Len()
	buf := reflect.MakeSlice(src.Type(), n, max(n, 1))
	reflect.Copy(buf, src)
	env.vm.objMu.Unlock()

	ptr := buf.Slice(0, 1).UnsafePointer()
	env.pins[uintptr(ptr)] = &pin{obj: o, buf: buf}
	env.vm.stats.pins.Add(1)
	return ptr, true
}

func (env *Env) ReleaseArrayElements(op ffi.ArrayOp, arr ffi.Ref, ptr unsafe.Pointer, mode ffi.ReleaseMode) {
	p, ok := env.pins[uintptr(ptr)]
	if !ok {
		panic(fmt.Sprintf("fakevm: Release%sElements with unknown pointer", op))
	}
	if p.obj != env.array(arr) {
		panic(fmt.Sprintf("fakevm: Release%sElements with a pointer from another array", op))
	}
	delete(env.pins, uintptr(ptr))
	env.vm.stats.unpins.Add(1)

	if mode == ffi.ReleaseAbort {
		return
	}
	env.vm.objMu.Lock()
	reflect.Copy(reflect.ValueOf(p.obj.array), p.buf)
	env.vm.objMu.Unlock()
	env.vm.stats.copyBacks.Add(1)
}

// ArrayContents returns a copy of an array's elements: a typed slice for
// primitive arrays, or a slice of new local references for object arrays.
func (env *Env) ArrayContents(arr ffi.Ref) any {
	o := env.array(arr)
	env.vm.objMu.Lock()
	defer env.vm.objMu.Unlock()
	if items, ok := o.array.([]*object); ok {
		refs := make([]ffi.Ref, len(items))
		for i, item := range items {
			refs[i] = env.local(item)
		}
		return refs
	}
	src := reflect.ValueOf(o.array)
	dst := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
	reflect.Copy(dst, src)
	return dst.Interface()
}

// asType returns the type whose values are instances of c.
func (c *class) asType() jtype.Type {
	if c.isArray {
		return c.elem.Array(1)
	}
	if c.name == jtype.StringClass {
		return jtype.String
	}
	return jtype.Object(c.name)
}

// classFor returns the class of reference type t.
func (vm *VM) classFor(t jtype.Type) *class {
	if t.IsArray() {
		return vm.arrayClass(t)
	}
	c, _ := vm.lookupClass(t.ClassName())
	return c
}
