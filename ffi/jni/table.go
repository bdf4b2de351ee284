//go:build linux || darwin

package jni

import (
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/jtype"
)

type (
	callFn func(env, target, mid uintptr, args *ffi.Value) ffi.Value
	getFn  func(env, target, fid uintptr) ffi.Value
	setFn  func(env, target, fid uintptr, v ffi.Value)
)

// table is the JNI function table bound to Go funcs. Every environment of
// a VM shares one table, so it is built once per VM. Only the non-variadic
// forms are bound: calls and constructors go through the jvalue-array
// ("A") entry points.
type table struct {
	findClass             func(env uintptr, name *byte) uintptr
	getSuperclass         func(env, cls uintptr) uintptr
	throw                 func(env, obj uintptr) int32
	throwNew              func(env, cls uintptr, msg *byte) int32
	exceptionOccurred     func(env uintptr) uintptr
	exceptionClear        func(env uintptr)
	exceptionCheck        func(env uintptr) uint8
	newGlobalRef          func(env, obj uintptr) uintptr
	deleteGlobalRef       func(env, obj uintptr)
	deleteLocalRef        func(env, obj uintptr)
	newLocalRef           func(env, obj uintptr) uintptr
	isSameObject          func(env, a, b uintptr) uint8
	getObjectRefType      func(env, obj uintptr) int32
	newObjectA            func(env, cls, mid uintptr, args *ffi.Value) uintptr
	getObjectClass        func(env, obj uintptr) uintptr
	isInstanceOf          func(env, obj, cls uintptr) uint8
	getMethodID           func(env, cls uintptr, name, sig *byte) uintptr
	getStaticMethodID     func(env, cls uintptr, name, sig *byte) uintptr
	getFieldID            func(env, cls uintptr, name, sig *byte) uintptr
	getStaticFieldID      func(env, cls uintptr, name, sig *byte) uintptr
	newStringUTF          func(env uintptr, s *byte) uintptr
	getStringUTFLength    func(env, str uintptr) int32
	getStringUTFChars     func(env, str uintptr, isCopy *uint8) unsafe.Pointer
	releaseStringUTFChars func(env, str uintptr, chars unsafe.Pointer)
	getArrayLength        func(env, arr uintptr) int32
	newObjectArray        func(env uintptr, n int32, cls, init uintptr) uintptr
	getObjectArrayElement func(env, arr uintptr, i int32) uintptr
	setObjectArrayElement func(env, arr uintptr, i int32, v uintptr)

	calls [ffi.CallStaticObjectMethod + 1]callFn
	gets  map[ffi.FieldOp]getFn
	sets  map[ffi.FieldOp]setFn

	newArray     [ffi.DoubleArray + 1]func(env uintptr, n int32) uintptr
	arrayElems   [ffi.DoubleArray + 1]func(env, arr uintptr, isCopy *uint8) unsafe.Pointer
	releaseElems [ffi.DoubleArray + 1]func(env, arr uintptr, elems unsafe.Pointer, mode int32)
}

// fieldKinds are the kinds with their own field primitives.
var fieldKinds = []jtype.Kind{
	jtype.KindBoolean, jtype.KindByte, jtype.KindChar, jtype.KindShort,
	jtype.KindInt, jtype.KindLong, jtype.KindFloat, jtype.KindDouble,
	jtype.KindObject,
}

// functions reads the function table behind a JNIEnv pointer.
func functions(env uintptr) *[tableSize]uintptr {
	return *(**[tableSize]uintptr)(unsafe.Pointer(env))
}

func newTable(env uintptr) *table {
	fns := functions(env)
	t := &table{
		gets: make(map[ffi.FieldOp]getFn),
		sets: make(map[ffi.FieldOp]setFn),
	}

	purego.RegisterFunc(&t.findClass, fns[slotFindClass])
	purego.RegisterFunc(&t.getSuperclass, fns[slotGetSuperclass])
	purego.RegisterFunc(&t.throw, fns[slotThrow])
	purego.RegisterFunc(&t.throwNew, fns[slotThrowNew])
	purego.RegisterFunc(&t.exceptionOccurred, fns[slotExceptionOccurred])
	purego.RegisterFunc(&t.exceptionClear, fns[slotExceptionClear])
	purego.RegisterFunc(&t.exceptionCheck, fns[slotExceptionCheck])
	purego.RegisterFunc(&t.newGlobalRef, fns[slotNewGlobalRef])
	purego.RegisterFunc(&t.deleteGlobalRef, fns[slotDeleteGlobalRef])
	purego.RegisterFunc(&t.deleteLocalRef, fns[slotDeleteLocalRef])
	purego.RegisterFunc(&t.newLocalRef, fns[slotNewLocalRef])
	purego.RegisterFunc(&t.isSameObject, fns[slotIsSameObject])
	purego.RegisterFunc(&t.getObjectRefType, fns[slotGetObjectRefType])
	purego.RegisterFunc(&t.newObjectA, fns[slotNewObjectA])
	purego.RegisterFunc(&t.getObjectClass, fns[slotGetObjectClass])
	purego.RegisterFunc(&t.isInstanceOf, fns[slotIsInstanceOf])
	purego.RegisterFunc(&t.getMethodID, fns[slotGetMethodID])
	purego.RegisterFunc(&t.getStaticMethodID, fns[slotGetStaticMethodID])
	purego.RegisterFunc(&t.getFieldID, fns[slotGetFieldID])
	purego.RegisterFunc(&t.getStaticFieldID, fns[slotGetStaticFieldID])
	purego.RegisterFunc(&t.newStringUTF, fns[slotNewStringUTF])
	purego.RegisterFunc(&t.getStringUTFLength, fns[slotGetStringUTFLength])
	purego.RegisterFunc(&t.getStringUTFChars, fns[slotGetStringUTFChars])
	purego.RegisterFunc(&t.releaseStringUTFChars, fns[slotReleaseStringUTFChars])
	purego.RegisterFunc(&t.getArrayLength, fns[slotGetArrayLength])
	purego.RegisterFunc(&t.newObjectArray, fns[slotNewObjectArray])
	purego.RegisterFunc(&t.getObjectArrayElement, fns[slotGetObjectArrayElement])
	purego.RegisterFunc(&t.setObjectArrayElement, fns[slotSetObjectArrayElement])

	for op := ffi.CallVoidMethod; op <= ffi.CallStaticObjectMethod; op++ {
		t.calls[op] = bindCall(op.Result(), fns[op.Slot()])
	}
	for _, k := range fieldKinds {
		for _, static := range []bool{false, true} {
			get := ffi.FieldOpFor(k, static, false)
			set := ffi.FieldOpFor(k, static, true)
			t.gets[get] = bindGet(k, fns[get.Slot()])
			t.sets[set] = bindSet(k, fns[set.Slot()])
		}
	}
	for op := ffi.BooleanArray; op <= ffi.DoubleArray; op++ {
		purego.RegisterFunc(&t.newArray[op], fns[op.NewSlot()])
		purego.RegisterFunc(&t.arrayElems[op], fns[op.ElementsSlot()])
		purego.RegisterFunc(&t.releaseElems[op], fns[op.ReleaseSlot()])
	}
	return t
}

func bindCall(k jtype.Kind, addr uintptr) callFn {
	switch k {
	case jtype.KindVoid:
		var fn func(env, target, mid uintptr, args *ffi.Value)
		purego.RegisterFunc(&fn, addr)
		return func(env, target, mid uintptr, args *ffi.Value) ffi.Value {
			fn(env, target, mid, args)
			return 0
		}
	case jtype.KindBoolean:
		return typedCall(addr, func(v uint8) ffi.Value { return ffi.BoolValue(v != 0) })
	case jtype.KindByte:
		return typedCall(addr, ffi.ByteValue)
	case jtype.KindChar:
		return typedCall(addr, ffi.CharValue)
	case jtype.KindShort:
		return typedCall(addr, ffi.ShortValue)
	case jtype.KindInt:
		return typedCall(addr, ffi.IntValue)
	case jtype.KindLong:
		return typedCall(addr, ffi.LongValue)
	case jtype.KindFloat:
		return typedCall(addr, ffi.FloatValue)
	case jtype.KindDouble:
		return typedCall(addr, ffi.DoubleValue)
	}
	return typedCall(addr, func(r uintptr) ffi.Value { return ffi.RefValue(ffi.Ref(r)) })
}

func typedCall[R any](addr uintptr, conv func(R) ffi.Value) callFn {
	var fn func(env, target, mid uintptr, args *ffi.Value) R
	purego.RegisterFunc(&fn, addr)
	return func(env, target, mid uintptr, args *ffi.Value) ffi.Value {
		return conv(fn(env, target, mid, args))
	}
}

func bindGet(k jtype.Kind, addr uintptr) getFn {
	switch k {
	case jtype.KindBoolean:
		return typedGet(addr, func(v uint8) ffi.Value { return ffi.BoolValue(v != 0) })
	case jtype.KindByte:
		return typedGet(addr, ffi.ByteValue)
	case jtype.KindChar:
		return typedGet(addr, ffi.CharValue)
	case jtype.KindShort:
		return typedGet(addr, ffi.ShortValue)
	case jtype.KindInt:
		return typedGet(addr, ffi.IntValue)
	case jtype.KindLong:
		return typedGet(addr, ffi.LongValue)
	case jtype.KindFloat:
		return typedGet(addr, ffi.FloatValue)
	case jtype.KindDouble:
		return typedGet(addr, ffi.DoubleValue)
	}
	return typedGet(addr, func(r uintptr) ffi.Value { return ffi.RefValue(ffi.Ref(r)) })
}

func typedGet[R any](addr uintptr, conv func(R) ffi.Value) getFn {
	var fn func(env, target, fid uintptr) R
	purego.RegisterFunc(&fn, addr)
	return func(env, target, fid uintptr) ffi.Value {
		return conv(fn(env, target, fid))
	}
}

func bindSet(k jtype.Kind, addr uintptr) setFn {
	switch k {
	case jtype.KindBoolean:
		return typedSet(addr, func(v ffi.Value) uint8 {
			if v.Bool() {
				return 1
			}
			return 0
		})
	case jtype.KindByte:
		return typedSet(addr, ffi.Value.Byte)
	case jtype.KindChar:
		return typedSet(addr, ffi.Value.Char)
	case jtype.KindShort:
		return typedSet(addr, ffi.Value.Short)
	case jtype.KindInt:
		return typedSet(addr, ffi.Value.Int)
	case jtype.KindLong:
		return typedSet(addr, ffi.Value.Long)
	case jtype.KindFloat:
		return typedSet(addr, ffi.Value.Float)
	case jtype.KindDouble:
		return typedSet(addr, ffi.Value.Double)
	}
	return typedSet(addr, func(v ffi.Value) uintptr { return uintptr(v.Ref()) })
}

func typedSet[T any](addr uintptr, conv func(ffi.Value) T) setFn {
	var fn func(env, target, fid uintptr, v T)
	purego.RegisterFunc(&fn, addr)
	return func(env, target, fid uintptr, v ffi.Value) {
		fn(env, target, fid, conv(v))
	}
}
