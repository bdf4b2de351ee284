//go:build linux || darwin

package jni

import (
	"unsafe"

	"github.com/wippyai/jni-bind/ffi"
)

// Env is a JNIEnv bound to the calling OS thread.
type Env struct {
	ptr uintptr
	t   *table
}

var _ ffi.Env = (*Env)(nil)

// Pointer returns the raw JNIEnv pointer.
func (e *Env) Pointer() uintptr { return e.ptr }

func (e *Env) FindClass(name string) ffi.Ref {
	b := cString(name)
	return ffi.Ref(e.t.findClass(e.ptr, &b[0]))
}

func (e *Env) GetSuperclass(cls ffi.Ref) ffi.Ref {
	return ffi.Ref(e.t.getSuperclass(e.ptr, uintptr(cls)))
}

func (e *Env) GetObjectClass(obj ffi.Ref) ffi.Ref {
	return ffi.Ref(e.t.getObjectClass(e.ptr, uintptr(obj)))
}

func (e *Env) IsInstanceOf(obj, cls ffi.Ref) bool {
	return e.t.isInstanceOf(e.ptr, uintptr(obj), uintptr(cls)) != 0
}

func (e *Env) IsSameObject(a, b ffi.Ref) bool {
	return e.t.isSameObject(e.ptr, uintptr(a), uintptr(b)) != 0
}

func (e *Env) GetMethodID(cls ffi.Ref, name, sig string) ffi.MethodID {
	n, s := cString(name), cString(sig)
	return ffi.MethodID(e.t.getMethodID(e.ptr, uintptr(cls), &n[0], &s[0]))
}

func (e *Env) GetStaticMethodID(cls ffi.Ref, name, sig string) ffi.MethodID {
	n, s := cString(name), cString(sig)
	return ffi.MethodID(e.t.getStaticMethodID(e.ptr, uintptr(cls), &n[0], &s[0]))
}

func (e *Env) GetFieldID(cls ffi.Ref, name, sig string) ffi.FieldID {
	n, s := cString(name), cString(sig)
	return ffi.FieldID(e.t.getFieldID(e.ptr, uintptr(cls), &n[0], &s[0]))
}

func (e *Env) GetStaticFieldID(cls ffi.Ref, name, sig string) ffi.FieldID {
	n, s := cString(name), cString(sig)
	return ffi.FieldID(e.t.getStaticFieldID(e.ptr, uintptr(cls), &n[0], &s[0]))
}

func (e *Env) NewLocalRef(obj ffi.Ref) ffi.Ref {
	return ffi.Ref(e.t.newLocalRef(e.ptr, uintptr(obj)))
}

func (e *Env) DeleteLocalRef(obj ffi.Ref) {
	if obj != 0 {
		e.t.deleteLocalRef(e.ptr, uintptr(obj))
	}
}

func (e *Env) NewGlobalRef(obj ffi.Ref) ffi.Ref {
	return ffi.Ref(e.t.newGlobalRef(e.ptr, uintptr(obj)))
}

func (e *Env) DeleteGlobalRef(obj ffi.Ref) {
	if obj != 0 {
		e.t.deleteGlobalRef(e.ptr, uintptr(obj))
	}
}

func (e *Env) GetObjectRefType(obj ffi.Ref) ffi.RefKind {
	return ffi.RefKind(e.t.getObjectRefType(e.ptr, uintptr(obj)))
}

func (e *Env) NewObject(cls ffi.Ref, ctor ffi.MethodID, args []ffi.Value) ffi.Ref {
	return ffi.Ref(e.t.newObjectA(e.ptr, uintptr(cls), uintptr(ctor), argv(args)))
}

func (e *Env) Call(op ffi.CallOp, target ffi.Ref, mid ffi.MethodID, args []ffi.Value) ffi.Value {
	return e.t.calls[op](e.ptr, uintptr(target), uintptr(mid), argv(args))
}

func (e *Env) GetField(op ffi.FieldOp, target ffi.Ref, fid ffi.FieldID) ffi.Value {
	return e.t.gets[op](e.ptr, uintptr(target), uintptr(fid))
}

func (e *Env) SetField(op ffi.FieldOp, target ffi.Ref, fid ffi.FieldID, v ffi.Value) {
	e.t.sets[op](e.ptr, uintptr(target), uintptr(fid), v)
}

func (e *Env) NewPrimitiveArray(op ffi.ArrayOp, length int32) ffi.Ref {
	return ffi.Ref(e.t.newArray[op](e.ptr, length))
}

func (e *Env) NewObjectArray(length int32, elemClass, init ffi.Ref) ffi.Ref {
	return ffi.Ref(e.t.newObjectArray(e.ptr, length, uintptr(elemClass), uintptr(init)))
}

func (e *Env) GetArrayLength(arr ffi.Ref) int32 {
	return e.t.getArrayLength(e.ptr, uintptr(arr))
}

func (e *Env) GetObjectArrayElement(arr ffi.Ref, index int32) ffi.Ref {
	return ffi.Ref(e.t.getObjectArrayElement(e.ptr, uintptr(arr), index))
}

func (e *Env) SetObjectArrayElement(arr ffi.Ref, index int32, v ffi.Ref) {
	e.t.setObjectArrayElement(e.ptr, uintptr(arr), index, uintptr(v))
}

func (e *Env) GetArrayElements(op ffi.ArrayOp, arr ffi.Ref) (unsafe.Pointer, bool) {
	var isCopy uint8
	p := e.t.arrayElems[op](e.ptr, uintptr(arr), &isCopy)
	return p, isCopy != 0
}

func (e *Env) ReleaseArrayElements(op ffi.ArrayOp, arr ffi.Ref, ptr unsafe.Pointer, mode ffi.ReleaseMode) {
	e.t.releaseElems[op](e.ptr, uintptr(arr), ptr, int32(mode))
}

func (e *Env) NewStringUTF(s string) ffi.Ref {
	b := cString(s)
	return ffi.Ref(e.t.newStringUTF(e.ptr, &b[0]))
}

// GetStringUTF copies the string's characters out of the runtime.
func (e *Env) GetStringUTF(str ffi.Ref) string {
	if str == 0 {
		return ""
	}
	n := e.t.getStringUTFLength(e.ptr, uintptr(str))
	p := e.t.getStringUTFChars(e.ptr, uintptr(str), nil)
	if p == nil {
		return ""
	}
	defer e.t.releaseStringUTFChars(e.ptr, uintptr(str), p)
	return goString(unsafe.Slice((*byte)(p), int(n)))
}

func (e *Env) Throw(obj ffi.Ref) int32 {
	return e.t.throw(e.ptr, uintptr(obj))
}

func (e *Env) ThrowNew(cls ffi.Ref, msg string) int32 {
	b := cString(msg)
	return e.t.throwNew(e.ptr, uintptr(cls), &b[0])
}

func (e *Env) ExceptionOccurred() ffi.Ref {
	return ffi.Ref(e.t.exceptionOccurred(e.ptr))
}

func (e *Env) ExceptionCheck() bool {
	return e.t.exceptionCheck(e.ptr) != 0
}

func (e *Env) ExceptionClear() {
	e.t.exceptionClear(e.ptr)
}

// argv returns the jvalue array for args; nil when there are none.
func argv(args []ffi.Value) *ffi.Value {
	if len(args) == 0 {
		return nil
	}
	return &args[0]
}
