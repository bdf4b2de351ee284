// Package ffi is the fixed foreign-function contract this module consumes
// from the managed runtime.
//
// The contract mirrors the runtime's C interface: operations never return Go
// errors. Failures set the runtime's pending-exception state, which callers
// inspect with ExceptionCheck and ExceptionOccurred. Lookups that fail also
// return a zero handle.
//
// Two implementations ship with the module: ffi/fakevm, an in-memory runtime
// used by tests and examples, and ffi/jni, which loads a real JVM.
package ffi

import "unsafe"

// Ref is an opaque object handle: an instance, class, string or array.
// The zero Ref is null.
type Ref uintptr

// MethodID identifies a resolved method or constructor.
type MethodID uintptr

// FieldID identifies a resolved field.
type FieldID uintptr

// ReleaseMode controls what happens to a pinned array view on release.
type ReleaseMode int32

const (
	// ReleaseCommit copies the view back into the array and frees it.
	ReleaseCommit ReleaseMode = 0
	// ReleaseAbort frees the view without copying back.
	ReleaseAbort ReleaseMode = 2
)

// RefKind reports which table a handle belongs to.
type RefKind int32

const (
	RefInvalid RefKind = iota
	RefLocal
	RefGlobal
	RefWeakGlobal
)

// Env is the per-thread interface to the runtime.
type Env interface {
	FindClass(name string) Ref
	GetSuperclass(cls Ref) Ref
	GetObjectClass(obj Ref) Ref
	IsInstanceOf(obj, cls Ref) bool
	IsSameObject(a, b Ref) bool

	GetMethodID(cls Ref, name, sig string) MethodID
	GetStaticMethodID(cls Ref, name, sig string) MethodID
	GetFieldID(cls Ref, name, sig string) FieldID
	GetStaticFieldID(cls Ref, name, sig string) FieldID

	NewLocalRef(obj Ref) Ref
	DeleteLocalRef(obj Ref)
	NewGlobalRef(obj Ref) Ref
	DeleteGlobalRef(obj Ref)
	GetObjectRefType(obj Ref) RefKind

	NewObject(cls Ref, ctor MethodID, args []Value) Ref
	// Call invokes mid with the primitive op. target is the instance for
	// instance ops and the class for static ops.
	Call(op CallOp, target Ref, mid MethodID, args []Value) Value
	GetField(op FieldOp, target Ref, fid FieldID) Value
	SetField(op FieldOp, target Ref, fid FieldID, v Value)

	NewPrimitiveArray(op ArrayOp, length int32) Ref
	NewObjectArray(length int32, elemClass, init Ref) Ref
	GetArrayLength(arr Ref) int32
	GetObjectArrayElement(arr Ref, index int32) Ref
	SetObjectArrayElement(arr Ref, index int32, v Ref)
	// GetArrayElements pins a primitive array and returns a pointer to at
	// least GetArrayLength elements.
	GetArrayElements(op ArrayOp, arr Ref) (ptr unsafe.Pointer, isCopy bool)
	ReleaseArrayElements(op ArrayOp, arr Ref, ptr unsafe.Pointer, mode ReleaseMode)

	NewStringUTF(s string) Ref
	GetStringUTF(str Ref) string

	Throw(obj Ref) int32
	ThrowNew(cls Ref, msg string) int32
	ExceptionOccurred() Ref
	ExceptionCheck() bool
	ExceptionClear()
}

// VM is the process-level runtime handle.
type VM interface {
	// AttachCurrentThread attaches the calling OS thread. Callers lock the
	// goroutine to its thread for the lifetime of the attachment.
	AttachCurrentThread() (Env, error)
	// DetachCurrentThread detaches the calling thread. env is the value
	// AttachCurrentThread returned on this thread; runtimes that track
	// threads themselves may ignore it.
	DetachCurrentThread(env Env) error
	Destroy() error
}
