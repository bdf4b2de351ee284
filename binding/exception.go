package binding

import (
	"strings"

	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/jtype"
	"github.com/wippyai/jni-bind/ref"
	"github.com/wippyai/jni-bind/sig"
)

// Throwable is a managed exception captured at a Catch boundary. It holds a
// durable reference to the exception object.
type Throwable struct {
	ref *ref.Global
	// Class is the slash-delimited class name of the exception.
	Class string
	// Message is the exception message, empty when it has none.
	Message string
	// Cause is the error the failed operation returned, if any.
	Cause error
}

func (t *Throwable) Error() string {
	name := sig.ToBinaryName(t.Class)
	if t.Message == "" {
		return name
	}
	return name + ": " + t.Message
}

func (t *Throwable) Unwrap() error { return t.Cause }

// Is matches another Throwable by class name, or any Throwable when the
// target's Class is empty.
func (t *Throwable) Is(target error) bool {
	o, ok := target.(*Throwable)
	if !ok {
		return false
	}
	return o.Class == "" || o.Class == t.Class
}

// Handle borrows the exception object handle.
func (t *Throwable) Handle() ffi.Ref { return t.ref.Handle() }

// JavaType returns the exception's type.
func (t *Throwable) JavaType() jtype.Type { return jtype.Object(t.Class) }

// Rethrow makes the exception pending again on env.
func (t *Throwable) Rethrow(env ffi.Env) error {
	if t.ref.IsEmpty() {
		return errors.EmptyReference(errors.PhaseInvoke, "rethrow")
	}
	if env.Throw(t.ref.Handle()) != 0 {
		return errors.New(errors.PhaseInvoke, errors.KindInvalidInput).
			JavaType(t.Class).Detail("runtime refused to throw").Build()
	}
	return nil
}

// Close releases the durable reference through env.
func (t *Throwable) Close(env ffi.Env) error { return t.ref.CloseIn(env) }

// Catch runs fn and, if it leaves a managed exception pending, clears the
// exception and returns it as a *Throwable wrapping fn's error. Without a
// pending exception fn's error is returned unchanged.
func Catch(env ffi.Env, fn func() error) error {
	err := fn()
	if !env.ExceptionCheck() {
		return err
	}
	raw := env.ExceptionOccurred()
	env.ExceptionClear()

	t := &Throwable{Cause: err}
	t.Class, t.Message = describe(env, raw)
	g, perr := ref.NewLocal(env, raw, jtype.Object(t.Class)).Promote()
	if perr != nil {
		return errors.New(errors.PhaseInvoke, errors.KindPendingException).
			Cause(err).Detail("exception could not be retained").Build()
	}
	t.ref = g
	Logger().Debug("binding: exception caught")
	return t
}

// describe reads the class name and message of an exception object. Failures
// while describing are cleared and leave the fields empty.
func describe(env ffi.Env, exc ffi.Ref) (class, message string) {
	cls := env.GetObjectClass(exc)
	defer env.DeleteLocalRef(cls)

	if name, ok := callString(env, cls, jtype.ClassClass, "getName"); ok {
		class = strings.ReplaceAll(name, ".", "/")
	}
	if msg, ok := callString(env, exc, jtype.ThrowableClass, "getMessage"); ok {
		message = msg
	}
	if class == "" {
		class = jtype.ThrowableClass
	}
	return class, message
}

const stringGetter = "()Ljava/lang/String;"

func callString(env ffi.Env, target ffi.Ref, owner, name string) (string, bool) {
	ownerCls := env.FindClass(owner)
	if ownerCls == 0 {
		env.ExceptionClear()
		return "", false
	}
	defer env.DeleteLocalRef(ownerCls)

	mid := env.GetMethodID(ownerCls, name, stringGetter)
	if mid == 0 {
		env.ExceptionClear()
		return "", false
	}
	v := env.Call(ffi.CallObjectMethod, target, mid, nil)
	if env.ExceptionCheck() {
		env.ExceptionClear()
		return "", false
	}
	s := v.Ref()
	if s == 0 {
		return "", true
	}
	defer env.DeleteLocalRef(s)
	return env.GetStringUTF(s), true
}

// ThrowNew raises a new exception of class with msg on env.
func ThrowNew(env ffi.Env, class, msg string) error {
	cls := env.FindClass(class)
	if cls == 0 {
		return errors.PendingException(errors.PhaseResolve, []string{class}, nil)
	}
	defer env.DeleteLocalRef(cls)
	if env.ThrowNew(cls, msg) != 0 {
		return errors.New(errors.PhaseInvoke, errors.KindInvalidInput).
			JavaType(class).Detail("not a throwable class").Build()
	}
	return nil
}
