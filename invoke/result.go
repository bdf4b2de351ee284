package invoke

import (
	"github.com/wippyai/jni-bind/array"
	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/jtype"
	"github.com/wippyai/jni-bind/ref"
)

// Result is the value a call or field read produced. Reference results are
// owned by Ref; close it, or hand it on, when done.
type Result struct {
	Ref     *ref.Local
	Type    jtype.Type
	Value   ffi.Value
	Storage jtype.Storage
}

func newResult(env ffi.Env, t jtype.Type, v ffi.Value) Result {
	r := Result{Type: t, Storage: t.Storage(), Value: v}
	if t.IsReference() {
		r.Ref = ref.NewLocal(env, v.Ref(), t)
		r.Value = 0
	}
	return r
}

func (r Result) Bool() bool { return r.Value.Bool() }
func (r Result) Byte() int8 { return r.Value.Byte() }
func (r Result) Char() uint16 { return r.Value.Char() }
func (r Result) Short() int16 { return r.Value.Short() }
func (r Result) Int() int32 { return r.Value.Int() }
func (r Result) Long() int64 { return r.Value.Long() }
func (r Result) Float() float32 { return r.Value.Float() }
func (r Result) Double() float64 { return r.Value.Double() }
func (r Result) Object() *ref.Local { return r.Ref }

// IsNull reports whether a reference result is null.
func (r Result) IsNull() bool { return r.Ref.IsEmpty() }

// Text reads a string result and releases its reference.
func (r Result) Text() (string, error) {
	if r.Type.Rank != 0 || r.Type.ClassName() != jtype.StringClass {
		return "", errors.TypeMismatch(errors.PhaseInvoke, nil, "string", r.Type.String())
	}
	if r.Ref.IsEmpty() {
		return "", nil
	}
	defer r.Ref.Close()
	return r.Ref.Env().GetStringUTF(r.Ref.Handle()), nil
}

// Array wraps an array result, taking ownership of its reference.
func (r Result) Array() (*array.Array, error) {
	if r.Ref == nil {
		return nil, errors.TypeMismatch(errors.PhaseInvoke, nil, "array", r.Type.String())
	}
	return array.Wrap(r.Ref)
}

// Close releases a reference result. Scalar results need no release.
func (r Result) Close() error {
	return r.Ref.Close()
}
