package binding

import (
	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/invoke"
)

// Value is the result of a bound call or field read. Scalar accessors come
// from the embedded Result; reference results are owned by the Value until
// taken with Object, Array or Text.
type Value struct {
	invoke.Result
	class *Class
}

// Object takes the reference result as an Object. Self-typed results and
// results of a declared ancestor bind to that declaration; other classes get
// a binding with no declared members. Null and array results yield nil.
func (v Value) Object() *Object {
	if v.Ref.IsEmpty() {
		return nil
	}
	if v.Type.Rank > 0 {
		return nil
	}
	return v.class.related(v.Type.ClassName()).Wrap(v.Ref)
}

// ObjectAs takes the reference result as an instance of c.
func (v Value) ObjectAs(c *Class) (*Object, error) {
	if !v.Type.IsReference() || v.Type.Rank != 0 {
		return nil, errors.TypeMismatch(errors.PhaseInvoke, nil, c.Name(), v.Type.String())
	}
	if v.Ref.IsEmpty() {
		return nil, nil
	}
	return c.Wrap(v.Ref), nil
}
