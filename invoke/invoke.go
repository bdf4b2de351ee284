// Package invoke dispatches resolved members through the runtime's call
// primitives.
//
// The primitive is a total function of the return type and whether the call
// is static: void, one of the eight scalar primitives, or the object
// primitive for every reference and every array. Rank-1 primitive array
// results keep their specific array storage while deeper arrays are generic
// object arrays, mirroring the runtime's erasure of nested arrays.
//
// Arguments are lowered to jvalues immediately before the call. Go strings
// and slices become temporary local references that are deleted right after
// the call returns.
package invoke

import (
	"fmt"
	"math"

	"github.com/wippyai/jni-bind/array"
	"github.com/wippyai/jni-bind/decl"
	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/jtype"
	"github.com/wippyai/jni-bind/ref"
	"github.com/wippyai/jni-bind/selector"
)

// CallOpFor returns the call primitive for a member returning ret.
func CallOpFor(ret jtype.Type, static bool) ffi.CallOp {
	if ret.Rank > 0 {
		return ffi.CallOpFor(jtype.KindObject, static)
	}
	return ffi.CallOpFor(ret.Kind, static)
}

// ResultStorage returns how a result of type ret is represented.
func ResultStorage(ret jtype.Type) jtype.Storage {
	return ret.Storage()
}

// FieldOpsFor returns the get and set primitives for a field of type t.
func FieldOpsFor(t jtype.Type, static bool) (get, set ffi.FieldOp) {
	k := t.Kind
	if t.Rank > 0 {
		k = jtype.KindObject
	}
	return ffi.FieldOpFor(k, static, false), ffi.FieldOpFor(k, static, true)
}

// Handler is a reference argument that can lend its handle.
type Handler interface {
	Handle() ffi.Ref
}

// Call describes a resolved method invocation.
type Call struct {
	Class  string
	Name   string
	Target ffi.Ref // instance, or class for static calls and constructors
	Method ffi.MethodID
	// Overload has Self resolved.
	Overload decl.Overload
	Static   bool
}

func (c Call) path() []string { return []string{c.Class, c.Name} }

// Method invokes c with args and wraps the result.
func Method(env ffi.Env, c Call, args []any) (Result, error) {
	vals, cleanup, err := lowerAll(env, c.path(), c.Overload.Params, args)
	if err != nil {
		return Result{}, err
	}
	v := env.Call(CallOpFor(c.Overload.Return, c.Static), c.Target, c.Method, vals)
	cleanup()

	if env.ExceptionCheck() {
		return Result{}, errors.PendingException(errors.PhaseInvoke, c.path(), nil)
	}
	return newResult(env, c.Overload.Return, v), nil
}

// Construct runs a constructor and returns the new object.
func Construct(env ffi.Env, c Call, args []any) (*ref.Local, error) {
	vals, cleanup, err := lowerAll(env, c.path(), c.Overload.Params, args)
	if err != nil {
		return nil, err
	}
	raw := env.NewObject(c.Target, c.Method, vals)
	cleanup()

	if raw == 0 || env.ExceptionCheck() {
		if raw != 0 {
			env.DeleteLocalRef(raw)
		}
		return nil, errors.PendingException(errors.PhaseInvoke, c.path(), nil)
	}
	return ref.NewLocal(env, raw, jtype.Object(c.Class)), nil
}

// Field describes a resolved field access.
type Field struct {
	Class  string
	Name   string
	Target ffi.Ref // instance, or class for static fields
	ID     ffi.FieldID
	Type   jtype.Type
	Static bool
}

func (f Field) path() []string { return []string{f.Class, f.Name} }

// GetField reads f.
func GetField(env ffi.Env, f Field) (Result, error) {
	get, _ := FieldOpsFor(f.Type, f.Static)
	v := env.GetField(get, f.Target, f.ID)
	if env.ExceptionCheck() {
		return Result{}, errors.PendingException(errors.PhaseInvoke, f.path(), nil)
	}
	return newResult(env, f.Type, v), nil
}

// SetField writes v to f.
func SetField(env ffi.Env, f Field, v any) error {
	_, set := FieldOpsFor(f.Type, f.Static)
	val, cleanup, err := Lower(env, f.Type, v)
	if err != nil {
		return withPath(err, f.path())
	}
	env.SetField(set, f.Target, f.ID, val)
	cleanup()
	if env.ExceptionCheck() {
		return errors.PendingException(errors.PhaseInvoke, f.path(), nil)
	}
	return nil
}

func lowerAll(env ffi.Env, path []string, params []jtype.Type, args []any) ([]ffi.Value, func(), error) {
	if len(params) != len(args) {
		return nil, nil, errors.New(errors.PhaseInvoke, errors.KindInvalidArguments).
			Path(path...).Detail("want %d arguments, got %d", len(params), len(args)).Build()
	}

	var cleanups []func()
	cleanup := func() {
		for _, c := range cleanups {
			c()
		}
	}
	vals := make([]ffi.Value, len(args))
	for i, p := range params {
		v, c, err := Lower(env, p, args[i])
		if err != nil {
			cleanup()
			return nil, nil, withPath(err, path)
		}
		vals[i] = v
		cleanups = append(cleanups, c)
	}
	return vals, cleanup, nil
}

func withPath(err error, path []string) error {
	if e, ok := err.(*errors.Error); ok && len(e.Path) == 0 {
		e.Path = path
	}
	return err
}

func noop() {}

// Lower converts arg to the jvalue for param. The returned cleanup releases
// any temporary reference and must run after the call.
func Lower(env ffi.Env, param jtype.Type, arg any) (ffi.Value, func(), error) {
	if _, ok := selector.Match(param, arg); !ok {
		return 0, noop, errors.TypeMismatch(errors.PhaseInvoke, nil, goType(arg), param.String())
	}

	switch v := arg.(type) {
	case nil:
		return 0, noop, nil
	case Handler:
		return ffi.RefValue(v.Handle()), noop, nil
	case string:
		raw := env.NewStringUTF(v)
		return ffi.RefValue(raw), func() { env.DeleteLocalRef(raw) }, nil
	case []string:
		return lowerArray(array.FromStrings(env, v))
	case []bool:
		return lowerArray(array.FromSlice(env, v))
	case []int8:
		return lowerArray(array.FromSlice(env, v))
	case []uint16:
		return lowerArray(array.FromSlice(env, v))
	case []int16:
		return lowerArray(array.FromSlice(env, v))
	case []int32:
		return lowerArray(array.FromSlice(env, v))
	case []int64:
		return lowerArray(array.FromSlice(env, v))
	case []float32:
		return lowerArray(array.FromSlice(env, v))
	case []float64:
		return lowerArray(array.FromSlice(env, v))
	}

	v, err := lowerScalar(arg)
	if err != nil {
		return 0, noop, err
	}
	return v, noop, nil
}

func lowerArray(a *array.Array, err error) (ffi.Value, func(), error) {
	if err != nil {
		return 0, noop, err
	}
	return ffi.RefValue(a.Handle()), func() { a.Close() }, nil
}

func lowerScalar(arg any) (ffi.Value, error) {
	switch v := arg.(type) {
	case bool:
		return ffi.BoolValue(v), nil
	case int8:
		return ffi.ByteValue(v), nil
	case uint8:
		return ffi.ByteValue(int8(v)), nil
	case uint16:
		return ffi.CharValue(v), nil
	case int16:
		return ffi.ShortValue(v), nil
	case int32:
		return ffi.IntValue(v), nil
	case int:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return 0, errors.New(errors.PhaseInvoke, errors.KindOutOfBounds).
				GoType("int").JavaType("int").Value(v).Detail("value overflows int").Build()
		}
		return ffi.IntValue(int32(v)), nil
	case int64:
		return ffi.LongValue(v), nil
	case float32:
		return ffi.FloatValue(v), nil
	case float64:
		return ffi.DoubleValue(v), nil
	}
	return 0, errors.Unsupported(errors.PhaseInvoke, "argument of type "+goType(arg))
}

func goType(arg any) string {
	if arg == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", arg)
}
