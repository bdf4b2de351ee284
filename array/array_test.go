package array

import (
	"errors"
	"slices"
	"testing"

	jerrors "github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/ffi/fakevm"
	"github.com/wippyai/jni-bind/jtype"
	"github.com/wippyai/jni-bind/ref"
)

func TestPinCopyBack(t *testing.T) {
	tests := []struct {
		name     string
		copyBack bool
		want     []int32
	}{
		{"commit", true, []int32{10, 2, 3}},
		{"discard", false, []int32{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := fakevm.New()
			env := vm.NewEnv()

			a, err := FromSlice(env, []int32{1, 2, 3})
			if err != nil {
				t.Fatal(err)
			}
			p, err := Pin[int32](a, tt.copyBack)
			if err != nil {
				t.Fatal(err)
			}
			if len(p.Elems()) != 3 {
				t.Fatalf("view length = %d", len(p.Elems()))
			}
			p.Elems()[0] = 10
			if err := p.Release(); err != nil {
				t.Fatal(err)
			}
			p.Release()

			got := env.ArrayContents(a.Handle()).([]int32)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("array = %v, want %v", got, tt.want)
			}
			if env.PinCount() != 0 {
				t.Fatal("pin leaked")
			}
		})
	}
}

func TestPinRejectsMismatches(t *testing.T) {
	vm := fakevm.New()
	env := vm.NewEnv()

	ints, _ := FromSlice(env, []int32{1})
	if _, err := Pin[int64](ints, false); !errors.Is(err, &jerrors.Error{Phase: jerrors.PhaseArray, Kind: jerrors.KindTypeMismatch}) {
		t.Fatalf("element kind mismatch, err = %v", err)
	}

	strs, err := FromStrings(env, []string{"a"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Pin[int32](strs, false); !errors.Is(err, &jerrors.Error{Phase: jerrors.PhaseArray, Kind: jerrors.KindUnsupported}) {
		t.Fatalf("pinning an object array, err = %v", err)
	}
}

func TestRankAsymmetry(t *testing.T) {
	vm := fakevm.New()
	env := vm.NewEnv()

	one, err := New(env, jtype.Int.Array(1), 4, 0)
	if err != nil {
		t.Fatal(err)
	}
	if one.Storage() != jtype.StorageIntArray {
		t.Fatalf("rank-1 storage = %v", one.Storage())
	}

	if _, err := New(env, jtype.Int.Array(2), 2, 0); err == nil {
		t.Fatal("rank-2 arrays need an element class")
	}
	intArrayClass := env.FindClass("[I")
	two, err := New(env, jtype.Int.Array(2), 2, intArrayClass)
	if err != nil {
		t.Fatal(err)
	}
	if two.Storage() != jtype.StorageObjectArray {
		t.Fatalf("rank-2 storage = %v", two.Storage())
	}

	if err := two.Set(1, one.Local().Move()); err != nil {
		t.Fatal(err)
	}
	inner, err := two.GetArray(1)
	if err != nil {
		t.Fatal(err)
	}
	if inner.Len() != 4 || inner.Type() != jtype.Int.Array(1) {
		t.Fatalf("inner = %v len %d", inner.Type(), inner.Len())
	}
	if _, err := two.GetArray(0); err == nil {
		t.Fatal("null element should not wrap")
	}
}

func TestGetSetConsumes(t *testing.T) {
	vm := fakevm.New()
	env := vm.NewEnv()

	a, err := FromStrings(env, []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	base := env.LocalCount()

	v := ref.NewLocal(env, env.NewStringUTF("c"), jtype.String)
	if err := a.Set(0, v); err != nil {
		t.Fatal(err)
	}
	if !v.IsEmpty() {
		t.Fatal("Set should consume the value")
	}
	if env.LocalCount() != base {
		t.Fatal("Set should release the consumed handle")
	}

	got, err := a.Strings()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"c", "b"}) {
		t.Fatalf("Strings = %v", got)
	}
	if env.LocalCount() != base {
		t.Fatal("Strings leaked element references")
	}
}

func TestBoundsDelegatedToRuntime(t *testing.T) {
	vm := fakevm.New()
	env := vm.NewEnv()

	a, _ := FromStrings(env, []string{"a"})
	_, err := a.Get(3)
	if !errors.Is(err, &jerrors.Error{Phase: jerrors.PhaseArray, Kind: jerrors.KindPendingException}) {
		t.Fatalf("err = %v", err)
	}
	if env.PendingClass() != "java/lang/ArrayIndexOutOfBoundsException" {
		t.Fatalf("pending = %q", env.PendingClass())
	}
}

func TestToSlice(t *testing.T) {
	vm := fakevm.New()
	env := vm.NewEnv()

	a, _ := FromSlice(env, []float64{1.5, 2.5})
	got, err := ToSlice[float64](a)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []float64{1.5, 2.5}) {
		t.Fatalf("ToSlice = %v", got)
	}

	empty, err := FromSlice(env, []bool{})
	if err != nil {
		t.Fatal(err)
	}
	if empty.Len() != 0 {
		t.Fatal("expected empty array")
	}
	if st := vm.Stats(); st.Pins != st.Unpins {
		t.Fatalf("unbalanced pins: %+v", st)
	}
}

func TestWrap(t *testing.T) {
	vm := fakevm.New()
	env := vm.NewEnv()

	raw := env.NewPrimitiveArray(ffi.ByteArray, 2)
	l := ref.NewLocal(env, raw, jtype.Byte.Array(1))
	a, err := Wrap(l)
	if err != nil {
		t.Fatal(err)
	}
	if !l.IsEmpty() || a.Handle() != raw {
		t.Fatal("Wrap should take ownership")
	}

	if _, err := Wrap(ref.NewLocal(env, env.NewStringUTF("x"), jtype.String)); err == nil {
		t.Fatal("wrapping a scalar should fail")
	}
}

func TestNilArray(t *testing.T) {
	var a *Array
	if a.JavaType() != (jtype.Type{}) || a.Descriptor() != nil || a.Handle() != 0 {
		t.Fatal("nil array should report an empty reference")
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
