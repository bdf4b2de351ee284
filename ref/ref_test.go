package ref

import (
	"errors"
	"testing"

	jerrors "github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/ffi/fakevm"
	"github.com/wippyai/jni-bind/jtype"
)

func newString(t *testing.T) (*fakevm.VM, *fakevm.Env, *Local) {
	t.Helper()
	vm := fakevm.New()
	env := vm.NewEnv()
	return vm, env, NewLocal(env, env.NewStringUTF("hello"), jtype.String)
}

func TestLocal_CloseOnce(t *testing.T) {
	vm, env, l := newString(t)

	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if !l.IsEmpty() {
		t.Fatal("closed wrapper should be empty")
	}
	if env.LocalCount() != 0 {
		t.Fatalf("LocalCount = %d", env.LocalCount())
	}
	if vm.Stats().InvalidDeletes != 0 {
		t.Fatal("double close must not reach the runtime")
	}
}

func TestLocal_Move(t *testing.T) {
	vm, env, l := newString(t)
	raw := l.Handle()

	m := l.Move()
	if !l.IsEmpty() || m.Handle() != raw {
		t.Fatal("Move should transfer the handle and empty the source")
	}

	l.Close()
	m.Close()
	st := vm.Stats()
	if st.LocalDeleted != 1 || st.InvalidDeletes != 0 {
		t.Fatalf("handle should be deleted exactly once, stats %+v", st)
	}
	if env.LocalCount() != 0 {
		t.Fatal("leaked local")
	}
}

func TestLocal_Release(t *testing.T) {
	_, env, l := newString(t)

	raw := l.Release()
	if !l.IsEmpty() {
		t.Fatal("Release should empty the wrapper")
	}
	l.Close()
	if env.GetObjectRefType(raw) != ffi.RefLocal {
		t.Fatal("released handle must stay alive for its new owner")
	}
	env.DeleteLocalRef(raw)
}

func TestLocal_Promote(t *testing.T) {
	vm, env, l := newString(t)

	g, err := l.Promote()
	if err != nil {
		t.Fatalf("Promote failed: %v", err)
	}
	if !l.IsEmpty() {
		t.Fatal("Promote should empty the source")
	}
	if env.LocalCount() != 0 {
		t.Fatal("Promote should delete the transient handle")
	}
	if env.GetObjectRefType(g.Handle()) != ffi.RefGlobal {
		t.Fatal("expected a global handle")
	}
	if env.Str(g.Handle()) != "hello" {
		t.Fatal("global should denote the same object")
	}

	if _, err := l.Promote(); !errors.Is(err, &jerrors.Error{Phase: jerrors.PhaseLifetime, Kind: jerrors.KindEmptyReference}) {
		t.Fatalf("Promote of empty wrapper = %v", err)
	}

	g.Close()
	g.Close()
	if vm.LiveGlobals() != 0 || vm.Stats().InvalidDeletes != 0 {
		t.Fatal("global should be deleted exactly once")
	}
}

func TestNewRefIsIndependent(t *testing.T) {
	vm, env, l := newString(t)

	c, err := l.NewRef()
	if err != nil {
		t.Fatal(err)
	}
	if c.Handle() == l.Handle() {
		t.Fatal("NewRef must return a distinct handle")
	}
	l.Close()
	if env.Str(c.Handle()) != "hello" {
		t.Fatal("copy must outlive the original")
	}
	c.Close()

	if st := vm.Stats(); st.LocalCreated != st.LocalDeleted {
		t.Fatalf("unbalanced locals: %+v", st)
	}
}

func TestGlobal_CloseInAndNewLocal(t *testing.T) {
	vm := fakevm.New()
	a := vm.NewEnv()
	b := vm.NewEnv()

	g, err := NewLocal(a, a.NewStringUTF("shared"), jtype.String).Promote()
	if err != nil {
		t.Fatal(err)
	}

	l, err := g.NewLocal(b)
	if err != nil {
		t.Fatal(err)
	}
	if b.Str(l.Handle()) != "shared" {
		t.Fatal("local on the second thread should see the object")
	}
	l.Close()

	dup, err := g.NewRef(b)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.CloseIn(b); err != nil {
		t.Fatal(err)
	}
	if vm.LiveGlobals() != 1 {
		t.Fatal("independent global should survive")
	}
	dup.Close()
	if vm.LiveGlobals() != 0 {
		t.Fatal("expected all globals released")
	}
}

func TestAdoptGlobal(t *testing.T) {
	vm := fakevm.New()
	env := vm.NewEnv()
	raw := env.NewGlobalRef(env.NewStringUTF("x"))

	g := AdoptGlobal(env, raw, jtype.String)
	if g.String() != "Ljava/lang/String;" {
		t.Fatalf("String() = %q", g.String())
	}
	m := g.Move()
	if !g.IsEmpty() {
		t.Fatal("Move should empty the source")
	}
	m.Close()
	if vm.LiveGlobals() != 0 {
		t.Fatal("adopted global should be deleted on Close")
	}
}

func TestGlobal_NilWrapper(t *testing.T) {
	var g *Global
	if g.Move() != nil {
		t.Fatal("Move on nil should return nil")
	}
	if g.Release() != 0 {
		t.Fatal("Release on nil should return a null handle")
	}
	if err := g.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
