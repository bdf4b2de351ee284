//go:build linux || darwin

package jni

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	jerrors "github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/ffi"
)

func TestFindLibrary(t *testing.T) {
	home := t.TempDir()
	lib := filepath.Join(home, libCandidates[0])
	if err := os.MkdirAll(filepath.Dir(lib), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(lib, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := findLibrary(&Options{JavaHome: home})
	if err != nil || got != lib {
		t.Fatalf("findLibrary = %q, %v; want %q", got, err, lib)
	}

	got, err = findLibrary(&Options{LibPath: lib, JavaHome: "/nonexistent"})
	if err != nil || got != lib {
		t.Fatalf("explicit LibPath = %q, %v", got, err)
	}

	_, err = findLibrary(&Options{JavaHome: t.TempDir()})
	if !errors.Is(err, &jerrors.Error{Phase: jerrors.PhaseRuntime, Kind: jerrors.KindNotFound}) {
		t.Fatalf("empty home err = %v", err)
	}

	t.Setenv("JAVA_HOME", "")
	got, err = findLibrary(&Options{})
	if err != nil || got != libName {
		t.Fatalf("no home = %q, %v; want loader search for %q", got, err, libName)
	}
}

func TestVMArgs(t *testing.T) {
	got := vmArgs(&Options{ClassPath: []string{"a.jar", "b"}, Args: []string{"-Xmx64m"}})
	want := []string{"-Djava.class.path=a.jar" + string(os.PathListSeparator) + "b", "-Xmx64m"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("vmArgs = %q, want %q", got, want)
	}
	if got := vmArgs(DefaultOptions()); len(got) != 0 {
		t.Fatalf("default args = %q", got)
	}
}

// TestRealVM runs against an installed JDK when JNI_BIND_JVM is set.
func TestRealVM(t *testing.T) {
	if os.Getenv("JNI_BIND_JVM") == "" {
		t.Skip("set JNI_BIND_JVM=1 and JAVA_HOME to run against a real JVM")
	}
	vm, err := Open(nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	env, err := vm.AttachCurrentThread()
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	defer vm.DetachCurrentThread(env)

	s := env.NewStringUTF("héllo 😀")
	if got := env.GetStringUTF(s); got != "héllo 😀" {
		t.Fatalf("string round trip = %q", got)
	}
	env.DeleteLocalRef(s)

	integer := env.FindClass("java/lang/Integer")
	if integer == 0 {
		t.Fatalf("FindClass(java/lang/Integer) failed")
	}
	parse := env.GetStaticMethodID(integer, "parseInt", "(Ljava/lang/String;)I")
	arg := env.NewStringUTF("1234")
	v := env.Call(ffi.CallStaticIntMethod, integer, parse, []ffi.Value{ffi.RefValue(arg)})
	if env.ExceptionCheck() || v.Int() != 1234 {
		t.Fatalf("parseInt = %d", v.Int())
	}

	bad := env.NewStringUTF("x")
	env.Call(ffi.CallStaticIntMethod, integer, parse, []ffi.Value{ffi.RefValue(bad)})
	if !env.ExceptionCheck() {
		t.Fatalf("parseInt(x) raised nothing")
	}
	env.ExceptionClear()

	arr := env.NewPrimitiveArray(ffi.IntArray, 4)
	if n := env.GetArrayLength(arr); n != 4 {
		t.Fatalf("array length = %d", n)
	}
}
