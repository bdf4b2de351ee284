package fakevm

import (
	"testing"
	"unsafe"

	"github.com/wippyai/jni-bind/decl"
	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/jtype"
)

func counterVM(t *testing.T) (*VM, *Env) {
	t.Helper()
	vm := New()
	err := vm.DefineClass(ClassDef{
		Name:         "com/example/Counter",
		Fields:       map[string]string{"count": "I", "label": "Ljava/lang/String;"},
		StaticFields: map[string]string{"instances": "J"},
		Constructors: map[string]Method{
			"()V": nil,
			"(I)V": func(env *Env, this ffi.Ref, args []ffi.Value) ffi.Value {
				env.SetFieldValue(this, "count", args[0])
				return 0
			},
		},
		Methods: map[string]Method{
			"inc()I": func(env *Env, this ffi.Ref, _ []ffi.Value) ffi.Value {
				n := env.FieldValue(this, "count").Int() + 1
				env.SetFieldValue(this, "count", ffi.IntValue(n))
				return ffi.IntValue(n)
			},
			"label()Ljava/lang/String;": func(env *Env, _ ffi.Ref, _ []ffi.Value) ffi.Value {
				env.NewStringUTF("scratch")
				return ffi.RefValue(env.NewStringUTF("counter"))
			},
		},
		StaticMethods: map[string]Method{
			"twice(I)I": func(_ *Env, _ ffi.Ref, args []ffi.Value) ffi.Value {
				return ffi.IntValue(args[0].Int() * 2)
			},
		},
	})
	if err != nil {
		t.Fatalf("DefineClass failed: %v", err)
	}
	env, err := vm.AttachCurrentThread()
	if err != nil {
		t.Fatalf("AttachCurrentThread failed: %v", err)
	}
	return vm, env.(*Env)
}

func TestConstructAndCall(t *testing.T) {
	vm, env := counterVM(t)

	cls := env.FindClass("com/example/Counter")
	if cls == 0 {
		t.Fatal("FindClass returned null")
	}
	ctor := env.GetMethodID(cls, "<init>", "(I)V")
	obj := env.NewObject(cls, ctor, []ffi.Value{ffi.IntValue(41)})
	if obj == 0 {
		t.Fatal("NewObject returned null")
	}

	inc := env.GetMethodID(cls, "inc", "()I")
	if got := env.Call(ffi.CallIntMethod, obj, inc, nil).Int(); got != 42 {
		t.Fatalf("inc = %d, want 42", got)
	}

	twice := env.GetStaticMethodID(cls, "twice", "(I)I")
	if got := env.Call(ffi.CallStaticIntMethod, cls, twice, []ffi.Value{ffi.IntValue(21)}).Int(); got != 42 {
		t.Fatalf("twice = %d, want 42", got)
	}

	calls := vm.Calls()
	if len(calls) != 3 || calls[1].Name != "inc" || calls[2].Op != ffi.CallStaticIntMethod {
		t.Fatalf("unexpected call log %+v", calls)
	}
}

func TestMethodFramesReleaseLocals(t *testing.T) {
	_, env := counterVM(t)

	cls := env.FindClass("com/example/Counter")
	obj := env.NewObject(cls, env.GetMethodID(cls, "<init>", "()V"), nil)
	before := env.LocalCount()

	label := env.GetMethodID(cls, "label", "()Ljava/lang/String;")
	s := env.Call(ffi.CallObjectMethod, obj, label, nil).Ref()
	if env.Str(s) != "counter" {
		t.Fatalf("label = %q", env.Str(s))
	}
	if got := env.LocalCount(); got != before+1 {
		t.Fatalf("LocalCount = %d, want %d (only the result survives the frame)", got, before+1)
	}
}

func TestWrongPrimitivePanics(t *testing.T) {
	_, env := counterVM(t)
	cls := env.FindClass("com/example/Counter")
	obj := env.NewObject(cls, env.GetMethodID(cls, "<init>", "()V"), nil)
	inc := env.GetMethodID(cls, "inc", "()I")

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for CallLongMethod on an int method")
		}
	}()
	env.Call(ffi.CallLongMethod, obj, inc, nil)
}

func TestLookupFailuresThrow(t *testing.T) {
	_, env := counterVM(t)

	if env.FindClass("com/example/Missing") != 0 {
		t.Fatal("expected null class")
	}
	if env.PendingClass() != "java/lang/NoClassDefFoundError" {
		t.Fatalf("pending = %q", env.PendingClass())
	}
	env.ExceptionClear()

	cls := env.FindClass("com/example/Counter")
	if env.GetMethodID(cls, "inc", "()J") != 0 || !env.ExceptionCheck() {
		t.Fatal("expected NoSuchMethodError")
	}
	env.ExceptionClear()
	if env.GetFieldID(cls, "nope", "I") != 0 || !env.ExceptionCheck() {
		t.Fatal("expected NoSuchFieldError")
	}
}

func TestFields(t *testing.T) {
	_, env := counterVM(t)
	cls := env.FindClass("com/example/Counter")
	obj := env.NewObject(cls, env.GetMethodID(cls, "<init>", "()V"), nil)

	count := env.GetFieldID(cls, "count", "I")
	env.SetField(ffi.FieldOpFor(jtype.KindInt, false, true), obj, count, ffi.IntValue(7))
	if got := env.GetField(ffi.FieldOpFor(jtype.KindInt, false, false), obj, count).Int(); got != 7 {
		t.Fatalf("count = %d", got)
	}

	label := env.GetFieldID(cls, "label", "Ljava/lang/String;")
	getObj := ffi.FieldOpFor(jtype.KindObject, false, false)
	if env.GetField(getObj, obj, label).Ref() != 0 {
		t.Fatal("reference fields start null")
	}
	env.SetField(ffi.FieldOpFor(jtype.KindObject, false, true), obj, label, ffi.RefValue(env.NewStringUTF("x")))
	if got := env.Str(env.GetField(getObj, obj, label).Ref()); got != "x" {
		t.Fatalf("label = %q", got)
	}

	instances := env.GetStaticFieldID(cls, "instances", "J")
	env.SetField(ffi.FieldOpFor(jtype.KindLong, true, true), cls, instances, ffi.LongValue(3))
	if got := env.GetField(ffi.FieldOpFor(jtype.KindLong, true, false), cls, instances).Long(); got != 3 {
		t.Fatalf("instances = %d", got)
	}
}

func TestReferences(t *testing.T) {
	vm, env := counterVM(t)

	s := env.NewStringUTF("hi")
	g := env.NewGlobalRef(s)
	if env.GetObjectRefType(s) != ffi.RefLocal || env.GetObjectRefType(g) != ffi.RefGlobal {
		t.Fatal("unexpected reference kinds")
	}
	if !env.IsSameObject(s, g) {
		t.Fatal("local and global should denote the same object")
	}

	env.DeleteLocalRef(s)
	env.DeleteLocalRef(s)
	env.DeleteGlobalRef(g)

	st := vm.Stats()
	if st.InvalidDeletes != 1 || st.GlobalCreated != 1 || st.GlobalDeleted != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if vm.LiveGlobals() != 0 {
		t.Fatal("expected no live globals")
	}
}

func TestArrays(t *testing.T) {
	_, env := counterVM(t)

	arr := env.NewPrimitiveArray(ffi.IntArray, 3)
	if env.GetArrayLength(arr) != 3 {
		t.Fatal("wrong length")
	}

	ptr, isCopy := env.GetArrayElements(ffi.IntArray, arr)
	if !isCopy {
		t.Fatal("fake runtime always copies")
	}
	elems := unsafe.Slice((*int32)(ptr), 3)
	elems[1] = 9
	env.ReleaseArrayElements(ffi.IntArray, arr, ptr, ffi.ReleaseAbort)
	if got := env.ArrayContents(arr).([]int32); got[1] != 0 {
		t.Fatal("abort must not copy back")
	}

	ptr, _ = env.GetArrayElements(ffi.IntArray, arr)
	unsafe.Slice((*int32)(ptr), 3)[1] = 9
	env.ReleaseArrayElements(ffi.IntArray, arr, ptr, ffi.ReleaseCommit)
	if got := env.ArrayContents(arr).([]int32); got[1] != 9 {
		t.Fatalf("commit should copy back, got %v", got)
	}
	if env.PinCount() != 0 {
		t.Fatal("expected no outstanding pins")
	}

	strCls := env.FindClass("java/lang/String")
	objs := env.NewObjectArray(2, strCls, 0)
	env.GetObjectArrayElement(objs, 5)
	if env.PendingClass() != "java/lang/ArrayIndexOutOfBoundsException" {
		t.Fatalf("pending = %q", env.PendingClass())
	}
	env.ExceptionClear()

	env.SetObjectArrayElement(objs, 0, env.NewStringUTF("a"))
	if env.Str(env.GetObjectArrayElement(objs, 0)) != "a" {
		t.Fatal("element not stored")
	}
	env.SetObjectArrayElement(objs, 1, env.NewPrimitiveArray(ffi.IntArray, 1))
	if env.PendingClass() != "java/lang/ArrayStoreException" {
		t.Fatalf("pending = %q", env.PendingClass())
	}
}

func TestClassLoader(t *testing.T) {
	vm := New()
	vm.MustDefineClass(ClassDef{Name: "com/example/Hidden", Loader: "plugin"})
	env := vm.NewEnv()

	if env.FindClass("com/example/Hidden") != 0 {
		t.Fatal("hidden class should not be found by FindClass")
	}
	env.ExceptionClear()

	loaderCls := env.FindClass("java/lang/ClassLoader")
	loadClass := env.GetMethodID(loaderCls, "loadClass", "(Ljava/lang/String;)Ljava/lang/Class;")

	plugin := env.NewClassLoader("plugin")
	cls := env.Call(ffi.CallObjectMethod, plugin, loadClass,
		[]ffi.Value{ffi.RefValue(env.NewStringUTF("com.example.Hidden"))}).Ref()
	if cls == 0 || env.ExceptionCheck() {
		t.Fatal("plugin loader should load its class")
	}

	other := env.NewClassLoader("other")
	env.Call(ffi.CallObjectMethod, other, loadClass,
		[]ffi.Value{ffi.RefValue(env.NewStringUTF("com.example.Hidden"))})
	if env.PendingClass() != "java/lang/ClassNotFoundException" {
		t.Fatalf("pending = %q", env.PendingClass())
	}
}

func TestExceptions(t *testing.T) {
	_, env := counterVM(t)

	cls := env.FindClass("java/lang/IllegalStateException")
	if env.ThrowNew(cls, "boom") != 0 {
		t.Fatal("ThrowNew failed")
	}
	exc := env.ExceptionOccurred()
	env.ExceptionClear()

	getMessage := env.GetMethodID(cls, "getMessage", "()Ljava/lang/String;")
	msg := env.Call(ffi.CallObjectMethod, exc, getMessage, nil).Ref()
	if env.Str(msg) != "boom" {
		t.Fatalf("message = %q", env.Str(msg))
	}

	if env.ThrowNew(env.FindClass("java/lang/String"), "x") == 0 {
		t.Fatal("ThrowNew with a non-throwable class should fail")
	}
}

func TestAttachDetach(t *testing.T) {
	vm := New()
	env, err := vm.AttachCurrentThread()
	if err != nil {
		t.Fatal(err)
	}
	env.NewStringUTF("leaked")

	if err := vm.DetachCurrentThread(env); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}
	if err := vm.DetachCurrentThread(env); err == nil {
		t.Fatal("second Detach should fail")
	}

	st := vm.Stats()
	if st.Attaches != 1 || st.Detaches != 1 || st.LocalDeleted != 1 {
		t.Fatalf("stats = %+v", st)
	}

	if err := vm.Destroy(); err != nil {
		t.Fatal(err)
	}
	if _, err := vm.AttachCurrentThread(); err == nil {
		t.Fatal("attach after Destroy should fail")
	}
}

func TestDefineDeclared(t *testing.T) {
	base := decl.NewClass("com/example/Base",
		decl.WithFields(decl.NewField("id", jtype.Long)),
		decl.WithMethods(decl.NewMethod("self", decl.Returns(jtype.Self))),
	)
	widget := decl.NewClass("com/example/Widget",
		decl.Extends(base),
		decl.WithConstructors(decl.NewConstructor(jtype.Int)),
		decl.WithMethods(decl.NewMethod("size", decl.Returns(jtype.Int))),
		decl.WithStatic([]decl.Field{decl.NewField("count", jtype.Int)}, nil),
	)

	vm := New()
	if err := vm.DefineDeclared(widget, ""); err != nil {
		t.Fatalf("DefineDeclared: %v", err)
	}
	if !vm.Defined("com/example/Base") {
		t.Fatalf("undefined parent was not defined")
	}
	e, _ := vm.AttachCurrentThread()
	env := e.(*Env)

	cls := env.FindClass("com/example/Widget")
	obj := env.NewObject(cls, env.GetMethodID(cls, "<init>", "(I)V"), []ffi.Value{ffi.IntValue(3)})
	if obj == 0 || env.ExceptionCheck() {
		t.Fatalf("construct failed: %s", env.PendingClass())
	}
	size := env.GetMethodID(cls, "size", "()I")
	if v := env.Call(ffi.CallIntMethod, obj, size, nil); v.Int() != 0 {
		t.Fatalf("stub returned %d", v.Int())
	}
	if env.GetMethodID(cls, "self", "()Lcom/example/Base;") == 0 {
		t.Fatalf("inherited Self method not declared on the parent")
	}
	if env.GetStaticFieldID(cls, "count", "I") == 0 {
		t.Fatalf("static field missing")
	}

	if err := vm.DefineDeclared(decl.NewClass("com/example/Hidden"), "plugins"); err != nil {
		t.Fatalf("DefineDeclared with loader: %v", err)
	}
	if env.FindClass("com/example/Hidden") != 0 {
		t.Fatalf("loader-scoped class visible to FindClass")
	}
	env.ExceptionClear()
}
