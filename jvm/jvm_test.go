package jvm

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/wippyai/jni-bind/cache"
	jerrors "github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/ffi/fakevm"
	"github.com/wippyai/jni-bind/jtype"
	"github.com/wippyai/jni-bind/ref"
)

// destroyProbe records how many global references were live when the VM was
// destroyed.
type destroyProbe struct {
	*fakevm.VM
	liveAtDestroy int
}

func (p *destroyProbe) Destroy() error {
	p.liveAtDestroy = p.LiveGlobals()
	return p.VM.Destroy()
}

func TestAttachNesting(t *testing.T) {
	vm := fakevm.New()
	rt := New(vm)

	th, err := rt.Attach()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := th.Attach(); err != nil {
		t.Fatal(err)
	}
	if vm.Stats().Attaches != 1 {
		t.Fatalf("nested attach must not call the VM, attaches = %d", vm.Stats().Attaches)
	}

	if err := th.Detach(); err != nil {
		t.Fatal(err)
	}
	if vm.Attached() != 1 || rt.Attached() != 1 {
		t.Fatal("inner detach must keep the thread attached")
	}
	if err := th.Detach(); err != nil {
		t.Fatal(err)
	}
	if vm.Attached() != 0 || rt.Attached() != 0 || vm.Stats().Detaches != 1 {
		t.Fatalf("outermost detach should detach once, stats = %+v", vm.Stats())
	}

	if err := th.Detach(); !errors.Is(err, &jerrors.Error{Phase: jerrors.PhaseRuntime, Kind: jerrors.KindNotAttached}) {
		t.Fatalf("extra detach err = %v", err)
	}
	if _, err := th.Attach(); err == nil {
		t.Fatal("re-nesting a detached thread should fail")
	}
}

func TestNestedDoReusesAttachment(t *testing.T) {
	vm := fakevm.New()
	rt := New(vm)

	outer, err := rt.Attach()
	if err != nil {
		t.Fatal(err)
	}
	err = rt.Do(func(env ffi.Env) error {
		if env != outer.Env() {
			return fmt.Errorf("nested Do got a new environment")
		}
		return rt.Do(func(inner ffi.Env) error {
			if inner != env || outer.Depth() != 3 {
				return fmt.Errorf("depth = %d", outer.Depth())
			}
			return nil
		})
	})
	if err != nil {
		t.Fatal(err)
	}

	again, err := rt.Attach()
	if err != nil {
		t.Fatal(err)
	}
	if again != outer {
		t.Fatal("second Attach on the same goroutine should return the live thread")
	}
	if err := again.Detach(); err != nil {
		t.Fatal(err)
	}

	st := vm.Stats()
	if st.Attaches != 1 || st.Detaches != 0 || vm.Attached() != 1 || rt.Attached() != 1 {
		t.Fatalf("outer attachment disturbed, stats = %+v", st)
	}
	if err := outer.Detach(); err != nil {
		t.Fatal(err)
	}
	if vm.Stats().Detaches != 1 || vm.Attached() != 0 || rt.Attached() != 0 {
		t.Fatalf("outermost detach should detach once, stats = %+v", vm.Stats())
	}

	fresh, err := rt.Attach()
	if err != nil {
		t.Fatal(err)
	}
	defer fresh.Detach()
	if fresh == outer || vm.Stats().Attaches != 2 {
		t.Fatal("attach after a full detach should start a new attachment")
	}
}

func TestDetachClearsPendingException(t *testing.T) {
	vm := fakevm.New()
	rt := New(vm)

	th, err := rt.Attach()
	if err != nil {
		t.Fatal(err)
	}
	env := th.Env().(*fakevm.Env)
	env.ThrowClass("java/lang/IllegalStateException", "left behind")
	if err := th.Detach(); err != nil {
		t.Fatal(err)
	}
	if env.ExceptionCheck() {
		t.Fatal("pending exception should be cleared on detach")
	}
}

func TestConcurrentAttach(t *testing.T) {
	vm := fakevm.New()
	rt := New(vm)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := rt.Do(func(env ffi.Env) error {
				s := env.NewStringUTF("x")
				defer env.DeleteLocalRef(s)
				if env.GetStringUTF(s) != "x" {
					return fmt.Errorf("bad string")
				}
				return nil
			})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	st := vm.Stats()
	if st.Attaches != 16 || st.Detaches != 16 || vm.Attached() != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestDoPropagatesError(t *testing.T) {
	rt := New(fakevm.New())
	want := errors.New("boom")
	if err := rt.Do(func(ffi.Env) error { return want }); !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
}

func cacheClass(t *testing.T, rt *Runtime, name string) {
	t.Helper()
	err := rt.Do(func(env ffi.Env) error {
		_, err := rt.Registry().Resolve(cache.ClassKey("", name), func() (any, error) {
			cls := env.FindClass(name)
			return ref.NewLocal(env, cls, jtype.Object(name)).Promote()
		})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestShutdownReleasesCaches(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantNil bool
	}{
		{"default releases", nil, true},
		{"keep caches", &Config{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := &destroyProbe{VM: fakevm.New()}
			rt := NewWithConfig(probe, tt.cfg)

			cacheClass(t, rt, "java/lang/String")
			cacheClass(t, rt, "java/lang/Object")
			if rt.Registry().Len() != 2 {
				t.Fatalf("registry len = %d", rt.Registry().Len())
			}

			if err := rt.Shutdown(); err != nil {
				t.Fatal(err)
			}
			if tt.wantNil && probe.liveAtDestroy != 0 {
				t.Fatalf("%d globals live at destroy", probe.liveAtDestroy)
			}
			if !tt.wantNil && probe.liveAtDestroy != 2 {
				t.Fatalf("kept caches, live = %d", probe.liveAtDestroy)
			}
			if rt.Registry().Len() != 0 {
				t.Fatal("registry should be empty after shutdown")
			}
		})
	}
}

func TestShutdownTwiceAndAttachAfter(t *testing.T) {
	rt := New(fakevm.New())
	if err := rt.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := rt.Shutdown(); err != nil {
		t.Fatalf("second shutdown err = %v", err)
	}
	if !rt.Closed() {
		t.Fatal("runtime should report closed")
	}
	if _, err := rt.Attach(); !errors.Is(err, &jerrors.Error{Phase: jerrors.PhaseRuntime, Kind: jerrors.KindClosed}) {
		t.Fatalf("attach after shutdown err = %v", err)
	}
}

func TestDefaults(t *testing.T) {
	rt := New(fakevm.New())
	if rt.Loaders() == nil || len(rt.Loaders().Loaders()) != 1 {
		t.Fatal("default topology should hold only the default loader")
	}
	if rt.Logger() == nil {
		t.Fatal("logger must default to the package logger")
	}
}
