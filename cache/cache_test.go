package cache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestCell_ConcurrentFirstUse(t *testing.T) {
	for _, n := range []int{2, 8, 64} {
		t.Run(fmt.Sprintf("goroutines=%d", n), func(t *testing.T) {
			var (
				cell  Cell[int]
				calls atomic.Int32
				wg    sync.WaitGroup
				start = make(chan struct{})
			)

			results := make([]int, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					<-start
					v, err := cell.Get(func() (int, error) {
						calls.Add(1)
						return 42, nil
					})
					if err != nil {
						t.Errorf("Get failed: %v", err)
					}
					results[i] = v
				}(i)
			}
			close(start)
			wg.Wait()

			if calls.Load() != 1 {
				t.Fatalf("init ran %d times, want 1", calls.Load())
			}
			for i, v := range results {
				if v != 42 {
					t.Fatalf("results[%d] = %d", i, v)
				}
			}
		})
	}
}

func TestCell_FailureNotCached(t *testing.T) {
	var cell Cell[string]
	boom := errors.New("boom")

	if _, err := cell.Get(func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected init error unmodified, got %v", err)
	}
	if cell.Loaded() {
		t.Fatal("a failed init must leave the cell empty")
	}

	v, err := cell.Get(func() (string, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Fatalf("retry = %q, %v", v, err)
	}
}

func TestCell_Reset(t *testing.T) {
	var cell Cell[int]
	if cell.Reset(nil) {
		t.Fatal("Reset on an empty cell should report false")
	}

	cell.Get(func() (int, error) { return 1, nil })
	var torn int
	if !cell.Reset(func(v int) { torn = v }) {
		t.Fatal("Reset should report true")
	}
	if torn != 1 || cell.Loaded() {
		t.Fatalf("teardown saw %d, loaded=%v", torn, cell.Loaded())
	}

	v, _ := cell.Get(func() (int, error) { return 2, nil })
	if v != 2 {
		t.Fatalf("re-init = %d, want 2", v)
	}
}

func TestRegistry_ResolveAndKeys(t *testing.T) {
	r := NewRegistry()
	cls := ClassKey("", "com/example/Widget")
	mid := Key{Kind: KeyMethod, Class: "com/example/Widget", Member: "size", Signature: "()I"}

	var inits int
	init := func(v any) func() (any, error) {
		return func() (any, error) {
			inits++
			return v, nil
		}
	}

	for i := 0; i < 3; i++ {
		if v, err := r.Resolve(cls, init("class")); err != nil || v != "class" {
			t.Fatalf("Resolve = %v, %v", v, err)
		}
	}
	r.Resolve(mid, init("mid"))

	if inits != 2 {
		t.Fatalf("inits = %d, want 2", inits)
	}
	keys := r.Keys()
	if len(keys) != 2 || keys[0] != cls || keys[1] != mid {
		t.Fatalf("Keys = %v", keys)
	}
	if r.Len() != 2 {
		t.Fatalf("Len = %d", r.Len())
	}
}

func TestRegistry_FailureLeavesEntryUnresolved(t *testing.T) {
	r := NewRegistry()
	key := ClassKey("", "com/example/Missing")
	boom := errors.New("not found")

	if _, err := r.Resolve(key, func() (any, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected error to propagate, got %v", err)
	}
	if _, ok := r.Lookup(key); ok {
		t.Fatal("failed resolution must not be cached")
	}
	if r.Len() != 0 || len(r.Keys()) != 0 {
		t.Fatal("failed resolution must not appear in Keys")
	}
}

func TestRegistry_Reset(t *testing.T) {
	r := NewRegistry()
	key := ClassKey("", "com/example/Widget")
	r.Resolve(key, func() (any, error) { return 1, nil })

	var torn any
	if !r.Reset(key, func(v any) { torn = v }) || torn != 1 {
		t.Fatalf("Reset teardown saw %v", torn)
	}
	if r.Reset(ClassKey("", "com/example/Other"), nil) {
		t.Fatal("Reset of an unknown key should report false")
	}

	v, _ := r.Resolve(key, func() (any, error) { return 2, nil })
	if v != 2 {
		t.Fatalf("after Reset Resolve = %v, want 2", v)
	}
}

func TestRegistry_Shutdown(t *testing.T) {
	r := NewRegistry()
	a := ClassKey("", "a/A")
	b := ClassKey("", "b/B")
	c := ClassKey("", "c/C")
	for _, k := range []Key{a, b, c} {
		r.Resolve(k, func() (any, error) { return k.Class, nil })
	}

	var order []string
	errA := errors.New("a failed")
	errC := errors.New("c failed")
	err := r.Shutdown(func(k Key, v any) error {
		order = append(order, v.(string))
		switch k {
		case a:
			return errA
		case c:
			return errC
		}
		return nil
	})

	if !errors.Is(err, errA) || !errors.Is(err, errC) {
		t.Fatalf("Shutdown should combine teardown errors, got %v", err)
	}
	if fmt.Sprint(order) != "[a/A b/B c/C]" {
		t.Fatalf("teardown order = %v", order)
	}
	if r.Len() != 0 {
		t.Fatal("registry should be empty after Shutdown")
	}
}

func TestKeyString(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{ClassKey("", "java/lang/String"), "class:java/lang/String"},
		{ClassKey("plugins", "com/example/Plugin"), "class:plugins!com/example/Plugin"},
		{Key{Kind: KeyStaticField, Class: "a/B", Member: "COUNT", Signature: "I"}, "static-field:a/B.COUNT:I"},
	}
	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
