package reftable

import (
	"sync"
	"testing"
)

func TestTable_Basic(t *testing.T) {
	tbl := New(TagLocal)

	h := tbl.Insert("test value")
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}
	if h.Tag() != TagLocal {
		t.Fatalf("Tag = %d, want %d", h.Tag(), TagLocal)
	}

	val, ok := tbl.Get(h)
	if !ok || val != "test value" {
		t.Fatalf("Get = %v, %v", val, ok)
	}

	val, ok = tbl.Remove(h)
	if !ok || val != "test value" {
		t.Fatalf("Remove = %v, %v", val, ok)
	}

	if _, ok := tbl.Get(h); ok {
		t.Fatal("Expected Get to fail after Remove")
	}
	if _, ok := tbl.Remove(h); ok {
		t.Fatal("Expected second Remove to fail")
	}
}

func TestTable_TagsDoNotCollide(t *testing.T) {
	locals := New(TagLocal)
	globals := New(TagGlobal)

	l := locals.Insert(1)
	g := globals.Insert(1)
	if l == g {
		t.Fatal("handles from different tables must differ")
	}
	if locals.Owns(g) || globals.Owns(l) {
		t.Fatal("a table must not own another table's handle")
	}
	if _, ok := locals.Get(g); ok {
		t.Fatal("Get with a foreign handle should fail")
	}
}

func TestTable_HandleReuse(t *testing.T) {
	tbl := New(TagLocal)

	h1 := tbl.Insert(1)
	h2 := tbl.Insert(2)
	h3 := tbl.Insert(3)

	tbl.Remove(h2)
	h4 := tbl.Insert(4)
	if h4 != h2 {
		t.Errorf("expected freed slot %d to be reused, got %d", h2, h4)
	}

	for _, h := range []Handle{h1, h3, h4} {
		if _, ok := tbl.Get(h); !ok {
			t.Errorf("handle %d should be valid", h)
		}
	}
}

func TestTable_Observers(t *testing.T) {
	tbl := New(TagGlobal)

	var created, dropped int
	tbl.Subscribe(ObserverFunc(func(e Event) {
		switch e.Type {
		case EventCreated:
			created++
		case EventDropped:
			dropped++
		}
	}))

	h := tbl.Insert("a")
	tbl.Insert("b")
	tbl.Remove(h)
	tbl.Remove(h)

	if created != 2 || dropped != 1 {
		t.Fatalf("created=%d dropped=%d, want 2/1", created, dropped)
	}

	tbl.Clear()
	if dropped != 2 || tbl.Len() != 0 {
		t.Fatalf("Clear should drop remaining handles, dropped=%d len=%d", dropped, tbl.Len())
	}
}

func TestTable_Close(t *testing.T) {
	tbl := New(TagLocal)
	tbl.Insert(1)
	tbl.Insert(2)

	if err := tbl.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if h := tbl.Insert(3); h != 0 {
		t.Fatal("Insert after Close should return 0")
	}
	if tbl.Len() != 0 {
		t.Fatal("Close should release every handle")
	}
}

func TestTable_Concurrent(t *testing.T) {
	tbl := New(TagLocal)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			h := tbl.Insert(id)
			if v, ok := tbl.Get(h); !ok || v != id {
				t.Errorf("Get(%d) = %v, %v", h, v, ok)
			}
			tbl.Remove(h)
		}(i)
	}

	wg.Wait()
	if tbl.Len() != 0 {
		t.Fatalf("Len = %d after concurrent insert/remove", tbl.Len())
	}
}

func TestTable_EachAndInvalid(t *testing.T) {
	tbl := New(TagLocal)
	tbl.Insert("a")
	tbl.Insert("b")
	tbl.Insert("c")

	count := 0
	tbl.Each(func(Handle, any) bool {
		count++
		return count < 2
	})
	if count != 2 {
		t.Fatalf("Each should stop early, visited %d", count)
	}

	if _, ok := tbl.Get(0); ok {
		t.Fatal("Handle 0 should be invalid")
	}
	if _, ok := tbl.Get(makeHandle(TagLocal, 999)); ok {
		t.Fatal("Non-existent handle should be invalid")
	}
}
