package loader

import (
	"errors"
	"testing"

	"github.com/wippyai/jni-bind/decl"
	jerrors "github.com/wippyai/jni-bind/errors"
)

var (
	widget = decl.NewClass("com/example/Widget")
	gadget = decl.NewClass("com/example/Gadget")
	plugin = decl.NewClass("com/example/Plugin")
)

func TestSupports(t *testing.T) {
	custom := NewCustom("plugins", Default(), widget)

	tests := []struct {
		name   string
		loader *Loader
		cls    *decl.Class
		want   bool
	}{
		{"default supports anything", Default(), plugin, true},
		{"null supports nothing", Null(), widget, false},
		{"custom listed", custom, widget, true},
		{"custom structural match", custom, decl.NewClass("com/example/Widget"), true},
		{"custom unlisted", custom, gadget, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loader.Supports(tt.cls); got != tt.want {
				t.Fatalf("Supports = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVendor(t *testing.T) {
	base := NewCustom("base", nil, gadget)
	mid := NewCustom("mid", base, widget)
	leaf := NewCustom("leaf", mid, plugin)

	tests := []struct {
		name   string
		loader *Loader
		cls    *decl.Class
		want   *Loader
	}{
		{"self first", leaf, plugin, leaf},
		{"nearest ancestor", leaf, widget, mid},
		{"root ancestor", leaf, gadget, base},
		{"nobody", mid, plugin, nil},
		{"null vends nothing", Null(), widget, nil},
		{"default vends all", Default(), plugin, Default()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.loader.Vendor(tt.cls)
			if got != tt.want || ok != (tt.want != nil) {
				t.Fatalf("Vendor = %v, %v; want %v", got, ok, tt.want)
			}
		})
	}
}

func TestAncestorsAndPath(t *testing.T) {
	mid := NewCustom("mid", Default())
	leaf := NewCustom("leaf", mid)

	anc := leaf.Ancestors()
	if len(anc) != 2 || anc[0] != mid || anc[1] != Default() {
		t.Fatalf("Ancestors = %v", anc)
	}
	if leaf.Path() != "default/mid/leaf" {
		t.Fatalf("Path = %q", leaf.Path())
	}
	if len(Default().Ancestors()) != 0 {
		t.Fatal("default loader has no ancestors")
	}
	if leaf.String() != "custom:default/mid/leaf" {
		t.Fatalf("String = %q", leaf.String())
	}
}

func TestRuntime(t *testing.T) {
	plugins := NewCustom("plugins", Default(), widget)
	rt := NewRuntime(plugins, Default())

	if len(rt.Loaders()) != 2 {
		t.Fatalf("loaders = %v", rt.Loaders())
	}
	if rt.IndexOf(Default()) != 0 || rt.IndexOf(plugins) != 1 {
		t.Fatal("unexpected loader order")
	}
	if rt.IndexOf(NewCustom("plugins", Default(), widget)) != -1 {
		t.Fatal("IndexOf must compare by identity")
	}
	if rt.LoaderFor(widget) != plugins {
		t.Fatal("widget should come from plugins")
	}
	if rt.LoaderFor(gadget) != Default() {
		t.Fatal("unlisted classes come from the default loader")
	}
	if l, ok := rt.Named("plugins"); !ok || l != plugins {
		t.Fatal("Named lookup failed")
	}
}

func TestFromSpecs(t *testing.T) {
	classes := []*decl.Class{widget, gadget}

	rt, err := FromSpecs([]decl.LoaderSpec{
		{Name: "leaf", Parent: "base", Classes: []string{"com/example/Widget"}},
		{Name: "base", Parent: "default", Classes: []string{"com/example/Gadget"}},
	}, classes)
	if err != nil {
		t.Fatal(err)
	}
	leaf, _ := rt.Named("leaf")
	base, _ := rt.Named("base")
	if leaf.Parent() != base || base.Parent() != Default() {
		t.Fatal("parents not linked")
	}
	if v, _ := leaf.Vendor(gadget); v != base {
		t.Fatalf("gadget vendor = %v", v)
	}

	errTests := []struct {
		name  string
		specs []decl.LoaderSpec
		kind  jerrors.Kind
	}{
		{"reserved", []decl.LoaderSpec{{Name: "default"}}, jerrors.KindInvalidInput},
		{"duplicate", []decl.LoaderSpec{{Name: "a"}, {Name: "a"}}, jerrors.KindInvalidInput},
		{"cycle", []decl.LoaderSpec{{Name: "a", Parent: "b"}, {Name: "b", Parent: "a"}}, jerrors.KindInvalidInput},
		{"unknown parent", []decl.LoaderSpec{{Name: "a", Parent: "zzz"}}, jerrors.KindNotFound},
		{"unknown class", []decl.LoaderSpec{{Name: "a", Classes: []string{"x/Y"}}}, jerrors.KindNotFound},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromSpecs(tt.specs, classes)
			if !errors.Is(err, &jerrors.Error{Phase: jerrors.PhaseLoader, Kind: tt.kind}) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}
