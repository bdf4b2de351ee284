// Package loader models class loader hierarchies and which loader vends a
// given class.
//
// Three kinds of loader exist. The default loader supports every class
// implicitly, the null loader supports none, and a custom loader supports an
// explicit allow-list and may have a single parent:
//
//	plugins := loader.NewCustom("plugins", loader.Default(), Widget, Gadget)
//	rt := loader.NewRuntime(plugins)
//	l := rt.LoaderFor(Widget) // plugins
//
// Vending checks the loader itself first and then its ancestors, nearest
// first. The topology is fixed once built; loaders are safe for concurrent
// use.
package loader

import (
	"github.com/wippyai/jni-bind/decl"
	"github.com/wippyai/jni-bind/errors"
)

// Kind identifies the loader variant.
type Kind uint8

const (
	KindDefault Kind = iota
	KindNull
	KindCustom
)

var kindNames = [...]string{
	KindDefault: "default",
	KindNull:    "null",
	KindCustom:  "custom",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Loader is one node of a class loader hierarchy.
type Loader struct {
	parent  *Loader
	name    string
	classes []*decl.Class
	kind    Kind
}

var (
	defaultLoader = &Loader{name: "default", kind: KindDefault}
	nullLoader    = &Loader{name: "null", kind: KindNull}
)

// Default returns the loader that supports every class.
func Default() *Loader { return defaultLoader }

// Null returns the loader that supports no class.
func Null() *Loader { return nullLoader }

// NewCustom creates a custom loader that supports classes. parent may be nil.
func NewCustom(name string, parent *Loader, classes ...*decl.Class) *Loader {
	return &Loader{
		name:    name,
		kind:    KindCustom,
		parent:  parent,
		classes: append([]*decl.Class(nil), classes...),
	}
}

// Name returns the loader name.
func (l *Loader) Name() string { return l.name }

// Kind returns the loader variant.
func (l *Loader) Kind() Kind { return l.kind }

// Parent returns the parent loader, or nil.
func (l *Loader) Parent() *Loader { return l.parent }

// Classes returns the allow-list of a custom loader.
func (l *Loader) Classes() []*decl.Class { return l.classes }

// IsDefault reports whether l is the default loader.
func (l *Loader) IsDefault() bool { return l == nil || l.kind == KindDefault }

// Path returns the loader names from the root ancestor down to l, like
// "default/plugins/extensions".
func (l *Loader) Path() string {
	if l.parent == nil {
		return l.name
	}
	return l.parent.Path() + "/" + l.name
}

// Supports reports whether l itself can load cls, ignoring ancestors.
func (l *Loader) Supports(cls *decl.Class) bool {
	switch l.kind {
	case KindDefault:
		return true
	case KindNull:
		return false
	}
	for _, c := range l.classes {
		if c == cls || c.Equal(cls) {
			return true
		}
	}
	return false
}

// SupportsName reports whether l itself can load the class named name.
func (l *Loader) SupportsName(name string) bool {
	switch l.kind {
	case KindDefault:
		return true
	case KindNull:
		return false
	}
	for _, c := range l.classes {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Ancestors returns the parents of l, nearest first.
func (l *Loader) Ancestors() []*Loader {
	var out []*Loader
	for p := l.parent; p != nil; p = p.parent {
		out = append(out, p)
	}
	return out
}

// Vendor returns the loader that vends cls: l if it supports cls, otherwise
// the nearest ancestor that does. The null loader vends nothing.
func (l *Loader) Vendor(cls *decl.Class) (*Loader, bool) {
	if l.kind == KindNull {
		return nil, false
	}
	for cur := l; cur != nil; cur = cur.parent {
		if cur.Supports(cls) {
			return cur, true
		}
	}
	return nil, false
}

func (l *Loader) String() string {
	if l.kind == KindCustom {
		return l.kind.String() + ":" + l.Path()
	}
	return l.name
}

// Runtime is the ordered set of loaders known to a process.
type Runtime struct {
	loaders []*Loader
}

// NewRuntime creates a runtime with the default loader first, followed by
// loaders in order.
func NewRuntime(loaders ...*Loader) *Runtime {
	rt := &Runtime{loaders: []*Loader{defaultLoader}}
	for _, l := range loaders {
		if l != nil && l != defaultLoader {
			rt.loaders = append(rt.loaders, l)
		}
	}
	return rt
}

// Loaders returns every loader, default first.
func (rt *Runtime) Loaders() []*Loader { return rt.loaders }

// IndexOf returns the position of l by identity, or -1.
func (rt *Runtime) IndexOf(l *Loader) int {
	for i, c := range rt.loaders {
		if c == l {
			return i
		}
	}
	return -1
}

// Named returns the loader called name.
func (rt *Runtime) Named(name string) (*Loader, bool) {
	for _, l := range rt.loaders {
		if l.name == name {
			return l, true
		}
	}
	return nil, false
}

// LoaderFor returns the most specific loader vending cls: the first custom
// loader listing it, or the default loader.
func (rt *Runtime) LoaderFor(cls *decl.Class) *Loader {
	for _, l := range rt.loaders[1:] {
		if l.kind == KindCustom && l.Supports(cls) {
			return l
		}
	}
	return defaultLoader
}

// FromSpecs builds a runtime from declared loader specs. Parents are named by
// "default", "null", another declared loader, or left empty for no parent, and may be
// declared in any order.
func FromSpecs(specs []decl.LoaderSpec, classes []*decl.Class) (*Runtime, error) {
	byClass := make(map[string]*decl.Class, len(classes))
	for _, c := range classes {
		byClass[c.Name] = c
	}
	bySpec := make(map[string]decl.LoaderSpec, len(specs))
	for _, s := range specs {
		if s.Name == "" || s.Name == "default" || s.Name == "null" {
			return nil, errors.InvalidInput(errors.PhaseLoader, "reserved or empty loader name \""+s.Name+"\"")
		}
		if _, dup := bySpec[s.Name]; dup {
			return nil, errors.InvalidInput(errors.PhaseLoader, "loader "+s.Name+" declared twice")
		}
		bySpec[s.Name] = s
	}

	built := make(map[string]*Loader, len(specs))
	var build func(name string, seen []string) (*Loader, error)
	build = func(name string, seen []string) (*Loader, error) {
		switch name {
		case "":
			return nil, nil
		case "default":
			return defaultLoader, nil
		case "null":
			return nullLoader, nil
		}
		if l, ok := built[name]; ok {
			return l, nil
		}
		for _, s := range seen {
			if s == name {
				return nil, errors.New(errors.PhaseLoader, errors.KindInvalidInput).
					Path(append(seen, name)...).Detail("loader hierarchy has a cycle").Build()
			}
		}
		s, ok := bySpec[name]
		if !ok {
			return nil, errors.NotFound(errors.PhaseLoader, "loader", name)
		}
		parent, err := build(s.Parent, append(seen, name))
		if err != nil {
			return nil, err
		}
		cls := make([]*decl.Class, 0, len(s.Classes))
		for _, n := range s.Classes {
			c, ok := byClass[n]
			if !ok {
				return nil, errors.NotFound(errors.PhaseLoader, "class", n)
			}
			cls = append(cls, c)
		}
		l := NewCustom(name, parent, cls...)
		built[name] = l
		return l, nil
	}

	out := make([]*Loader, 0, len(specs))
	for _, s := range specs {
		l, err := build(s.Name, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return NewRuntime(out...), nil
}
