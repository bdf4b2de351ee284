// Package decl holds the descriptors users write to describe a foreign class:
// its name, parent, fields, methods with overloads, constructors and static
// members.
//
// Descriptors are immutable values built once, typically as package-level
// variables:
//
//	var Widget = decl.NewClass("com/example/Widget",
//		decl.WithConstructors(decl.NewConstructor(), decl.NewConstructor(jtype.Int)),
//		decl.WithMethods(
//			decl.NewMethod("resize",
//				decl.Returns(jtype.Void, jtype.Int),
//				decl.Returns(jtype.Void, jtype.Float, jtype.Float)),
//			decl.NewMethod("withName", decl.Returns(jtype.Self, jtype.String)),
//		),
//		decl.WithFields(decl.NewField("id", jtype.Long)),
//	)
//
// Identity is structural: two descriptors with the same name and member
// shapes are Equal regardless of where they were allocated.
package decl

import (
	"strconv"
	"strings"

	"github.com/wippyai/jni-bind/jtype"
	"github.com/wippyai/jni-bind/sig"
)

// Class describes one foreign class.
type Class struct {
	Parent       *Class
	Static       *Static
	Name         string
	Fields       []Field
	Methods      []Method
	Constructors []Constructor
}

// Static holds the static members of a class.
type Static struct {
	Fields  []Field
	Methods []Method
}

// Field is a named field of a declared type.
type Field struct {
	Name string
	Type jtype.Type
}

// Method is a named set of overloads.
type Method struct {
	Name      string
	Overloads []Overload
}

// Overload is one callable shape of a method.
type Overload struct {
	Return jtype.Type
	Params []jtype.Type
}

// Constructor is one constructor shape.
type Constructor struct {
	Params []jtype.Type
}

// Option configures a Class under construction.
type Option func(*Class)

// NewClass creates a class descriptor.
func NewClass(name string, opts ...Option) *Class {
	c := &Class{Name: name}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Extends sets the parent class.
func Extends(parent *Class) Option {
	return func(c *Class) { c.Parent = parent }
}

// WithFields appends instance fields.
func WithFields(fields ...Field) Option {
	return func(c *Class) { c.Fields = append(c.Fields, fields...) }
}

// WithMethods appends instance methods.
func WithMethods(methods ...Method) Option {
	return func(c *Class) { c.Methods = append(c.Methods, methods...) }
}

// WithConstructors appends constructors.
func WithConstructors(ctors ...Constructor) Option {
	return func(c *Class) { c.Constructors = append(c.Constructors, ctors...) }
}

// WithStatic sets the static members.
func WithStatic(fields []Field, methods []Method) Option {
	return func(c *Class) { c.Static = &Static{Fields: fields, Methods: methods} }
}

// NewField creates a field descriptor.
func NewField(name string, t jtype.Type) Field {
	return Field{Name: name, Type: t}
}

// NewMethod creates a method with one or more overloads.
func NewMethod(name string, overloads ...Overload) Method {
	return Method{Name: name, Overloads: overloads}
}

// Returns creates an overload with the given return and parameters.
func Returns(ret jtype.Type, params ...jtype.Type) Overload {
	return Overload{Return: ret, Params: params}
}

// NewConstructor creates a constructor descriptor.
func NewConstructor(params ...jtype.Type) Constructor {
	return Constructor{Params: params}
}

// Signature encodes the overload with Self resolved against class.
func (o Overload) Signature(class string) string {
	return sig.EncodeOverload(o.Return, o.Params, class)
}

// Resolve returns a copy with Self replaced by class.
func (o Overload) Resolve(class string) Overload {
	out := Overload{Return: o.Return.ResolveSelf(class)}
	if len(o.Params) > 0 {
		out.Params = make([]jtype.Type, len(o.Params))
		for i, p := range o.Params {
			out.Params[i] = p.ResolveSelf(class)
		}
	}
	return out
}

// Signature encodes the constructor with Self resolved against class.
func (c Constructor) Signature(class string) string {
	return sig.EncodeConstructor(c.Params, class)
}

// Overload views the constructor as a void-returning overload.
func (c Constructor) Overload() Overload {
	return Overload{Return: jtype.Void, Params: c.Params}
}

// Signature encodes the field type.
func (f Field) Signature(class string) string {
	return sig.Encode(f.Type, class)
}

// Field returns the first instance field named name, searching parents.
func (c *Class) Field(name string) (Field, *Class, bool) {
	for _, cls := range c.Lineage() {
		for _, f := range cls.Fields {
			if f.Name == name {
				return f, cls, true
			}
		}
	}
	return Field{}, nil, false
}

// Method returns the first instance method named name, searching parents.
// The returned class is the one that declared the method.
func (c *Class) Method(name string) (Method, *Class, bool) {
	for _, cls := range c.Lineage() {
		for _, m := range cls.Methods {
			if m.Name == name {
				return m, cls, true
			}
		}
	}
	return Method{}, nil, false
}

// StaticField returns the first static field named name on c.
func (c *Class) StaticField(name string) (Field, bool) {
	if c.Static == nil {
		return Field{}, false
	}
	for _, f := range c.Static.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// StaticMethod returns the first static method named name on c.
func (c *Class) StaticMethod(name string) (Method, bool) {
	if c.Static == nil {
		return Method{}, false
	}
	for _, m := range c.Static.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

// Ancestors returns the parent chain, nearest first.
func (c *Class) Ancestors() []*Class {
	var out []*Class
	seen := map[*Class]bool{c: true}
	for p := c.Parent; p != nil && !seen[p]; p = p.Parent {
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Lineage returns c followed by its ancestors. A parent cycle ends the
// chain at the first repeated class.
func (c *Class) Lineage() []*Class {
	return append([]*Class{c}, c.Ancestors()...)
}

// Distance returns how many parent links separate c from the class named
// name, or -1 when name is not c or one of its declared ancestors.
func (c *Class) Distance(name string) int {
	if c.Name == name {
		return 0
	}
	for i, a := range c.Ancestors() {
		if a.Name == name {
			return i + 1
		}
	}
	return -1
}

// IsSubclassOf reports whether c is name or declares name as an ancestor.
func (c *Class) IsSubclassOf(name string) bool {
	return c.Distance(name) >= 0
}

// Equal reports structural identity.
func (c *Class) Equal(other *Class) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	return c.Key() == other.Key()
}

// Key is a canonical structural encoding of the descriptor.
func (c *Class) Key() string {
	var b strings.Builder
	c.writeKey(&b)
	return b.String()
}

func (c *Class) writeKey(b *strings.Builder) {
	b.WriteString(c.Name)
	if c.Parent != nil {
		b.WriteString(" extends ")
		b.WriteString(c.Parent.Name)
	}
	b.WriteString(" {")
	writeMembers(b, c.Name, c.Fields, c.Methods)
	for _, ctor := range c.Constructors {
		b.WriteString(" ")
		b.WriteString(sig.ConstructorName)
		b.WriteString(ctor.Signature(c.Name))
		b.WriteString(";")
	}
	if c.Static != nil {
		b.WriteString(" static {")
		writeMembers(b, c.Name, c.Static.Fields, c.Static.Methods)
		b.WriteString(" }")
	}
	b.WriteString(" }")
}

func writeMembers(b *strings.Builder, class string, fields []Field, methods []Method) {
	for _, f := range fields {
		b.WriteString(" ")
		b.WriteString(f.Name)
		b.WriteString(":")
		b.WriteString(f.Signature(class))
		b.WriteString(";")
	}
	for _, m := range methods {
		for i, o := range m.Overloads {
			b.WriteString(" ")
			b.WriteString(m.Name)
			b.WriteString("#")
			b.WriteString(strconv.Itoa(i))
			b.WriteString(o.Signature(class))
			b.WriteString(";")
		}
	}
}
