package main

import (
	"strings"

	"github.com/wippyai/jni-bind/decl"
	"github.com/wippyai/jni-bind/jtype"
	"github.com/wippyai/jni-bind/sig"
)

type memberKind int

const (
	kindConstructor memberKind = iota
	kindStaticMethod
	kindStaticField
	kindMethod
	kindField
)

// member is one callable or readable entry of a declared class: a single
// overload, constructor or field.
type member struct {
	class  *decl.Class
	kind   memberKind
	name   string
	index  int
	params []jtype.Type
	result jtype.Type
}

func (m member) static() bool {
	return m.kind == kindStaticMethod || m.kind == kindStaticField
}

func (m member) isField() bool {
	return m.kind == kindField || m.kind == kindStaticField
}

// needsReceiver reports whether m is invoked on an instance.
func (m member) needsReceiver() bool {
	return m.kind == kindMethod || m.kind == kindField
}

// declaredMembers lists the members cls declares, without inherited ones,
// in declaration order: constructors, statics, then instance members.
func declaredMembers(cls *decl.Class) []member {
	var out []member
	for i, c := range cls.Constructors {
		out = append(out, member{
			class: cls, kind: kindConstructor, name: sig.ConstructorName,
			index: i, params: c.Params, result: jtype.Object(cls.Name),
		})
	}
	if st := cls.Static; st != nil {
		out = appendMethods(out, cls, st.Methods, kindStaticMethod)
		out = appendFields(out, cls, st.Fields, kindStaticField)
	}
	out = appendMethods(out, cls, cls.Methods, kindMethod)
	return appendFields(out, cls, cls.Fields, kindField)
}

// instanceMembers lists the instance methods and fields reachable on cls,
// nearest declaration first. A name declared by a subclass hides the same
// name further up.
func instanceMembers(cls *decl.Class) []member {
	var out []member
	methods := make(map[string]bool)
	fields := make(map[string]bool)
	for _, c := range cls.Lineage() {
		for _, m := range c.Methods {
			if methods[m.Name] {
				continue
			}
			methods[m.Name] = true
			out = appendMethods(out, c, []decl.Method{m}, kindMethod)
		}
		for _, f := range c.Fields {
			if fields[f.Name] {
				continue
			}
			fields[f.Name] = true
			out = appendFields(out, c, []decl.Field{f}, kindField)
		}
	}
	return out
}

func appendMethods(out []member, cls *decl.Class, methods []decl.Method, kind memberKind) []member {
	for _, m := range methods {
		for i, o := range m.Overloads {
			out = append(out, member{
				class: cls, kind: kind, name: m.Name,
				index: i, params: o.Params, result: o.Return.ResolveSelf(cls.Name),
			})
		}
	}
	return out
}

func appendFields(out []member, cls *decl.Class, fields []decl.Field, kind memberKind) []member {
	for _, f := range fields {
		out = append(out, member{
			class: cls, kind: kind, name: f.Name,
			result: f.Type.ResolveSelf(cls.Name),
		})
	}
	return out
}

// javaName renders t the way it is written in source.
func javaName(t jtype.Type) string {
	if t.Kind == jtype.KindString {
		return "String" + strings.Repeat("[]", t.Rank)
	}
	return sig.ToBinaryName(t.String())
}

// className is the binary name of an internal class name.
func className(name string) string {
	return sig.ToBinaryName(name)
}

// simpleName is the class name without its package.
func simpleName(class string) string {
	return class[strings.LastIndexByte(class, '/')+1:]
}

// paramList renders the parameter types, comma separated.
func (m member) paramList() string {
	names := make([]string, len(m.params))
	for i, p := range m.params {
		names[i] = javaName(p.ResolveSelf(m.class.Name))
	}
	return strings.Join(names, ", ")
}

// owner prefixes members with the simple name of their declaring class.
func (m member) owner() string {
	if m.kind == kindConstructor {
		return ""
	}
	return simpleName(m.class.Name) + ": "
}

// label is the name shown for m, without types.
func (m member) label() string {
	if m.kind == kindConstructor {
		return "new " + simpleName(m.class.Name)
	}
	return m.name
}

// describe renders m as a declaration line, for instance
// "static int twice(int)" or "long id".
func (m member) describe() string {
	var b strings.Builder
	if m.static() {
		b.WriteString("static ")
	}
	if m.kind != kindConstructor {
		b.WriteString(javaName(m.result))
		b.WriteByte(' ')
	}
	b.WriteString(m.label())
	if !m.isField() {
		b.WriteByte('(')
		b.WriteString(m.paramList())
		b.WriteByte(')')
	}
	return b.String()
}
