package fakevm

import (
	"github.com/wippyai/jni-bind/decl"
	"github.com/wippyai/jni-bind/sig"
)

// DefineDeclared defines cls and any undefined ancestors with every
// declared member present. Members have no body: calls return zero values
// or null. loader is applied to cls only.
func (vm *VM) DefineDeclared(cls *decl.Class, loader string) error {
	if p := cls.Parent; p != nil && !vm.Defined(p.Name) {
		if err := vm.DefineDeclared(p, ""); err != nil {
			return err
		}
	}

	def := ClassDef{
		Name:   cls.Name,
		Loader: loader,
		Fields: fieldSigs(cls.Name, cls.Fields),
	}
	if cls.Parent != nil {
		def.Super = cls.Parent.Name
	}
	def.Methods = methodStubs(cls.Name, cls.Methods)
	if len(cls.Constructors) > 0 {
		def.Constructors = make(map[string]Method, len(cls.Constructors))
		for _, c := range cls.Constructors {
			def.Constructors[c.Signature(cls.Name)] = nil
		}
	}
	if st := cls.Static; st != nil {
		def.StaticFields = fieldSigs(cls.Name, st.Fields)
		def.StaticMethods = methodStubs(cls.Name, st.Methods)
	}
	return vm.DefineClass(def)
}

// Defined reports whether a class named name exists.
func (vm *VM) Defined(name string) bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	_, ok := vm.classes[name]
	return ok
}

func fieldSigs(class string, fields []decl.Field) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f.Name] = sig.Encode(f.Type, class)
	}
	return out
}

func methodStubs(class string, methods []decl.Method) map[string]Method {
	out := make(map[string]Method)
	for _, m := range methods {
		for _, o := range m.Overloads {
			out[m.Name+o.Signature(class)] = nil
		}
	}
	return out
}
