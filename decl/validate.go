package decl

import (
	"fmt"

	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/jtype"
	"github.com/wippyai/jni-bind/sig"
)

// Validate rejects descriptors the runtime could never resolve: malformed
// class names, void or object-without-class types, arrays of void, ranks
// beyond the runtime limit, parent cycles and duplicate overload shapes.
func (c *Class) Validate() error {
	if err := sig.ValidateClassName(c.Name); err != nil {
		return err
	}

	seen := map[*Class]bool{c: true}
	for p := c.Parent; p != nil; p = p.Parent {
		if seen[p] {
			return errors.InvalidDeclaration([]string{c.Name}, "parent cycle through "+p.Name)
		}
		seen[p] = true
		if err := sig.ValidateClassName(p.Name); err != nil {
			return err
		}
	}

	if err := validateMembers(c.Name, c.Fields, c.Methods); err != nil {
		return err
	}
	if c.Static != nil {
		if err := validateMembers(c.Name, c.Static.Fields, c.Static.Methods); err != nil {
			return err
		}
	}

	ctorShapes := make(map[string]bool, len(c.Constructors))
	for i, ctor := range c.Constructors {
		path := []string{c.Name, sig.ConstructorName + "#" + fmt.Sprint(i)}
		for j, p := range ctor.Params {
			if err := validateType(path, p, fmt.Sprintf("param %d", j), false); err != nil {
				return err
			}
		}
		s := ctor.Signature(c.Name)
		if ctorShapes[s] {
			return errors.InvalidDeclaration(path, "duplicate constructor "+s)
		}
		ctorShapes[s] = true
	}
	return nil
}

func validateMembers(class string, fields []Field, methods []Method) error {
	for _, f := range fields {
		path := []string{class, f.Name}
		if f.Name == "" {
			return errors.InvalidDeclaration([]string{class}, "field with empty name")
		}
		if err := validateType(path, f.Type, "field type", false); err != nil {
			return err
		}
	}

	for _, m := range methods {
		path := []string{class, m.Name}
		if m.Name == "" || m.Name == sig.ConstructorName {
			return errors.InvalidDeclaration([]string{class}, fmt.Sprintf("invalid method name %q", m.Name))
		}
		if len(m.Overloads) == 0 {
			return errors.InvalidDeclaration(path, "method without overloads")
		}
		shapes := make(map[string]bool, len(m.Overloads))
		for i, o := range m.Overloads {
			if err := validateType(path, o.Return, fmt.Sprintf("overload %d return", i), true); err != nil {
				return err
			}
			for j, p := range o.Params {
				if err := validateType(path, p, fmt.Sprintf("overload %d param %d", i, j), false); err != nil {
					return err
				}
			}
			// Overloads differing only by return can never be told apart at a call site.
			params := sig.EncodeOverload(jtype.Void, o.Params, class)
			if shapes[params] {
				return errors.InvalidDeclaration(path, "duplicate overload parameters "+params)
			}
			shapes[params] = true
		}
	}
	return nil
}

func validateType(path []string, t jtype.Type, what string, allowVoid bool) error {
	switch {
	case t.Rank < 0 || t.Rank > jtype.MaxRank:
		return errors.InvalidDeclaration(path, fmt.Sprintf("%s: rank %d out of range", what, t.Rank))
	case t.Kind == jtype.KindVoid && t.Rank > 0:
		return errors.InvalidDeclaration(path, what+": array of void")
	case t.Kind == jtype.KindVoid && !allowVoid:
		return errors.InvalidDeclaration(path, what+": void")
	case t.Kind == jtype.KindObject:
		if t.Class == "" {
			return errors.InvalidDeclaration(path, what+": object without class")
		}
		if err := sig.ValidateClassName(t.Class); err != nil {
			return errors.New(errors.PhaseDeclare, errors.KindMalformedName).
				Path(path...).
				Cause(err).
				Detail("%s", what).
				Build()
		}
	case t.Kind > jtype.KindSelf:
		return errors.InvalidDeclaration(path, what+": unknown kind")
	}
	return nil
}
