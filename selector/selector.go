// Package selector chooses the overload a call site binds to.
//
// Selection takes a declared class, a member name and the Go values supplied
// at the call site. An overload is viable when its arity matches and every
// argument is acceptable for its parameter. When several overloads are
// viable the most specific one wins: each argument is scored (exact match 0,
// conversion 1, subclass by inheritance distance, widening to
// java/lang/Object 2) and the winner must be no worse than every other
// viable overload on each argument and strictly better on at least one.
// No viable overload is an invalid argument set; no unique winner is an
// ambiguity. Both are reported in phase select.
//
// Accepted Go values:
//
//	bool                        boolean
//	int8, uint8                 byte
//	uint16                      char
//	int16                       short
//	int32, int                  int
//	int64                       long
//	float32, float64            float, double
//	string                      java/lang/String
//	[]E for a pinnable E        rank-1 primitive array of E
//	[]string                    java/lang/String[]
//	Typed (ref.Local, ...)      a reference of its declared type
//	nil                         any reference type
package selector

import (
	"fmt"

	"github.com/wippyai/jni-bind/decl"
	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/jtype"
	"github.com/wippyai/jni-bind/sig"
)

// Typed is a reference argument that knows its declared type.
type Typed interface {
	JavaType() jtype.Type
	Descriptor() *decl.Class
}

// Selection is a chosen overload.
type Selection struct {
	// Class declared the member.
	Class     *decl.Class
	Name      string
	Signature string
	// Overload has Self resolved against Class.
	Overload decl.Overload
	Index    int
	Static   bool
}

// Costs of accepting an argument for a parameter.
const (
	CostExact   = 0
	CostConvert = 1
	CostWiden   = 2
)

// Select picks the overload of method name that args bind to.
func Select(cls *decl.Class, name string, static bool, args []any) (Selection, error) {
	m, owner, err := lookup(cls, name, static)
	if err != nil {
		return Selection{}, err
	}

	idx, err := choose(owner.Name, name, m.Overloads, args)
	if err != nil {
		return Selection{}, err
	}
	return selection(owner, name, static, idx, m.Overloads[idx]), nil
}

// At returns the selection for a pre-chosen overload index, as emitted by
// the code generator.
func At(cls *decl.Class, name string, static bool, index int) (Selection, error) {
	m, owner, err := lookup(cls, name, static)
	if err != nil {
		return Selection{}, err
	}
	if index < 0 || index >= len(m.Overloads) {
		return Selection{}, errors.OutOfBounds(errors.PhaseSelect, []string{owner.Name, name}, index, len(m.Overloads))
	}
	return selection(owner, name, static, index, m.Overloads[index]), nil
}

// SelectConstructor picks the constructor args bind to.
func SelectConstructor(cls *decl.Class, args []any) (Selection, error) {
	if len(cls.Constructors) == 0 {
		return Selection{}, errors.NotFound(errors.PhaseSelect, "constructor of", cls.Name)
	}
	overloads := make([]decl.Overload, len(cls.Constructors))
	for i, c := range cls.Constructors {
		overloads[i] = c.Overload()
	}

	idx, err := choose(cls.Name, sig.ConstructorName, overloads, args)
	if err != nil {
		return Selection{}, err
	}
	return selection(cls, sig.ConstructorName, false, idx, overloads[idx]), nil
}

// ConstructorAt returns the selection for a pre-chosen constructor index.
func ConstructorAt(cls *decl.Class, index int) (Selection, error) {
	if index < 0 || index >= len(cls.Constructors) {
		return Selection{}, errors.OutOfBounds(errors.PhaseSelect, []string{cls.Name, sig.ConstructorName}, index, len(cls.Constructors))
	}
	return selection(cls, sig.ConstructorName, false, index, cls.Constructors[index].Overload()), nil
}

func lookup(cls *decl.Class, name string, static bool) (decl.Method, *decl.Class, error) {
	if static {
		if m, ok := cls.StaticMethod(name); ok {
			return m, cls, nil
		}
		return decl.Method{}, nil, errors.NotFound(errors.PhaseSelect, "static method", cls.Name+"."+name)
	}
	if m, owner, ok := cls.Method(name); ok {
		return m, owner, nil
	}
	return decl.Method{}, nil, errors.NotFound(errors.PhaseSelect, "method", cls.Name+"."+name)
}

func selection(owner *decl.Class, name string, static bool, idx int, o decl.Overload) Selection {
	return Selection{
		Class:     owner,
		Name:      name,
		Index:     idx,
		Overload:  o.Resolve(owner.Name),
		Signature: o.Signature(owner.Name),
		Static:    static,
	}
}

func choose(class, member string, overloads []decl.Overload, args []any) (int, error) {
	type candidate struct {
		costs []int
		index int
	}

	var viable []candidate
	for i, o := range overloads {
		if len(o.Params) != len(args) {
			continue
		}
		costs := make([]int, len(args))
		ok := true
		for j, p := range o.Params {
			c, match := Match(p.ResolveSelf(class), args[j])
			if !match {
				ok = false
				break
			}
			costs[j] = c
		}
		if ok {
			viable = append(viable, candidate{index: i, costs: costs})
		}
	}

	switch len(viable) {
	case 0:
		return -1, errors.InvalidArguments(class, member, goTypes(args))
	case 1:
		return viable[0].index, nil
	}

	for _, c := range viable {
		best := true
		for _, other := range viable {
			if other.index != c.index && !moreSpecific(c.costs, other.costs) {
				best = false
				break
			}
		}
		if best {
			return c.index, nil
		}
	}

	sigs := make([]string, len(viable))
	for i, c := range viable {
		sigs[i] = overloads[c.index].Signature(class)
	}
	return -1, errors.Ambiguous(class, member, sigs)
}

// moreSpecific reports whether a is no worse than b everywhere and better
// somewhere.
func moreSpecific(a, b []int) bool {
	better := false
	for i := range a {
		if a[i] > b[i] {
			return false
		}
		if a[i] < b[i] {
			better = true
		}
	}
	return better
}

// Match reports whether arg is acceptable for param and at what cost.
// param must already have Self resolved.
func Match(param jtype.Type, arg any) (int, bool) {
	if arg == nil {
		return matchNull(param)
	}

	switch v := arg.(type) {
	case Typed:
		return matchTyped(param, v)
	case string:
		return matchReference(param, jtype.String, nil)
	case []string:
		return matchReference(param, jtype.String.Array(1), nil)
	}

	if k, exact, ok := scalarKind(arg); ok {
		if !param.IsPrimitive() || param.Kind != k {
			return 0, false
		}
		if exact {
			return CostExact, true
		}
		return CostConvert, true
	}
	if k, ok := sliceKind(arg); ok {
		if param.Rank == 1 && param.Kind == k {
			return CostExact, true
		}
		if param.Rank == 0 && param.ClassName() == jtype.ObjectClass {
			return CostWiden, true
		}
	}
	return 0, false
}

func matchTyped(param jtype.Type, v Typed) (int, bool) {
	t := v.JavaType()
	if t == (jtype.Type{}) {
		// nil wrapper
		return matchNull(param)
	}
	return matchReference(param, t, v.Descriptor())
}

// matchNull scores a null argument. Null prefers any specific reference
// type over java/lang/Object, as a subclass argument would.
func matchNull(param jtype.Type) (int, bool) {
	if !param.IsReference() {
		return 0, false
	}
	if param.Rank == 0 && param.ClassName() == jtype.ObjectClass {
		return CostWiden, true
	}
	return CostConvert, true
}

func matchReference(param, arg jtype.Type, desc *decl.Class) (int, bool) {
	if !param.IsReference() || !arg.IsReference() {
		return 0, false
	}
	if param.Rank == 0 && param.ClassName() == jtype.ObjectClass {
		if arg.Rank == 0 && arg.ClassName() == jtype.ObjectClass {
			return CostExact, true
		}
		return CostWiden, true
	}
	if param.Rank != arg.Rank {
		return 0, false
	}
	if param.Kind.IsPrimitive() || arg.Kind.IsPrimitive() {
		return CostExact, param.Kind == arg.Kind
	}

	pc, ac := param.ClassName(), arg.ClassName()
	switch {
	case pc == ac:
		return CostExact, true
	case desc != nil:
		if d := desc.Distance(pc); d > 0 {
			return d, true
		}
	}
	if pc == jtype.ObjectClass {
		return CostWiden, true
	}
	return 0, false
}

// scalarKind maps a Go scalar to its kind; exact is false for conversions.
func scalarKind(arg any) (k jtype.Kind, exact, ok bool) {
	switch arg.(type) {
	case bool:
		return jtype.KindBoolean, true, true
	case int8:
		return jtype.KindByte, true, true
	case uint8:
		return jtype.KindByte, false, true
	case uint16:
		return jtype.KindChar, true, true
	case int16:
		return jtype.KindShort, true, true
	case int32:
		return jtype.KindInt, true, true
	case int:
		return jtype.KindInt, false, true
	case int64:
		return jtype.KindLong, true, true
	case float32:
		return jtype.KindFloat, true, true
	case float64:
		return jtype.KindDouble, true, true
	}
	return 0, false, false
}

func sliceKind(arg any) (jtype.Kind, bool) {
	switch arg.(type) {
	case []bool:
		return jtype.KindBoolean, true
	case []int8:
		return jtype.KindByte, true
	case []uint16:
		return jtype.KindChar, true
	case []int16:
		return jtype.KindShort, true
	case []int32:
		return jtype.KindInt, true
	case []int64:
		return jtype.KindLong, true
	case []float32:
		return jtype.KindFloat, true
	case []float64:
		return jtype.KindDouble, true
	}
	return 0, false
}

func goTypes(args []any) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if a == nil {
			out[i] = "nil"
			continue
		}
		if t, ok := a.(Typed); ok {
			out[i] = t.JavaType().String()
			continue
		}
		out[i] = fmt.Sprintf("%T", a)
	}
	return out
}
