// Package jtype describes the types a declared member can carry and the
// correspondence between element kinds and their array storage.
//
// A Type is an element kind plus an array rank. Object types also carry a
// slash-delimited class name; Self is a placeholder resolved against the
// declaring class.
//
//	jtype.Int            // int
//	jtype.Int.Array(1)   // int[]
//	jtype.Object("com/example/Widget").Array(2)
package jtype

import "strings"

// Kind is the element kind of a declared type.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBoolean
	KindByte
	KindChar
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindObject
	KindString
	KindSelf
)

// MaxRank is the deepest array nesting the runtime accepts.
const MaxRank = 255

// StringClass is the class backing KindString.
const StringClass = "java/lang/String"

// ObjectClass is the root of every class hierarchy.
const ObjectClass = "java/lang/Object"

// Well-known classes the binding layer calls into.
const (
	ClassClass       = "java/lang/Class"
	ClassLoaderClass = "java/lang/ClassLoader"
	ThrowableClass   = "java/lang/Throwable"
)

var kindNames = [...]string{
	KindVoid:    "void",
	KindBoolean: "boolean",
	KindByte:    "byte",
	KindChar:    "char",
	KindShort:   "short",
	KindInt:     "int",
	KindLong:    "long",
	KindFloat:   "float",
	KindDouble:  "double",
	KindObject:  "object",
	KindString:  "string",
	KindSelf:    "self",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(?)"
}

// IsPrimitive reports whether k is one of the eight scalar kinds.
func (k Kind) IsPrimitive() bool {
	return k >= KindBoolean && k <= KindDouble
}

// IsReference reports whether values of kind k are object handles.
func (k Kind) IsReference() bool {
	return k == KindObject || k == KindString || k == KindSelf
}

// Type is an element kind with an array rank.
type Type struct {
	Class string
	Rank  int
	Kind  Kind
}

var (
	Void    = Type{Kind: KindVoid}
	Boolean = Type{Kind: KindBoolean}
	Byte    = Type{Kind: KindByte}
	Char    = Type{Kind: KindChar}
	Short   = Type{Kind: KindShort}
	Int     = Type{Kind: KindInt}
	Long    = Type{Kind: KindLong}
	Float   = Type{Kind: KindFloat}
	Double  = Type{Kind: KindDouble}
	String  = Type{Kind: KindString}
	Self    = Type{Kind: KindSelf}
)

// Object returns the scalar object type of class name.
func Object(class string) Type {
	return Type{Kind: KindObject, Class: class}
}

// Array returns t nested n more levels deep.
func (t Type) Array(n int) Type {
	t.Rank += n
	return t
}

// Elem returns the component type of an array type. Scalars return themselves.
func (t Type) Elem() Type {
	if t.Rank > 0 {
		t.Rank--
	}
	return t
}

// Scalar returns the element type with rank zero.
func (t Type) Scalar() Type {
	t.Rank = 0
	return t
}

// IsVoid reports whether t is the void return type.
func (t Type) IsVoid() bool {
	return t.Kind == KindVoid && t.Rank == 0
}

// IsPrimitive reports whether t is a scalar primitive value.
func (t Type) IsPrimitive() bool {
	return t.Rank == 0 && t.Kind.IsPrimitive()
}

// IsReference reports whether t is carried as an object handle.
func (t Type) IsReference() bool {
	return t.Rank > 0 || t.Kind.IsReference()
}

// IsArray reports whether t has rank one or more.
func (t Type) IsArray() bool {
	return t.Rank > 0
}

// ClassName returns the class of the element for reference kinds.
// String maps to java/lang/String; primitive kinds return "".
func (t Type) ClassName() string {
	switch t.Kind {
	case KindString:
		return StringClass
	case KindObject, KindSelf:
		return t.Class
	}
	return ""
}

// ResolveSelf substitutes class for a Self element kind.
func (t Type) ResolveSelf(class string) Type {
	if t.Kind == KindSelf {
		t.Kind = KindObject
		t.Class = class
	}
	return t
}

// Storage returns how values of t are represented at the boundary.
func (t Type) Storage() Storage {
	return StorageFor(t.Kind, t.Rank)
}

func (t Type) String() string {
	var b strings.Builder
	switch t.Kind {
	case KindObject:
		b.WriteString(t.Class)
	case KindSelf:
		if t.Class != "" {
			b.WriteString(t.Class)
		} else {
			b.WriteString("self")
		}
	default:
		b.WriteString(t.Kind.String())
	}
	for i := 0; i < t.Rank; i++ {
		b.WriteString("[]")
	}
	return b.String()
}
