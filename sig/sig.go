// Package sig encodes declared member types into the wire signatures the
// managed runtime uses to locate classes, methods and fields, and decodes
// them back.
//
// Encoding is pure and total over validated inputs: primitive kinds map to a
// single character, objects map to L<slash/name>; and each unit of rank
// prepends '['.
//
//	sig.EncodeType(jtype.KindInt, 1, "")                 // "[I"
//	sig.EncodeType(jtype.KindObject, 0, "com/x/Y")       // "Lcom/x/Y;"
//	sig.EncodeOverload(jtype.Void, []jtype.Type{jtype.Int, jtype.String}, "")
//	// "(ILjava/lang/String;)V"
package sig

import (
	"strings"

	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/jtype"
)

const (
	// ConstructorName is the member name of every constructor.
	ConstructorName = "<init>"

	// ConstructorReturn is the return encoding of every constructor.
	ConstructorReturn = "V"

	arrayMarker = '['
)

var primitiveCodes = [...]byte{
	jtype.KindVoid:    'V',
	jtype.KindBoolean: 'Z',
	jtype.KindByte:    'B',
	jtype.KindChar:    'C',
	jtype.KindShort:   'S',
	jtype.KindInt:     'I',
	jtype.KindLong:    'J',
	jtype.KindFloat:   'F',
	jtype.KindDouble:  'D',
}

// Code returns the one-character encoding of a primitive or void kind.
func Code(k jtype.Kind) (byte, bool) {
	if int(k) < len(primitiveCodes) {
		return primitiveCodes[k], true
	}
	return 0, false
}

// EncodeType encodes an element kind at the given rank. className is the
// element class for object kinds and the declaring class for Self; it is
// ignored for primitives and strings.
func EncodeType(kind jtype.Kind, rank int, className string) string {
	var b strings.Builder
	writeType(&b, kind, rank, className)
	return b.String()
}

// Encode encodes t, resolving Self against self.
func Encode(t jtype.Type, self string) string {
	class := t.Class
	if t.Kind == jtype.KindSelf {
		class = self
	}
	return EncodeType(t.Kind, t.Rank, class)
}

// EncodeOverload encodes a method shape as "(" params ")" return.
func EncodeOverload(ret jtype.Type, params []jtype.Type, self string) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range params {
		class := p.Class
		if p.Kind == jtype.KindSelf {
			class = self
		}
		writeType(&b, p.Kind, p.Rank, class)
	}
	b.WriteByte(')')
	class := ret.Class
	if ret.Kind == jtype.KindSelf {
		class = self
	}
	writeType(&b, ret.Kind, ret.Rank, class)
	return b.String()
}

// EncodeConstructor encodes a constructor; the return is always void.
func EncodeConstructor(params []jtype.Type, self string) string {
	return EncodeOverload(jtype.Void, params, self)
}

func writeType(b *strings.Builder, kind jtype.Kind, rank int, className string) {
	for i := 0; i < rank; i++ {
		b.WriteByte(arrayMarker)
	}
	switch kind {
	case jtype.KindObject, jtype.KindSelf:
		b.WriteByte('L')
		b.WriteString(className)
		b.WriteByte(';')
	case jtype.KindString:
		b.WriteByte('L')
		b.WriteString(jtype.StringClass)
		b.WriteByte(';')
	default:
		c, _ := Code(kind)
		b.WriteByte(c)
	}
}

// ValidateClassName checks that name is a slash-delimited binary class name.
func ValidateClassName(name string) error {
	switch {
	case name == "":
		return errors.MalformedName(name, "empty")
	case strings.ContainsRune(name, '.'):
		return errors.MalformedName(name, "use '/' separators, not '.'")
	case strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/"):
		return errors.MalformedName(name, "leading or trailing '/'")
	case strings.Contains(name, "//"):
		return errors.MalformedName(name, "empty package segment")
	case strings.ContainsAny(name, ";[()<> \t\n"):
		return errors.MalformedName(name, "contains a reserved character")
	}
	return nil
}

// ToBinaryName converts a slash-delimited name to the dotted form that
// ClassLoader.loadClass expects.
func ToBinaryName(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}
