package ffi

import "github.com/wippyai/jni-bind/jtype"

// CallOp is one of the runtime's call primitives.
type CallOp uint8

const (
	CallVoidMethod CallOp = iota
	CallBooleanMethod
	CallByteMethod
	CallCharMethod
	CallShortMethod
	CallIntMethod
	CallLongMethod
	CallFloatMethod
	CallDoubleMethod
	CallObjectMethod
	CallStaticVoidMethod
	CallStaticBooleanMethod
	CallStaticByteMethod
	CallStaticCharMethod
	CallStaticShortMethod
	CallStaticIntMethod
	CallStaticLongMethod
	CallStaticFloatMethod
	CallStaticDoubleMethod
	CallStaticObjectMethod
)

const callKinds = 10

var callNames = [...]string{
	"Void", "Boolean", "Byte", "Char", "Short", "Int", "Long", "Float", "Double", "Object",
}

// CallOpFor returns the primitive for a result kind. Reference kinds map to
// the object primitive.
func CallOpFor(k jtype.Kind, static bool) CallOp {
	var op CallOp
	switch {
	case k == jtype.KindVoid:
		op = CallVoidMethod
	case k.IsPrimitive():
		op = CallOp(k)
	default:
		op = CallObjectMethod
	}
	if static {
		op += callKinds
	}
	return op
}

// Static reports whether op is a static call primitive.
func (op CallOp) Static() bool {
	return op >= callKinds
}

// Result returns the kind the primitive produces; object calls report KindObject.
func (op CallOp) Result() jtype.Kind {
	k := op % callKinds
	if k == CallObjectMethod {
		return jtype.KindObject
	}
	return jtype.Kind(k)
}

func (op CallOp) String() string {
	if op >= 2*callKinds {
		return "Call?Method"
	}
	if op.Static() {
		return "CallStatic" + callNames[op%callKinds] + "Method"
	}
	return "Call" + callNames[op] + "Method"
}

// Slot returns the JNI function-table index of the jvalue-array ("A") form.
func (op CallOp) Slot() int {
	base := 36
	if op.Static() {
		base = 116
	}
	return base + 3*slotPos(op.Result(), op%callKinds == CallVoidMethod)
}

// slotPos orders kinds the way the function table does: object, the eight
// primitives, then void.
func slotPos(k jtype.Kind, void bool) int {
	switch {
	case void:
		return 9
	case k.IsPrimitive():
		return int(k)
	}
	return 0
}

// FieldOp is a field get or set primitive.
type FieldOp uint8

const (
	fieldStatic FieldOp = 1 << 6
	fieldSet    FieldOp = 1 << 5
	fieldKind   FieldOp = 0x1f
)

// FieldOpFor returns the field primitive for a value kind.
func FieldOpFor(k jtype.Kind, static, set bool) FieldOp {
	op := FieldOp(jtype.KindObject)
	if k.IsPrimitive() {
		op = FieldOp(k)
	}
	if static {
		op |= fieldStatic
	}
	if set {
		op |= fieldSet
	}
	return op
}

// Kind returns the value kind; reference fields report KindObject.
func (op FieldOp) Kind() jtype.Kind { return jtype.Kind(op & fieldKind) }

// Static reports whether op addresses a static field.
func (op FieldOp) Static() bool { return op&fieldStatic != 0 }

// Set reports whether op stores rather than loads.
func (op FieldOp) Set() bool { return op&fieldSet != 0 }

func (op FieldOp) String() string {
	verb := "Get"
	if op.Set() {
		verb = "Set"
	}
	if op.Static() {
		verb += "Static"
	}
	name := "Object"
	if op.Kind().IsPrimitive() {
		name = callNames[op.Kind()]
	}
	return verb + name + "Field"
}

// Slot returns the JNI function-table index of the primitive.
func (op FieldOp) Slot() int {
	var base int
	switch {
	case op.Static() && op.Set():
		base = 154
	case op.Static():
		base = 145
	case op.Set():
		base = 104
	default:
		base = 95
	}
	return base + slotPos(op.Kind(), false)
}

// ArrayOp selects the primitive-array family for an element kind.
type ArrayOp uint8

const (
	BooleanArray ArrayOp = ArrayOp(jtype.KindBoolean)
	ByteArray    ArrayOp = ArrayOp(jtype.KindByte)
	CharArray    ArrayOp = ArrayOp(jtype.KindChar)
	ShortArray   ArrayOp = ArrayOp(jtype.KindShort)
	IntArray     ArrayOp = ArrayOp(jtype.KindInt)
	LongArray    ArrayOp = ArrayOp(jtype.KindLong)
	FloatArray   ArrayOp = ArrayOp(jtype.KindFloat)
	DoubleArray  ArrayOp = ArrayOp(jtype.KindDouble)
)

// ArrayOpFor returns the array family for a primitive element kind.
func ArrayOpFor(k jtype.Kind) (ArrayOp, bool) {
	if !k.IsPrimitive() {
		return 0, false
	}
	return ArrayOp(k), true
}

// Elem returns the element kind.
func (op ArrayOp) Elem() jtype.Kind { return jtype.Kind(op) }

func (op ArrayOp) String() string {
	if !op.Elem().IsPrimitive() {
		return "?Array"
	}
	return callNames[op] + "Array"
}

// NewSlot, ElementsSlot and ReleaseSlot return JNI function-table indexes.
func (op ArrayOp) NewSlot() int      { return 174 + int(op) }
func (op ArrayOp) ElementsSlot() int { return 182 + int(op) }
func (op ArrayOp) ReleaseSlot() int  { return 190 + int(op) }
