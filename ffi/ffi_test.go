package ffi

import (
	"testing"

	"github.com/wippyai/jni-bind/jtype"
)

func TestCallOpFor(t *testing.T) {
	tests := []struct {
		kind   jtype.Kind
		static bool
		want   CallOp
		name   string
		slot   int
	}{
		{jtype.KindVoid, false, CallVoidMethod, "CallVoidMethod", 63},
		{jtype.KindInt, false, CallIntMethod, "CallIntMethod", 51},
		{jtype.KindBoolean, false, CallBooleanMethod, "CallBooleanMethod", 39},
		{jtype.KindDouble, false, CallDoubleMethod, "CallDoubleMethod", 60},
		{jtype.KindObject, false, CallObjectMethod, "CallObjectMethod", 36},
		{jtype.KindString, false, CallObjectMethod, "CallObjectMethod", 36},
		{jtype.KindVoid, true, CallStaticVoidMethod, "CallStaticVoidMethod", 143},
		{jtype.KindInt, true, CallStaticIntMethod, "CallStaticIntMethod", 131},
		{jtype.KindSelf, true, CallStaticObjectMethod, "CallStaticObjectMethod", 116},
	}
	for _, tt := range tests {
		op := CallOpFor(tt.kind, tt.static)
		if op != tt.want {
			t.Errorf("CallOpFor(%v, %v) = %v, want %v", tt.kind, tt.static, op, tt.want)
		}
		if op.String() != tt.name {
			t.Errorf("String() = %q, want %q", op.String(), tt.name)
		}
		if op.Slot() != tt.slot {
			t.Errorf("%v.Slot() = %d, want %d", op, op.Slot(), tt.slot)
		}
		if op.Static() != tt.static {
			t.Errorf("%v.Static() = %v", op, op.Static())
		}
	}
}

func TestFieldOp(t *testing.T) {
	tests := []struct {
		kind        jtype.Kind
		static, set bool
		name        string
		slot        int
	}{
		{jtype.KindObject, false, false, "GetObjectField", 95},
		{jtype.KindInt, false, false, "GetIntField", 100},
		{jtype.KindDouble, false, true, "SetDoubleField", 112},
		{jtype.KindString, true, false, "GetStaticObjectField", 145},
		{jtype.KindLong, true, true, "SetStaticLongField", 160},
	}
	for _, tt := range tests {
		op := FieldOpFor(tt.kind, tt.static, tt.set)
		if op.String() != tt.name {
			t.Errorf("FieldOpFor(%v) = %q, want %q", tt.kind, op.String(), tt.name)
		}
		if op.Slot() != tt.slot {
			t.Errorf("%v.Slot() = %d, want %d", op, op.Slot(), tt.slot)
		}
		if op.Static() != tt.static || op.Set() != tt.set {
			t.Errorf("%v flags wrong", op)
		}
	}
}

func TestArrayOp(t *testing.T) {
	op, ok := ArrayOpFor(jtype.KindInt)
	if !ok || op != IntArray {
		t.Fatalf("ArrayOpFor(int) = %v, %v", op, ok)
	}
	if op.NewSlot() != 179 || op.ElementsSlot() != 187 || op.ReleaseSlot() != 195 {
		t.Errorf("int array slots = %d %d %d", op.NewSlot(), op.ElementsSlot(), op.ReleaseSlot())
	}
	if _, ok := ArrayOpFor(jtype.KindObject); ok {
		t.Error("object arrays have no primitive op")
	}
}

func TestValue(t *testing.T) {
	if IntValue(-7).Int() != -7 || LongValue(-1<<40).Long() != -1<<40 {
		t.Error("integer round trip")
	}
	if FloatValue(2.5).Float() != 2.5 || DoubleValue(-0.125).Double() != -0.125 {
		t.Error("float round trip")
	}
	if !BoolValue(true).Bool() || BoolValue(false).Bool() {
		t.Error("bool round trip")
	}
	if ByteValue(-2).Byte() != -2 || ShortValue(-300).Short() != -300 || CharValue(0xffff).Char() != 0xffff {
		t.Error("narrow round trip")
	}
	if RefValue(Ref(42)).Ref() != 42 {
		t.Error("ref round trip")
	}
	if IntValue(-1) != 0xffffffff {
		t.Error("int should occupy only the low 32 bits")
	}
}
