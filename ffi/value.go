package ffi

import "math"

// Value is the 64-bit argument and result union. Scalars occupy the low bits
// in little-endian layout, matching the runtime's jvalue.
type Value uint64

func BoolValue(b bool) Value {
	if b {
		return 1
	}
	return 0
}

func ByteValue(v int8) Value { return Value(uint8(v)) }
func CharValue(v uint16) Value { return Value(v) }
func ShortValue(v int16) Value { return Value(uint16(v)) }
func IntValue(v int32) Value { return Value(uint32(v)) }
func LongValue(v int64) Value { return Value(uint64(v)) }
func FloatValue(v float32) Value { return Value(math.Float32bits(v)) }
func DoubleValue(v float64) Value { return Value(math.Float64bits(v)) }
func RefValue(r Ref) Value { return Value(r) }

func (v Value) Bool() bool { return uint8(v) != 0 }
func (v Value) Byte() int8 { return int8(uint8(v)) }
func (v Value) Char() uint16 { return uint16(v) }
func (v Value) Short() int16 { return int16(uint16(v)) }
func (v Value) Int() int32 { return int32(uint32(v)) }
func (v Value) Long() int64 { return int64(v) }
func (v Value) Float() float32 { return math.Float32frombits(uint32(v)) }
func (v Value) Double() float64 { return math.Float64frombits(uint64(v)) }
func (v Value) Ref() Ref { return Ref(v) }
