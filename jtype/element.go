package jtype

// Element is the set of Go types that mirror primitive array elements.
type Element interface {
	bool | int8 | uint16 | int16 | int32 | int64 | float32 | float64
}

// KindOf returns the primitive kind whose array elements have Go type T.
func KindOf[T Element]() Kind {
	var zero T
	switch any(zero).(type) {
	case bool:
		return KindBoolean
	case int8:
		return KindByte
	case uint16:
		return KindChar
	case int16:
		return KindShort
	case int32:
		return KindInt
	case int64:
		return KindLong
	case float32:
		return KindFloat
	default:
		return KindDouble
	}
}

// Size returns the element width in bytes of a primitive kind.
func (k Kind) Size() int {
	switch k {
	case KindBoolean, KindByte:
		return 1
	case KindChar, KindShort:
		return 2
	case KindInt, KindFloat:
		return 4
	case KindLong, KindDouble:
		return 8
	}
	return 0
}
