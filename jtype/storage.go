package jtype

// Storage is the boundary representation of a value.
type Storage uint8

const (
	StorageVoid Storage = iota
	StorageBoolean
	StorageByte
	StorageChar
	StorageShort
	StorageInt
	StorageLong
	StorageFloat
	StorageDouble
	StorageObject
	StorageString
	StorageBooleanArray
	StorageByteArray
	StorageCharArray
	StorageShortArray
	StorageIntArray
	StorageLongArray
	StorageFloatArray
	StorageDoubleArray
	StorageObjectArray
)

var storageNames = [...]string{
	StorageVoid:         "void",
	StorageBoolean:      "boolean",
	StorageByte:         "byte",
	StorageChar:         "char",
	StorageShort:        "short",
	StorageInt:          "int",
	StorageLong:         "long",
	StorageFloat:        "float",
	StorageDouble:       "double",
	StorageObject:       "object",
	StorageString:       "string",
	StorageBooleanArray: "boolean[]",
	StorageByteArray:    "byte[]",
	StorageCharArray:    "char[]",
	StorageShortArray:   "short[]",
	StorageIntArray:     "int[]",
	StorageLongArray:    "long[]",
	StorageFloatArray:   "float[]",
	StorageDoubleArray:  "double[]",
	StorageObjectArray:  "object[]",
}

func (s Storage) String() string {
	if int(s) < len(storageNames) {
		return storageNames[s]
	}
	return "storage(?)"
}

// IsArray reports whether s is one of the array storages.
func (s Storage) IsArray() bool {
	return s >= StorageBooleanArray
}

// IsPrimitiveArray reports whether s is an array of a primitive kind.
func (s Storage) IsPrimitiveArray() bool {
	return s >= StorageBooleanArray && s <= StorageDoubleArray
}

var arrayOf = [...]Storage{
	KindBoolean: StorageBooleanArray,
	KindByte:    StorageByteArray,
	KindChar:    StorageCharArray,
	KindShort:   StorageShortArray,
	KindInt:     StorageIntArray,
	KindLong:    StorageLongArray,
	KindFloat:   StorageFloatArray,
	KindDouble:  StorageDoubleArray,
	KindObject:  StorageObjectArray,
	KindString:  StorageObjectArray,
	KindSelf:    StorageObjectArray,
}

// ArrayOf returns the rank-one array storage for elements of kind k.
// Void has no array form and reports false.
func ArrayOf(k Kind) (Storage, bool) {
	if k == KindVoid || int(k) >= len(arrayOf) {
		return StorageVoid, false
	}
	return arrayOf[k], true
}

// ElementOf returns the element kind stored by an array storage.
// Object arrays report KindObject.
func ElementOf(s Storage) (Kind, bool) {
	if !s.IsArray() {
		return KindVoid, false
	}
	if s == StorageObjectArray {
		return KindObject, true
	}
	return Kind(s-StorageBooleanArray) + KindBoolean, true
}

// StorageFor resolves the storage of an element kind at the given rank.
// Rank-one primitive arrays keep their specific storage; every deeper
// array collapses to StorageObjectArray, matching the runtime's erasure of
// nested arrays.
func StorageFor(k Kind, rank int) Storage {
	switch {
	case rank == 0:
		switch k {
		case KindObject, KindSelf:
			return StorageObject
		case KindString:
			return StorageString
		}
		return Storage(k)
	case rank == 1:
		if s, ok := ArrayOf(k); ok {
			return s
		}
		return StorageVoid
	default:
		return StorageObjectArray
	}
}
