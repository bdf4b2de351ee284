package jni

import "strconv"

// Indexes into the JNI function table (JNINativeInterface_). Call, field and
// array primitives take theirs from ffi.CallOp, ffi.FieldOp and ffi.ArrayOp.
const (
	slotFindClass             = 6
	slotGetSuperclass         = 10
	slotThrow                 = 13
	slotThrowNew              = 14
	slotExceptionOccurred     = 15
	slotExceptionClear        = 17
	slotNewGlobalRef          = 21
	slotDeleteGlobalRef       = 22
	slotDeleteLocalRef        = 23
	slotIsSameObject          = 24
	slotNewLocalRef           = 25
	slotNewObjectA            = 30
	slotGetObjectClass        = 31
	slotIsInstanceOf          = 32
	slotGetMethodID           = 33
	slotGetFieldID            = 94
	slotGetStaticMethodID     = 113
	slotGetStaticFieldID      = 144
	slotNewStringUTF          = 167
	slotGetStringUTFLength    = 168
	slotGetStringUTFChars     = 169
	slotReleaseStringUTFChars = 170
	slotGetArrayLength        = 171
	slotNewObjectArray        = 172
	slotGetObjectArrayElement = 173
	slotSetObjectArrayElement = 174
	slotExceptionCheck        = 228
	slotGetObjectRefType      = 232

	// tableSize covers every slot up to GetObjectRefType, present since 1.6.
	tableSize = 233
)

// Indexes into the invocation interface (JNIInvokeInterface_).
const (
	slotDestroyJavaVM       = 3
	slotAttachCurrentThread = 4
	slotDetachCurrentThread = 5
	slotGetEnv              = 6

	invokeSize = 8
)

// JNI versions accepted by Options.Version.
const (
	Version1_6 int32 = 0x00010006
	Version1_8 int32 = 0x00010008
	Version9   int32 = 0x00090000
	Version10  int32 = 0x000a0000
	Version21  int32 = 0x00150000
)

// Status is a JNI return code other than JNI_OK.
type Status int32

const (
	StatusErr      Status = -1
	StatusDetached Status = -2
	StatusVersion  Status = -3
	StatusNoMemory Status = -4
	StatusExists   Status = -5
	StatusInvalid  Status = -6
)

func (s Status) Error() string {
	switch s {
	case StatusErr:
		return "jni: unknown error"
	case StatusDetached:
		return "jni: thread detached from the VM"
	case StatusVersion:
		return "jni: version error"
	case StatusNoMemory:
		return "jni: not enough memory"
	case StatusExists:
		return "jni: VM already created"
	case StatusInvalid:
		return "jni: invalid arguments"
	}
	return "jni: status " + strconv.Itoa(int(s))
}

// status converts a JNI return code to an error; JNI_OK is nil.
func status(rc int32) error {
	if rc == 0 {
		return nil
	}
	return Status(rc)
}
