package jni

const libName = "libjvm.dylib"

// libCandidates are libjvm locations relative to a Java home, newest layout
// first.
var libCandidates = []string{
	"lib/server/libjvm.dylib",
	"jre/lib/server/libjvm.dylib",
	"Contents/Home/lib/server/libjvm.dylib",
}
