package jni

const libName = "libjvm.so"

// libCandidates are libjvm locations relative to a Java home, newest layout
// first.
var libCandidates = []string{
	"lib/server/libjvm.so",
	"jre/lib/server/libjvm.so",
	"jre/lib/amd64/server/libjvm.so",
	"jre/lib/aarch64/server/libjvm.so",
	"lib/client/libjvm.so",
}
