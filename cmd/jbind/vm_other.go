//go:build !linux && !darwin

package main

import (
	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/ffi"
)

func openJVM(options) (ffi.VM, error) {
	return nil, errors.Unsupported(errors.PhaseRuntime, "JVM backend on this platform; use -dry")
}
