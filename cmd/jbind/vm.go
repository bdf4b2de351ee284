//go:build linux || darwin

package main

import (
	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/ffi/jni"
)

func openJVM(opts options) (ffi.VM, error) {
	vm, err := jni.Open(&jni.Options{
		Logger:    opts.log,
		JavaHome:  opts.javaHome,
		ClassPath: opts.classPath,
		Args:      opts.jvmArgs,
		Version:   jni.Version1_8,
	})
	if err != nil {
		return nil, err
	}
	return vm, nil
}
