//go:build linux || darwin

// Package jni is the ffi backend for a real JVM. It loads libjvm at run time
// with purego, so building it needs no C toolchain.
//
//	vm, err := jni.Open(&jni.Options{ClassPath: []string{"app.jar"}})
//	if err != nil {
//		return err
//	}
//	rt := jvm.New(vm)
//	defer rt.Shutdown()
//
// A process hosts at most one JVM. Open reuses a VM that is already running,
// for instance when Go is loaded into a Java process; such a VM is not
// destroyed by Destroy.
package jni

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"

	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/ffi"
)

// Options configure how the JVM is located and created. A nil *Options
// uses DefaultOptions.
type Options struct {
	// Logger overrides the package logger.
	Logger *zap.Logger
	// LibPath is the path to libjvm. When empty, JavaHome is searched.
	LibPath string
	// JavaHome defaults to $JAVA_HOME. When both are empty libjvm is left
	// to the dynamic loader's search path.
	JavaHome string
	// ClassPath entries become -Djava.class.path.
	ClassPath []string
	// Args are passed to the VM verbatim, for instance -Xmx256m.
	Args []string
	// Version is the requested JNI version.
	Version int32
	// IgnoreUnrecognized lets the VM skip options it does not know.
	IgnoreUnrecognized bool
}

// DefaultOptions requests JNI 1.8 with no extra arguments.
func DefaultOptions() *Options {
	return &Options{Version: Version1_8}
}

// VM is a loaded JVM. It implements ffi.VM.
type VM struct {
	log     *zap.Logger
	tbl     *table
	inv     invokeTable
	lib     uintptr
	ptr     uintptr
	version int32
	owned   bool

	tblOnce   sync.Once
	destroyed atomic.Bool
}

var _ ffi.VM = (*VM)(nil)

type invokeTable struct {
	destroy func(vm uintptr) int32
	attach  func(vm uintptr, penv *uintptr, args unsafe.Pointer) int32
	detach  func(vm uintptr) int32
	getEnv  func(vm uintptr, penv *uintptr, version int32) int32
}

type initArgs struct {
	version            int32
	nOptions           int32
	options            *vmOption
	ignoreUnrecognized uint8
}

type vmOption struct {
	optionString *byte
	extraInfo    uintptr
}

// Open loads libjvm and creates a VM, or returns the one already running in
// the process.
func Open(opts *Options) (*VM, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	log := opts.Logger
	if log == nil {
		log = Logger()
	}
	version := opts.Version
	if version == 0 {
		version = Version1_8
	}

	path, err := findLibrary(opts)
	if err != nil {
		return nil, err
	}
	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseRuntime, errors.KindNotFound, err, "load "+path)
	}

	var (
		create     func(pvm, penv *uintptr, args *initArgs) int32
		getCreated func(buf *uintptr, n int32, count *int32) int32
	)
	if err := registerLib(&create, lib, "JNI_CreateJavaVM"); err != nil {
		return nil, err
	}
	if err := registerLib(&getCreated, lib, "JNI_GetCreatedJavaVMs"); err != nil {
		return nil, err
	}

	var existing uintptr
	var count int32
	if rc := getCreated(&existing, 1, &count); rc == 0 && count > 0 {
		log.Info("reusing running JVM", zap.String("lib", path))
		return newVM(log, lib, existing, version, false), nil
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	strs := vmArgs(opts)
	cstrs := make([][]byte, len(strs))
	options := make([]vmOption, len(strs))
	for i, s := range strs {
		cstrs[i] = cString(s)
		options[i].optionString = &cstrs[i][0]
	}
	args := initArgs{version: version, nOptions: int32(len(options))}
	if len(options) > 0 {
		args.options = &options[0]
	}
	if opts.IgnoreUnrecognized {
		args.ignoreUnrecognized = 1
	}

	var vmPtr, envPtr uintptr
	rc := create(&vmPtr, &envPtr, &args)
	runtime.KeepAlive(cstrs)
	runtime.KeepAlive(options)
	if err := status(rc); err != nil {
		return nil, errors.Wrap(errors.PhaseRuntime, errors.KindInvalidInput, err, "JNI_CreateJavaVM")
	}

	v := newVM(log, lib, vmPtr, version, true)
	v.bind(envPtr)
	// The creating thread is attached by JNI_CreateJavaVM; attachment is
	// managed per thread from here on.
	if err := status(v.inv.detach(v.ptr)); err != nil {
		log.Warn("detach creating thread", zap.Error(err))
	}
	log.Info("JVM created", zap.String("lib", path), zap.Strings("args", strs))
	return v, nil
}

func newVM(log *zap.Logger, lib, ptr uintptr, version int32, owned bool) *VM {
	v := &VM{log: log, lib: lib, ptr: ptr, version: version, owned: owned}
	fns := *(**[invokeSize]uintptr)(unsafe.Pointer(ptr))
	purego.RegisterFunc(&v.inv.destroy, fns[slotDestroyJavaVM])
	purego.RegisterFunc(&v.inv.attach, fns[slotAttachCurrentThread])
	purego.RegisterFunc(&v.inv.detach, fns[slotDetachCurrentThread])
	purego.RegisterFunc(&v.inv.getEnv, fns[slotGetEnv])
	return v
}

func registerLib(fptr any, lib uintptr, name string) error {
	sym, err := purego.Dlsym(lib, name)
	if err != nil {
		return errors.Wrap(errors.PhaseRuntime, errors.KindNotFound, err, "symbol "+name)
	}
	purego.RegisterFunc(fptr, sym)
	return nil
}

// vmArgs renders the option strings passed to the VM.
func vmArgs(opts *Options) []string {
	var out []string
	if len(opts.ClassPath) > 0 {
		out = append(out, "-Djava.class.path="+strings.Join(opts.ClassPath, string(os.PathListSeparator)))
	}
	return append(out, opts.Args...)
}

// findLibrary locates libjvm from the options.
func findLibrary(opts *Options) (string, error) {
	if opts.LibPath != "" {
		if _, err := os.Stat(opts.LibPath); err != nil {
			return "", errors.Wrap(errors.PhaseRuntime, errors.KindNotFound, err, "libjvm")
		}
		return opts.LibPath, nil
	}
	home := opts.JavaHome
	if home == "" {
		home = os.Getenv("JAVA_HOME")
	}
	if home == "" {
		return libName, nil
	}
	for _, rel := range libCandidates {
		p := filepath.Join(home, rel)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.NotFound(errors.PhaseRuntime, libName+" under", home)
}

// bind builds the shared function table from the first environment seen.
func (v *VM) bind(env uintptr) {
	v.tblOnce.Do(func() { v.tbl = newTable(env) })
}

// Pointer returns the raw JavaVM pointer.
func (v *VM) Pointer() uintptr { return v.ptr }

// Owned reports whether Open created the VM.
func (v *VM) Owned() bool { return v.owned }

// AttachCurrentThread attaches the calling OS thread. The caller must keep
// its goroutine locked to the thread until DetachCurrentThread.
func (v *VM) AttachCurrentThread() (ffi.Env, error) {
	if v.destroyed.Load() {
		return nil, errors.Closed("jvm")
	}
	var env uintptr
	if err := status(v.inv.attach(v.ptr, &env, nil)); err != nil {
		return nil, errors.Wrap(errors.PhaseRuntime, errors.KindNotAttached, err, "AttachCurrentThread")
	}
	v.bind(env)
	return &Env{ptr: env, t: v.tbl}, nil
}

// DetachCurrentThread detaches the calling OS thread. The JVM tracks
// threads itself, so env is not consulted.
func (v *VM) DetachCurrentThread(ffi.Env) error {
	if err := status(v.inv.detach(v.ptr)); err != nil {
		return errors.Wrap(errors.PhaseRuntime, errors.KindNotAttached, err, "DetachCurrentThread")
	}
	return nil
}

// CurrentEnv returns the environment of the calling thread if it is
// attached.
func (v *VM) CurrentEnv() (ffi.Env, bool) {
	var env uintptr
	if v.inv.getEnv(v.ptr, &env, v.version) != 0 || env == 0 {
		return nil, false
	}
	v.bind(env)
	return &Env{ptr: env, t: v.tbl}, true
}

// Destroy unloads a VM created by Open. A VM that was already running is
// left alone.
func (v *VM) Destroy() error {
	if !v.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	if !v.owned {
		v.log.Debug("leaving borrowed JVM running")
		return nil
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if err := status(v.inv.destroy(v.ptr)); err != nil {
		return errors.Wrap(errors.PhaseRuntime, errors.KindInvalidInput, err, "DestroyJavaVM")
	}
	v.log.Info("JVM destroyed")
	return nil
}
