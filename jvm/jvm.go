// Package jvm is the process-level handle to a managed runtime.
//
// A Runtime owns the foreign VM, the identity cache shared by every binding
// and the class loader topology. Goroutines call Attach before touching the
// runtime; the returned Thread pins the goroutine to its OS thread until the
// outermost Detach:
//
//	rt := jvm.New(vm)
//	defer rt.Shutdown()
//
//	t, err := rt.Attach()
//	if err != nil {
//		return err
//	}
//	defer t.Detach()
//	env := t.Env()
//
// Shutdown is single threaded by contract: no attachment may be in use and no
// resolution in flight while it runs.
package jvm

import (
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/jni-bind/cache"
	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/loader"
)

// Config holds runtime configuration. A nil Config means DefaultConfig.
type Config struct {
	// Logger overrides the package logger for this runtime.
	Logger *zap.Logger
	// Loaders is the class loader topology. Nil means the default loader
	// only.
	Loaders *loader.Runtime
	// ReleaseCachesOnShutdown deletes cached durable references before the
	// VM is destroyed, balancing reference counts.
	ReleaseCachesOnShutdown bool
}

// DefaultConfig returns the configuration New uses.
func DefaultConfig() *Config {
	return &Config{ReleaseCachesOnShutdown: true}
}

// Runtime is a process-level managed runtime handle.
type Runtime struct {
	vm       ffi.VM
	registry *cache.Registry
	loaders  *loader.Runtime
	log      *zap.Logger
	attached atomic.Int64
	closed   atomic.Bool
	release  bool

	mu      sync.Mutex
	threads map[int64]*Thread // live attachments by goroutine
}

// New wraps vm with the default configuration.
func New(vm ffi.VM) *Runtime {
	return NewWithConfig(vm, nil)
}

// NewWithConfig wraps vm with cfg.
func NewWithConfig(vm ffi.VM, cfg *Config) *Runtime {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	rt := &Runtime{
		vm:       vm,
		registry: cache.NewRegistry(),
		loaders:  cfg.Loaders,
		log:      cfg.Logger,
		release:  cfg.ReleaseCachesOnShutdown,
		threads:  make(map[int64]*Thread),
	}
	if rt.loaders == nil {
		rt.loaders = loader.NewRuntime()
	}
	if rt.log == nil {
		rt.log = Logger()
	}
	return rt
}

// VM returns the wrapped foreign VM.
func (rt *Runtime) VM() ffi.VM { return rt.vm }

// Registry returns the identity cache shared by bindings on this runtime.
func (rt *Runtime) Registry() *cache.Registry { return rt.registry }

// Loaders returns the class loader topology.
func (rt *Runtime) Loaders() *loader.Runtime { return rt.loaders }

// Logger returns the runtime logger.
func (rt *Runtime) Logger() *zap.Logger { return rt.log }

// Attached returns the number of outermost attachments currently held.
func (rt *Runtime) Attached() int { return int(rt.attached.Load()) }

// Closed reports whether Shutdown has run.
func (rt *Runtime) Closed() bool { return rt.closed.Load() }

// Attach locks the calling goroutine to its OS thread and attaches that
// thread to the VM. On a goroutine that is already attached it returns the
// live Thread with its depth raised, so the VM sees a single attachment
// until the outermost Detach.
func (rt *Runtime) Attach() (*Thread, error) {
	if rt.closed.Load() {
		return nil, errors.Closed("runtime")
	}
	id := goid()
	rt.mu.Lock()
	t := rt.threads[id]
	rt.mu.Unlock()
	if t != nil {
		return t.Attach()
	}

	runtime.LockOSThread()
	env, err := rt.vm.AttachCurrentThread()
	if err != nil {
		runtime.UnlockOSThread()
		return nil, errors.Wrap(errors.PhaseRuntime, errors.KindNotAttached, err, "attach current thread")
	}
	t = &Thread{rt: rt, env: env, depth: 1, id: id}
	rt.mu.Lock()
	rt.threads[id] = t
	rt.mu.Unlock()
	n := rt.attached.Add(1)
	rt.log.Debug("jvm: thread attached", zap.Int64("attached", n))
	return t, nil
}

func (rt *Runtime) forget(t *Thread) {
	rt.mu.Lock()
	if rt.threads[t.id] == t {
		delete(rt.threads, t.id)
	}
	rt.mu.Unlock()
}

// Do runs fn on an attached thread, detaching afterwards. Inside an existing
// attachment fn receives the same environment.
func (rt *Runtime) Do(fn func(env ffi.Env) error) (err error) {
	t, err := rt.Attach()
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, t.Detach())
	}()
	return fn(t.Env())
}

// Shutdown releases every cached resolution and destroys the VM. It is safe
// to call more than once; only the first call does anything.
func (rt *Runtime) Shutdown() error {
	if !rt.closed.CompareAndSwap(false, true) {
		return nil
	}
	if n := rt.attached.Load(); n > 0 {
		rt.log.Warn("jvm: shutdown with threads still attached", zap.Int64("attached", n))
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	env, err := rt.vm.AttachCurrentThread()
	if err != nil {
		return multierr.Append(
			errors.Wrap(errors.PhaseRuntime, errors.KindNotAttached, err, "attach for shutdown"),
			rt.vm.Destroy(),
		)
	}

	entries := rt.registry.Len()
	errs := rt.registry.Shutdown(func(k cache.Key, v any) error {
		if !rt.release {
			return nil
		}
		if c, ok := v.(interface{ CloseIn(ffi.Env) error }); ok {
			return c.CloseIn(env)
		}
		return nil
	})
	errs = multierr.Append(errs, rt.vm.DetachCurrentThread(env))
	errs = multierr.Append(errs, rt.vm.Destroy())

	rt.log.Info("jvm: shutdown",
		zap.Int("cached", entries),
		zap.Bool("released", rt.release),
		zap.Error(errs))
	return errs
}
