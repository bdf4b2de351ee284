package jvm

import (
	"bytes"
	"runtime"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/ffi"
)

// Thread is an attachment of the current OS thread. Attachments nest: only
// the outermost Detach detaches the thread. A Thread must stay on the
// goroutine that created it.
type Thread struct {
	rt    *Runtime
	env   ffi.Env
	depth int
	id    int64
}

// Env returns the thread's environment. It is valid until the outermost
// Detach.
func (t *Thread) Env() ffi.Env { return t.env }

// Runtime returns the owning runtime.
func (t *Thread) Runtime() *Runtime { return t.rt }

// Depth returns the current nesting depth; zero once fully detached.
func (t *Thread) Depth() int { return t.depth }

// Attach nests another attachment on the same thread. It never calls into
// the VM.
func (t *Thread) Attach() (*Thread, error) {
	if t.depth == 0 {
		return nil, errors.NotAttached("thread already detached")
	}
	t.depth++
	return t, nil
}

// Detach undoes one Attach. The outermost call clears any exception left
// pending, detaches from the VM and unlocks the goroutine.
func (t *Thread) Detach() error {
	if t.depth == 0 {
		return errors.NotAttached("thread already detached")
	}
	t.depth--
	if t.depth > 0 {
		return nil
	}

	if t.env.ExceptionCheck() {
		t.rt.log.Warn("jvm: detaching with a pending exception, clearing it")
		t.env.ExceptionClear()
	}
	t.rt.forget(t)
	err := t.rt.vm.DetachCurrentThread(t.env)
	n := t.rt.attached.Add(-1)
	runtime.UnlockOSThread()
	t.rt.log.Debug("jvm: thread detached", zap.Int64("attached", n))
	if err != nil {
		return errors.Wrap(errors.PhaseRuntime, errors.KindNotAttached, err, "detach current thread")
	}
	return nil
}

// goid returns the calling goroutine's id. An attached goroutine is locked to
// its OS thread, so the id also names the attached thread.
func goid() int64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseInt(string(b), 10, 64)
	return id
}
