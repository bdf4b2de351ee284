// Package fakevm is an in-memory managed runtime implementing the ffi
// contract. Classes are defined from Go, methods are Go functions, and every
// reference, pin and call primitive is counted so ownership and dispatch
// behaviour can be asserted in tests.
//
//	vm := fakevm.New()
//	vm.DefineClass(fakevm.ClassDef{
//		Name: "com/example/Counter",
//		Fields: map[string]string{"count": "I"},
//		Constructors: map[string]fakevm.Method{"()V": nil},
//		Methods: map[string]fakevm.Method{
//			"inc()I": func(env *fakevm.Env, this ffi.Ref, _ []ffi.Value) ffi.Value {
//				n := env.FieldValue(this, "count").Int() + 1
//				env.SetFieldValue(this, "count", ffi.IntValue(n))
//				return ffi.IntValue(n)
//			},
//		},
//	})
//
// Failures behave like the real runtime: lookups return zero handles with an
// exception pending, array indexing throws ArrayIndexOutOfBoundsException.
// Misuse that would crash a real runtime (calling a method through the wrong
// primitive) panics.
package fakevm

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/internal/reftable"
	"github.com/wippyai/jni-bind/jtype"
	"github.com/wippyai/jni-bind/sig"
)

// Method implements a constructor or method. this is the receiver for
// instance members and the class for static ones.
type Method func(env *Env, this ffi.Ref, args []ffi.Value) ffi.Value

// ClassDef defines a class. Member keys are name followed by the wire
// signature ("resize(FF)V"); constructors are keyed by signature alone.
type ClassDef struct {
	Constructors  map[string]Method
	Methods       map[string]Method
	StaticMethods map[string]Method
	Fields        map[string]string
	StaticFields  map[string]string
	Name          string
	// Super defaults to java/lang/Object.
	Super string
	// Loader hides the class from FindClass; only a class loader object
	// created with NewClassLoader(Loader) can load it.
	Loader string
}

// CallRecord is one invocation through a call primitive.
type CallRecord struct {
	Class string
	Name  string
	Sig   string
	Op    ffi.CallOp
}

// Stats counts runtime events.
type Stats struct {
	LocalCreated   int64
	LocalDeleted   int64
	GlobalCreated  int64
	GlobalDeleted  int64
	InvalidDeletes int64
	Pins           int64
	Unpins         int64
	CopyBacks      int64
	Attaches       int64
	Detaches       int64
	ClassLookups   int64
	MemberLookups  int64
}

type class struct {
	super   *class
	object  *object
	methods map[string]*member
	statics map[string]*member
	fields  map[string]*member
	sfields map[string]*member
	ctors   map[string]*member
	svalues map[*member]any
	name    string
	loader  string
	elem    jtype.Type
	isArray bool
}

type member struct {
	class  *class
	impl   Method
	name   string
	sig    string
	ret    jtype.Type
	typ    jtype.Type
	static bool
	field  bool
}

type object struct {
	class  *class
	meta   *class
	fields map[*member]any
	data   any
	array  any
	str    string
	id     uint64
}

// Environment tags start above the reftable's predefined tags.
const firstEnvTag reftable.Tag = 16

// VM is the in-memory runtime.
type VM struct {
	classes  map[string]*class
	memberID map[*member]ffi.MethodID
	globals  *reftable.Table
	envs     []*Env
	members  []*member
	calls    []CallRecord
	stats    counters
	mu       sync.RWMutex
	objMu    sync.Mutex
	callMu   sync.Mutex
	envMu    sync.Mutex
	nextTag  reftable.Tag
	closed   atomic.Bool
}

type counters struct {
	localCreated, localDeleted, globalCreated, globalDeleted atomic.Int64
	invalidDeletes, pins, unpins, copyBacks                  atomic.Int64
	attaches, detaches, classLookups, memberLookups          atomic.Int64
}

// New creates a runtime with the core java/lang classes defined.
func New() *VM {
	vm := &VM{
		classes:  make(map[string]*class),
		memberID: make(map[*member]ffi.MethodID),
		globals:  reftable.New(reftable.TagGlobal),
		nextTag:  firstEnvTag,
	}
	vm.globals.Subscribe(reftable.ObserverFunc(func(e reftable.Event) {
		if e.Type == reftable.EventCreated {
			vm.stats.globalCreated.Add(1)
		} else {
			vm.stats.globalDeleted.Add(1)
		}
	}))
	vm.defineBuiltins()
	return vm
}

// DefineClass adds a class. The superclass must already be defined.
func (vm *VM) DefineClass(def ClassDef) error {
	if err := sig.ValidateClassName(def.Name); err != nil {
		return err
	}
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if _, exists := vm.classes[def.Name]; exists {
		return fmt.Errorf("class %s already defined", def.Name)
	}

	superName := def.Super
	if superName == "" && def.Name != jtype.ObjectClass {
		superName = jtype.ObjectClass
	}
	var super *class
	if superName != "" {
		var ok bool
		super, ok = vm.classes[superName]
		if !ok {
			return fmt.Errorf("superclass %s of %s not defined", superName, def.Name)
		}
	}

	c := &class{
		name:    def.Name,
		super:   super,
		loader:  def.Loader,
		methods: make(map[string]*member),
		statics: make(map[string]*member),
		fields:  make(map[string]*member),
		sfields: make(map[string]*member),
		ctors:   make(map[string]*member),
		svalues: make(map[*member]any),
	}
	c.object = &object{class: vm.classes["java/lang/Class"], meta: c}

	for key, impl := range def.Methods {
		m, err := newMethod(c, key, impl, false)
		if err != nil {
			return err
		}
		c.methods[m.name+m.sig] = m
	}
	for key, impl := range def.StaticMethods {
		m, err := newMethod(c, key, impl, true)
		if err != nil {
			return err
		}
		c.statics[m.name+m.sig] = m
	}
	for s, impl := range def.Constructors {
		m, err := newMethod(c, sig.ConstructorName+s, impl, false)
		if err != nil {
			return err
		}
		c.ctors[s] = m
	}
	for name, s := range def.Fields {
		t, err := sig.DecodeType(s)
		if err != nil {
			return err
		}
		c.fields[name+":"+s] = &member{class: c, name: name, sig: s, typ: t, field: true}
	}
	for name, s := range def.StaticFields {
		t, err := sig.DecodeType(s)
		if err != nil {
			return err
		}
		m := &member{class: c, name: name, sig: s, typ: t, field: true, static: true}
		c.sfields[name+":"+s] = m
		c.svalues[m] = zeroValue(t)
	}

	vm.classes[def.Name] = c
	return nil
}

// MustDefineClass is DefineClass that panics on error.
func (vm *VM) MustDefineClass(def ClassDef) {
	if err := vm.DefineClass(def); err != nil {
		panic(err)
	}
}

func newMethod(c *class, key string, impl Method, static bool) (*member, error) {
	open := strings.IndexByte(key, '(')
	if open <= 0 {
		return nil, fmt.Errorf("method key %q must be name(sig)ret", key)
	}
	name, s := key[:open], key[open:]
	ret, _, err := sig.DecodeMethod(s)
	if err != nil {
		return nil, err
	}
	return &member{class: c, name: name, sig: s, ret: ret, impl: impl, static: static}, nil
}

func zeroValue(t jtype.Type) any {
	if t.IsReference() {
		return (*object)(nil)
	}
	return ffi.Value(0)
}

// Stats returns a snapshot of the event counters.
func (vm *VM) Stats() Stats {
	s := &vm.stats
	return Stats{
		LocalCreated:   s.localCreated.Load(),
		LocalDeleted:   s.localDeleted.Load(),
		GlobalCreated:  s.globalCreated.Load(),
		GlobalDeleted:  s.globalDeleted.Load(),
		InvalidDeletes: s.invalidDeletes.Load(),
		Pins:           s.pins.Load(),
		Unpins:         s.unpins.Load(),
		CopyBacks:      s.copyBacks.Load(),
		Attaches:       s.attaches.Load(),
		Detaches:       s.detaches.Load(),
		ClassLookups:   s.classLookups.Load(),
		MemberLookups:  s.memberLookups.Load(),
	}
}

// Calls returns every call made through a call primitive, in order.
func (vm *VM) Calls() []CallRecord {
	vm.callMu.Lock()
	defer vm.callMu.Unlock()
	return append([]CallRecord(nil), vm.calls...)
}

// ResetCalls clears the call log.
func (vm *VM) ResetCalls() {
	vm.callMu.Lock()
	vm.calls = nil
	vm.callMu.Unlock()
}

// LiveGlobals returns the number of global references not yet deleted.
func (vm *VM) LiveGlobals() int {
	return vm.globals.Len()
}

// NewEnv returns a detached environment, for tests that do not need
// thread attachment.
func (vm *VM) NewEnv() *Env {
	vm.envMu.Lock()
	defer vm.envMu.Unlock()
	return vm.newEnvLocked()
}

func (vm *VM) newEnvLocked() *Env {
	tag := vm.nextTag
	vm.nextTag++
	if vm.nextTag == 0 {
		vm.nextTag = firstEnvTag
	}
	env := &Env{vm: vm, locals: reftable.New(tag), pins: make(map[uintptr]*pin)}
	env.locals.Subscribe(reftable.ObserverFunc(func(e reftable.Event) {
		if e.Type == reftable.EventCreated {
			vm.stats.localCreated.Add(1)
		} else {
			vm.stats.localDeleted.Add(1)
		}
	}))
	return env
}

// AttachCurrentThread creates an environment for the calling thread.
func (vm *VM) AttachCurrentThread() (ffi.Env, error) {
	if vm.closed.Load() {
		return nil, fmt.Errorf("fakevm: destroyed")
	}
	vm.envMu.Lock()
	defer vm.envMu.Unlock()
	env := vm.newEnvLocked()
	vm.envs = append(vm.envs, env)
	vm.stats.attaches.Add(1)
	return env, nil
}

// DetachCurrentThread releases an attached environment and its local
// references.
func (vm *VM) DetachCurrentThread(e ffi.Env) error {
	env, ok := e.(*Env)
	if !ok {
		return fmt.Errorf("fakevm: foreign environment %T", e)
	}
	vm.envMu.Lock()
	defer vm.envMu.Unlock()
	for i, live := range vm.envs {
		if live == env {
			vm.envs = append(vm.envs[:i], vm.envs[i+1:]...)
			vm.stats.detaches.Add(1)
			return env.locals.Close()
		}
	}
	return fmt.Errorf("fakevm: environment not attached")
}

// Attached returns the number of attached environments.
func (vm *VM) Attached() int {
	vm.envMu.Lock()
	defer vm.envMu.Unlock()
	return len(vm.envs)
}

// Destroy shuts the runtime down.
func (vm *VM) Destroy() error {
	if !vm.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("fakevm: already destroyed")
	}
	return vm.globals.Close()
}

func (vm *VM) lookupClass(name string) (*class, bool) {
	vm.mu.RLock()
	c, ok := vm.classes[name]
	vm.mu.RUnlock()
	if ok || !strings.HasPrefix(name, "[") {
		return c, ok
	}

	t, err := sig.DecodeType(name)
	if err != nil || t.Rank == 0 {
		return nil, false
	}
	return vm.arrayClass(t), true
}

// arrayClass returns the synthetic class for array type t.
func (vm *VM) arrayClass(t jtype.Type) *class {
	name := sig.Encode(t, "")
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if c, ok := vm.classes[name]; ok {
		return c
	}
	c := &class{
		name:    name,
		super:   vm.classes[jtype.ObjectClass],
		isArray: true,
		elem:    t.Elem(),
		methods: map[string]*member{},
		statics: map[string]*member{},
		fields:  map[string]*member{},
		sfields: map[string]*member{},
		ctors:   map[string]*member{},
		svalues: map[*member]any{},
	}
	c.object = &object{class: vm.classes["java/lang/Class"], meta: c}
	vm.classes[name] = c
	return c
}

func (vm *VM) methodID(m *member) ffi.MethodID {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if id, ok := vm.memberID[m]; ok {
		return id
	}
	vm.members = append(vm.members, m)
	id := ffi.MethodID(len(vm.members))
	vm.memberID[m] = id
	return id
}

func (vm *VM) member(id uintptr) *member {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if id == 0 || int(id) > len(vm.members) {
		return nil
	}
	return vm.members[id-1]
}

func (vm *VM) record(op ffi.CallOp, m *member) {
	vm.callMu.Lock()
	vm.calls = append(vm.calls, CallRecord{Op: op, Class: m.class.name, Name: m.name, Sig: m.sig})
	vm.callMu.Unlock()
}

func (c *class) isSubclassOf(other *class) bool {
	for k := c; k != nil; k = k.super {
		if k == other {
			return true
		}
	}
	return false
}

var _ ffi.VM = (*VM)(nil)
