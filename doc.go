// Package jnibind binds Go code to classes running in a Java virtual machine.
//
// Classes are described once as Go values (or in a JSON declaration file):
// their constructors, fields, methods and overloads. Calls are checked
// against those declarations before they cross into the VM, overloads are
// chosen from the Go argument types, and every class, method and field
// lookup is resolved once and cached for the life of the runtime.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	jnibind/
//	├── jtype/           Java kinds, the Type value and Go type correspondence
//	├── sig/             Signature encoding and decoding
//	├── decl/            Class declarations, validation and declaration files
//	├── selector/        Overload selection from Go argument types
//	├── cache/           Resolve-once cells and the runtime cache registry
//	├── ffi/             The foreign interface: VM, Env, call and field primitives
//	│   ├── jni/         Real JVM backend, loaded with purego
//	│   └── fakevm/      In-memory VM for tests and dry runs
//	├── ref/             Local and global reference ownership
//	├── invoke/          Argument lowering and call dispatch
//	├── array/           Primitive and object array views
//	├── loader/          Class loader topology
//	├── jvm/             Process runtime: thread attachment and shutdown
//	├── binding/         Bound classes, objects and the exception boundary
//	├── gen/             Typed binding generator
//	├── errors/          Structured error types for debugging
//	└── cmd/             jbind inspector and jbindgen generator
//
// # Quick Start
//
// Declare a class, start a VM and call into it:
//
//	var counter = decl.NewClass("com/example/Counter",
//	    decl.WithConstructors(decl.NewConstructor(), decl.NewConstructor(jtype.Int)),
//	    decl.WithMethods(decl.NewMethod("inc", decl.Returns(jtype.Int))),
//	)
//
//	vm, err := jni.Open(&jni.Options{ClassPath: []string{"app.jar"}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rt := jvm.New(vm)
//	defer rt.Shutdown()
//
//	err = rt.Do(func(env ffi.Env) error {
//	    c, err := binding.Bind(rt, counter).New(env, int32(41))
//	    if err != nil {
//	        return err
//	    }
//	    defer c.Close()
//	    v, err := c.Call("inc")
//	    fmt.Println(v.Int()) // 42
//	    return err
//	})
//
// # Generated Bindings
//
// jbindgen turns a declaration file into typed wrappers with one Go method
// per overload, so argument mistakes are compile errors:
//
//	//go:generate jbindgen -in counter.json -out counter_gen.go
//
//	c, err := NewCounterFactory(rt).NewInt(env, 41)
//	n, err := c.Inc()
//
// # Thread Safety
//
// A Runtime is safe for concurrent use. Each goroutine attaches with
// Runtime.Attach or Runtime.Do, which locks it to its OS thread for the
// duration. Local references and Objects belong to the thread that created
// them; promote them to global references to share them.
//
// # Shutdown
//
// Runtime.Shutdown releases every cached class reference and destroys the
// VM. It must run after all other goroutines have detached.
package jnibind
