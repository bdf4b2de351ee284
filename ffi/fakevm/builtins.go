package fakevm

import (
	"fmt"
	"sync/atomic"

	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/jtype"
	"github.com/wippyai/jni-bind/sig"
)

var objectIDs atomic.Uint64

// Throwable subclasses created with a message constructor.
var exceptionClasses = []struct{ name, super string }{
	{"java/lang/Exception", "java/lang/Throwable"},
	{"java/lang/Error", "java/lang/Throwable"},
	{"java/lang/RuntimeException", "java/lang/Exception"},
	{"java/lang/ClassNotFoundException", "java/lang/Exception"},
	{"java/lang/LinkageError", "java/lang/Error"},
	{"java/lang/NoClassDefFoundError", "java/lang/LinkageError"},
	{"java/lang/IncompatibleClassChangeError", "java/lang/LinkageError"},
	{"java/lang/NoSuchMethodError", "java/lang/IncompatibleClassChangeError"},
	{"java/lang/NoSuchFieldError", "java/lang/IncompatibleClassChangeError"},
	{"java/lang/IndexOutOfBoundsException", "java/lang/RuntimeException"},
	{"java/lang/ArrayIndexOutOfBoundsException", "java/lang/IndexOutOfBoundsException"},
	{"java/lang/NegativeArraySizeException", "java/lang/RuntimeException"},
	{"java/lang/NullPointerException", "java/lang/RuntimeException"},
	{"java/lang/IllegalArgumentException", "java/lang/RuntimeException"},
	{"java/lang/IllegalStateException", "java/lang/RuntimeException"},
	{"java/lang/ArrayStoreException", "java/lang/RuntimeException"},
}

const messageSig = "(Ljava/lang/String;)V"

func (vm *VM) defineBuiltins() {
	vm.MustDefineClass(ClassDef{
		Name:         jtype.ObjectClass,
		Constructors: map[string]Method{"()V": nil},
		Methods: map[string]Method{
			"hashCode()I": func(env *Env, this ffi.Ref, _ []ffi.Value) ffi.Value {
				return ffi.IntValue(int32(env.resolve(this).id))
			},
			"equals(Ljava/lang/Object;)Z": func(env *Env, this ffi.Ref, args []ffi.Value) ffi.Value {
				return ffi.BoolValue(env.IsSameObject(this, args[0].Ref()))
			},
			"toString()Ljava/lang/String;": func(env *Env, this ffi.Ref, _ []ffi.Value) ffi.Value {
				o := env.resolve(this)
				s := fmt.Sprintf("%s@%x", sig.ToBinaryName(o.class.name), o.id)
				return ffi.RefValue(env.NewStringUTF(s))
			},
		},
	})
	vm.MustDefineClass(ClassDef{
		Name: "java/lang/Class",
		Methods: map[string]Method{
			"getName()Ljava/lang/String;": func(env *Env, this ffi.Ref, _ []ffi.Value) ffi.Value {
				return ffi.RefValue(env.NewStringUTF(sig.ToBinaryName(env.classOf(this).name)))
			},
		},
	})
	// Object was defined before Class existed.
	for _, c := range vm.classes {
		c.object.class = vm.classes["java/lang/Class"]
	}

	vm.MustDefineClass(ClassDef{
		Name:         jtype.StringClass,
		Constructors: map[string]Method{"()V": nil},
		Methods: map[string]Method{
			"length()I": func(env *Env, this ffi.Ref, _ []ffi.Value) ffi.Value {
				return ffi.IntValue(int32(len([]rune(env.Str(this)))))
			},
			"toString()Ljava/lang/String;": func(env *Env, this ffi.Ref, _ []ffi.Value) ffi.Value {
				return ffi.RefValue(env.NewLocalRef(this))
			},
		},
	})

	setMessage := func(env *Env, this ffi.Ref, args []ffi.Value) ffi.Value {
		env.SetFieldValue(this, "message", args[0])
		return 0
	}
	vm.MustDefineClass(ClassDef{
		Name:         "java/lang/Throwable",
		Fields:       map[string]string{"message": "Ljava/lang/String;"},
		Constructors: map[string]Method{"()V": nil, messageSig: setMessage},
		Methods: map[string]Method{
			"getMessage()Ljava/lang/String;": func(env *Env, this ffi.Ref, _ []ffi.Value) ffi.Value {
				return env.FieldValue(this, "message")
			},
		},
	})
	for _, e := range exceptionClasses {
		vm.MustDefineClass(ClassDef{
			Name:         e.name,
			Super:        e.super,
			Constructors: map[string]Method{"()V": nil, messageSig: setMessage},
		})
	}

	vm.MustDefineClass(ClassDef{
		Name: "java/lang/ClassLoader",
		Methods: map[string]Method{
			"loadClass(Ljava/lang/String;)Ljava/lang/Class;": loadClass,
		},
	})
}

// loadClass resolves a binary class name through a loader created by
// NewClassLoader.
func loadClass(env *Env, this ffi.Ref, args []ffi.Value) ffi.Value {
	loader, _ := env.Data(this).(string)
	name := binaryToInternal(env.Str(args[0].Ref()))
	c, ok := env.vm.lookupClass(name)
	if !ok || (c.loader != "" && c.loader != loader) {
		env.ThrowClass("java/lang/ClassNotFoundException", sig.ToBinaryName(name))
		return 0
	}
	return ffi.RefValue(env.local(c.object))
}

func (vm *VM) builtin(name string) *class {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.classes[name]
}

func (vm *VM) newObject(c *class) *object {
	obj := &object{class: c, id: objectIDs.Add(1), fields: make(map[*member]any)}
	for k := c; k != nil; k = k.super {
		for _, f := range k.fields {
			obj.fields[f] = zeroValue(f.typ)
		}
	}
	return obj
}

func (vm *VM) newString(s string) *object {
	obj := vm.newObject(vm.builtin(jtype.StringClass))
	obj.str = s
	return obj
}

func (vm *VM) newThrowable(c *class, msg string) *object {
	obj := vm.newObject(c)
	obj.fields[vm.builtin("java/lang/Throwable").fieldNamed("message")] = vm.newString(msg)
	return obj
}
