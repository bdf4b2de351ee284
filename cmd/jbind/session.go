package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/jni-bind/binding"
	"github.com/wippyai/jni-bind/decl"
	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/ffi/fakevm"
	"github.com/wippyai/jni-bind/jtype"
	"github.com/wippyai/jni-bind/jvm"
	"github.com/wippyai/jni-bind/loader"
	"github.com/wippyai/jni-bind/ref"
)

type options struct {
	classPath []string
	jvmArgs   []string
	javaHome  string
	dry       bool
	log       *zap.Logger
}

// session is a running VM with every declared class bound to it.
type session struct {
	rt      *jvm.Runtime
	loaders *loader.Runtime
	classes []*binding.Class
}

func openSession(f *decl.File, opts options) (*session, error) {
	loaders, err := loader.FromSpecs(f.Loaders, f.Classes)
	if err != nil {
		return nil, err
	}

	var vm ffi.VM
	if opts.dry {
		vm, err = dryVM(f.Classes, loaders)
	} else {
		vm, err = openJVM(opts)
	}
	if err != nil {
		return nil, err
	}

	rt := jvm.NewWithConfig(vm, &jvm.Config{
		Logger:                  opts.log,
		Loaders:                 loaders,
		ReleaseCachesOnShutdown: true,
	})
	s := &session{rt: rt, loaders: loaders}
	if opts.dry {
		if err := s.registerDryLoaders(); err != nil {
			_ = rt.Shutdown()
			return nil, err
		}
	} else {
		for _, l := range loaders.Loaders() {
			if l.Kind() == loader.KindCustom {
				opts.log.Warn("custom loader has no loader object; its classes will not resolve",
					zap.String("loader", l.Name()))
			}
		}
	}

	for _, c := range f.Classes {
		s.classes = append(s.classes, binding.Bind(rt, c))
	}
	return s, nil
}

// dryVM defines every declared class in an in-memory VM. Members exist but
// have no behaviour: calls return zero values and null.
func dryVM(classes []*decl.Class, loaders *loader.Runtime) (*fakevm.VM, error) {
	vm := fakevm.New()
	var define func(c *decl.Class) error
	define = func(c *decl.Class) error {
		if vm.Defined(c.Name) {
			return nil
		}
		if c.Parent != nil {
			if err := define(c.Parent); err != nil {
				return err
			}
		}
		name := ""
		if l := loaders.LoaderFor(c); l.Kind() == loader.KindCustom {
			name = l.Name()
		}
		return vm.DefineDeclared(c, name)
	}
	for _, c := range classes {
		if err := define(c); err != nil {
			return nil, errors.Wrap(errors.PhaseRuntime, errors.KindInvalidDeclaration, err, c.Name)
		}
	}
	return vm, nil
}

func (s *session) registerDryLoaders() error {
	return s.rt.Do(func(env ffi.Env) error {
		fenv, ok := env.(*fakevm.Env)
		if !ok {
			return errors.Unsupported(errors.PhaseLoader, "loader objects outside the in-memory VM")
		}
		for _, l := range s.loaders.Loaders() {
			if l.Kind() != loader.KindCustom {
				continue
			}
			obj, err := ref.NewLocal(env, fenv.NewClassLoader(l.Name()), jtype.Object(jtype.ClassLoaderClass)).Promote()
			if err != nil {
				return err
			}
			if err := binding.RegisterLoader(s.rt, l, obj); err != nil {
				_ = obj.CloseIn(env)
				return err
			}
		}
		return nil
	})
}

// class returns the binding for the class named name.
func (s *session) class(name string) (*binding.Class, bool) {
	for _, c := range s.classes {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// verify resolves every declared member and reports one line per class.
// The returned error lists every member that did not resolve.
func (s *session) verify(report func(class string, err error)) error {
	var missing []errors.UnresolvedMember
	err := s.rt.Do(func(env ffi.Env) error {
		for _, c := range s.classes {
			err := c.Verify(env)
			report(c.Name(), err)
			if u, ok := err.(*errors.UnresolvedError); ok {
				missing = append(missing, u.Members...)
			} else if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return &errors.UnresolvedError{Members: missing}
	}
	return nil
}

func (s *session) close() error {
	return s.rt.Shutdown()
}

// call invokes m. Constructors and statics need no receiver; instance
// members run against recv. A constructed object is returned promoted so it
// outlives the call.
func (s *session) call(m member, recv *binding.GlobalObject, args []any) (string, *binding.GlobalObject, error) {
	cls, ok := s.class(m.class.Name)
	if !ok {
		return "", nil, errors.NotFound(errors.PhaseResolve, "class", m.class.Name)
	}
	if m.needsReceiver() && recv == nil {
		return "", nil, errors.EmptyReference(errors.PhaseInvoke, m.label())
	}

	var (
		out     string
		created *binding.GlobalObject
	)
	err := s.rt.Do(func(env ffi.Env) error {
		err := binding.Catch(env, func() error {
			var target *binding.Object
			if recv != nil && m.needsReceiver() {
				o, err := recv.Local(env)
				if err != nil {
					return err
				}
				defer o.Close()
				target = o
			}

			switch m.kind {
			case kindConstructor:
				obj, err := cls.NewOverload(env, m.index, args...)
				if err != nil {
					return err
				}
				defer obj.Close()
				if created, err = obj.Promote(); err != nil {
					return err
				}
				out = "created " + javaName(obj.JavaType())
				return nil
			case kindStaticField:
				if len(args) > 0 {
					if err := cls.SetStatic(env, m.name, args[0]); err != nil {
						return err
					}
				}
				v, err := cls.GetStatic(env, m.name)
				if err != nil {
					return err
				}
				out, err = formatValue(v)
				return err
			case kindField:
				if len(args) > 0 {
					if err := target.Set(m.name, args[0]); err != nil {
						return err
					}
				}
				v, err := target.Get(m.name)
				if err != nil {
					return err
				}
				out, err = formatValue(v)
				return err
			case kindStaticMethod:
				v, err := cls.CallStaticOverload(env, m.name, m.index, args...)
				if err != nil {
					return err
				}
				out, err = formatValue(v)
				return err
			}
			v, err := target.CallOverload(m.name, m.index, args...)
			if err != nil {
				return err
			}
			out, err = formatValue(v)
			return err
		})
		if t, ok := err.(*binding.Throwable); ok {
			_ = t.Close(env)
		}
		return err
	})
	return out, created, err
}

// formatValue renders a call result and releases any reference it holds.
func formatValue(v binding.Value) (string, error) {
	t := v.Type
	switch {
	case t.IsVoid():
		return "void", nil
	case t.Rank > 0:
		if v.IsNull() {
			return "null", nil
		}
		arr, err := v.Array()
		if err != nil {
			return "", err
		}
		defer arr.Close()
		return fmt.Sprintf("%s (length %d)", javaName(t), arr.Len()), nil
	case t.IsReference():
		if v.IsNull() {
			return "null", nil
		}
		if t.ClassName() == jtype.StringClass {
			s, err := v.Text()
			return fmt.Sprintf("%q", s), err
		}
		defer v.Close()
		return javaName(t) + " instance", nil
	}

	switch t.Kind {
	case jtype.KindBoolean:
		return fmt.Sprint(v.Bool()), nil
	case jtype.KindByte:
		return fmt.Sprint(v.Byte()), nil
	case jtype.KindChar:
		return fmt.Sprintf("%q", rune(v.Char())), nil
	case jtype.KindShort:
		return fmt.Sprint(v.Short()), nil
	case jtype.KindInt:
		return fmt.Sprint(v.Int()), nil
	case jtype.KindLong:
		return fmt.Sprint(v.Long()), nil
	case jtype.KindFloat:
		return fmt.Sprint(v.Float()), nil
	case jtype.KindDouble:
		return fmt.Sprint(v.Double()), nil
	}
	return t.String(), nil
}
