package binding

import (
	"go.uber.org/zap"

	"github.com/wippyai/jni-bind/decl"
	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/selector"
	"github.com/wippyai/jni-bind/sig"
)

// Verify resolves the class and every member it declares, caching each
// success. Members the runtime cannot find are collected into an
// *errors.UnresolvedError; the exceptions their lookups raised are cleared.
func (c *Class) Verify(env ffi.Env) error {
	name := c.desc.Name
	if _, err := c.Resolve(env); err != nil {
		env.ExceptionClear()
		return errors.NewUnresolvedError([]string{name})
	}

	var missing []string
	check := func(member string, err error) {
		if err != nil {
			env.ExceptionClear()
			missing = append(missing, name+"#"+member)
		}
	}

	for i, ctor := range c.desc.Constructors {
		s, _ := selector.ConstructorAt(c.desc, i)
		_, err := c.methodID(env, s)
		check(sig.ConstructorName+ctor.Signature(name), err)
	}
	verifyMethods := func(methods []decl.Method, static bool) {
		for _, m := range methods {
			for i, o := range m.Overloads {
				s := selector.Selection{
					Class:     c.desc,
					Name:      m.Name,
					Signature: o.Signature(name),
					Overload:  o.Resolve(name),
					Index:     i,
					Static:    static,
				}
				_, err := c.methodID(env, s)
				check(m.Name+s.Signature, err)
			}
		}
	}
	verifyMethods(c.desc.Methods, false)
	for _, f := range c.desc.Fields {
		f.Type = f.Type.ResolveSelf(name)
		_, err := c.fieldID(env, f, false)
		check(f.Name, err)
	}
	if st := c.desc.Static; st != nil {
		verifyMethods(st.Methods, true)
		for _, f := range st.Fields {
			f.Type = f.Type.ResolveSelf(name)
			_, err := c.fieldID(env, f, true)
			check(f.Name, err)
		}
	}

	if len(missing) > 0 {
		Logger().Warn("binding: declaration does not match the runtime",
			zap.String("class", name), zap.Strings("missing", missing))
		return errors.NewUnresolvedError(missing)
	}
	return nil
}
