package binding

import (
	"github.com/wippyai/jni-bind/cache"
	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/jtype"
	"github.com/wippyai/jni-bind/jvm"
	"github.com/wippyai/jni-bind/loader"
	"github.com/wippyai/jni-bind/ref"
)

func loaderKey(l *loader.Loader) cache.Key {
	return cache.Key{Kind: cache.KeyClass, Loader: l.Path(), Class: jtype.ClassLoaderClass}
}

// RegisterLoader associates a custom loader with the class loader object
// that implements it on rt. The runtime takes ownership of obj and releases
// it at shutdown.
func RegisterLoader(rt *jvm.Runtime, l *loader.Loader, obj *ref.Global) error {
	if l.Kind() != loader.KindCustom {
		return errors.InvalidInput(errors.PhaseLoader, "only custom loaders are backed by loader objects")
	}
	if obj.IsEmpty() {
		return errors.EmptyReference(errors.PhaseLoader, "register loader "+l.Path())
	}
	v, err := rt.Registry().Resolve(loaderKey(l), func() (any, error) { return obj, nil })
	if err != nil {
		return err
	}
	if v != obj {
		return errors.New(errors.PhaseLoader, errors.KindInvalidInput).
			Path(l.Path()).Detail("loader already registered").Build()
	}
	return nil
}

func loaderObject(rt *jvm.Runtime, l *loader.Loader) (*ref.Global, bool) {
	v, ok := rt.Registry().Lookup(loaderKey(l))
	if !ok {
		return nil, false
	}
	return v.(*ref.Global), true
}
