package binding

import (
	"github.com/wippyai/jni-bind/cache"
	"github.com/wippyai/jni-bind/decl"
	"github.com/wippyai/jni-bind/selector"
)

// MethodAt returns overload index of method name on cls. The selection is
// computed on first use and kept in cell, so generated call sites pay one
// atomic load afterwards.
func MethodAt(cell *cache.Cell[selector.Selection], cls *decl.Class, name string, static bool, index int) (selector.Selection, error) {
	return cell.Get(func() (selector.Selection, error) {
		return selector.At(cls, name, static, index)
	})
}

// ConstructorAt is MethodAt for constructors.
func ConstructorAt(cell *cache.Cell[selector.Selection], cls *decl.Class, index int) (selector.Selection, error) {
	return cell.Get(func() (selector.Selection, error) {
		return selector.ConstructorAt(cls, index)
	})
}
