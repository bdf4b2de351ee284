// Package errors provides structured error types for the jni-bind module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: member path, Go and Java type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseInvoke, errors.KindTypeMismatch).
//		Path("com/example/Widget", "resize").
//		GoType("string").
//		JavaType("I").
//		Detail("cannot lower argument 0").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidArguments("com/example/Widget", "resize", goTypes)
//	err := errors.MalformedName("com.example.Widget", "use '/' separators")
//
// Failures reported by the managed runtime itself (pending exceptions) are
// never retried; they surface as KindPendingException or KindNotFound and
// leave the runtime's exception state untouched.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
