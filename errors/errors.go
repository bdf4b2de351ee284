package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDeclare  Phase = "declare"  // descriptor validation
	PhaseSelect   Phase = "select"   // overload selection
	PhaseResolve  Phase = "resolve"  // class/method/field lookup
	PhaseInvoke   Phase = "invoke"   // argument lowering and calls
	PhaseLifetime Phase = "lifetime" // reference ownership
	PhaseArray    Phase = "array"    // array projection
	PhaseLoader   Phase = "loader"   // class loader topology
	PhaseGenerate Phase = "generate" // binding code generation
	PhaseRuntime  Phase = "runtime"  // attach, detach, shutdown
	PhaseParse    Phase = "parse"    // signatures and declaration files
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch       Kind = "type_mismatch"
	KindOutOfBounds        Kind = "out_of_bounds"
	KindInvalidData        Kind = "invalid_data"
	KindUnsupported        Kind = "unsupported"
	KindInvalidArguments   Kind = "invalid_arguments"
	KindAmbiguous          Kind = "ambiguous"
	KindMalformedName      Kind = "malformed_name"
	KindInvalidDeclaration Kind = "invalid_declaration"
	KindNotFound           Kind = "not_found"
	KindPendingException   Kind = "pending_exception"
	KindEmptyReference     Kind = "empty_reference"
	KindNotAttached        Kind = "not_attached"
	KindNotInitialized     Kind = "not_initialized"
	KindInvalidInput       Kind = "invalid_input"
	KindClosed             Kind = "closed"
	KindUnresolved         Kind = "unresolved"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	GoType   string
	JavaType string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.JavaType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.JavaType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", Java type ")
			b.WriteString(e.JavaType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("Java type ")
			b.WriteString(e.JavaType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.JavaType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the member path (class, member)
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// JavaType sets the wire type of the declared member
func (b *Builder) JavaType(t string) *Builder {
	b.err.JavaType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, javaType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		GoType:   goType,
		JavaType: javaType,
	}
}

// MalformedName creates an error for a class name the runtime cannot locate by.
func MalformedName(name, detail string) *Error {
	return &Error{
		Phase:  PhaseDeclare,
		Kind:   KindMalformedName,
		Value:  name,
		Detail: fmt.Sprintf("class name %q: %s", name, detail),
	}
}

// InvalidDeclaration creates a descriptor validation error
func InvalidDeclaration(path []string, detail string) *Error {
	return &Error{
		Phase:  PhaseDeclare,
		Kind:   KindInvalidDeclaration,
		Path:   path,
		Detail: detail,
	}
}

// InvalidArguments reports that no overload accepts the call-site arguments.
func InvalidArguments(class, member string, goTypes []string) *Error {
	return &Error{
		Phase:  PhaseSelect,
		Kind:   KindInvalidArguments,
		Path:   []string{class, member},
		GoType: "(" + strings.Join(goTypes, ", ") + ")",
		Detail: "invalid argument set",
	}
}

// Ambiguous reports that more than one overload is equally specific.
func Ambiguous(class, member string, signatures []string) *Error {
	return &Error{
		Phase:  PhaseSelect,
		Kind:   KindAmbiguous,
		Path:   []string{class, member},
		Detail: "ambiguous call, candidates " + strings.Join(signatures, ", "),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// EmptyReference creates an error for an operation on a moved-from or released wrapper
func EmptyReference(phase Phase, op string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindEmptyReference,
		Detail: op + " on empty reference",
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// PendingException reports that the runtime has an exception pending after an operation.
func PendingException(phase Phase, path []string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindPendingException,
		Path:   path,
		Detail: "exception pending",
		Cause:  cause,
	}
}

// UnresolvedMember represents a single declared member the runtime could not locate
type UnresolvedMember struct {
	Class  string // e.g., "com/example/Widget"
	Member string // e.g., "resize(II)V"
}

// UnresolvedError is returned when verifying a declaration against a live runtime
// finds members that do not exist.
type UnresolvedError struct {
	Members []UnresolvedMember
}

// NewUnresolvedError creates an error from a list of "class#member" strings
func NewUnresolvedError(members []string) *UnresolvedError {
	result := &UnresolvedError{
		Members: make([]UnresolvedMember, 0, len(members)),
	}
	for _, m := range members {
		cls, member := parseMemberKey(m)
		result.Members = append(result.Members, UnresolvedMember{
			Class:  cls,
			Member: member,
		})
	}
	return result
}

func parseMemberKey(key string) (class, member string) {
	cls, m, found := strings.Cut(key, "#")
	if found {
		return cls, m
	}
	return key, ""
}

func (e *UnresolvedError) Error() string {
	if len(e.Members) == 0 {
		return "[resolve] unresolved: no members specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("unresolved %d member(s):\n", len(e.Members)))

	// Group by class for cleaner output
	byClass := make(map[string][]string)
	var order []string
	for _, m := range e.Members {
		if _, exists := byClass[m.Class]; !exists {
			order = append(order, m.Class)
		}
		byClass[m.Class] = append(byClass[m.Class], m.Member)
	}

	for _, cls := range order {
		b.WriteString("\n  ")
		b.WriteString(cls)
		b.WriteString(":\n")
		for _, m := range byClass[cls] {
			if m == "" {
				m = "(class)"
			}
			b.WriteString("    - ")
			b.WriteString(m)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is matches any *UnresolvedError and an *Error of phase resolve and kind
// unresolved.
func (e *UnresolvedError) Is(target error) bool {
	switch t := target.(type) {
	case *UnresolvedError:
		return true
	case *Error:
		return t.Phase == PhaseResolve && t.Kind == KindUnresolved
	}
	return false
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotAttached reports an operation that needs an attached thread.
func NotAttached(detail string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindNotAttached,
		Detail: detail,
	}
}

// Closed reports use of a runtime after Shutdown.
func Closed(what string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindClosed,
		Detail: what + " closed",
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}
