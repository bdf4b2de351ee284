package selector

import (
	"errors"
	"testing"

	"github.com/wippyai/jni-bind/decl"
	jerrors "github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/jtype"
)

type typed struct {
	desc *decl.Class
	t    jtype.Type
}

func (v typed) JavaType() jtype.Type { return v.t }
func (v typed) Descriptor() *decl.Class { return v.desc }

func of(c *decl.Class) typed { return typed{t: jtype.Object(c.Name), desc: c} }

var (
	base = decl.NewClass("com/example/Base",
		decl.WithMethods(decl.NewMethod("id", decl.Returns(jtype.Long))),
	)
	widget = decl.NewClass("com/example/Widget",
		decl.Extends(base),
		decl.WithConstructors(decl.NewConstructor(), decl.NewConstructor(jtype.Int)),
		decl.WithMethods(
			decl.NewMethod("resize",
				decl.Returns(jtype.Void, jtype.Int),
				decl.Returns(jtype.Void, jtype.Float, jtype.Float)),
			decl.NewMethod("put",
				decl.Returns(jtype.Void, jtype.Object(jtype.ObjectClass)),
				decl.Returns(jtype.Void, jtype.String)),
			decl.NewMethod("attach",
				decl.Returns(jtype.Void, jtype.Object("com/example/Base")),
				decl.Returns(jtype.Void, jtype.Self)),
			decl.NewMethod("pair",
				decl.Returns(jtype.Void, jtype.Object(jtype.ObjectClass), jtype.String),
				decl.Returns(jtype.Void, jtype.String, jtype.Object(jtype.ObjectClass))),
			decl.NewMethod("fill", decl.Returns(jtype.Void, jtype.Int.Array(1))),
			decl.NewMethod("copy", decl.Returns(jtype.Self)),
		),
		decl.WithStatic(nil, []decl.Method{
			decl.NewMethod("of", decl.Returns(jtype.Self, jtype.Int)),
		}),
	)
)

var (
	errInvalid   = &jerrors.Error{Phase: jerrors.PhaseSelect, Kind: jerrors.KindInvalidArguments}
	errAmbiguous = &jerrors.Error{Phase: jerrors.PhaseSelect, Kind: jerrors.KindAmbiguous}
	errNotFound  = &jerrors.Error{Phase: jerrors.PhaseSelect, Kind: jerrors.KindNotFound}
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		args    []any
		wantSig string
		wantErr error
	}{
		{"exact int", "resize", []any{int32(3)}, "(I)V", nil},
		{"go int converts", "resize", []any{3}, "(I)V", nil},
		{"float pair", "resize", []any{float32(1), float32(2)}, "(FF)V", nil},
		{"float64 is double", "resize", []any{1.0, 2.0}, "", errInvalid},
		{"wrong arity", "resize", []any{}, "", errInvalid},
		{"string prefers String", "put", []any{"x"}, "(Ljava/lang/String;)V", nil},
		{"object widening", "put", []any{of(widget)}, "(Ljava/lang/Object;)V", nil},
		{"nil prefers String", "put", []any{nil}, "(Ljava/lang/String;)V", nil},
		{"nil wrapper prefers String", "put", []any{typed{}}, "(Ljava/lang/String;)V", nil},
		{"nil pair is ambiguous", "pair", []any{nil, nil}, "", errAmbiguous},
		{"self beats ancestor", "attach", []any{of(widget)}, "(Lcom/example/Widget;)V", nil},
		{"ancestor match", "attach", []any{of(base)}, "(Lcom/example/Base;)V", nil},
		{"crossed widening", "pair", []any{"a", "b"}, "", errAmbiguous},
		{"slice to array", "fill", []any{[]int32{1, 2}}, "([I)V", nil},
		{"wrong slice", "fill", []any{[]int64{1}}, "", errInvalid},
		{"inherited method", "id", nil, "()J", nil},
		{"unknown method", "nope", nil, "", errNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Select(widget, tt.method, false, tt.args)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Select failed: %v", err)
			}
			if s.Signature != tt.wantSig {
				t.Fatalf("Signature = %s, want %s", s.Signature, tt.wantSig)
			}
		})
	}
}

func TestSelect_SelfResolvesToDeclaringClass(t *testing.T) {
	s, err := Select(widget, "copy", false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Overload.Return != jtype.Object("com/example/Widget") {
		t.Fatalf("Return = %v", s.Overload.Return)
	}

	s, err = Select(widget, "id", false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Class != base {
		t.Fatalf("inherited method should report its declaring class, got %s", s.Class.Name)
	}
}

func TestSelect_Static(t *testing.T) {
	s, err := Select(widget, "of", true, []any{7})
	if err != nil {
		t.Fatal(err)
	}
	if !s.Static || s.Signature != "(I)Lcom/example/Widget;" {
		t.Fatalf("selection = %+v", s)
	}
	if _, err := Select(widget, "of", false, []any{7}); !errors.Is(err, errNotFound) {
		t.Fatalf("static method must not bind as instance, err = %v", err)
	}
}

func TestSelectConstructor(t *testing.T) {
	s, err := SelectConstructor(widget, []any{int32(1)})
	if err != nil {
		t.Fatal(err)
	}
	if s.Index != 1 || s.Signature != "(I)V" || s.Name != "<init>" {
		t.Fatalf("selection = %+v", s)
	}

	if _, err := SelectConstructor(widget, []any{"x"}); !errors.Is(err, errInvalid) {
		t.Fatalf("err = %v", err)
	}
	if _, err := SelectConstructor(base, nil); !errors.Is(err, errNotFound) {
		t.Fatalf("class without constructors, err = %v", err)
	}
}

func TestAt(t *testing.T) {
	s, err := At(widget, "resize", false, 1)
	if err != nil || s.Signature != "(FF)V" {
		t.Fatalf("At = %+v, %v", s, err)
	}
	if _, err := At(widget, "resize", false, 2); err == nil {
		t.Fatal("expected out-of-range error")
	}
	c, err := ConstructorAt(widget, 0)
	if err != nil || c.Signature != "()V" {
		t.Fatalf("ConstructorAt = %+v, %v", c, err)
	}
}

func TestInvalidArgumentsMessage(t *testing.T) {
	_, err := Select(widget, "resize", false, []any{"big"})
	var e *jerrors.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if e.Detail != "invalid argument set" || e.GoType != "(string)" {
		t.Fatalf("error = %+v", e)
	}
}
