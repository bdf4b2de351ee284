package literal

import (
	"errors"
	"reflect"
	"testing"

	jerrors "github.com/wippyai/jni-bind/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"1", int32(1)},
		{"-42", int32(-42)},
		{"0x1F", int32(31)},
		{"0x1D", int32(29)},
		{"3L", int64(3)},
		{"0x10l", int64(16)},
		{"2.5f", float32(2.5)},
		{"1e3F", float32(1000)},
		{"2.0", float64(2)},
		{"7d", float64(7)},
		{"true", true},
		{"false", false},
		{"null", nil},
		{`"a, \"b\""`, `a, "b"`},
		{"'c'", uint16('c')},
		{`'\n'`, uint16('\n')},
		{"(byte)-3", int8(-3)},
		{"(short) 300", int16(300)},
		{"(char)65", uint16(65)},
		{"[1, 2, 3]", []int32{1, 2, 3}},
		{"[1.5f]", []float32{1.5}},
		{`["x", "y,z"]`, []string{"x", "y,z"}},
		{"[true, false]", []bool{true, false}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Parse(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"abc",
		"4294967296",
		"(long)3",
		"(byte)300",
		"'ab'",
		`"open`,
		"[1, 2L]",
		"[]",
		"[1, 2",
		"[null]",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			if !errors.Is(err, &jerrors.Error{Phase: jerrors.PhaseParse, Kind: jerrors.KindInvalidData}) {
				t.Fatalf("Parse(%q) err = %v", in, err)
			}
		})
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		in   string
		want []any
	}{
		{"", []any{}},
		{"   ", []any{}},
		{"1", []any{int32(1)}},
		{`1, "a,b", [2, 3], null`, []any{int32(1), "a,b", []int32{2, 3}, nil}},
		{"2.0f, 'x'", []any{float32(2), uint16('x')}},
	}
	for _, tt := range tests {
		got, err := ParseList(tt.in)
		if err != nil {
			t.Fatalf("ParseList(%q): %v", tt.in, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("ParseList(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseList(`1, "open`); err == nil {
		t.Fatalf("unterminated quote accepted")
	}
	if _, err := ParseList("1]"); err == nil {
		t.Fatalf("unbalanced bracket accepted")
	}
}
