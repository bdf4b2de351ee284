package jni

import (
	"bytes"
	"testing"
)

func TestCString(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"", []byte{0}},
		{"abc", []byte{'a', 'b', 'c', 0}},
		{"a\x00b", []byte{'a', 0xc0, 0x80, 'b', 0}},
		{"é", []byte{0xc3, 0xa9, 0}},
		{"€", []byte{0xe2, 0x82, 0xac, 0}},
		// U+1F600 as the surrogate pair D83D DE00.
		{"😀", []byte{0xed, 0xa0, 0xbd, 0xed, 0xb8, 0x80, 0}},
	}
	for _, tt := range tests {
		got := cString(tt.in)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("cString(%q) = % x, want % x", tt.in, got, tt.want)
		}
		if back := goString(got[:len(got)-1]); back != tt.in {
			t.Errorf("goString(cString(%q)) = %q", tt.in, back)
		}
	}
}

func TestGoStringMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"truncated two-byte", []byte{'a', 0xc3}, "a�"},
		{"stray continuation", []byte{0x80, 'b'}, "�b"},
		{"lone high surrogate", []byte{0xed, 0xa0, 0xbd, 'x'}, "�x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := goString(tt.in); got != tt.want {
				t.Fatalf("goString(% x) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
