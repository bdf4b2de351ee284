// Package literal parses call-site arguments typed at a prompt into the Go
// values overload selection accepts.
//
//	1, 2.5f, 3L, 'c', "text", true, null, (short)7, [1, 2, 3]
//
// Integers without a suffix are int32 and decimals without one are float64,
// the way the source language reads them. A bracketed list becomes a slice
// of its first element's type; every element must share it.
package literal

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wippyai/jni-bind/errors"
)

// ParseList splits a comma-separated argument list and parses each item.
// An empty or blank string yields no arguments.
func ParseList(s string) ([]any, error) {
	items, err := split(s)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		v, err := Parse(item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Parse reads a single literal.
func Parse(s string) (any, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, invalid(s, "empty literal")
	case s == "null":
		return nil, nil
	case s == "true":
		return true, nil
	case s == "false":
		return false, nil
	case s[0] == '"':
		v, err := strconv.Unquote(s)
		if err != nil {
			return nil, errors.ParseFailed("string literal "+s, err)
		}
		return v, nil
	case s[0] == '\'':
		return parseChar(s)
	case s[0] == '[':
		return parseArray(s)
	case s[0] == '(':
		return parseCast(s)
	}
	return parseNumber(s)
}

func parseChar(s string) (any, error) {
	v, err := strconv.Unquote(s)
	if err != nil {
		return nil, errors.ParseFailed("char literal "+s, err)
	}
	r, size := utf8.DecodeRuneInString(v)
	if size != len(v) || r > 0xffff {
		return nil, invalid(s, "char must be a single UTF-16 unit")
	}
	return uint16(r), nil
}

// parseCast handles (byte), (short) and (char) prefixes, which have no
// literal suffix of their own.
func parseCast(s string) (any, error) {
	end := strings.IndexByte(s, ')')
	if end < 0 {
		return nil, invalid(s, "unterminated cast")
	}
	kind, rest := strings.TrimSpace(s[1:end]), strings.TrimSpace(s[end+1:])
	bits := 0
	switch kind {
	case "byte":
		bits = 8
	case "short":
		bits = 16
	case "char":
		n, err := strconv.ParseUint(rest, 0, 16)
		if err != nil {
			return nil, errors.ParseFailed("char value "+rest, err)
		}
		return uint16(n), nil
	default:
		return nil, invalid(s, "unknown cast "+kind)
	}
	n, err := strconv.ParseInt(rest, 0, bits)
	if err != nil {
		return nil, errors.ParseFailed(kind+" value "+rest, err)
	}
	if bits == 8 {
		return int8(n), nil
	}
	return int16(n), nil
}

func parseNumber(s string) (any, error) {
	last := s[len(s)-1]
	body := s[:len(s)-1]
	switch last {
	case 'L', 'l':
		n, err := strconv.ParseInt(body, 0, 64)
		if err != nil {
			return nil, errors.ParseFailed("long literal "+s, err)
		}
		return n, nil
	case 'f', 'F':
		if isHex(s) {
			break
		}
		f, err := strconv.ParseFloat(body, 32)
		if err != nil {
			return nil, errors.ParseFailed("float literal "+s, err)
		}
		return float32(f), nil
	case 'd', 'D':
		if isHex(s) {
			break
		}
		f, err := strconv.ParseFloat(body, 64)
		if err != nil {
			return nil, errors.ParseFailed("double literal "+s, err)
		}
		return f, nil
	}

	if !isHex(s) && strings.ContainsAny(s, ".eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.ParseFailed("double literal "+s, err)
		}
		return f, nil
	}
	n, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return nil, errors.ParseFailed("int literal "+s, err)
	}
	return int32(n), nil
}

func isHex(s string) bool {
	s = strings.TrimPrefix(s, "-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func parseArray(s string) (any, error) {
	if s[len(s)-1] != ']' {
		return nil, invalid(s, "unterminated array")
	}
	items, err := split(s[1 : len(s)-1])
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, invalid(s, "empty array has no element type")
	}
	vals := make([]any, len(items))
	for i, item := range items {
		if vals[i], err = Parse(item); err != nil {
			return nil, err
		}
	}

	switch vals[0].(type) {
	case bool:
		return collect[bool](s, vals)
	case int8:
		return collect[int8](s, vals)
	case uint16:
		return collect[uint16](s, vals)
	case int16:
		return collect[int16](s, vals)
	case int32:
		return collect[int32](s, vals)
	case int64:
		return collect[int64](s, vals)
	case float32:
		return collect[float32](s, vals)
	case float64:
		return collect[float64](s, vals)
	case string:
		return collect[string](s, vals)
	}
	return nil, invalid(s, "unsupported array element")
}

func collect[T any](s string, vals []any) ([]T, error) {
	out := make([]T, len(vals))
	for i, v := range vals {
		t, ok := v.(T)
		if !ok {
			return nil, invalid(s, "mixed element types")
		}
		out[i] = t
	}
	return out, nil
}

// split cuts s at top-level commas, leaving quoted text and brackets intact.
func split(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var (
		out   []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth < 0 {
				return nil, invalid(s, "unbalanced ]")
			}
		case c == ',' && depth == 0:
			out = append(out, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if quote != 0 {
		return nil, invalid(s, "unterminated quote")
	}
	if depth != 0 {
		return nil, invalid(s, "unbalanced [")
	}
	return append(out, strings.TrimSpace(s[start:])), nil
}

func invalid(s, detail string) error {
	return errors.InvalidData(errors.PhaseParse, []string{s}, detail)
}
