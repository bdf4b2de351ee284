package sig

import (
	"fmt"
	"strings"

	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/jtype"
)

// DecodeType parses a single field or parameter signature.
func DecodeType(s string) (jtype.Type, error) {
	t, n, err := decodeOne(s)
	if err != nil {
		return jtype.Type{}, errors.ParseFailed("type signature "+s, err)
	}
	if n != len(s) {
		return jtype.Type{}, errors.ParseFailed("type signature "+s,
			fmt.Errorf("trailing characters %q", s[n:]))
	}
	return t, nil
}

// DecodeMethod parses a method signature into its return and parameter types.
func DecodeMethod(s string) (jtype.Type, []jtype.Type, error) {
	if !strings.HasPrefix(s, "(") {
		return jtype.Type{}, nil, errors.ParseFailed("method signature "+s, fmt.Errorf("missing '('"))
	}
	end := strings.IndexByte(s, ')')
	if end < 0 {
		return jtype.Type{}, nil, errors.ParseFailed("method signature "+s, fmt.Errorf("missing ')'"))
	}

	var params []jtype.Type
	rest := s[1:end]
	for len(rest) > 0 {
		t, n, err := decodeOne(rest)
		if err != nil {
			return jtype.Type{}, nil, errors.ParseFailed("method signature "+s, err)
		}
		if t.IsVoid() {
			return jtype.Type{}, nil, errors.ParseFailed("method signature "+s, fmt.Errorf("void parameter"))
		}
		params = append(params, t)
		rest = rest[n:]
	}

	ret, err := DecodeType(s[end+1:])
	if err != nil {
		return jtype.Type{}, nil, err
	}
	return ret, params, nil
}

func decodeOne(s string) (jtype.Type, int, error) {
	i := 0
	rank := 0
	for i < len(s) && s[i] == arrayMarker {
		rank++
		i++
	}
	if i >= len(s) {
		return jtype.Type{}, 0, fmt.Errorf("truncated type")
	}
	if rank > jtype.MaxRank {
		return jtype.Type{}, 0, fmt.Errorf("rank %d exceeds %d", rank, jtype.MaxRank)
	}

	c := s[i]
	if c == 'L' {
		semi := strings.IndexByte(s[i:], ';')
		if semi < 0 {
			return jtype.Type{}, 0, fmt.Errorf("unterminated class name")
		}
		name := s[i+1 : i+semi]
		if err := ValidateClassName(name); err != nil {
			return jtype.Type{}, 0, err
		}
		t := jtype.Object(name)
		if name == jtype.StringClass {
			t = jtype.String
		}
		t.Rank = rank
		return t, i + semi + 1, nil
	}

	for k, code := range primitiveCodes {
		if code == c {
			if jtype.Kind(k) == jtype.KindVoid && rank > 0 {
				return jtype.Type{}, 0, fmt.Errorf("array of void")
			}
			return jtype.Type{Kind: jtype.Kind(k), Rank: rank}, i + 1, nil
		}
	}
	return jtype.Type{}, 0, fmt.Errorf("invalid type descriptor char '%c'", c)
}
