package jni

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// cString encodes s in the runtime's modified UTF-8 with a trailing NUL:
// U+0000 takes two bytes and supplementary characters are written as a
// surrogate pair of three-byte sequences.
func cString(s string) []byte {
	out := make([]byte, 0, len(s)+1)
	for _, r := range s {
		switch {
		case r == 0:
			out = append(out, 0xc0, 0x80)
		case r < 0x80:
			out = append(out, byte(r))
		case r < 0x800:
			out = append(out, 0xc0|byte(r>>6), 0x80|byte(r&0x3f))
		case r < 0x10000:
			out = appendThree(out, r)
		default:
			hi, lo := utf16.EncodeRune(r)
			out = appendThree(out, hi)
			out = appendThree(out, lo)
		}
	}
	return append(out, 0)
}

func appendThree(out []byte, r rune) []byte {
	return append(out, 0xe0|byte(r>>12), 0x80|byte((r>>6)&0x3f), 0x80|byte(r&0x3f))
}

// goString decodes modified UTF-8. Malformed sequences decode to U+FFFD.
func goString(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			sb.WriteByte(c)
			i++
		case c&0xe0 == 0xc0 && i+1 < len(b) && cont(b[i+1]):
			sb.WriteRune(rune(c&0x1f)<<6 | rune(b[i+1]&0x3f))
			i += 2
		case c&0xf0 == 0xe0 && i+2 < len(b) && cont(b[i+1]) && cont(b[i+2]):
			r := three(b[i:])
			i += 3
			if utf16.IsSurrogate(r) && i+2 < len(b) && b[i]&0xf0 == 0xe0 && cont(b[i+1]) && cont(b[i+2]) {
				if pair := utf16.DecodeRune(r, three(b[i:])); pair != utf8.RuneError {
					sb.WriteRune(pair)
					i += 3
					continue
				}
			}
			sb.WriteRune(r)
		default:
			sb.WriteRune(utf8.RuneError)
			i++
		}
	}
	return sb.String()
}

func cont(c byte) bool { return c&0xc0 == 0x80 }

func three(b []byte) rune {
	return rune(b[0]&0x0f)<<12 | rune(b[1]&0x3f)<<6 | rune(b[2]&0x3f)
}
