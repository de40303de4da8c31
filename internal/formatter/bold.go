package formatter

import "strings"

// Offsets into the Mathematical Alphanumeric Symbols block (sans-serif bold).
const (
	boldUpper = 0x1D5D4 // 𝗔
	boldLower = 0x1D5EE // 𝗮
	boldDigit = 0x1D7EC // 𝟬
)

// Bold replaces ASCII letters and digits with their Unicode sans-serif bold
// equivalents. Every other rune is returned unchanged, so the result has the
// same number of code points as s.
func Bold(s string) string {
	return strings.Map(boldRune, s)
}

func boldRune(r rune) rune {
	switch {
	case r >= 'A' && r <= 'Z':
		return boldUpper + (r - 'A')
	case r >= 'a' && r <= 'z':
		return boldLower + (r - 'a')
	case r >= '0' && r <= '9':
		return boldDigit + (r - '0')
	}
	return r
}
