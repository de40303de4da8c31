package formatter

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxPostLength is the share commentary budget in characters.
const DefaultMaxPostLength = 2500

// Truncate returns the first max code points of s.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// PostText formats markup for a share and cuts it to max characters. The
// markup is NFC-normalized first so composed and decomposed accents count the
// same against the budget.
func PostText(markup string, max int) (text string, truncated bool, err error) {
	full, err := Format(norm.NFC.String(markup))
	if err != nil {
		return "", false, err
	}
	text = Truncate(full, max)
	return text, len(text) < len(full), nil
}
