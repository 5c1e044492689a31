package forms

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// cleanLine trims s and removes invalid UTF-8 and control characters,
// including line breaks.
func cleanLine(s string) string {
	return clean(s, false)
}

// cleanText is cleanLine but keeps tabs and line breaks.
func cleanText(s string) string {
	return clean(strings.ReplaceAll(s, "\r\n", "\n"), true)
}

func clean(s string, multiline bool) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	s = strings.Map(func(r rune) rune {
		if multiline && (r == '\n' || r == '\t') {
			return r
		}
		if !multiline && (r == '\n' || r == '\r' || r == '\t') {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(s)
}
