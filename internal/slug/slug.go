// Package slug derives URL path segments from page titles.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Make lowercases the text, decomposes accented characters and strips their
// combining marks, joins whitespace runs with a single dash and drops
// everything that is not a letter, digit, underscore or dash.
func Make(text string) string {
	decomposed := norm.NFKD.String(strings.ToLower(text))

	var b strings.Builder
	lastDash := true // suppress leading dashes
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from decomposition
		case unicode.IsSpace(r) || r == '-':
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
			lastDash = false
		}
	}

	return strings.TrimRight(b.String(), "-")
}
