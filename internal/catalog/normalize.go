package catalog

import (
	"strings"
	"unicode"
)

// NormalizeCode returns the canonical index key for a code: letters uppercased,
// dots, hyphens and whitespace removed. "j 18-9" and "J18.9" both become "J189".
func NormalizeCode(code string) string {
	return strings.Map(func(r rune) rune {
		if r == '.' || r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, code)
}
