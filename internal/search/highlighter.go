package search

import (
	"strings"
	"unicode"

	"github.com/hyperjump/icdlookup/internal/catalog"
)

// Highlight wraps every word of text that a query token matches (exactly or as
// a prefix, the same way keyword search scores) in pre and post.
func Highlight(text, query, pre, post string) string {
	tokens := catalog.Tokenize(query)
	if len(tokens) == 0 {
		return text
	}

	var b strings.Builder
	start := -1
	flush := func(end int) {
		word := text[start:end]
		if matchesAny(word, tokens) {
			b.WriteString(pre)
			b.WriteString(word)
			b.WriteString(post)
		} else {
			b.WriteString(word)
		}
		start = -1
	}
	for i, r := range text {
		if isWord(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			flush(i)
		}
		b.WriteRune(r)
	}
	if start >= 0 {
		flush(len(text))
	}
	return b.String()
}

func matchesAny(word string, tokens []string) bool {
	folded := catalog.Tokenize(word)
	if len(folded) != 1 {
		return false
	}
	for _, t := range tokens {
		if strings.HasPrefix(folded[0], t) {
			return true
		}
	}
	return false
}

func isWord(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
