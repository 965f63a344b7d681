package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minTokenLen is the shortest token kept by Tokenize.
const minTokenLen = 3

// stopWords are dropped from descriptions and queries. Tokens shorter than
// minTokenLen never reach this set, so two-letter words are not listed.
var stopWords = map[string]struct{}{
	// articles, conjunctions, prepositions
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "into": {}, "onto": {},
	"upon": {}, "than": {}, "this": {}, "that": {}, "these": {}, "those": {}, "its": {},
	"nor": {}, "but": {}, "via": {}, "per": {},
	// negations and qualifiers that carry no coding signal
	"without": {}, "unspecified": {}, "not": {}, "other": {}, "elsewhere": {},
	"classified": {}, "otherwise": {},
	// auxiliary verbs
	"are": {}, "was": {}, "were": {}, "been": {}, "being": {}, "has": {}, "have": {},
	"had": {}, "does": {}, "did": {},
	// modal verbs
	"can": {}, "could": {}, "may": {}, "might": {}, "must": {}, "shall": {},
	"should": {}, "will": {}, "would": {},
}

// IsStopWord reports whether token is removed by Tokenize.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// Tokenize splits text into lowercase keyword tokens. The same function is
// used to index descriptions and to parse queries. Unlike a plain ASCII word
// split, accented letters are folded to their base letter first, so "Ménière"
// yields "meniere" rather than nothing; any other character outside
// [a-z0-9_] separates tokens.
// Tokens shorter than three characters and stop words are dropped. Duplicates
// are kept in input order.
func Tokenize(text string) []string {
	text = foldAccents(strings.ToLower(text))
	fields := strings.FieldsFunc(text, func(r rune) bool { return !isWordRune(r) })
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < minTokenLen || IsStopWord(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
}

// foldAccents strips combining marks ("ménière" -> "meniere"). A new chain is
// built per call because transform.Chain keeps internal state.
func foldAccents(s string) string {
	if isASCII(s) {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
