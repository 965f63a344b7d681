package keyword

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// TermDictionary is the set of words the spell checker may suggest.
type TermDictionary interface {
	// GetAllTerms returns all unique terms.
	GetAllTerms() ([]string, error)
	// GetTermFrequency returns how many catalog entries use the term.
	GetTermFrequency(term string) (int, error)
	// ContainsTerm reports whether the term is known.
	ContainsTerm(term string) (bool, error)
}

// Suggestion is one candidate correction for a term.
type Suggestion struct {
	Term      string  `json:"term"`
	Distance  int     `json:"distance"`
	Frequency int     `json:"frequency"`
	Score     float64 `json:"score"`
}

// CheckResult describes the corrections found for a query.
type CheckResult struct {
	OriginalQuery   string
	CorrectedQuery  string
	CorrectedTerms  []string
	Suggestions     []Suggestion
	MisspelledTerms []string
	HasCorrections  bool
}

// SpellChecker suggests dictionary terms within a small edit distance of unknown words.
type SpellChecker struct {
	dictionary     TermDictionary
	tokenize       func(string) []string
	maxDistance    int
	minFreq        int
	maxSuggestions int
	transpositions bool

	mu      sync.RWMutex
	terms   []string
	termSet map[string]struct{}
	loaded  bool
}

// SpellCheckerOption configures a SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the largest edit distance a suggestion may have.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency ignores dictionary terms used by fewer than f entries.
func WithMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions caps suggestions per term.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// WithTranspositions selects Damerau-Levenshtein (true, default) or plain Levenshtein distance.
func WithTranspositions(on bool) SpellCheckerOption {
	return func(s *SpellChecker) { s.transpositions = on }
}

// WithTokenizer sets how queries are split into terms. The default lowercases
// and splits on whitespace.
func WithTokenizer(fn func(string) []string) SpellCheckerOption {
	return func(s *SpellChecker) {
		if fn != nil {
			s.tokenize = fn
		}
	}
}

// NewSpellChecker creates a spell checker over dict. The term list is read lazily on first use.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		tokenize:       splitLower,
		maxDistance:    2,
		minFreq:        1,
		maxSuggestions: 5,
		transpositions: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func splitLower(q string) []string {
	return strings.Fields(strings.ToLower(q))
}

// RefreshCache reloads the term list from the dictionary.
func (s *SpellChecker) RefreshCache() error {
	terms, err := s.dictionary.GetAllTerms()
	if err != nil {
		return err
	}
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[strings.ToLower(t)] = struct{}{}
	}
	s.mu.Lock()
	s.terms = terms
	s.termSet = set
	s.loaded = true
	s.mu.Unlock()
	return nil
}

func (s *SpellChecker) snapshot() ([]string, map[string]struct{}, error) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if !loaded {
		if err := s.RefreshCache(); err != nil {
			return nil, nil, err
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terms, s.termSet, nil
}

func (s *SpellChecker) distance(a, b string) int {
	if s.transpositions {
		return DamerauLevenshteinDistance(a, b)
	}
	return LevenshteinDistance(a, b)
}

// Suggest returns up to maxSuggestions dictionary terms close to term, best first.
// Closer terms rank higher; among equally close terms the more frequent one wins.
func (s *SpellChecker) Suggest(term string) ([]Suggestion, error) {
	terms, _, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(term)
	termLen := utf8.RuneCountInString(term)
	suggestions := make([]Suggestion, 0)
	for _, candidate := range terms {
		lower := strings.ToLower(candidate)
		if lower == term {
			continue
		}
		diff := utf8.RuneCountInString(lower) - termLen
		if diff < 0 {
			diff = -diff
		}
		if diff > s.maxDistance {
			continue
		}
		dist := s.distance(term, lower)
		if dist > s.maxDistance {
			continue
		}
		freq, err := s.dictionary.GetTermFrequency(candidate)
		if err != nil || freq < s.minFreq {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Term:      candidate,
			Distance:  dist,
			Frequency: freq,
			Score:     float64(freq) / float64(dist+1),
		})
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Term < b.Term
	})
	if len(suggestions) > s.maxSuggestions {
		suggestions = suggestions[:s.maxSuggestions]
	}
	return suggestions, nil
}

// Check splits query into terms and replaces each unknown term with its best suggestion.
// Terms with no suggestion are kept as typed.
func (s *SpellChecker) Check(query string) (*CheckResult, error) {
	_, known, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	terms := s.tokenize(query)
	result := &CheckResult{
		OriginalQuery:   query,
		CorrectedTerms:  make([]string, 0, len(terms)),
		Suggestions:     make([]Suggestion, 0),
		MisspelledTerms: make([]string, 0),
	}
	for _, term := range terms {
		if _, ok := known[strings.ToLower(term)]; ok {
			result.CorrectedTerms = append(result.CorrectedTerms, term)
			continue
		}
		suggestions, err := s.Suggest(term)
		if err != nil {
			return nil, err
		}
		if len(suggestions) == 0 {
			result.CorrectedTerms = append(result.CorrectedTerms, term)
			continue
		}
		result.HasCorrections = true
		result.MisspelledTerms = append(result.MisspelledTerms, term)
		result.Suggestions = append(result.Suggestions, suggestions...)
		result.CorrectedTerms = append(result.CorrectedTerms, suggestions[0].Term)
	}
	result.CorrectedQuery = strings.Join(result.CorrectedTerms, " ")
	return result, nil
}

// IsMisspelled reports whether term is absent from the dictionary.
func (s *SpellChecker) IsMisspelled(term string) bool {
	_, known, err := s.snapshot()
	if err != nil {
		return false
	}
	_, ok := known[strings.ToLower(term)]
	return !ok
}

// SuggestedQuery returns the corrected query, or query itself when nothing was corrected.
func (s *SpellChecker) SuggestedQuery(query string) string {
	result, err := s.Check(query)
	if err != nil || !result.HasCorrections {
		return query
	}
	return result.CorrectedQuery
}
