package models

// MatchType tells how a search result matched the query.
type MatchType string

const (
	MatchExactCode   MatchType = "exact_code"
	MatchPartialCode MatchType = "partial_code"
	MatchKeyword     MatchType = "keyword"
	MatchFuzzy       MatchType = "fuzzy"
)

// SearchResult is a single catalog hit. Score meaning depends on MatchType:
// keyword weight for keyword/fuzzy, shared prefix length for partial_code.
type SearchResult struct {
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Score       float64   `json:"score"`
	MatchType   MatchType `json:"match_type"`
}

// SearchResponse is the response for a description search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
	// Suggestions holds the corrected query when a fuzzy retry was used.
	Suggestions []string `json:"suggestions,omitempty"`
	// AutoFuzzy is set when the exact keyword search found nothing and the
	// results come from a spell-corrected query.
	AutoFuzzy bool `json:"auto_fuzzy,omitempty"`
}

// Verification is the outcome of checking a suggested code against the catalog.
type Verification struct {
	Input      string          `json:"input"`
	Valid      bool            `json:"valid"`
	Corrected  bool            `json:"corrected"`
	Entry      *Entry          `json:"entry,omitempty"`
	Confidence float64         `json:"confidence"`
	Similar    []*SearchResult `json:"similar,omitempty"`
}
