package models

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned by request validation when no query text was given.
var ErrEmptyQuery = errors.New("query cannot be empty")

// ErrNoCodes is returned by request validation when a code list is empty.
var ErrNoCodes = errors.New("codes cannot be empty")

// SearchQuery is a description search request.
type SearchQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	Fuzzy bool   `json:"fuzzy,omitempty"`
}

// Validate rejects blank queries and clamps Limit into [1, maxLimit], using
// defaultLimit when unset.
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	if strings.TrimSpace(q.Query) == "" {
		return ErrEmptyQuery
	}
	q.Limit = clampLimit(q.Limit, defaultLimit, maxLimit)
	return nil
}

// ContextRequest asks for a grounding context block.
type ContextRequest struct {
	Query      string `json:"query"`
	MaxEntries int    `json:"max_entries,omitempty"`
}

// ValidateRequest asks for batch validation of codes.
type ValidateRequest struct {
	Codes []string `json:"codes"`
}

// ValidateResponse maps every supplied code to its entry, or null when unknown.
type ValidateResponse struct {
	Results map[string]*Entry `json:"results"`
	Valid   int               `json:"valid"`
}

// VerifyRequest carries an externally suggested code to check.
type VerifyRequest struct {
	Code        string  `json:"code"`
	Description string  `json:"description,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
}

func clampLimit(limit, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return limit
}

// ClampLimit applies the same default and cap rules as SearchQuery.Validate.
func ClampLimit(limit, defaultLimit, maxLimit int) int {
	return clampLimit(limit, defaultLimit, maxLimit)
}
