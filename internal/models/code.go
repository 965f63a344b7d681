// Package models defines core data structures for catalog records, entries, queries, and search results.
package models

import "strings"

// Record is one raw {code, desc} row from a catalog source.
type Record struct {
	Code string `json:"code" yaml:"code" db:"code"`
	Desc string `json:"desc" yaml:"desc" db:"description"`
}

// Valid reports whether the record carries both a code and a description.
func (r Record) Valid() bool {
	return strings.TrimSpace(r.Code) != "" && strings.TrimSpace(r.Desc) != ""
}

// Entry is an indexed catalog code definition.
type Entry struct {
	Code           string   `json:"code"`
	NormalizedCode string   `json:"normalized_code"`
	Description    string   `json:"description"`
	Keywords       []string `json:"keywords,omitempty"`
}

// Stats describes the loaded catalog.
type Stats struct {
	TotalCodes     int  `json:"total_codes"`
	UniqueKeywords int  `json:"unique_keywords"`
	Loaded         bool `json:"loaded"`
}
