package search

import (
	"github.com/hyperjump/icdlookup/internal/config"
	"github.com/hyperjump/icdlookup/internal/models"
)

// ProcessQuery validates and applies defaults to the search query.
func ProcessQuery(query *models.SearchQuery, cfg *config.SearchConfig) error {
	return query.Validate(cfg.DefaultLimit, cfg.MaxLimit)
}

// similarLimit applies the similar-code default and the global cap.
func similarLimit(limit int, cfg *config.SearchConfig) int {
	return models.ClampLimit(limit, cfg.SimilarLimit, cfg.MaxLimit)
}

// contextLimit applies the context-entry default and the global cap.
func contextLimit(limit int, cfg *config.SearchConfig) int {
	return models.ClampLimit(limit, cfg.ContextEntries, cfg.MaxLimit)
}
