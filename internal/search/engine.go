// Package search composes the code catalog with spelling correction, request
// limits and a result cache into the engine served by the CLI and HTTP API.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/hyperjump/icdlookup/internal/catalog"
	"github.com/hyperjump/icdlookup/internal/config"
	"github.com/hyperjump/icdlookup/internal/keyword"
	"github.com/hyperjump/icdlookup/internal/models"
)

// Engine answers code and description queries against a catalog.
type Engine struct {
	catalog *catalog.Catalog
	config  *config.SearchConfig
	cache   *ResultCache
	logger  *zap.Logger

	spell atomic.Pointer[keyword.SpellChecker]
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a search engine over cat.
func NewEngine(cat *catalog.Catalog, cfg *config.SearchConfig, opts ...Option) *Engine {
	e := &Engine{
		catalog: cat,
		config:  cfg,
		cache:   NewResultCache(cfg.CacheSizeOrDefault()),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the underlying catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Search answers a free-text query. A query shaped like a code returns the exact
// entry first and codes sharing its prefix after it. Description matches fill the
// remaining slots. When nothing matches and fuzzy matching is requested or
// enabled by default, misspelled words are corrected and the search is retried.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(query, e.config); err != nil {
		return nil, err
	}

	key := cacheKey(query)
	if resp, ok := e.cache.Get(key); ok {
		resp.QueryTime = time.Since(startTime).Milliseconds()
		return resp, nil
	}

	results, err := e.codeResults(ctx, query.Query, query.Limit)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		seen[r.Code] = true
	}

	response := &models.SearchResponse{Query: query.Query}
	if room := query.Limit - len(results); room > 0 {
		matches, err := e.catalog.SearchByDescription(ctx, query.Query, query.Limit)
		if err != nil {
			return nil, err
		}
		results = appendUnseen(results, matches, seen, query.Limit)
	}

	if len(results) == 0 && (query.Fuzzy || e.config.AutoFuzzyOrDefault()) {
		fuzzy, corrected, err := e.fuzzyResults(ctx, query.Query, query.Limit)
		if err != nil {
			return nil, err
		}
		if len(fuzzy) > 0 {
			results = fuzzy
			response.Suggestions = []string{corrected}
			response.AutoFuzzy = true
		}
	}

	response.Results = results
	response.Total = len(results)
	response.QueryTime = time.Since(startTime).Milliseconds()
	e.cache.Set(key, response)
	return response, nil
}

// codeResults returns the exact entry for a code-shaped query followed by codes
// sharing its longest prefixes.
func (e *Engine) codeResults(ctx context.Context, q string, limit int) ([]*models.SearchResult, error) {
	results := make([]*models.SearchResult, 0)
	if !LooksLikeCode(q) {
		return results, nil
	}
	entry, err := e.catalog.LookupExact(ctx, q)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		results = append(results, &models.SearchResult{
			Code:        entry.Code,
			Description: entry.Description,
			Score:       float64(len(entry.NormalizedCode)),
			MatchType:   models.MatchExactCode,
		})
	}
	if room := limit - len(results); room > 0 {
		similar, err := e.catalog.FindSimilarCodes(ctx, q, room)
		if err != nil {
			return nil, err
		}
		results = append(results, similar...)
	}
	return results, nil
}

func (e *Engine) fuzzyResults(ctx context.Context, q string, limit int) ([]*models.SearchResult, string, error) {
	sc, err := e.spellChecker(ctx)
	if err != nil {
		return nil, "", err
	}
	check, err := sc.Check(q)
	if err != nil {
		return nil, "", fmt.Errorf("spell check failed: %w", err)
	}
	if !check.HasCorrections {
		return nil, "", nil
	}
	matches, err := e.catalog.SearchByDescription(ctx, check.CorrectedQuery, limit)
	if err != nil {
		return nil, "", err
	}
	for _, m := range matches {
		m.MatchType = models.MatchFuzzy
	}
	e.logger.Debug("fuzzy retry",
		zap.String("query", q),
		zap.String("corrected", check.CorrectedQuery),
		zap.Int("results", len(matches)),
	)
	return matches, check.CorrectedQuery, nil
}

// spellChecker builds the spell checker over the catalog dictionary on first use.
func (e *Engine) spellChecker(ctx context.Context) (*keyword.SpellChecker, error) {
	if sc := e.spell.Load(); sc != nil {
		return sc, nil
	}
	dict, err := e.catalog.Dictionary(ctx)
	if err != nil {
		return nil, err
	}
	sc := keyword.NewSpellChecker(dict,
		keyword.WithMaxDistance(e.config.FuzzyMaxDistance),
		keyword.WithMaxSuggestions(e.config.FuzzyMaxSuggestions),
		keyword.WithMinFrequency(e.config.FuzzyMinFrequency),
		keyword.WithTranspositions(e.config.FuzzyTranspositionsOrDefault()),
		keyword.WithTokenizer(catalog.Tokenize),
	)
	e.spell.CompareAndSwap(nil, sc)
	return e.spell.Load(), nil
}

// Lookup returns the entry for code, or nil when it is not in the catalog.
func (e *Engine) Lookup(ctx context.Context, code string) (*models.Entry, error) {
	return e.catalog.LookupExact(ctx, code)
}

// Similar returns codes sharing the longest prefixes with code.
func (e *Engine) Similar(ctx context.Context, code string, limit int) ([]*models.SearchResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, models.ErrEmptyQuery
	}
	return e.catalog.FindSimilarCodes(ctx, code, similarLimit(limit, e.config))
}

// Validate checks every code in req.
func (e *Engine) Validate(ctx context.Context, req *models.ValidateRequest) (*models.ValidateResponse, error) {
	if len(req.Codes) == 0 {
		return nil, models.ErrNoCodes
	}
	results, err := e.catalog.BatchValidate(ctx, req.Codes)
	if err != nil {
		return nil, err
	}
	valid := 0
	for _, entry := range results {
		if entry != nil {
			valid++
		}
	}
	return &models.ValidateResponse{Results: results, Valid: valid}, nil
}

// Context builds a grounding context block for req.Query.
func (e *Engine) Context(ctx context.Context, req *models.ContextRequest) (string, error) {
	if strings.TrimSpace(req.Query) == "" {
		return "", models.ErrEmptyQuery
	}
	return e.catalog.ContextBlock(ctx, req.Query, contextLimit(req.MaxEntries, e.config))
}

// Verify checks a code suggested elsewhere (for example by a language model).
// A known code is confirmed as given. An unknown code is replaced by the best
// description match, with confidence capped, and codes sharing its prefix are
// listed as alternatives.
func (e *Engine) Verify(ctx context.Context, req *models.VerifyRequest) (*models.Verification, error) {
	if strings.TrimSpace(req.Code) == "" && strings.TrimSpace(req.Description) == "" {
		return nil, models.ErrEmptyQuery
	}
	out := &models.Verification{Input: req.Code}

	if strings.TrimSpace(req.Code) != "" {
		entry, err := e.catalog.LookupExact(ctx, req.Code)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			out.Valid = true
			out.Entry = entry
			out.Confidence = req.Confidence
			return out, nil
		}
		out.Similar, err = e.catalog.FindSimilarCodes(ctx, req.Code, similarLimit(0, e.config))
		if err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(req.Description) == "" {
		return out, nil
	}
	matches, err := e.catalog.SearchByDescription(ctx, req.Description, 1)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return out, nil
	}
	entry, err := e.catalog.LookupExact(ctx, matches[0].Code)
	if err != nil {
		return nil, err
	}
	out.Corrected = true
	out.Entry = entry
	out.Confidence = capConfidence(req.Confidence, e.config.CorrectionConfidenceCap)
	e.logger.Info("corrected suggested code",
		zap.String("input", req.Code),
		zap.String("corrected", entry.Code),
		zap.Float64("confidence", out.Confidence),
	)
	return out, nil
}

// Stats returns catalog statistics.
func (e *Engine) Stats(ctx context.Context) (models.Stats, error) {
	return e.catalog.Stats(ctx)
}

// CacheLen returns the number of cached search responses.
func (e *Engine) CacheLen() int {
	return e.cache.Len()
}

// LooksLikeCode reports whether q is shaped like an ICD-10 code: a letter then a
// digit, with no spaces inside.
func LooksLikeCode(q string) bool {
	q = strings.TrimSpace(q)
	if q == "" || strings.ContainsFunc(q, unicode.IsSpace) {
		return false
	}
	norm := catalog.NormalizeCode(q)
	if len(norm) < 2 || len(norm) > 8 {
		return false
	}
	if norm[0] < 'A' || norm[0] > 'Z' || norm[1] < '0' || norm[1] > '9' {
		return false
	}
	for _, r := range norm {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func capConfidence(c, limit float64) float64 {
	if c <= 0 || c > limit {
		return limit
	}
	return c
}

func appendUnseen(dst, src []*models.SearchResult, seen map[string]bool, limit int) []*models.SearchResult {
	for _, r := range src {
		if len(dst) >= limit {
			break
		}
		if seen[r.Code] {
			continue
		}
		seen[r.Code] = true
		dst = append(dst, r)
	}
	return dst
}

func cacheKey(q *models.SearchQuery) string {
	norm := strings.Join(strings.Fields(strings.ToLower(q.Query)), " ")
	return norm + "|" + strconv.Itoa(q.Limit) + "|" + strconv.FormatBool(q.Fuzzy)
}
