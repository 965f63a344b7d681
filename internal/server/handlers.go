package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/icdlookup/internal/catalog"
	"github.com/hyperjump/icdlookup/internal/models"
	"github.com/hyperjump/icdlookup/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"source": s.engine.Catalog().SourceName(),
	}
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		s.logger.Error("status: catalog unavailable", zap.Error(err))
		resp["error"] = err.Error()
	}
	resp["loaded"] = stats.Loaded
	resp["total_codes"] = stats.TotalCodes
	resp["unique_keywords"] = stats.UniqueKeywords
	resp["cached_searches"] = s.engine.CacheLen()

	if s.config != nil {
		resp["config"] = map[string]interface{}{
			"default_limit":        s.config.Search.DefaultLimit,
			"max_limit":            s.config.Search.MaxLimit,
			"similar_limit":        s.config.Search.SimilarLimit,
			"context_entries":      s.config.Search.ContextEntries,
			"auto_fuzzy":           s.config.Search.AutoFuzzyOrDefault(),
			"fuzzy_max_distance":   s.config.Search.FuzzyMaxDistance,
			"fuzzy_transpositions": s.config.Search.FuzzyTranspositionsOrDefault(),
			"cache_size":           s.config.Search.CacheSizeOrDefault(),
			"load_timeout":         s.config.Catalog.LoadTimeout.String(),
		}
		if diskBytes, err := storage.DiskUsageBytes(s.config.Storage.DatabasePath); err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusServiceUnavailable
	}
	s.respondJSON(w, status, resp)
}

func (s *Server) handleGetCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	entry, err := s.engine.Lookup(r.Context(), code)
	if err != nil {
		s.respondEngineError(w, "lookup", err)
		return
	}
	if entry == nil {
		s.respondError(w, http.StatusNotFound, "code not found")
		return
	}
	s.respondJSON(w, http.StatusOK, entry)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	results, err := s.engine.Similar(r.Context(), code, limit)
	if err != nil {
		s.respondEngineError(w, "similar", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"code":    code,
		"results": results,
		"total":   len(results),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.respondEngineError(w, "search", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	response, err := s.engine.Validate(r.Context(), &req)
	if err != nil {
		s.respondEngineError(w, "validate", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	var req models.ContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	block, err := s.engine.Context(r.Context(), &req)
	if err != nil {
		s.respondEngineError(w, "context", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"context": block})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := s.engine.Verify(r.Context(), &req)
	if err != nil {
		s.respondEngineError(w, "verify", err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// respondEngineError maps engine errors to status codes: request validation
// failures are 400, an unavailable catalog is 503, anything else is 500.
func (s *Server) respondEngineError(w http.ResponseWriter, op string, err error) {
	var loadErr *catalog.CatalogLoadError
	switch {
	case errors.Is(err, models.ErrEmptyQuery), errors.Is(err, models.ErrNoCodes):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &loadErr):
		s.logger.Error(op+" failed: catalog unavailable", zap.String("source", loadErr.Source), zap.Error(loadErr.Err))
		s.respondError(w, http.StatusServiceUnavailable, "code catalog unavailable")
	default:
		s.logger.Error(op+" failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
