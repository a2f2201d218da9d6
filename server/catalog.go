package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/euporia-ai/concierge/agent/shop"
)

func (s *Server) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		query = strings.TrimSpace(r.URL.Query().Get("query"))
	}
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	store := s.storeOrDefault(r)
	limit := intParam(r, "limit", 0)
	pages := intParam(r, "pages", 1)

	result, err := s.deps.Shop.AggregateSearch(r.Context(), store, query, limit, pages)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleProductDetails(w http.ResponseWriter, r *http.Request) {
	handle := strings.TrimSpace(r.PathValue("handle"))
	if handle == "" {
		writeError(w, http.StatusBadRequest, "handle is required")
		return
	}
	preferred := strings.TrimSpace(r.URL.Query().Get("store"))

	resolution, err := s.deps.Resolver.ResolveByHandle(r.Context(), handle, preferred)
	if err != nil {
		if errors.Is(err, shop.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"product": resolution.Product,
		"store":   resolution.Store,
	})
}

// handleCachedAnalysis serves the stored insight only; generation happens on
// POST.
func (s *Server) handleCachedAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.deps.Insights == nil {
		writeError(w, http.StatusServiceUnavailable, "analysis is not configured")
		return
	}

	handle := strings.TrimSpace(r.PathValue("handle"))
	store := s.storeOrDefault(r)

	cached, err := s.deps.Insights.Cached(r.Context(), handle, store)
	if err != nil {
		writeError(w, http.StatusNotFound, "analysis unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"insight": cached,
		"store":   store,
		"handle":  handle,
	})
}

// handleGenerateAnalysis resolves the product first so the analysis is
// grounded in live catalog data, then serves the cached or freshly generated
// insight.
func (s *Server) handleGenerateAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.deps.Insights == nil {
		writeError(w, http.StatusServiceUnavailable, "analysis is not configured")
		return
	}

	handle := strings.TrimSpace(r.PathValue("handle"))
	if handle == "" {
		writeError(w, http.StatusBadRequest, "handle is required")
		return
	}
	preferred := strings.TrimSpace(r.URL.Query().Get("store"))

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.AnalysisTimeout)
	defer cancel()

	resolution, err := s.deps.Resolver.ResolveByHandle(ctx, handle, preferred)
	if err != nil {
		if errors.Is(err, shop.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	insightOut, err := s.deps.Insights.ForProduct(ctx, resolution.Store, resolution.Product)
	if err != nil {
		writeError(w, http.StatusBadGateway, "analysis unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"insight": insightOut,
		"store":   resolution.Store,
		"handle":  resolution.Product.Handle,
	})
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
