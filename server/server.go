// Package server exposes the concierge over HTTP: a streaming chat endpoint
// plus JSON routes for catalog, cart, analysis, conversations, and wishlist.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/euporia-ai/concierge/agent/contract"
	"github.com/euporia-ai/concierge/agent/history"
	"github.com/euporia-ai/concierge/agent/merchants"
	"github.com/euporia-ai/concierge/agent/orchestrator"
	"github.com/euporia-ai/concierge/agent/shop"
)

type Config struct {
	Addr            string        `envconfig:"ADDR" split_words:"true" default:":8080"`
	ChatTimeout     time.Duration `envconfig:"CHAT_TIMEOUT" split_words:"true" default:"60s"`
	AnalysisTimeout time.Duration `envconfig:"ANALYSIS_TIMEOUT" split_words:"true" default:"30s"`
}

// WishlistStore is the slice of history.Store the wishlist routes need.
type WishlistStore interface {
	ListWishlist(ctx context.Context, sessionID string) ([]history.WishlistItem, error)
	AddWishlistItem(ctx context.Context, item history.WishlistItem) (string, error)
	DeleteWishlistItem(ctx context.Context, id, sessionID string) error
}

// InsightService generates or returns a cached product analysis.
type InsightService interface {
	Cached(ctx context.Context, handle, store string) (*history.Insight, error)
	ForProduct(ctx context.Context, store string, product shop.Product) (*history.Insight, error)
}

type Deps struct {
	Chat          *orchestrator.Service
	Shop          *shop.Client
	Resolver      *shop.Resolver
	Insights      InsightService
	Conversations contractx.ConversationStore
	Wishlist      WishlistStore
	Carts         contractx.CartStore
	Merchants     *merchants.Directory
}

type Server struct {
	cfg  Config
	deps Deps
}

func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Chat == nil {
		return nil, errors.New("server: chat service is required")
	}
	if deps.Shop == nil {
		return nil, errors.New("server: shop client is required")
	}
	if deps.Resolver == nil {
		return nil, errors.New("server: resolver is required")
	}
	if deps.Merchants == nil {
		deps.Merchants = merchants.NewDirectory(nil)
	}
	if cfg.ChatTimeout <= 0 {
		cfg.ChatTimeout = 60 * time.Second
	}
	if cfg.AnalysisTimeout <= 0 {
		cfg.AnalysisTimeout = 30 * time.Second
	}
	return &Server{cfg: cfg, deps: deps}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/merchants", s.handleMerchants)

	mux.HandleFunc("POST /api/chat", s.handleChat)

	mux.HandleFunc("GET /api/products", s.handleSearchProducts)
	mux.HandleFunc("GET /api/products/{handle}/details", s.handleProductDetails)
	mux.HandleFunc("GET /api/products/{handle}/analysis", s.handleCachedAnalysis)
	mux.HandleFunc("POST /api/products/{handle}/analysis", s.handleGenerateAnalysis)

	mux.HandleFunc("GET /api/cart", s.handleGetCart)
	mux.HandleFunc("POST /api/cart", s.handleAddToCart)

	mux.HandleFunc("GET /api/conversations", s.handleListConversations)
	mux.HandleFunc("POST /api/conversations", s.handleCreateConversation)
	mux.HandleFunc("GET /api/conversations/{id}", s.handleGetConversation)
	mux.HandleFunc("PUT /api/conversations/{id}", s.handleRenameConversation)

	mux.HandleFunc("GET /api/wishlist", s.handleListWishlist)
	mux.HandleFunc("POST /api/wishlist", s.handleAddWishlistItem)
	mux.HandleFunc("DELETE /api/wishlist/{id}", s.handleDeleteWishlistItem)

	return mux
}

func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
	return http.ListenAndServe(s.cfg.Addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMerchants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"merchants": s.deps.Merchants.All()})
}

/* --------------------------------- helpers -------------------------------- */

func (s *Server) sessionID(r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.URL.Query().Get("sessionId"))
	return id, id != ""
}

// storeOrDefault falls back to the default merchant when no store is given.
func (s *Server) storeOrDefault(r *http.Request) string {
	store := strings.TrimSpace(r.URL.Query().Get("store"))
	if store == "" {
		store = s.deps.Merchants.Default().Domain
	}
	return store
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("encode response failed")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeBody(r *http.Request, out any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(out); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}
