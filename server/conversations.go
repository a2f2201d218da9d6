package server

import (
	"errors"
	"net/http"
	"strings"

	contractx "github.com/euporia-ai/concierge/agent/contract"
	"github.com/euporia-ai/concierge/agent/history"
)

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if s.deps.Conversations == nil {
		writeError(w, http.StatusServiceUnavailable, "conversations are not configured")
		return
	}

	summaries, err := s.deps.Conversations.ListConversations(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if summaries == nil {
		summaries = []contractx.ConversationSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": summaries})
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if s.deps.Conversations == nil {
		writeError(w, http.StatusServiceUnavailable, "conversations are not configured")
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.deps.Conversations.CreateConversation(r.Context(), sessionID, history.DeriveTitle(req.Title))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if s.deps.Conversations == nil {
		writeError(w, http.StatusServiceUnavailable, "conversations are not configured")
		return
	}

	conv, err := s.deps.Conversations.GetConversation(r.Context(), r.PathValue("id"), sessionID)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// handleRenameConversation changes the title only; the transcript is owned by
// the chat pipeline.
func (s *Server) handleRenameConversation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if s.deps.Conversations == nil {
		writeError(w, http.StatusServiceUnavailable, "conversations are not configured")
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	id := r.PathValue("id")
	conv, err := s.deps.Conversations.GetConversation(r.Context(), id, sessionID)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := s.deps.Conversations.UpdateConversation(r.Context(), id, sessionID, conv.Messages, history.DeriveTitle(req.Title)); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "title": history.DeriveTitle(req.Title)})
}

/* -------------------------------- wishlist -------------------------------- */

func (s *Server) handleListWishlist(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if s.deps.Wishlist == nil {
		writeError(w, http.StatusServiceUnavailable, "wishlist is not configured")
		return
	}

	items, err := s.deps.Wishlist.ListWishlist(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []history.WishlistItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleAddWishlistItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if s.deps.Wishlist == nil {
		writeError(w, http.StatusServiceUnavailable, "wishlist is not configured")
		return
	}

	var req struct {
		Store    string `json:"store"`
		Handle   string `json:"handle"`
		Title    string `json:"title"`
		ImageURL string `json:"imageUrl"`
		Price    string `json:"price"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Handle) == "" {
		writeError(w, http.StatusBadRequest, "handle is required")
		return
	}

	store := req.Store
	if store == "" {
		store = s.deps.Merchants.Default().Domain
	}

	id, err := s.deps.Wishlist.AddWishlistItem(r.Context(), history.WishlistItem{
		SessionID: sessionID,
		Store:     store,
		Handle:    req.Handle,
		Title:     req.Title,
		ImageURL:  req.ImageURL,
		Price:     req.Price,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleDeleteWishlistItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if s.deps.Wishlist == nil {
		writeError(w, http.StatusServiceUnavailable, "wishlist is not configured")
		return
	}

	if err := s.deps.Wishlist.DeleteWishlistItem(r.Context(), r.PathValue("id"), sessionID); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, http.StatusNotFound, "wishlist item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
