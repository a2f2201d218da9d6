package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	contractx "github.com/euporia-ai/concierge/agent/contract"
	"github.com/euporia-ai/concierge/agent/orchestrator"
)

type chatRequest struct {
	Message        string `json:"message"`
	Store          string `json:"store"`
	ConversationID string `json:"conversationId"`
}

// handleChat streams the turn as server-sent events: text deltas, tool
// activity, then a final done event carrying the conversation id.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Store == "" {
		req.Store = r.URL.Query().Get("store")
	}
	if req.Store == "" {
		req.Store = s.deps.Merchants.Default().Domain
	}
	if req.ConversationID == "" {
		req.ConversationID = r.URL.Query().Get("conversationId")
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ChatTimeout)
	defer cancel()

	reply, err := s.deps.Chat.HandleMessage(ctx, orchestrator.ChatRequest{
		SessionID:      sessionID,
		Store:          req.Store,
		ConversationID: req.ConversationID,
		Message:        req.Message,
	}, func(ev contractx.StreamEvent) {
		// the done event is rewritten below to carry the conversation id
		if ev.Type == contractx.EventDone {
			return
		}
		writeSSE(w, flusher, sseEvent{
			Type:       string(ev.Type),
			Text:       ev.Text,
			ToolCall:   ev.ToolCall,
			ToolResult: ev.ToolResult,
			Error:      ev.Err,
		})
	})
	if err != nil {
		// the error already reached the client as an error event via the sink
		log.Warn().Err(err).Str("session_id", sessionID).Msg("chat turn failed")
		return
	}

	writeSSE(w, flusher, sseEvent{
		Type:           string(contractx.EventDone),
		Text:           reply.Reply,
		ConversationID: reply.ConversationID,
	})
}

type sseEvent struct {
	Type           string                `json:"type"`
	Text           string                `json:"text,omitempty"`
	ToolCall       *contractx.ToolRequest `json:"toolCall,omitempty"`
	ToolResult     *contractx.ToolResult  `json:"toolResult,omitempty"`
	Error          string                `json:"error,omitempty"`
	ConversationID string                `json:"conversationId,omitempty"`
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, ev sseEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Warn().Err(err).Msg("encode sse event failed")
		return
	}
	if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
		return
	}
	flusher.Flush()
}

