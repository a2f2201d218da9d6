// Package nodes holds the per-turn pipeline steps the orchestrator graph
// wires together.
package nodes

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/euporia-ai/concierge/agent/contract"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
	ErrInvalidStore   = errors.New("store is empty")
)

type GraphInput struct {
	SessionID      string
	Store          string
	ConversationID string
	Text           string
	Emit           contractx.EventSink
}

type GraphOutput struct {
	Reply          string
	ConversationID string
}

type GraphState struct {
	SessionID      string
	Store          string
	ConversationID string
	Text           string
	Now            time.Time
	Emit           contractx.EventSink

	Profile map[string]any
	History []contractx.Message

	Reply string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	store := strings.TrimSpace(in.Store)
	if store == "" {
		return nil, ErrInvalidStore
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	emit := in.Emit
	if emit == nil {
		emit = func(contractx.StreamEvent) {}
	}

	return &GraphState{
		SessionID:      sessionID,
		Store:          store,
		ConversationID: strings.TrimSpace(in.ConversationID),
		Text:           text,
		Now:            nowFn().UTC(),
		Emit:           emit,
	}, nil
}
