package contract

import "context"

// Planner is the injected model-driven step decider. It may emit text deltas
// through the sink while producing its decision.
type Planner interface {
	Next(ctx context.Context, req PlannerRequest, emit EventSink) (PlannerDecision, error)
}

// ProfileStore persists the schema-less taste profile, keyed by session id.
// The profile is opaque to the orchestrator: validated as an object at the
// boundary, never destructured.
type ProfileStore interface {
	LoadProfile(ctx context.Context, sessionID string) (map[string]any, bool, error)
	SaveProfile(ctx context.Context, sessionID string, profile map[string]any) error
}

// CartStore keeps cart identity per (session, store). Cart ids are
// store-scoped; the composite key is explicit so an id can never leak to a
// different store.
type CartStore interface {
	CartID(ctx context.Context, sessionID, store string) (string, bool, error)
	SaveCartID(ctx context.Context, sessionID, store, cartID string) error
	DeleteCartID(ctx context.Context, sessionID, store string) error
}

// ConversationStore is durable conversation persistence. Orchestrator writes
// are best-effort; a failed save never blocks the chat turn.
type ConversationStore interface {
	ListConversations(ctx context.Context, sessionID string) ([]ConversationSummary, error)
	CreateConversation(ctx context.Context, sessionID, title string) (string, error)
	GetConversation(ctx context.Context, id, sessionID string) (*Conversation, error)
	UpdateConversation(ctx context.Context, id, sessionID string, messages []Message, title string) error
}
