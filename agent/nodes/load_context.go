package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/euporia-ai/concierge/agent/contract"
	"github.com/euporia-ai/concierge/agent/history"
)

// LoadProfile is best-effort: a broken profile store degrades the turn to an
// anonymous shopper instead of failing it.
func LoadProfile(ctx context.Context, in *GraphState, profiles contractx.ProfileStore) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if profiles == nil {
		return in, nil
	}

	profile, found, err := profiles.LoadProfile(ctx, in.SessionID)
	if err != nil {
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("load taste profile failed")
		return in, nil
	}
	if found {
		in.Profile = profile
	}
	return in, nil
}

// LoadHistory pulls the prior transcript when the turn continues an existing
// conversation. An unknown conversation id starts a fresh one.
func LoadHistory(ctx context.Context, in *GraphState, conversations contractx.ConversationStore) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if conversations == nil || in.ConversationID == "" {
		return in, nil
	}

	conv, err := conversations.GetConversation(ctx, in.ConversationID, in.SessionID)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			in.ConversationID = ""
			return in, nil
		}
		log.Warn().Err(err).Str("conversation_id", in.ConversationID).Msg("load conversation failed")
		return in, nil
	}
	in.History = conv.Messages
	return in, nil
}
