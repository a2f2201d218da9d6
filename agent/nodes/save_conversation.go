package nodes

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/euporia-ai/concierge/agent/contract"
	"github.com/euporia-ai/concierge/agent/history"
)

// SaveConversation persists the turn's user/assistant pair. Persistence is
// best-effort: a failed write is logged, the reply still goes out.
func SaveConversation(ctx context.Context, in *GraphState, conversations contractx.ConversationStore) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if conversations == nil {
		return in, nil
	}

	if in.ConversationID == "" {
		id, err := conversations.CreateConversation(ctx, in.SessionID, history.DeriveTitle(in.Text))
		if err != nil {
			log.Warn().Err(err).Str("session_id", in.SessionID).Msg("create conversation failed")
			return in, nil
		}
		in.ConversationID = id
	}

	messages := append([]contractx.Message{}, in.History...)
	messages = append(messages,
		contractx.Message{ID: uuid.NewString(), Role: contractx.RoleUser, Content: in.Text},
		contractx.Message{ID: uuid.NewString(), Role: contractx.RoleAssistant, Content: in.Reply},
	)

	if err := conversations.UpdateConversation(ctx, in.ConversationID, in.SessionID, messages, ""); err != nil {
		log.Warn().Err(err).Str("conversation_id", in.ConversationID).Msg("save conversation failed")
	}
	return in, nil
}
