package nodes

import (
	"fmt"
	"strings"

	contractx "github.com/euporia-ai/concierge/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: turn ended without a reply", contractx.ErrValidation)
	}
	return GraphOutput{Reply: reply, ConversationID: in.ConversationID}, nil
}
