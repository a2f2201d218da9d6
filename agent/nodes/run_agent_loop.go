package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	contractx "github.com/euporia-ai/concierge/agent/contract"
	"github.com/euporia-ai/concierge/agent/tool"
)

// MaxPlannerRounds bounds the tool-use loop per turn. On exhaustion the turn
// still ends with a reply, never an error: the last text the model produced
// when there is any, the canned fallback otherwise.
const MaxPlannerRounds = 5

const exhaustedReply = "I ran out of steps while working on that. Could you narrow the request down a bit?"

// RunAgentLoop drives the planner/executor loop for one turn. Tool failures
// flow back to the model as results; only planner failures abort the turn.
func RunAgentLoop(
	ctx context.Context,
	in *GraphState,
	planner contractx.Planner,
	executor *tool.Executor,
	systemPrompt string,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	transcript := make([]contractx.ChatMessage, 0, len(in.History)+1)
	for _, m := range in.History {
		transcript = append(transcript, contractx.ChatMessage{Role: m.Role, Content: m.Content})
	}
	transcript = append(transcript, contractx.ChatMessage{Role: contractx.RoleUser, Content: in.Text})

	system := composeSystemPrompt(systemPrompt, in.Store, in.Profile)
	session := tool.Session{ID: in.SessionID, Store: in.Store}

	var lastText string
	for round := 0; round < MaxPlannerRounds; round++ {
		decision, err := planner.Next(ctx, contractx.PlannerRequest{
			System:   system,
			Messages: transcript,
		}, in.Emit)
		if err != nil {
			return nil, err
		}
		if text := strings.TrimSpace(decision.FinalText); text != "" {
			lastText = text
		}

		if !decision.WantsTools() {
			in.Reply = strings.TrimSpace(decision.FinalText)
			if in.Reply == "" {
				return nil, fmt.Errorf("%w: planner produced neither text nor tool calls", contractx.ErrSchemaViolation)
			}
			return in, nil
		}

		for i := range decision.ToolCalls {
			call := decision.ToolCalls[i]
			in.Emit(contractx.StreamEvent{Type: contractx.EventToolCall, ToolCall: &call})
		}

		results := executor.ExecuteAll(ctx, session, decision.ToolCalls)
		for i := range results {
			in.Emit(contractx.StreamEvent{Type: contractx.EventToolResult, ToolResult: &results[i]})
		}

		transcript = append(transcript, contractx.ChatMessage{
			Role:      contractx.RoleAssistant,
			Content:   decision.FinalText,
			ToolCalls: decision.ToolCalls,
		})
		for _, result := range results {
			transcript = append(transcript, contractx.ChatMessage{
				Role:       contractx.RoleTool,
				Content:    encodeToolResult(result),
				ToolCallID: result.ID,
			})
		}
	}

	in.Reply = lastText
	if in.Reply == "" {
		in.Reply = exhaustedReply
	}
	return in, nil
}

func composeSystemPrompt(base, store string, profile map[string]any) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(base))
	fmt.Fprintf(&b, "\n\nCurrent store: %s", store)

	if len(profile) > 0 {
		if raw, err := json.Marshal(profile); err == nil {
			b.WriteString("\n\nShopper taste profile:\n")
			b.Write(raw)
		}
	}
	return b.String()
}

func encodeToolResult(result contractx.ToolResult) string {
	if result.Failed() {
		raw, _ := json.Marshal(map[string]any{"error": result.Error})
		return string(raw)
	}
	raw, err := json.Marshal(result.Result)
	if err != nil {
		return `{"error":"tool result was not serializable"}`
	}
	return string(raw)
}
