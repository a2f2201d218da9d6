// Package planner adapts a tool-calling chat model to the orchestrator's
// step-decider contract, streaming text deltas as they arrive.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/euporia-ai/concierge/agent/contract"
)

type ModelPlanner struct {
	chatModel    einomodel.ToolCallingChatModel
	allowedTools map[string]struct{}
}

var _ contractx.Planner = (*ModelPlanner)(nil)

func New(chatModel einomodel.ToolCallingChatModel, tools []*schema.ToolInfo) (*ModelPlanner, error) {
	if chatModel == nil {
		return nil, errors.New("planner: chat model is required")
	}

	bound, err := chatModel.WithTools(tools)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools: %v", contractx.ErrModelInvoke, err)
	}

	allowed := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		if t == nil || strings.TrimSpace(t.Name) == "" {
			continue
		}
		allowed[t.Name] = struct{}{}
	}

	return &ModelPlanner{chatModel: bound, allowedTools: allowed}, nil
}

// Next streams one model round trip. Text deltas go to the sink immediately;
// the concatenated message decides whether the turn continues with tools.
func (p *ModelPlanner) Next(ctx context.Context, req contractx.PlannerRequest, emit contractx.EventSink) (contractx.PlannerDecision, error) {
	msgs, err := toSchemaMessages(req)
	if err != nil {
		return contractx.PlannerDecision{}, err
	}

	reader, err := p.chatModel.Stream(ctx, msgs)
	if err != nil {
		return contractx.PlannerDecision{}, fmt.Errorf("%w: stream: %v", contractx.ErrModelInvoke, err)
	}
	defer reader.Close()

	var chunks []*schema.Message
	for {
		chunk, err := reader.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return contractx.PlannerDecision{}, fmt.Errorf("%w: recv: %v", contractx.ErrModelInvoke, err)
		}
		if chunk == nil {
			continue
		}
		if chunk.Content != "" && emit != nil {
			emit(contractx.StreamEvent{Type: contractx.EventText, Text: chunk.Content})
		}
		chunks = append(chunks, chunk)
	}

	if len(chunks) == 0 {
		return contractx.PlannerDecision{}, fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
	}

	full, err := schema.ConcatMessages(chunks)
	if err != nil {
		return contractx.PlannerDecision{}, fmt.Errorf("%w: concat stream: %v", contractx.ErrModelInvoke, err)
	}

	// text produced alongside tool calls is kept; the loop may fall back to
	// it when the step bound runs out
	decision := contractx.PlannerDecision{FinalText: strings.TrimSpace(full.Content)}
	if len(full.ToolCalls) > 0 {
		calls, err := p.toToolRequests(full.ToolCalls)
		if err != nil {
			return contractx.PlannerDecision{}, err
		}
		decision.ToolCalls = calls
	}
	return decision, nil
}

func (p *ModelPlanner) toToolRequests(calls []schema.ToolCall) ([]contractx.ToolRequest, error) {
	reqs := make([]contractx.ToolRequest, 0, len(calls))
	for _, call := range calls {
		tool := strings.TrimSpace(call.Function.Name)
		if tool == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}
		if _, ok := p.allowedTools[tool]; !ok {
			return nil, fmt.Errorf("%w: tool=%s is not in the catalog", contractx.ErrSchemaViolation, tool)
		}

		args := map[string]any{}
		if rawArgs := strings.TrimSpace(call.Function.Arguments); rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid args for tool=%s: %v", contractx.ErrSchemaViolation, tool, err)
			}
		}

		reqs = append(reqs, contractx.ToolRequest{
			ID:   call.ID,
			Tool: tool,
			Args: args,
		})
	}
	return reqs, nil
}

func toSchemaMessages(req contractx.PlannerRequest) ([]*schema.Message, error) {
	msgs := make([]*schema.Message, 0, len(req.Messages)+1)
	if strings.TrimSpace(req.System) != "" {
		msgs = append(msgs, schema.SystemMessage(req.System))
	}

	for _, m := range req.Messages {
		switch m.Role {
		case contractx.RoleUser:
			msgs = append(msgs, schema.UserMessage(m.Content))
		case contractx.RoleAssistant:
			msg := schema.AssistantMessage(m.Content, nil)
			for _, tc := range m.ToolCalls {
				rawArgs, err := json.Marshal(tc.Args)
				if err != nil {
					return nil, fmt.Errorf("%w: marshal args for tool=%s: %v", contractx.ErrValidation, tc.Tool, err)
				}
				msg.ToolCalls = append(msg.ToolCalls, schema.ToolCall{
					ID: tc.ID,
					Function: schema.FunctionCall{
						Name:      tc.Tool,
						Arguments: string(rawArgs),
					},
				})
			}
			msgs = append(msgs, msg)
		case contractx.RoleTool:
			msgs = append(msgs, schema.ToolMessage(m.Content, m.ToolCallID))
		case contractx.RoleSystem:
			msgs = append(msgs, schema.SystemMessage(m.Content))
		default:
			return nil, fmt.Errorf("%w: unknown role %q", contractx.ErrValidation, m.Role)
		}
	}
	return msgs, nil
}
