// Package orchestrator runs one chat turn end to end: context loading, the
// bounded planner/tool loop, and best-effort persistence.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/euporia-ai/concierge/agent/contract"
	nodex "github.com/euporia-ai/concierge/agent/nodes"
	"github.com/euporia-ai/concierge/agent/tool"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
	ErrInvalidStore   = nodex.ErrInvalidStore
)

type ChatRequest struct {
	SessionID      string
	Store          string
	ConversationID string
	Message        string
}

type ChatReply struct {
	Reply          string
	ConversationID string
}

type Service struct {
	planner       contractx.Planner
	executor      *tool.Executor
	profiles      contractx.ProfileStore
	conversations contractx.ConversationStore
	systemPrompt  string

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(
	planner contractx.Planner,
	executor *tool.Executor,
	profiles contractx.ProfileStore,
	conversations contractx.ConversationStore,
	systemPrompt string,
) (*Service, error) {
	if planner == nil {
		return nil, errors.New("planner is required")
	}
	if executor == nil {
		return nil, errors.New("tool executor is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, errors.New("system prompt is required")
	}

	s := &Service{
		planner:       planner,
		executor:      executor,
		profiles:      profiles,
		conversations: conversations,
		systemPrompt:  systemPrompt,
		now:           time.Now,
	}

	graphRunner, err := s.compileChatTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.graphRunner = graphRunner

	return s, nil
}

// HandleMessage runs one turn. Stream events flow through emit as the turn
// progresses; the returned reply matches the streamed content.
func (s *Service) HandleMessage(ctx context.Context, req ChatRequest, emit contractx.EventSink) (ChatReply, error) {
	if emit == nil {
		emit = func(contractx.StreamEvent) {}
	}

	out, err := s.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID:      req.SessionID,
		Store:          req.Store,
		ConversationID: req.ConversationID,
		Text:           req.Message,
		Emit:           emit,
	})
	if err != nil {
		emit(contractx.StreamEvent{Type: contractx.EventError, Err: err.Error()})
		return ChatReply{}, err
	}

	emit(contractx.StreamEvent{Type: contractx.EventDone, Text: out.Reply})
	return ChatReply{Reply: out.Reply, ConversationID: out.ConversationID}, nil
}
