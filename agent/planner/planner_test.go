package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/euporia-ai/concierge/agent/contract"
)

type fakeToolCallingModel struct {
	chunks []*schema.Message
	err    error
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	return nil, errors.New("generate not used")
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	if f.err != nil {
		return nil, f.err
	}
	sr, sw := schema.Pipe[*schema.Message](len(f.chunks))
	for _, chunk := range f.chunks {
		sw.Send(chunk, nil)
	}
	sw.Close()
	return sr, nil
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return f, nil
}

func testTools() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: "searchProducts",
			Desc: "search",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {Type: schema.String, Required: true},
			}),
		},
	}
}

func TestNextStreamsTextAndReturnsFinal(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{chunks: []*schema.Message{
		{Role: schema.Assistant, Content: "Here are "},
		{Role: schema.Assistant, Content: "two wallets."},
	}}
	p, err := New(fake, testTools())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var deltas []string
	decision, err := p.Next(context.Background(), contractx.PlannerRequest{
		Messages: []contractx.ChatMessage{{Role: contractx.RoleUser, Content: "wallets?"}},
	}, func(ev contractx.StreamEvent) {
		if ev.Type == contractx.EventText {
			deltas = append(deltas, ev.Text)
		}
	})
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	if decision.WantsTools() {
		t.Fatal("expected a final answer")
	}
	if decision.FinalText != "Here are two wallets." {
		t.Fatalf("final = %q", decision.FinalText)
	}
	if strings.Join(deltas, "") != "Here are two wallets." {
		t.Fatalf("deltas = %#v", deltas)
	}
}

func TestNextReturnsToolCalls(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{chunks: []*schema.Message{
		{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{{
				ID: "call-1",
				Function: schema.FunctionCall{
					Name:      "searchProducts",
					Arguments: `{"query":"bifold wallet"}`,
				},
			}},
		},
	}}
	p, err := New(fake, testTools())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	decision, err := p.Next(context.Background(), contractx.PlannerRequest{
		Messages: []contractx.ChatMessage{{Role: contractx.RoleUser, Content: "wallets?"}},
	}, nil)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	if !decision.WantsTools() {
		t.Fatal("expected tool calls")
	}
	call := decision.ToolCalls[0]
	if call.ID != "call-1" || call.Tool != "searchProducts" {
		t.Fatalf("call = %+v", call)
	}
	if call.Args["query"] != "bifold wallet" {
		t.Fatalf("args = %#v", call.Args)
	}
}

func TestNextRejectsUnknownTool(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{chunks: []*schema.Message{
		{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{{
				ID:       "call-1",
				Function: schema.FunctionCall{Name: "dropTables", Arguments: `{}`},
			}},
		},
	}}
	p, err := New(fake, testTools())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = p.Next(context.Background(), contractx.PlannerRequest{
		Messages: []contractx.ChatMessage{{Role: contractx.RoleUser, Content: "hi"}},
	}, nil)
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("error = %v, want ErrSchemaViolation", err)
	}
}

func TestNextWrapsStreamError(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{err: errors.New("upstream down")}
	p, err := New(fake, testTools())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = p.Next(context.Background(), contractx.PlannerRequest{
		Messages: []contractx.ChatMessage{{Role: contractx.RoleUser, Content: "hi"}},
	}, nil)
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("error = %v, want ErrModelInvoke", err)
	}
}

func TestToSchemaMessagesCarriesToolPlumbing(t *testing.T) {
	t.Parallel()

	msgs, err := toSchemaMessages(contractx.PlannerRequest{
		System: "be helpful",
		Messages: []contractx.ChatMessage{
			{Role: contractx.RoleUser, Content: "wallets?"},
			{
				Role: contractx.RoleAssistant,
				ToolCalls: []contractx.ToolRequest{
					{ID: "call-1", Tool: "searchProducts", Args: map[string]any{"query": "wallet"}},
				},
			},
			{Role: contractx.RoleTool, Content: `{"products":[]}`, ToolCallID: "call-1"},
		},
	})
	if err != nil {
		t.Fatalf("toSchemaMessages() error = %v", err)
	}

	if len(msgs) != 4 {
		t.Fatalf("len = %d", len(msgs))
	}
	if msgs[0].Role != schema.System || msgs[0].Content != "be helpful" {
		t.Fatalf("system = %+v", msgs[0])
	}
	if len(msgs[2].ToolCalls) != 1 || msgs[2].ToolCalls[0].Function.Name != "searchProducts" {
		t.Fatalf("assistant tool calls = %+v", msgs[2].ToolCalls)
	}
	if msgs[3].Role != schema.Tool || msgs[3].ToolCallID != "call-1" {
		t.Fatalf("tool message = %+v", msgs[3])
	}
}
