// Package insight synthesizes a structured buying analysis for one product
// and caches it per (handle, store).
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	"github.com/euporia-ai/concierge/agent/history"
	"github.com/euporia-ai/concierge/agent/shop"
)

// InsightCache is the persistence slice the generator needs; *history.Store
// implements it.
type InsightCache interface {
	GetInsight(ctx context.Context, handle, store string) (*history.Insight, error)
	SaveInsight(ctx context.Context, handle, store string, insight *history.Insight) error
}

type Generator struct {
	client *openaisdk.Client
	cache  InsightCache
	model  string
}

func NewGenerator(client *openaisdk.Client, cache InsightCache, model string) (*Generator, error) {
	if client == nil {
		return nil, errors.New("insight: openai client is required")
	}
	if cache == nil {
		return nil, errors.New("insight: cache is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("insight: model name is required")
	}
	return &Generator{client: client, cache: cache, model: model}, nil
}

// Cached returns the stored insight without generating.
func (g *Generator) Cached(ctx context.Context, handle, store string) (*history.Insight, error) {
	return g.cache.GetInsight(ctx, strings.TrimSpace(handle), store)
}

// ForProduct returns the cached insight when present, otherwise generates and
// caches one. A malformed model response fails the call and caches nothing.
func (g *Generator) ForProduct(ctx context.Context, store string, product shop.Product) (*history.Insight, error) {
	handle := strings.TrimSpace(product.Handle)
	if handle == "" {
		return nil, errors.New("product handle is required")
	}

	cached, err := g.cache.GetInsight(ctx, handle, store)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, history.ErrNotFound) {
		log.Warn().Err(err).Str("handle", handle).Msg("insight cache read failed")
	}

	generated, err := g.generate(ctx, product)
	if err != nil {
		return nil, err
	}

	if err := g.cache.SaveInsight(ctx, handle, store, generated); err != nil {
		log.Warn().Err(err).Str("handle", handle).Msg("insight cache write failed")
	}
	return generated, nil
}

func (g *Generator) generate(ctx context.Context, product shop.Product) (*history.Insight, error) {
	productJSON, err := json.Marshal(product)
	if err != nil {
		return nil, fmt.Errorf("marshal product: %w", err)
	}

	resp, err := g.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(g.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(systemPrompt),
			openaisdk.UserMessage(string(productJSON)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("insight completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("insight completion returned no choices")
	}

	return parseInsight(resp.Choices[0].Message.Content)
}

const systemPrompt = `You analyze a single e-commerce product and answer with strict JSON only, no prose and no code fences. The JSON shape is:
{"pros":["..."],"cons":["..."],"whoIsThisFor":"...","features":[{"name":"...","score":0.0}]}
Scores are 0 to 1. Base everything on the provided product data; never invent specifications.`

// parseInsight is strict: anything but the expected JSON object is an error,
// so bad output is never cached.
func parseInsight(content string) (*history.Insight, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var insight history.Insight
	decoder := json.NewDecoder(strings.NewReader(trimmed))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&insight); err != nil {
		return nil, fmt.Errorf("model returned malformed insight: %w", err)
	}

	if len(insight.Pros) == 0 && len(insight.Cons) == 0 && insight.WhoIsThisFor == "" {
		return nil, errors.New("model returned an empty insight")
	}
	for _, f := range insight.Features {
		if f.Score < 0 || f.Score > 1 {
			return nil, fmt.Errorf("feature %q score %v out of range", f.Name, f.Score)
		}
	}
	return &insight, nil
}
