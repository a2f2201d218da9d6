package shop

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
)

func TestAggregateSearchDeduplicatesAcrossPages(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{handlers: map[string]func(string, map[string]any) (json.RawMessage, error){
		"alpha.example": func(method string, args map[string]any) (json.RawMessage, error) {
			after, _ := args["after"].(string)
			if after == "" {
				raw, _ := json.Marshal(map[string]any{
					"products": []map[string]any{
						{"product_id": "P1", "handle": "one"},
						{"product_id": "P2", "handle": "two"},
					},
					"pagination": map[string]any{"hasNextPage": true, "endCursor": "c1"},
				})
				return raw, nil
			}
			raw, _ := json.Marshal(map[string]any{
				"products": []map[string]any{
					{"product_id": "P2", "handle": "two"},
					{"product_id": "P3", "handle": "three"},
				},
				"pagination": map[string]any{"hasNextPage": false},
			})
			return raw, nil
		},
	}}
	client := NewClient(gw)

	res, err := client.AggregateSearch(context.Background(), "alpha.example", "mug", 10, 3)
	if err != nil {
		t.Fatalf("AggregateSearch() error = %v", err)
	}
	if len(res.Products) != 3 {
		t.Fatalf("products = %d, want 3 (deduplicated)", len(res.Products))
	}
	seen := map[string]bool{}
	for _, p := range res.Products {
		if seen[p.ProductID] {
			t.Fatalf("duplicate product %s", p.ProductID)
		}
		seen[p.ProductID] = true
	}
}

func TestAggregateSearchClampsPages(t *testing.T) {
	t.Parallel()

	calls := 0
	gw := &fakeGateway{handlers: map[string]func(string, map[string]any) (json.RawMessage, error){
		"alpha.example": func(method string, args map[string]any) (json.RawMessage, error) {
			calls++
			raw, _ := json.Marshal(map[string]any{
				"products":   []map[string]any{{"product_id": fmt.Sprintf("P%d", calls)}},
				"pagination": map[string]any{"hasNextPage": true, "endCursor": fmt.Sprintf("c%d", calls)},
			})
			return raw, nil
		},
	}}
	client := NewClient(gw)

	if _, err := client.AggregateSearch(context.Background(), "alpha.example", "", 60, 50); err != nil {
		t.Fatalf("AggregateSearch() error = %v", err)
	}
	if calls != 6 {
		t.Fatalf("pages fetched = %d, want 6", calls)
	}
}

func TestAggregateSearchAbsentLimitKeepsFullPage(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{handlers: map[string]func(string, map[string]any) (json.RawMessage, error){
		"alpha.example": func(method string, args map[string]any) (json.RawMessage, error) {
			raw, _ := json.Marshal(map[string]any{
				"products": []map[string]any{
					{"product_id": "P1", "handle": "one"},
					{"product_id": "P2", "handle": "two"},
					{"product_id": "P3", "handle": "three"},
				},
			})
			return raw, nil
		},
	}}
	client := NewClient(gw)

	res, err := client.AggregateSearch(context.Background(), "alpha.example", "hat", 0, 1)
	if err != nil {
		t.Fatalf("AggregateSearch() error = %v", err)
	}
	if len(res.Products) != 3 {
		t.Fatalf("products = %d, want 3 (no explicit limit must not truncate)", len(res.Products))
	}
}

func TestAggregateSearchClampsLimit(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{handlers: map[string]func(string, map[string]any) (json.RawMessage, error){
		"alpha.example": func(method string, args map[string]any) (json.RawMessage, error) {
			products := make([]map[string]any, 0, 80)
			for i := 0; i < 80; i++ {
				products = append(products, map[string]any{"product_id": fmt.Sprintf("P%d", i)})
			}
			raw, _ := json.Marshal(map[string]any{"products": products})
			return raw, nil
		},
	}}
	client := NewClient(gw)

	res, err := client.AggregateSearch(context.Background(), "alpha.example", "", 500, 1)
	if err != nil {
		t.Fatalf("AggregateSearch() error = %v", err)
	}
	if len(res.Products) != 60 {
		t.Fatalf("products = %d, want clamp to 60", len(res.Products))
	}
}

func TestAggregateSearchFirstPageFailureIsFatal(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{handlers: map[string]func(string, map[string]any) (json.RawMessage, error){
		"alpha.example": func(method string, args map[string]any) (json.RawMessage, error) {
			return nil, fmt.Errorf("down")
		},
	}}
	client := NewClient(gw)

	if _, err := client.AggregateSearch(context.Background(), "alpha.example", "x", 10, 2); err == nil {
		t.Fatal("expected error when first page fails")
	}
}

func TestAggregateSearchKeepsPartialResults(t *testing.T) {
	t.Parallel()

	page := 0
	gw := &fakeGateway{handlers: map[string]func(string, map[string]any) (json.RawMessage, error){
		"alpha.example": func(method string, args map[string]any) (json.RawMessage, error) {
			page++
			if page > 1 {
				return nil, fmt.Errorf("down")
			}
			raw, _ := json.Marshal(map[string]any{
				"products":   []map[string]any{{"product_id": "P1"}},
				"pagination": map[string]any{"hasNextPage": true, "endCursor": "c1"},
			})
			return raw, nil
		},
	}}
	client := NewClient(gw)

	res, err := client.AggregateSearch(context.Background(), "alpha.example", "x", 10, 3)
	if err != nil {
		t.Fatalf("AggregateSearch() error = %v", err)
	}
	if len(res.Products) != 1 {
		t.Fatalf("products = %d, want partial result of 1", len(res.Products))
	}
}
