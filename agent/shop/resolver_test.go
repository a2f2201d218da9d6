package shop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/euporia-ai/concierge/agent/merchants"
)

// fakeGateway scripts per-store search responses and records every call.
type fakeGateway struct {
	calls    []gatewayCall
	handlers map[string]func(method string, args map[string]any) (json.RawMessage, error)
}

type gatewayCall struct {
	store  string
	method string
	args   map[string]any
}

func (f *fakeGateway) Call(ctx context.Context, store, method string, args map[string]any) (json.RawMessage, error) {
	f.calls = append(f.calls, gatewayCall{store: store, method: method, args: args})
	if h, ok := f.handlers[store]; ok {
		return h(method, args)
	}
	return json.RawMessage(`{"products":[]}`), nil
}

func (f *fakeGateway) callsForStore(store string) int {
	n := 0
	for _, c := range f.calls {
		if c.store == store {
			n++
		}
	}
	return n
}

func searchPayload(t *testing.T, handles ...string) json.RawMessage {
	t.Helper()
	products := make([]map[string]any, 0, len(handles))
	for _, h := range handles {
		products = append(products, map[string]any{"handle": h, "title": h})
	}
	raw, err := json.Marshal(map[string]any{"products": products})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return raw
}

func testDirectory() *merchants.Directory {
	return merchants.NewDirectory([]merchants.Merchant{
		{ID: "alpha", Name: "Alpha", Domain: "alpha.example"},
		{ID: "beta", Name: "Beta", Domain: "beta.example"},
		{ID: "gamma", Name: "Gamma", Domain: "gamma.example"},
	})
}

func TestResolvePrefersGivenStore(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{handlers: map[string]func(string, map[string]any) (json.RawMessage, error){
		"beta.example": func(method string, args map[string]any) (json.RawMessage, error) {
			return searchPayload(t, "cool-hat"), nil
		},
	}}
	resolver := NewResolver(NewClient(gw), testDirectory())

	res, err := resolver.ResolveByHandle(context.Background(), "cool-hat", "beta.example")
	if err != nil {
		t.Fatalf("ResolveByHandle() error = %v", err)
	}
	if res.Store != "beta.example" {
		t.Fatalf("store = %q, want beta.example", res.Store)
	}
	if res.Product.Handle != "cool-hat" {
		t.Fatalf("handle = %q", res.Product.Handle)
	}
	if gw.calls[0].store != "beta.example" {
		t.Fatalf("first call went to %q, want preferred store", gw.calls[0].store)
	}
}

func TestResolveInfersStoreFromHandle(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{handlers: map[string]func(string, map[string]any) (json.RawMessage, error){
		"gamma.example": func(method string, args map[string]any) (json.RawMessage, error) {
			return searchPayload(t, "gamma-ray-shirt"), nil
		},
	}}
	resolver := NewResolver(NewClient(gw), testDirectory())

	res, err := resolver.ResolveByHandle(context.Background(), "gamma-ray-shirt", "")
	if err != nil {
		t.Fatalf("ResolveByHandle() error = %v", err)
	}
	if res.Store != "gamma.example" {
		t.Fatalf("store = %q, want gamma.example", res.Store)
	}
	if gw.calls[0].store != "gamma.example" {
		t.Fatalf("first call went to %q, want inferred store", gw.calls[0].store)
	}
}

// For a handle no store has, the resolver must terminate after at most
// stores x (directQueries + pageCeiling) calls and report not-found.
func TestResolveTerminatesAcrossAllStores(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	resolver := NewResolver(NewClient(gw), testDirectory()).WithPageCeiling(3)

	_, err := resolver.ResolveByHandle(context.Background(), "nonexistent-item-handle", "")
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("ResolveByHandle() error = %v, want ErrProductNotFound", err)
	}

	// 3 stores x (2 direct queries + 3 scan pages); scan stops after page 1
	// because the fake reports no next page
	maxCalls := 3 * (2 + 3)
	if len(gw.calls) > maxCalls {
		t.Fatalf("calls = %d, want <= %d", len(gw.calls), maxCalls)
	}
	if len(gw.calls) == 0 {
		t.Fatal("expected calls")
	}
}

func TestResolveScanRespectsPageCeiling(t *testing.T) {
	t.Parallel()

	// one store whose catalog always reports another page
	dir := merchants.NewDirectory([]merchants.Merchant{
		{ID: "alpha", Name: "Alpha", Domain: "alpha.example"},
	})
	page := 0
	gw := &fakeGateway{handlers: map[string]func(string, map[string]any) (json.RawMessage, error){
		"alpha.example": func(method string, args map[string]any) (json.RawMessage, error) {
			page++
			raw, _ := json.Marshal(map[string]any{
				"products":   []map[string]any{{"handle": fmt.Sprintf("filler-%d", page)}},
				"pagination": map[string]any{"hasNextPage": true, "endCursor": fmt.Sprintf("c%d", page)},
			})
			return raw, nil
		},
	}}
	resolver := NewResolver(NewClient(gw), dir).WithPageCeiling(4)

	_, err := resolver.ResolveByHandle(context.Background(), "missing-thing", "")
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("ResolveByHandle() error = %v, want ErrProductNotFound", err)
	}
	// 2 direct queries + 4 scan pages, despite infinite pagination
	if got := gw.callsForStore("alpha.example"); got != 6 {
		t.Fatalf("calls = %d, want 6", got)
	}
}

func TestResolveScanPassesCursorVerbatim(t *testing.T) {
	t.Parallel()

	dir := merchants.NewDirectory([]merchants.Merchant{
		{ID: "alpha", Name: "Alpha", Domain: "alpha.example"},
	})
	scans := 0
	gw := &fakeGateway{handlers: map[string]func(string, map[string]any) (json.RawMessage, error){
		"alpha.example": func(method string, args map[string]any) (json.RawMessage, error) {
			query, _ := args["query"].(string)
			if query != "" {
				return searchPayload(t), nil
			}
			scans++
			if scans == 1 {
				raw, _ := json.Marshal(map[string]any{
					"products":   []map[string]any{},
					"pagination": map[string]any{"hasNextPage": true, "endCursor": "OPAQUE=="},
				})
				return raw, nil
			}
			if after, _ := args["after"].(string); after != "OPAQUE==" {
				return nil, fmt.Errorf("cursor mangled: %v", args["after"])
			}
			return searchPayload(t, "deep-item"), nil
		},
	}}
	resolver := NewResolver(NewClient(gw), dir)

	res, err := resolver.ResolveByHandle(context.Background(), "deep-item", "")
	if err != nil {
		t.Fatalf("ResolveByHandle() error = %v", err)
	}
	if res.Product.Handle != "deep-item" {
		t.Fatalf("handle = %q", res.Product.Handle)
	}
}

func TestResolveBrokenStoreDoesNotMaskMatch(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{handlers: map[string]func(string, map[string]any) (json.RawMessage, error){
		"alpha.example": func(method string, args map[string]any) (json.RawMessage, error) {
			return nil, errors.New("connection refused")
		},
		"beta.example": func(method string, args map[string]any) (json.RawMessage, error) {
			return searchPayload(t, "wanted"), nil
		},
	}}
	resolver := NewResolver(NewClient(gw), testDirectory())

	res, err := resolver.ResolveByHandle(context.Background(), "wanted", "")
	if err != nil {
		t.Fatalf("ResolveByHandle() error = %v", err)
	}
	if res.Store != "beta.example" {
		t.Fatalf("store = %q, want beta.example", res.Store)
	}
}

func TestResolveEmptyHandle(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(NewClient(&fakeGateway{}), testDirectory())
	if _, err := resolver.ResolveByHandle(context.Background(), "  ", ""); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("error = %v, want ErrProductNotFound", err)
	}
}
