package shop

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Client wraps the gateway with typed catalog and cart operations against a
// single logical API that spans many stores. Every operation is store-scoped.
type Client struct {
	gateway Gateway
}

func NewClient(gateway Gateway) *Client {
	return &Client{gateway: gateway}
}

type SearchOptions struct {
	Context string
	Filters []SearchFilter
	After   string
	Limit   int
}

func (c *Client) SearchProducts(ctx context.Context, store, query string, opts SearchOptions) (SearchResult, error) {
	args := map[string]any{
		"query":   query,
		"context": opts.Context,
	}
	if len(opts.Filters) > 0 {
		// advisory hints, forwarded verbatim
		args["filters"] = opts.Filters
	}
	if opts.After != "" {
		args["after"] = opts.After
	}
	if opts.Limit > 0 {
		args["limit"] = opts.Limit
	}

	raw, err := c.gateway.Call(ctx, store, methodSearchCatalog, args)
	if err != nil {
		return SearchResult{}, err
	}
	return DecodeSearchResult(raw)
}

func (c *Client) GetProductDetails(ctx context.Context, store, productID string, options map[string]string) (Product, error) {
	args := map[string]any{"product_id": productID}
	if len(options) > 0 {
		args["options"] = options
	}

	raw, err := c.gateway.Call(ctx, store, methodProductDetails, args)
	if err != nil {
		return Product{}, err
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return Product{}, fmt.Errorf("decode product details: %w", err)
	}
	// details may arrive wrapped under "product"
	if inner, ok := m["product"].(map[string]any); ok {
		m = inner
	}
	return NormalizeProduct(m)
}

func (c *Client) AddToCart(ctx context.Context, store string, items []CartItem, cartID string) (Cart, error) {
	addItems := make([]map[string]any, 0, len(items))
	for _, item := range items {
		addItems = append(addItems, map[string]any{
			"product_variant_id": item.MerchandiseID,
			"quantity":           item.Quantity,
		})
	}
	args := map[string]any{"add_items": addItems}
	if cartID != "" {
		args["cart_id"] = cartID
	}
	return c.callCart(ctx, store, methodUpdateCart, args)
}

// UpdateCartItems changes line quantities; quantity 0 removes the line.
func (c *Client) UpdateCartItems(ctx context.Context, store, cartID string, updates []LineUpdate) (Cart, error) {
	updateItems := make([]map[string]any, 0, len(updates))
	for _, u := range updates {
		updateItems = append(updateItems, map[string]any{
			"line_id":  u.LineID,
			"quantity": u.Quantity,
		})
	}
	args := map[string]any{
		"cart_id":      cartID,
		"update_items": updateItems,
	}
	return c.callCart(ctx, store, methodUpdateCart, args)
}

func (c *Client) RemoveFromCart(ctx context.Context, store, cartID string, lineIDs []string) (Cart, error) {
	args := map[string]any{
		"cart_id":         cartID,
		"remove_line_ids": lineIDs,
	}
	return c.callCart(ctx, store, methodUpdateCart, args)
}

func (c *Client) ApplyDiscountCode(ctx context.Context, store, cartID string, codes []string) (Cart, error) {
	args := map[string]any{
		"cart_id":        cartID,
		"discount_codes": codes,
	}
	return c.callCart(ctx, store, methodUpdateCart, args)
}

func (c *Client) GetCart(ctx context.Context, store, cartID string) (Cart, error) {
	return c.callCart(ctx, store, methodGetCart, map[string]any{"cart_id": cartID})
}

func (c *Client) callCart(ctx context.Context, store, method string, args map[string]any) (Cart, error) {
	raw, err := c.gateway.Call(ctx, store, method, args)
	if err != nil {
		return Cart{}, err
	}
	return DecodeCart(raw)
}

// SearchPolicies answers store policy/FAQ questions as plain text.
func (c *Client) SearchPolicies(ctx context.Context, store, query string) (string, error) {
	raw, err := c.gateway.Call(ctx, store, methodSearchPolicies, map[string]any{"query": query})
	if err != nil {
		return "", err
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, nil
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err == nil {
		if answer := firstString(m, "answer", "text", "result"); answer != "" {
			return answer, nil
		}
	}
	return strings.TrimSpace(string(raw)), nil
}
