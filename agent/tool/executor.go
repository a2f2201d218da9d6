package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/euporia-ai/concierge/agent/contract"
	"github.com/euporia-ai/concierge/agent/shop"
	"github.com/euporia-ai/concierge/pkg/shopmcp"
)

// Session identifies the shopper and the store the turn is scoped to.
type Session struct {
	ID    string
	Store string
}

// Executor runs planner tool requests. Every failure is reported back to the
// model as a ToolResult error; the turn itself never aborts on a tool.
type Executor struct {
	shop     *shop.Client
	profiles contractx.ProfileStore
	carts    contractx.CartStore
}

func NewExecutor(shopClient *shop.Client, profiles contractx.ProfileStore, carts contractx.CartStore) *Executor {
	if shopClient == nil {
		panic("tool: shop client is required")
	}
	if profiles == nil {
		panic("tool: profile store is required")
	}
	if carts == nil {
		panic("tool: cart store is required")
	}
	return &Executor{shop: shopClient, profiles: profiles, carts: carts}
}

// ExecuteAll runs a batch concurrently and returns results in request order.
func (e *Executor) ExecuteAll(ctx context.Context, session Session, reqs []contractx.ToolRequest) []contractx.ToolResult {
	results := make([]contractx.ToolResult, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req contractx.ToolRequest) {
			defer wg.Done()
			results[i] = e.Execute(ctx, session, req)
		}(i, req)
	}
	wg.Wait()
	return results
}

func (e *Executor) Execute(ctx context.Context, session Session, req contractx.ToolRequest) contractx.ToolResult {
	result := contractx.ToolResult{ID: req.ID, Tool: req.Tool}

	payload, err := e.dispatch(ctx, session, req)
	if err != nil {
		log.Warn().Err(err).Str("tool", req.Tool).Str("session_id", session.ID).Msg("tool execution failed")
		result.Error = err.Error()
		return result
	}
	result.Result = payload
	return result
}

func (e *Executor) dispatch(ctx context.Context, session Session, req contractx.ToolRequest) (any, error) {
	switch req.Tool {
	case NameSearchProducts:
		return e.searchProducts(ctx, session, req.Args)
	case NameGetProductDetails:
		return e.getProductDetails(ctx, session, req.Args)
	case NameAddToCart:
		return e.addToCart(ctx, session, req.Args)
	case NameUpdateCartItems:
		return e.updateCartItems(ctx, session, req.Args)
	case NameRemoveFromCart:
		return e.removeFromCart(ctx, session, req.Args)
	case NameApplyDiscountCode:
		return e.applyDiscountCode(ctx, session, req.Args)
	case NameGetCart:
		return e.getCart(ctx, session, req.Args)
	case NameSearchPolicies:
		return e.searchPolicies(ctx, session, req.Args)
	case NameLoadTasteProfile:
		return e.loadTasteProfile(ctx, session)
	case NameSaveTasteProfile:
		return e.saveTasteProfile(ctx, session, req.Args)
	default:
		return nil, fmt.Errorf("unknown tool %q", req.Tool)
	}
}

/* --------------------------------- catalog -------------------------------- */

func (e *Executor) searchProducts(ctx context.Context, session Session, args map[string]any) (any, error) {
	var in struct {
		Store   string              `json:"store"`
		Query   string              `json:"query"`
		Context string              `json:"context"`
		After   string              `json:"after"`
		Limit   int                 `json:"limit"`
		Filters []shop.SearchFilter `json:"filters"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	store, err := e.storeFor(session, in.Store)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Query) == "" {
		return nil, errors.New("query is required")
	}

	return e.shop.SearchProducts(ctx, store, in.Query, shop.SearchOptions{
		Context: in.Context,
		Filters: in.Filters,
		After:   in.After,
		Limit:   in.Limit,
	})
}

func (e *Executor) getProductDetails(ctx context.Context, session Session, args map[string]any) (any, error) {
	var in struct {
		Store     string            `json:"store"`
		ProductID string            `json:"product_id"`
		Options   map[string]string `json:"options"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	store, err := e.storeFor(session, in.Store)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ProductID) == "" {
		return nil, errors.New("product_id is required")
	}
	return e.shop.GetProductDetails(ctx, store, in.ProductID, in.Options)
}

func (e *Executor) searchPolicies(ctx context.Context, session Session, args map[string]any) (any, error) {
	var in struct {
		Store string `json:"store"`
		Query string `json:"query"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	store, err := e.storeFor(session, in.Store)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Query) == "" {
		return nil, errors.New("query is required")
	}
	answer, err := e.shop.SearchPolicies(ctx, store, in.Query)
	if err != nil {
		return nil, err
	}
	return map[string]any{"answer": answer}, nil
}

/* ---------------------------------- cart ---------------------------------- */

func (e *Executor) addToCart(ctx context.Context, session Session, args map[string]any) (any, error) {
	var in struct {
		Store string `json:"store"`
		Items []struct {
			MerchandiseID string `json:"merchandiseId"`
			Quantity      int    `json:"quantity"`
		} `json:"items"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	store, err := e.storeFor(session, in.Store)
	if err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, errors.New("items is required")
	}

	items := make([]shop.CartItem, 0, len(in.Items))
	for _, item := range in.Items {
		if strings.TrimSpace(item.MerchandiseID) == "" {
			return nil, errors.New("merchandiseId is required on every item")
		}
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		items = append(items, shop.CartItem{MerchandiseID: item.MerchandiseID, Quantity: qty})
	}

	cartID, _, err := e.carts.CartID(ctx, session.ID, store)
	if err != nil {
		return nil, fmt.Errorf("load cart id: %w", err)
	}

	cart, err := e.shop.AddToCart(ctx, store, items, cartID)
	if err != nil {
		return nil, err
	}
	e.rememberCart(ctx, session, store, cart)
	return cart, nil
}

func (e *Executor) updateCartItems(ctx context.Context, session Session, args map[string]any) (any, error) {
	var in struct {
		Store   string `json:"store"`
		Updates []struct {
			LineID   string `json:"lineId"`
			Quantity int    `json:"quantity"`
		} `json:"updates"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	store, err := e.storeFor(session, in.Store)
	if err != nil {
		return nil, err
	}
	if len(in.Updates) == 0 {
		return nil, errors.New("updates is required")
	}

	cartID, err := e.requireCart(ctx, session, store)
	if err != nil {
		return nil, err
	}

	updates := make([]shop.LineUpdate, 0, len(in.Updates))
	for _, u := range in.Updates {
		if strings.TrimSpace(u.LineID) == "" {
			return nil, errors.New("lineId is required on every update")
		}
		updates = append(updates, shop.LineUpdate{LineID: u.LineID, Quantity: u.Quantity})
	}

	cart, err := e.shop.UpdateCartItems(ctx, store, cartID, updates)
	if err != nil {
		return nil, err
	}
	e.rememberCart(ctx, session, store, cart)
	return cart, nil
}

func (e *Executor) removeFromCart(ctx context.Context, session Session, args map[string]any) (any, error) {
	var in struct {
		Store   string   `json:"store"`
		LineIDs []string `json:"lineIds"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	store, err := e.storeFor(session, in.Store)
	if err != nil {
		return nil, err
	}
	if len(in.LineIDs) == 0 {
		return nil, errors.New("lineIds is required")
	}

	cartID, err := e.requireCart(ctx, session, store)
	if err != nil {
		return nil, err
	}

	cart, err := e.shop.RemoveFromCart(ctx, store, cartID, in.LineIDs)
	if err != nil {
		return nil, err
	}
	e.rememberCart(ctx, session, store, cart)
	return cart, nil
}

func (e *Executor) applyDiscountCode(ctx context.Context, session Session, args map[string]any) (any, error) {
	var in struct {
		Store string   `json:"store"`
		Codes []string `json:"codes"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	store, err := e.storeFor(session, in.Store)
	if err != nil {
		return nil, err
	}
	if len(in.Codes) == 0 {
		return nil, errors.New("codes is required")
	}

	cartID, err := e.requireCart(ctx, session, store)
	if err != nil {
		return nil, err
	}

	cart, err := e.shop.ApplyDiscountCode(ctx, store, cartID, in.Codes)
	if err != nil {
		return nil, err
	}
	e.rememberCart(ctx, session, store, cart)
	return cart, nil
}

func (e *Executor) getCart(ctx context.Context, session Session, args map[string]any) (any, error) {
	var in struct {
		Store string `json:"store"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	store, err := e.storeFor(session, in.Store)
	if err != nil {
		return nil, err
	}

	cartID, found, err := e.carts.CartID(ctx, session.ID, store)
	if err != nil {
		return nil, fmt.Errorf("load cart id: %w", err)
	}
	if !found {
		return shop.Cart{Lines: []shop.CartLine{}}, nil
	}

	cart, err := e.shop.GetCart(ctx, store, cartID)
	if err != nil {
		var remoteErr *shopmcp.RemoteToolError
		if errors.As(err, &remoteErr) {
			// the remote no longer knows this cart; forget it
			if delErr := e.carts.DeleteCartID(ctx, session.ID, store); delErr != nil {
				log.Warn().Err(delErr).Str("session_id", session.ID).Str("store", store).Msg("drop stale cart id failed")
			}
			return shop.Cart{Lines: []shop.CartLine{}}, nil
		}
		return nil, err
	}
	return cart, nil
}

/* ----------------------------- taste profile ------------------------------ */

// loadTasteProfile reports found separately from the profile so the model can
// tell a new shopper from a returning one with an empty profile.
func (e *Executor) loadTasteProfile(ctx context.Context, session Session) (any, error) {
	profile, found, err := e.profiles.LoadProfile(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if !found {
		return map[string]any{"found": false}, nil
	}
	if profile == nil {
		profile = map[string]any{}
	}
	return map[string]any{"found": true, "profile": profile}, nil
}

func (e *Executor) saveTasteProfile(ctx context.Context, session Session, args map[string]any) (any, error) {
	profile, ok := args["profile"].(map[string]any)
	if !ok {
		return nil, errors.New("profile must be a JSON object")
	}
	if err := e.profiles.SaveProfile(ctx, session.ID, profile); err != nil {
		return nil, err
	}
	return map[string]any{"saved": true}, nil
}

/* --------------------------------- helpers -------------------------------- */

func (e *Executor) storeFor(session Session, override string) (string, error) {
	store := strings.TrimSpace(override)
	if store == "" {
		store = strings.TrimSpace(session.Store)
	}
	if store == "" {
		return "", errors.New("store is required")
	}
	return store, nil
}

func (e *Executor) requireCart(ctx context.Context, session Session, store string) (string, error) {
	cartID, found, err := e.carts.CartID(ctx, session.ID, store)
	if err != nil {
		return "", fmt.Errorf("load cart id: %w", err)
	}
	if !found {
		return "", errors.New("no active cart for this store; add an item first")
	}
	return cartID, nil
}

func (e *Executor) rememberCart(ctx context.Context, session Session, store string, cart shop.Cart) {
	if strings.TrimSpace(cart.ID) == "" {
		return
	}
	if err := e.carts.SaveCartID(ctx, session.ID, store, cart.ID); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID).Str("store", store).Msg("save cart id failed")
	}
}

// decodeArgs maps the loosely typed planner arguments onto a typed struct via
// a JSON round trip.
func decodeArgs(args map[string]any, out any) error {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("%w: encode tool args: %v", contractx.ErrSchemaViolation, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrSchemaViolation, err)
	}
	return nil
}
