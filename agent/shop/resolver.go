package shop

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/euporia-ai/concierge/agent/merchants"
)

const (
	// catalog scan ceiling per store; the remote has no get-by-handle, so
	// resolution falls back to paging through search results
	defaultPageCeiling = 5
	// handles are long slugs; the leading tokens carry the searchable terms
	primaryQueryTokens = 6
)

// Resolution is a handle located in a concrete store.
type Resolution struct {
	Product Product
	Store   string
}

// Resolver finds the store a product handle belongs to. Handle resolution is
// probabilistic: the remote only exposes fuzzy search, so the resolver tries
// direct queries first and degrades to a bounded catalog scan.
type Resolver struct {
	client      *Client
	directory   *merchants.Directory
	pageCeiling int
}

func NewResolver(client *Client, directory *merchants.Directory) *Resolver {
	return &Resolver{
		client:      client,
		directory:   directory,
		pageCeiling: defaultPageCeiling,
	}
}

// WithPageCeiling overrides the per-store scan bound. Zero or negative keeps
// the default.
func (r *Resolver) WithPageCeiling(n int) *Resolver {
	if n > 0 {
		r.pageCeiling = n
	}
	return r
}

// ResolveByHandle searches stores in priority order (preferred store, then
// the store inferred from the handle, then the remaining directory) and
// returns the first exact handle match. First match wins; there is no
// ranking beyond store order.
func (r *Resolver) ResolveByHandle(ctx context.Context, handle, preferredStore string) (*Resolution, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, ErrProductNotFound
	}

	var lastErr error
	for _, store := range r.storeOrder(handle, preferredStore) {
		product, err := r.findInStore(ctx, store, handle)
		if err != nil {
			if errors.Is(err, ErrProductNotFound) {
				continue
			}
			if ctx.Err() != nil {
				return nil, err
			}
			// a broken store must not mask a match in the next one
			log.Warn().Err(err).Str("store", store).Str("handle", handle).Msg("store lookup failed, trying next")
			lastErr = err
			continue
		}
		return &Resolution{Product: product, Store: store}, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrProductNotFound
}

func (r *Resolver) storeOrder(handle, preferredStore string) []string {
	order := make([]string, 0, 4)
	seen := map[string]struct{}{}

	push := func(store string) {
		store = strings.TrimSpace(store)
		if store == "" {
			return
		}
		if _, dup := seen[store]; dup {
			return
		}
		seen[store] = struct{}{}
		order = append(order, store)
	}

	push(preferredStore)
	push(r.directory.InferStore(handle))
	for _, domain := range r.directory.Domains() {
		push(domain)
	}
	return order
}

func (r *Resolver) findInStore(ctx context.Context, store, handle string) (Product, error) {
	for _, query := range directQueries(handle) {
		res, err := r.client.SearchProducts(ctx, store, query, SearchOptions{})
		if err != nil {
			return Product{}, err
		}
		if p, ok := matchHandle(res.Products, handle); ok {
			return p, nil
		}
	}
	return r.scanCatalog(ctx, store, handle)
}

// scanCatalog pages through an empty-query search looking for the handle,
// bounded by the page ceiling.
func (r *Resolver) scanCatalog(ctx context.Context, store, handle string) (Product, error) {
	cursor := ""
	for page := 0; page < r.pageCeiling; page++ {
		res, err := r.client.SearchProducts(ctx, store, "", SearchOptions{After: cursor})
		if err != nil {
			return Product{}, err
		}
		if p, ok := matchHandle(res.Products, handle); ok {
			return p, nil
		}
		if res.Pagination == nil || !res.Pagination.HasNextPage || res.Pagination.EndCursor == "" {
			break
		}
		cursor = res.Pagination.EndCursor
	}
	return Product{}, ErrProductNotFound
}

// directQueries derives search queries from a handle: the raw slug, then its
// leading tokens joined by spaces, deduplicated.
func directQueries(handle string) []string {
	queries := []string{handle}

	tokens := strings.Split(handle, "-")
	if len(tokens) > primaryQueryTokens {
		tokens = tokens[:primaryQueryTokens]
	}
	primary := strings.Join(tokens, " ")
	if primary != handle {
		queries = append(queries, primary)
	}
	return queries
}

func matchHandle(products []Product, handle string) (Product, bool) {
	for _, p := range products {
		if p.Handle == handle {
			return p, true
		}
	}
	return Product{}, false
}
