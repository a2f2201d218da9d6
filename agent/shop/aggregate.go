package shop

import "context"

const (
	maxAggregateLimit = 60
	maxAggregatePages = 6
)

// AggregateSearch fetches up to `pages` pages of results for one query and
// merges them, deduplicated by product identity. limit clamps to [1,60]; a
// non-positive limit means no explicit cap and yields the full 60 budget.
// pages clamps to [1,6]. Cursors are echoed back verbatim.
func (c *Client) AggregateSearch(ctx context.Context, store, query string, limit, pages int) (SearchResult, error) {
	if limit <= 0 {
		limit = maxAggregateLimit
	}
	limit = clamp(limit, 1, maxAggregateLimit)
	pages = clamp(pages, 1, maxAggregatePages)

	merged := SearchResult{Products: []Product{}}
	seen := map[string]struct{}{}
	cursor := ""

	for page := 0; page < pages; page++ {
		res, err := c.SearchProducts(ctx, store, query, SearchOptions{After: cursor})
		if err != nil {
			// partial results beat a hard failure once the first page landed
			if page > 0 {
				break
			}
			return SearchResult{}, err
		}

		if merged.AvailableFilters == nil {
			merged.AvailableFilters = res.AvailableFilters
		}
		merged.Pagination = res.Pagination

		for _, p := range res.Products {
			key := productKey(p)
			if key == "" {
				merged.Products = append(merged.Products, p)
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged.Products = append(merged.Products, p)
			if len(merged.Products) >= limit {
				return merged, nil
			}
		}

		if res.Pagination == nil || !res.Pagination.HasNextPage || res.Pagination.EndCursor == "" {
			break
		}
		cursor = res.Pagination.EndCursor
	}

	return merged, nil
}

func productKey(p Product) string {
	if p.ProductID != "" {
		return "id:" + p.ProductID
	}
	if p.Handle != "" {
		return "handle:" + p.Handle
	}
	return ""
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
