package shop

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// The remote replies in a mix of camelCase and snake_case, with prices nested
// or flat and cart payloads optionally wrapped one level deep. Normalization
// is total: missing optionals stay zero, camelCase wins when both spellings
// are present, and only a non-object payload is an error.

func NormalizeProduct(raw map[string]any) (Product, error) {
	if raw == nil {
		return Product{}, fmt.Errorf("product payload is not an object")
	}

	p := Product{
		ProductID:        firstString(raw, "productId", "product_id", "id"),
		Title:            firstString(raw, "title"),
		Handle:           productHandle(raw),
		Description:      firstString(raw, "description"),
		ProductType:      firstString(raw, "productType", "product_type"),
		AvailableForSale: firstBool(raw, true, "availableForSale", "available"),
		Tags:             stringSlice(raw["tags"]),
	}

	p.PriceRange = productPriceRange(raw)
	p.Images = productImages(raw)

	if vs, ok := raw["variants"].([]any); ok {
		inherit := ""
		if p.PriceRange != nil {
			inherit = p.PriceRange.MinVariantPrice.CurrencyCode
		}
		for _, v := range vs {
			vm, ok := v.(map[string]any)
			if !ok {
				continue
			}
			p.Variants = append(p.Variants, normalizeVariant(vm, inherit))
		}
	}

	return p, nil
}

func DecodeProduct(raw json.RawMessage) (Product, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return Product{}, fmt.Errorf("decode product payload: %w", err)
	}
	return NormalizeProduct(m)
}

func productHandle(raw map[string]any) string {
	if h := firstString(raw, "handle"); h != "" {
		return h
	}
	return HandleFromURL(firstString(raw, "url"))
}

// HandleFromURL extracts the URL slug from a canonical product URL like
// "https://store.example/products/blue-mug-12".
func HandleFromURL(url string) string {
	_, after, found := strings.Cut(url, "/products/")
	if !found {
		return ""
	}
	if i := strings.IndexAny(after, "?#"); i >= 0 {
		after = after[:i]
	}
	return strings.TrimSuffix(after, "/")
}

func productPriceRange(raw map[string]any) *PriceRange {
	if pr, ok := raw["priceRange"].(map[string]any); ok {
		return &PriceRange{
			MinVariantPrice: moneyFrom(pr["minVariantPrice"], ""),
			MaxVariantPrice: moneyFrom(pr["maxVariantPrice"], ""),
		}
	}
	if pr, ok := raw["price_range"].(map[string]any); ok {
		currency := firstString(pr, "currency", "currency_code", "currencyCode")
		return &PriceRange{
			MinVariantPrice: Money{Amount: scalarString(pr["min"]), CurrencyCode: currency},
			MaxVariantPrice: Money{Amount: scalarString(pr["max"]), CurrencyCode: currency},
		}
	}
	return nil
}

func productImages(raw map[string]any) []Image {
	if imgs, ok := raw["images"].([]any); ok {
		out := make([]Image, 0, len(imgs))
		for _, img := range imgs {
			im, ok := img.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, Image{
				URL:     firstString(im, "url", "src"),
				AltText: firstString(im, "altText", "alt_text"),
			})
		}
		return out
	}
	if u := firstString(raw, "image_url"); u != "" {
		return []Image{{URL: u, AltText: firstString(raw, "image_alt_text")}}
	}
	return nil
}

func normalizeVariant(vm map[string]any, inheritCurrency string) Variant {
	v := Variant{
		ID:               firstString(vm, "id", "variant_id"),
		Title:            firstString(vm, "title"),
		AvailableForSale: firstBool(vm, true, "availableForSale", "available"),
	}

	switch price := vm["price"].(type) {
	case map[string]any:
		m := moneyFrom(price, inheritCurrency)
		v.Price = &m
	case string, float64, json.Number:
		currency := firstString(vm, "currency", "currency_code")
		if currency == "" {
			currency = inheritCurrency
		}
		v.Price = &Money{Amount: scalarString(price), CurrencyCode: currency}
	}

	opts, ok := vm["selectedOptions"].([]any)
	if !ok {
		opts, _ = vm["selected_options"].([]any)
	}
	for _, o := range opts {
		om, ok := o.(map[string]any)
		if !ok {
			continue
		}
		v.SelectedOptions = append(v.SelectedOptions, SelectedOption{
			Name:  firstString(om, "name"),
			Value: firstString(om, "value"),
		})
	}
	return v
}

func NormalizeCart(raw map[string]any) (Cart, error) {
	if raw == nil {
		return Cart{}, fmt.Errorf("cart payload is not an object")
	}

	// the remote wraps mutation responses one level under "cart"
	c := raw
	if inner, ok := raw["cart"].(map[string]any); ok {
		c = inner
	}

	cart := Cart{
		ID:            firstString(c, "id", "cart_id"),
		CheckoutURL:   firstString(c, "checkoutUrl", "checkout_url"),
		TotalQuantity: int(firstNumber(c, "totalQuantity", "total_quantity")),
		Lines:         []CartLine{},
	}

	if cost, ok := c["cost"].(map[string]any); ok {
		cart.Cost = &CartCost{
			TotalAmount:    moneyFrom(pick(cost, "totalAmount", "total_amount"), ""),
			SubtotalAmount: moneyFrom(pick(cost, "subtotalAmount", "subtotal_amount"), ""),
		}
	}

	if lines, ok := c["lines"].([]any); ok {
		for _, l := range lines {
			lm, ok := l.(map[string]any)
			if !ok {
				continue
			}
			cart.Lines = append(cart.Lines, CartLine{
				ID:          firstString(lm, "id", "line_id"),
				Quantity:    int(firstNumber(lm, "quantity")),
				Merchandise: normalizeMerchandise(lm["merchandise"]),
			})
		}
	}

	return cart, nil
}

func DecodeCart(raw json.RawMessage) (Cart, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return Cart{}, fmt.Errorf("decode cart payload: %w", err)
	}
	return NormalizeCart(m)
}

func normalizeMerchandise(v any) *Merchandise {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	merch := &Merchandise{
		ID:    firstString(m, "id", "variant_id"),
		Title: firstString(m, "title"),
	}
	if prod, ok := m["product"].(map[string]any); ok {
		merch.Product = prod
	}
	if price, ok := pick(m, "price").(map[string]any); ok {
		money := moneyFrom(price, "")
		merch.Price = &money
	}
	if img, ok := pick(m, "image").(map[string]any); ok {
		merch.Image = &Image{
			URL:     firstString(img, "url", "src"),
			AltText: firstString(img, "altText", "alt_text"),
		}
	}
	return merch
}

func NormalizeSearchResult(raw map[string]any) (SearchResult, error) {
	if raw == nil {
		return SearchResult{}, fmt.Errorf("search payload is not an object")
	}

	res := SearchResult{Products: []Product{}}
	if products, ok := raw["products"].([]any); ok {
		for _, p := range products {
			pm, ok := p.(map[string]any)
			if !ok {
				continue
			}
			prod, err := NormalizeProduct(pm)
			if err != nil {
				continue
			}
			res.Products = append(res.Products, prod)
		}
	}

	if pg, ok := pick(raw, "pagination", "pageInfo", "page_info").(map[string]any); ok {
		res.Pagination = &PageInfo{
			HasNextPage: firstBool(pg, false, "hasNextPage", "has_next_page"),
			EndCursor:   firstString(pg, "endCursor", "end_cursor"),
		}
	}
	res.AvailableFilters = pick(raw, "availableFilters", "available_filters")

	return res, nil
}

func DecodeSearchResult(raw json.RawMessage) (SearchResult, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return SearchResult{}, fmt.Errorf("decode search payload: %w", err)
	}
	return NormalizeSearchResult(m)
}

/* ------------------------------ raw helpers ------------------------------ */

// pick returns the first present key, in order. camelCase keys are listed
// first by convention so they win over snake_case duplicates.
func pick(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := scalarString(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func firstBool(m map[string]any, fallback bool, keys ...string) bool {
	for _, k := range keys {
		if b, ok := m[k].(bool); ok {
			return b
		}
	}
	return fallback
}

func firstNumber(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v
		case json.Number:
			f, _ := v.Float64()
			return f
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

// scalarString renders strings and numbers as decimal strings; everything
// else is empty. Amounts arrive either way.
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func moneyFrom(v any, inheritCurrency string) Money {
	switch t := v.(type) {
	case map[string]any:
		currency := firstString(t, "currencyCode", "currency_code", "currency")
		if currency == "" {
			currency = inheritCurrency
		}
		return Money{Amount: scalarString(t["amount"]), CurrencyCode: currency}
	case string, float64, json.Number:
		return Money{Amount: scalarString(t), CurrencyCode: inheritCurrency}
	default:
		return Money{}
	}
}

func stringSlice(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
