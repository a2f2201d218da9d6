package shop

import (
	"encoding/json"
	"reflect"
	"testing"
)

func mustDecode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return m
}

func TestNormalizeProductHandleFromURL(t *testing.T) {
	t.Parallel()

	raw := mustDecode(t, `{"title":"Blue Mug","url":"https://x/products/blue-mug-12"}`)
	p, err := NormalizeProduct(raw)
	if err != nil {
		t.Fatalf("NormalizeProduct() error = %v", err)
	}
	if p.Handle != "blue-mug-12" {
		t.Fatalf("handle = %q, want blue-mug-12", p.Handle)
	}
}

func TestNormalizeProductDirectHandleWins(t *testing.T) {
	t.Parallel()

	raw := mustDecode(t, `{"handle":"direct","url":"https://x/products/from-url"}`)
	p, err := NormalizeProduct(raw)
	if err != nil {
		t.Fatalf("NormalizeProduct() error = %v", err)
	}
	if p.Handle != "direct" {
		t.Fatalf("handle = %q, want direct", p.Handle)
	}
}

// Two differently-shaped payloads describing the same logical product must
// normalize identically.
func TestNormalizeProductSnakeCamelEquivalence(t *testing.T) {
	t.Parallel()

	camel := mustDecode(t, `{
		"productId": "gid://shopify/Product/1",
		"title": "Jacket",
		"handle": "jacket",
		"productType": "Outerwear",
		"availableForSale": true,
		"priceRange": {
			"minVariantPrice": {"amount": "40.0", "currencyCode": "USD"},
			"maxVariantPrice": {"amount": "60.0", "currencyCode": "USD"}
		}
	}`)
	snake := mustDecode(t, `{
		"product_id": "gid://shopify/Product/1",
		"title": "Jacket",
		"handle": "jacket",
		"product_type": "Outerwear",
		"available": true,
		"price_range": {"min": "40.0", "max": "60.0", "currency": "USD"}
	}`)

	a, err := NormalizeProduct(camel)
	if err != nil {
		t.Fatalf("camel: %v", err)
	}
	b, err := NormalizeProduct(snake)
	if err != nil {
		t.Fatalf("snake: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("normalized outputs differ:\ncamel: %+v\nsnake: %+v", a, b)
	}
}

func TestNormalizeProductVariantBarePriceInheritsCurrency(t *testing.T) {
	t.Parallel()

	raw := mustDecode(t, `{
		"title": "Tee",
		"price_range": {"min": "25.0", "max": "25.0", "currency": "EUR"},
		"variants": [
			{"variant_id": "gid://shopify/ProductVariant/9", "title": "Default Title", "price": "25.0"}
		]
	}`)
	p, err := NormalizeProduct(raw)
	if err != nil {
		t.Fatalf("NormalizeProduct() error = %v", err)
	}
	if len(p.Variants) != 1 {
		t.Fatalf("variants = %d, want 1", len(p.Variants))
	}
	v := p.Variants[0]
	if v.ID != "gid://shopify/ProductVariant/9" {
		t.Fatalf("variant id = %q", v.ID)
	}
	if v.Price == nil || v.Price.Amount != "25.0" || v.Price.CurrencyCode != "EUR" {
		t.Fatalf("variant price = %+v, want 25.0 EUR", v.Price)
	}
	if !v.AvailableForSale {
		t.Fatal("variant availability must default to true")
	}
}

func TestNormalizeProductImageFallback(t *testing.T) {
	t.Parallel()

	raw := mustDecode(t, `{"title":"Mug","image_url":"https://cdn/x.png","image_alt_text":"a mug"}`)
	p, err := NormalizeProduct(raw)
	if err != nil {
		t.Fatalf("NormalizeProduct() error = %v", err)
	}
	if len(p.Images) != 1 || p.Images[0].URL != "https://cdn/x.png" || p.Images[0].AltText != "a mug" {
		t.Fatalf("images = %+v", p.Images)
	}
}

func TestNormalizeProductNilPayload(t *testing.T) {
	t.Parallel()

	if _, err := NormalizeProduct(nil); err == nil {
		t.Fatal("expected error for non-object payload")
	}
}

func TestNormalizeCartWrappedAndSnakeCase(t *testing.T) {
	t.Parallel()

	raw := mustDecode(t, `{
		"cart": {
			"id": "gid://shopify/Cart/abc",
			"checkout_url": "https://x/checkout",
			"total_quantity": 3,
			"cost": {"total_amount": {"amount": "75.0", "currency_code": "USD"}},
			"lines": [
				{"id": "L1", "quantity": 3, "merchandise": {"id": "gid://shopify/ProductVariant/1", "title": "Default Title"}}
			]
		}
	}`)
	c, err := NormalizeCart(raw)
	if err != nil {
		t.Fatalf("NormalizeCart() error = %v", err)
	}
	if c.ID != "gid://shopify/Cart/abc" {
		t.Fatalf("id = %q", c.ID)
	}
	if c.CheckoutURL != "https://x/checkout" {
		t.Fatalf("checkoutUrl = %q", c.CheckoutURL)
	}
	if c.TotalQuantity != 3 {
		t.Fatalf("totalQuantity = %d, want 3", c.TotalQuantity)
	}
	if c.Cost == nil || c.Cost.TotalAmount.Amount != "75.0" || c.Cost.TotalAmount.CurrencyCode != "USD" {
		t.Fatalf("cost = %+v", c.Cost)
	}
	if len(c.Lines) != 1 || c.Lines[0].ID != "L1" || c.Lines[0].Quantity != 3 {
		t.Fatalf("lines = %+v", c.Lines)
	}
	if c.Lines[0].Merchandise == nil || c.Lines[0].Merchandise.ID != "gid://shopify/ProductVariant/1" {
		t.Fatalf("merchandise = %+v", c.Lines[0].Merchandise)
	}
}

func TestNormalizeCartTopLevelCamelCase(t *testing.T) {
	t.Parallel()

	raw := mustDecode(t, `{
		"id": "c1",
		"checkoutUrl": "https://x/co",
		"totalQuantity": 1,
		"lines": []
	}`)
	c, err := NormalizeCart(raw)
	if err != nil {
		t.Fatalf("NormalizeCart() error = %v", err)
	}
	if c.ID != "c1" || c.CheckoutURL != "https://x/co" || c.TotalQuantity != 1 {
		t.Fatalf("cart = %+v", c)
	}
	if c.Lines == nil || len(c.Lines) != 0 {
		t.Fatalf("lines must be empty non-nil, got %+v", c.Lines)
	}
}

func TestNormalizeSearchResultPagination(t *testing.T) {
	t.Parallel()

	raw := mustDecode(t, `{
		"products": [{"title": "A", "handle": "a"}],
		"pagination": {"has_next_page": true, "end_cursor": "CUR"},
		"available_filters": [{"label": "price"}]
	}`)
	res, err := NormalizeSearchResult(raw)
	if err != nil {
		t.Fatalf("NormalizeSearchResult() error = %v", err)
	}
	if len(res.Products) != 1 || res.Products[0].Handle != "a" {
		t.Fatalf("products = %+v", res.Products)
	}
	if res.Pagination == nil || !res.Pagination.HasNextPage || res.Pagination.EndCursor != "CUR" {
		t.Fatalf("pagination = %+v", res.Pagination)
	}
	if res.AvailableFilters == nil {
		t.Fatal("availableFilters must pass through")
	}
}

func TestHandleFromURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		url  string
		want string
	}{
		{"https://x/products/blue-mug-12", "blue-mug-12"},
		{"https://x/products/blue-mug-12?variant=1", "blue-mug-12"},
		{"https://x/products/blue-mug-12/", "blue-mug-12"},
		{"https://x/collections/all", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := HandleFromURL(tc.url); got != tc.want {
			t.Fatalf("HandleFromURL(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
