// Package shop is the canonical product/cart model over the storefront MCP
// gateway: normalization of the remote's mixed wire shapes, typed catalog and
// cart operations, handle resolution across stores, and paged aggregation.
package shop

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrProductNotFound distinguishes "no store had this handle" from transport
// failures.
var ErrProductNotFound = errors.New("product not found")

// Gateway is the remote catalog RPC surface. *shopmcp.Client implements it.
type Gateway interface {
	Call(ctx context.Context, store, method string, args map[string]any) (json.RawMessage, error)
}

// Remote tool names. The remote API mixes naming conventions; these are the
// only spellings it accepts.
const (
	methodSearchCatalog  = "search_shop_catalog"
	methodProductDetails = "get_product_details"
	methodUpdateCart     = "update_cart"
	methodGetCart        = "get_cart"
	methodSearchPolicies = "search_shop_policies_and_faqs"
)

type Money struct {
	Amount       string `json:"amount,omitempty"`
	CurrencyCode string `json:"currencyCode,omitempty"`
}

type PriceRange struct {
	MinVariantPrice Money `json:"minVariantPrice,omitempty"`
	MaxVariantPrice Money `json:"maxVariantPrice,omitempty"`
}

type Image struct {
	URL     string `json:"url,omitempty"`
	AltText string `json:"altText,omitempty"`
}

type SelectedOption struct {
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
}

type Variant struct {
	ID               string           `json:"id,omitempty"`
	Title            string           `json:"title,omitempty"`
	AvailableForSale bool             `json:"availableForSale"`
	Price            *Money           `json:"price,omitempty"`
	SelectedOptions  []SelectedOption `json:"selectedOptions,omitempty"`
}

// Product is the canonical shape every raw payload normalizes into. Handle is
// the stable external identifier when ProductID is unavailable.
type Product struct {
	ProductID        string      `json:"productId,omitempty"`
	Title            string      `json:"title,omitempty"`
	Handle           string      `json:"handle,omitempty"`
	Description      string      `json:"description,omitempty"`
	PriceRange       *PriceRange `json:"priceRange,omitempty"`
	Images           []Image     `json:"images,omitempty"`
	Variants         []Variant   `json:"variants,omitempty"`
	AvailableForSale bool        `json:"availableForSale"`
	ProductType      string      `json:"productType,omitempty"`
	Tags             []string    `json:"tags,omitempty"`
}

type Merchandise struct {
	ID      string         `json:"id,omitempty"`
	Title   string         `json:"title,omitempty"`
	Product map[string]any `json:"product,omitempty"`
	Price   *Money         `json:"price,omitempty"`
	Image   *Image         `json:"image,omitempty"`
}

type CartLine struct {
	ID          string       `json:"id,omitempty"`
	Quantity    int          `json:"quantity"`
	Merchandise *Merchandise `json:"merchandise,omitempty"`
}

type CartCost struct {
	TotalAmount    Money `json:"totalAmount,omitempty"`
	SubtotalAmount Money `json:"subtotalAmount,omitempty"`
}

// Cart identity is store-scoped: an id issued by one store is invalid
// against every other store.
type Cart struct {
	ID            string     `json:"id,omitempty"`
	CheckoutURL   string     `json:"checkoutUrl,omitempty"`
	Lines         []CartLine `json:"lines"`
	Cost          *CartCost  `json:"cost,omitempty"`
	TotalQuantity int        `json:"totalQuantity"`
}

// SearchFilter predicates are advisory hints forwarded to the remote search
// unmodified, never enforced locally.
type SearchFilter struct {
	Available     *bool              `json:"available,omitempty"`
	Price         *PriceFilter       `json:"price,omitempty"`
	ProductType   string             `json:"productType,omitempty"`
	Tag           string             `json:"tag,omitempty"`
	VariantOption *VariantOptionTerm `json:"variantOption,omitempty"`
}

type PriceFilter struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

type VariantOptionTerm struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor,omitempty"`
}

type SearchResult struct {
	Products         []Product `json:"products"`
	Pagination       *PageInfo `json:"pagination,omitempty"`
	AvailableFilters any       `json:"availableFilters,omitempty"`
}

type CartItem struct {
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
}

type LineUpdate struct {
	LineID   string `json:"lineId"`
	Quantity int    `json:"quantity"`
}
