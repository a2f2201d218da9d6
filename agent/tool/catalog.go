// Package tool defines the model-visible tool catalog and executes the
// requests the planner emits against the shop gateway and session stores.
package tool

import (
	"github.com/cloudwego/eino/schema"
)

// Tool names as the model sees them.
const (
	NameSearchProducts    = "searchProducts"
	NameGetProductDetails = "getProductDetails"
	NameAddToCart         = "addToCart"
	NameUpdateCartItems   = "updateCartItems"
	NameRemoveFromCart    = "removeFromCart"
	NameApplyDiscountCode = "applyDiscountCode"
	NameGetCart           = "getCart"
	NameSearchPolicies    = "searchPolicies"
	NameLoadTasteProfile  = "loadTasteProfile"
	NameSaveTasteProfile  = "saveTasteProfile"
)

// Infos is the full catalog offered to the planner on every turn.
func Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: NameSearchProducts,
			Desc: "Search a store's product catalog. Returns products with ids, handles, prices, and a pagination cursor.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"store":   {Type: schema.String, Desc: "Store domain, e.g. ridgewallet.com", Required: true},
				"query":   {Type: schema.String, Desc: "Search terms", Required: true},
				"context": {Type: schema.String, Desc: "Shopper intent to bias ranking"},
				"after":   {Type: schema.String, Desc: "Opaque pagination cursor from a previous page"},
				"limit":   {Type: schema.Integer, Desc: "Max results per page"},
			}),
		},
		{
			Name: NameGetProductDetails,
			Desc: "Fetch full details for one product, including variants. Pass options to select a specific variant.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"store":      {Type: schema.String, Desc: "Store domain", Required: true},
				"product_id": {Type: schema.String, Desc: "Product id from a search result", Required: true},
				"options": {
					Type: schema.Object,
					Desc: "Variant option selections, e.g. {\"Size\":\"L\"}",
				},
			}),
		},
		{
			Name: NameAddToCart,
			Desc: "Add variants to the shopper's cart for a store. Omit cart_id to start a new cart.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"store": {Type: schema.String, Desc: "Store domain", Required: true},
				"items": {
					Type:     schema.Array,
					Desc:     "Variants to add",
					Required: true,
					ElemInfo: &schema.ParameterInfo{
						Type: schema.Object,
						SubParams: map[string]*schema.ParameterInfo{
							"merchandiseId": {Type: schema.String, Desc: "Product variant id", Required: true},
							"quantity":      {Type: schema.Integer, Desc: "Quantity, at least 1", Required: true},
						},
					},
				},
			}),
		},
		{
			Name: NameUpdateCartItems,
			Desc: "Change quantities of existing cart lines. Quantity 0 removes the line.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"store": {Type: schema.String, Desc: "Store domain", Required: true},
				"updates": {
					Type:     schema.Array,
					Desc:     "Line updates",
					Required: true,
					ElemInfo: &schema.ParameterInfo{
						Type: schema.Object,
						SubParams: map[string]*schema.ParameterInfo{
							"lineId":   {Type: schema.String, Desc: "Cart line id", Required: true},
							"quantity": {Type: schema.Integer, Desc: "New quantity, 0 removes", Required: true},
						},
					},
				},
			}),
		},
		{
			Name: NameRemoveFromCart,
			Desc: "Remove cart lines by line id.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"store": {Type: schema.String, Desc: "Store domain", Required: true},
				"lineIds": {
					Type:     schema.Array,
					Desc:     "Cart line ids to remove",
					Required: true,
					ElemInfo: &schema.ParameterInfo{Type: schema.String},
				},
			}),
		},
		{
			Name: NameApplyDiscountCode,
			Desc: "Apply discount codes to the shopper's cart.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"store": {Type: schema.String, Desc: "Store domain", Required: true},
				"codes": {
					Type:     schema.Array,
					Desc:     "Discount codes",
					Required: true,
					ElemInfo: &schema.ParameterInfo{Type: schema.String},
				},
			}),
		},
		{
			Name: NameGetCart,
			Desc: "Fetch the shopper's current cart for a store.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"store": {Type: schema.String, Desc: "Store domain", Required: true},
			}),
		},
		{
			Name: NameSearchPolicies,
			Desc: "Answer questions about a store's policies, shipping, returns, and FAQs.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"store": {Type: schema.String, Desc: "Store domain", Required: true},
				"query": {Type: schema.String, Desc: "Policy question", Required: true},
			}),
		},
		{
			Name: NameLoadTasteProfile,
			Desc: "Load the shopper's saved taste profile. Returns an empty object when none exists.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		{
			Name: NameSaveTasteProfile,
			Desc: "Persist the shopper's taste profile. Pass the complete updated profile object.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"profile": {Type: schema.Object, Desc: "Complete taste profile to store", Required: true},
			}),
		},
	}
}
