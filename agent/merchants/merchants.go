// Package merchants holds the static directory of storefronts the concierge
// can shop on, plus the store-inference heuristic the resolver uses when a
// product handle arrives without a known store.
package merchants

import "strings"

type Merchant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Domain      string `json:"domain"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type Directory struct {
	list []Merchant
}

func NewDirectory(list []Merchant) *Directory {
	if len(list) == 0 {
		list = Defaults()
	}
	return &Directory{list: list}
}

func Defaults() []Merchant {
	return []Merchant{
		{
			ID:          "bitcoin-magazine",
			Name:        "Bitcoin Magazine",
			Domain:      "store.bitcoinmagazine.com",
			Description: "Official Bitcoin Magazine merch",
			Category:    "Bitcoin",
		},
		{
			ID:          "blockstream",
			Name:        "Blockstream",
			Domain:      "store.blockstream.com",
			Description: "Jade hardware wallets & gear",
			Category:    "Hardware",
		},
		{
			ID:          "ridge-wallet",
			Name:        "Ridge Wallet",
			Domain:      "ridgewallet.com",
			Description: "Slim wallets & EDC gear",
			Category:    "EDC",
		},
		{
			ID:          "death-wish-coffee",
			Name:        "Death Wish Coffee",
			Domain:      "deathwishcoffee.com",
			Description: "World's strongest coffee",
			Category:    "Coffee",
		},
		{
			ID:          "gymshark",
			Name:        "Gymshark",
			Domain:      "gymshark.com",
			Description: "Fitness apparel & accessories",
			Category:    "Fitness",
		},
	}
}

// All returns the merchants in configured priority order.
func (d *Directory) All() []Merchant {
	out := make([]Merchant, len(d.list))
	copy(out, d.list)
	return out
}

// Domains returns every store domain in configured priority order.
func (d *Directory) Domains() []string {
	out := make([]string, 0, len(d.list))
	for _, m := range d.list {
		out = append(out, m.Domain)
	}
	return out
}

func (d *Directory) Default() Merchant {
	return d.list[0]
}

func (d *Directory) ByDomain(domain string) (Merchant, bool) {
	domain = strings.TrimSpace(domain)
	for _, m := range d.list {
		if m.Domain == domain {
			return m, true
		}
	}
	return Merchant{}, false
}

// InferStore guesses the store a handle belongs to by matching the handle's
// leading tokens against each merchant's id, name, and domain prefix. Returns
// empty when nothing matches.
func (d *Directory) InferStore(handle string) string {
	tokens := normalizedTokens(handle)
	if len(tokens) == 0 {
		return ""
	}

	for _, m := range d.list {
		candidates := []string{m.ID, m.Name, domainPrefix(m.Domain)}
		for _, cand := range candidates {
			candTokens := normalizedTokens(cand)
			if len(candTokens) == 0 {
				continue
			}
			if hasTokenPrefix(tokens, candTokens) {
				return m.Domain
			}
		}
	}
	return ""
}

func domainPrefix(domain string) string {
	host := domain
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	// "store.x.com" carries no signal in its first label
	if host == "store" || host == "shop" || host == "www" {
		rest := strings.TrimPrefix(domain, host+".")
		if j := strings.IndexByte(rest, '.'); j > 0 {
			return rest[:j]
		}
		return rest
	}
	return host
}

func normalizedTokens(s string) []string {
	s = strings.ToLower(strings.TrimSpace(s))
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || r == ' ' || r == '.'
	})
	out := fields[:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func hasTokenPrefix(tokens, prefix []string) bool {
	if len(prefix) > len(tokens) {
		return false
	}
	for i, p := range prefix {
		if tokens[i] != p {
			return false
		}
	}
	return true
}
