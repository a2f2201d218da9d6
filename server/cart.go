package server

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/euporia-ai/concierge/agent/shop"
	"github.com/euporia-ai/concierge/pkg/shopmcp"
)

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	store := s.storeOrDefault(r)

	cartID, found, err := s.deps.Carts.CartID(r.Context(), sessionID, store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, map[string]any{"cart": emptyCart()})
		return
	}

	cart, err := s.deps.Shop.GetCart(r.Context(), store, cartID)
	if err != nil {
		var remoteErr *shopmcp.RemoteToolError
		if errors.As(err, &remoteErr) {
			// the store no longer knows this cart; forget the id
			if delErr := s.deps.Carts.DeleteCartID(r.Context(), sessionID, store); delErr != nil {
				log.Warn().Err(delErr).Str("store", store).Msg("drop stale cart id failed")
			}
			writeJSON(w, http.StatusOK, map[string]any{"cart": emptyCart()})
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"cart": cart})
}

type addToCartRequest struct {
	Store string `json:"store"`
	Items []struct {
		MerchandiseID string `json:"merchandiseId"`
		Quantity      int    `json:"quantity"`
	} `json:"items"`
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	var req addToCartRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items is required")
		return
	}

	store := req.Store
	if store == "" {
		store = s.deps.Merchants.Default().Domain
	}

	items := make([]shop.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.MerchandiseID == "" {
			writeError(w, http.StatusBadRequest, "merchandiseId is required on every item")
			return
		}
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		items = append(items, shop.CartItem{MerchandiseID: item.MerchandiseID, Quantity: qty})
	}

	cartID, _, err := s.deps.Carts.CartID(r.Context(), sessionID, store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	cart, err := s.deps.Shop.AddToCart(r.Context(), store, items, cartID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if cart.ID != "" {
		if err := s.deps.Carts.SaveCartID(r.Context(), sessionID, store, cart.ID); err != nil {
			log.Warn().Err(err).Str("store", store).Msg("save cart id failed")
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"cart": cart})
}

func emptyCart() shop.Cart {
	return shop.Cart{Lines: []shop.CartLine{}}
}
