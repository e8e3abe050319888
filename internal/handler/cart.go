package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/smellandco-storefront/internal/domain/cart"
	"github.com/xenking/smellandco-storefront/internal/domain/catalog"
)

// CartResponse is the wire form of a cart with its totals.
type CartResponse struct {
	Items  []LineItemResponse `json:"items"`
	Count  int                `json:"count"`
	Totals TotalsResponse     `json:"totals"`
}

// LineItemResponse is one cart line.
type LineItemResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image,omitempty"`
	Quantity int     `json:"quantity"`
	Volume   string  `json:"volume"`
}

// TotalsResponse carries the amounts shown in the cart summary.
type TotalsResponse struct {
	Subtotal     float64 `json:"subtotal"`
	Shipping     float64 `json:"shipping"`
	Total        float64 `json:"total"`
	Remaining    float64 `json:"remaining"`
	FreeShipping bool    `json:"freeShipping"`
}

func toTotalsResponse(t cart.Totals) TotalsResponse {
	return TotalsResponse{
		Subtotal:     t.Subtotal.InexactFloat64(),
		Shipping:     t.Shipping.InexactFloat64(),
		Total:        t.Total.InexactFloat64(),
		Remaining:    t.Remaining.InexactFloat64(),
		FreeShipping: t.FreeShipping(),
	}
}

func toLineItemsResponse(items []cart.LineItem) []LineItemResponse {
	resp := make([]LineItemResponse, len(items))
	for i, it := range items {
		resp[i] = LineItemResponse{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.Price.InexactFloat64(),
			Image:    it.Image,
			Quantity: it.Quantity,
			Volume:   it.Volume,
		}
	}
	return resp
}

func cartResponse(ctx context.Context, store *cart.Store) CartResponse {
	items := store.List(ctx)
	count := 0
	for _, it := range items {
		count += it.Quantity
	}
	return CartResponse{
		Items:  toLineItemsResponse(items),
		Count:  count,
		Totals: toTotalsResponse(cart.Calculate(items, store.Policy())),
	}
}

// AddItemRequest is the body of POST /api/cart/items.
type AddItemRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
	// Decant adds the 5ml decant of the perfume instead of the full bottle.
	Decant bool `json:"decant"`
}

// SetQuantityRequest is the body of PUT /api/cart/items/{id}.
type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart handles GET /api/cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	store := h.cartStore(w, r)
	respondJSON(w, http.StatusOK, cartResponse(r.Context(), store))
}

// AddItem handles POST /api/cart/items. The perfume is looked up in the
// catalog so prices never come from the client.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ID == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	ctx := r.Context()
	p, err := h.catalog.Get(ctx, req.ID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, http.StatusNotFound, "perfume not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	item := catalog.LineItem(p)
	if req.Decant {
		item = catalog.Decant(p)
	}

	store := h.cartStore(w, r)
	if err := store.Add(ctx, item, req.Quantity); err != nil {
		h.cartFailed(ctx, w, "add", err)
		return
	}
	respondJSON(w, http.StatusCreated, cartResponse(ctx, store))
}

// SetQuantity handles PUT /api/cart/items/{id}. Quantities below one leave
// the line unchanged.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req SetQuantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	store := h.cartStore(w, r)
	if err := store.SetQuantity(ctx, chi.URLParam(r, "id"), req.Quantity); err != nil {
		h.cartFailed(ctx, w, "set quantity", err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(ctx, store))
}

// RemoveItem handles DELETE /api/cart/items/{id}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store := h.cartStore(w, r)
	if err := store.Remove(ctx, chi.URLParam(r, "id")); err != nil {
		h.cartFailed(ctx, w, "remove", err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(ctx, store))
}

// ClearCart handles DELETE /api/cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store := h.cartStore(w, r)
	if err := store.Clear(ctx); err != nil {
		h.cartFailed(ctx, w, "clear", err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(ctx, store))
}

func (h *Handler) cartFailed(ctx context.Context, w http.ResponseWriter, op string, err error) {
	zctx.From(ctx).Error("Cart update failed", zap.String("op", op), zap.Error(err))
	respondError(w, http.StatusInternalServerError, "failed to update cart")
}
