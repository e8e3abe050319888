package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/smellandco-storefront/internal/domain/checkout"
)

// CheckoutResponse describes the session produced by POST /api/checkout.
type CheckoutResponse struct {
	State        string             `json:"state"`
	RedirectTo   string             `json:"redirectTo,omitempty"`
	PreferenceID string             `json:"preferenceId,omitempty"`
	InitPoint    string             `json:"init_point,omitempty"`
	Error        string             `json:"error,omitempty"`
	Items        []LineItemResponse `json:"items"`
	Totals       TotalsResponse     `json:"totals"`
}

// OutcomeResponse describes the buyer's return from the payment provider.
type OutcomeResponse struct {
	State           string `json:"state"`
	PaymentID       string `json:"paymentId,omitempty"`
	Status          string `json:"status,omitempty"`
	MerchantOrderID string `json:"merchantOrderId,omitempty"`
	CartCleared     bool   `json:"cartCleared"`
}

func (h *Handler) orchestrator(w http.ResponseWriter, r *http.Request) *checkout.Orchestrator {
	return checkout.NewOrchestrator(h.cartStore(w, r), h.payments, checkout.Config{})
}

// StartCheckout handles POST /api/checkout. A failed preference request is
// reported as a bad gateway with the session in the error state.
func (h *Handler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	s, err := h.orchestrator(w, r).Start(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("Checkout failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := CheckoutResponse{
		State:        string(s.State),
		RedirectTo:   s.RedirectTo,
		PreferenceID: s.PreferenceID,
		InitPoint:    s.InitPoint,
		Error:        s.Error,
		Items:        toLineItemsResponse(s.Items),
		Totals:       toTotalsResponse(s.Totals),
	}
	status := http.StatusOK
	if s.State == checkout.StateError {
		status = http.StatusBadGateway
	}
	respondJSON(w, status, resp)
}

// CompleteCheckout handles GET /checkout/{outcome}, the back URLs the
// provider returns the buyer to.
func (h *Handler) CompleteCheckout(w http.ResponseWriter, r *http.Request) {
	outcome, err := checkout.ParseOutcome(chi.URLParam(r, "outcome"))
	if err != nil {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	q := r.URL.Query()
	res, err := h.orchestrator(w, r).Complete(r.Context(), outcome, checkout.OutcomeParams{
		PaymentID:       q.Get("payment_id"),
		Status:          q.Get("status"),
		MerchantOrderID: q.Get("merchant_order_id"),
	})
	if err != nil {
		if errors.Is(err, checkout.ErrUnknownOutcome) {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		zctx.From(r.Context()).Error("Checkout completion failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, OutcomeResponse{
		State:           string(res.State),
		PaymentID:       res.Params.PaymentID,
		Status:          res.Params.Status,
		MerchantOrderID: res.Params.MerchantOrderID,
		CartCleared:     res.CartCleared,
	})
}
