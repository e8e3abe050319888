package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/smellandco-storefront/internal/domain/payment"
)

// PreferenceRequest is the body of POST /api/payment-preference.
type PreferenceRequest struct {
	Items   []PreferenceItem `json:"items"`
	Total   decimal.Decimal  `json:"total"`
	Buyer   BuyerRequest     `json:"buyer"`
	OrderID string           `json:"orderId"`
}

// PreferenceItem is one purchased line.
type PreferenceItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// BuyerRequest identifies the payer.
type BuyerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PreferenceResponse relays the provider's preference.
type PreferenceResponse struct {
	PreferenceID string `json:"preferenceId"`
	InitPoint    string `json:"init_point"`
}

// CreatePaymentPreference handles POST /api/payment-preference.
func (h *Handler) CreatePaymentPreference(w http.ResponseWriter, r *http.Request) {
	var req PreferenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	items := make([]payment.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = payment.Item{
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
		}
	}

	pref, err := h.payments.CreatePreference(r.Context(), payment.PreferenceRequest{
		Items:   items,
		Total:   req.Total,
		Buyer:   payment.Buyer{Name: req.Buyer.Name, Email: req.Buyer.Email},
		OrderID: req.OrderID,
	})
	if err != nil {
		status, msg := mapPaymentError(err)
		respondError(w, status, msg)
		return
	}

	respondJSON(w, http.StatusOK, PreferenceResponse{
		PreferenceID: pref.ID,
		InitPoint:    pref.InitPoint,
	})
}

// mapPaymentError converts domain errors to a status and client message.
// Provider failures are never detailed to the client.
func mapPaymentError(err error) (int, string) {
	if errors.Is(err, payment.ErrNoItems) {
		return http.StatusBadRequest, err.Error()
	}

	var itemErr *payment.InvalidItemError
	if errors.As(err, &itemErr) {
		return http.StatusBadRequest, itemErr.Error()
	}

	return http.StatusInternalServerError, "Failed to create payment preference"
}
