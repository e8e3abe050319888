package checkout

import (
	"context"
	"fmt"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/smellandco-storefront/internal/domain/cart"
	"github.com/xenking/smellandco-storefront/internal/domain/payment"
)

// HomePath is where an empty cart is sent back to.
const HomePath = "/"

// PaymentErrorMessage is the Session.Error of a failed preference request.
// Provider details stay in the logs.
const PaymentErrorMessage = "Error creating payment: Failed to create payment preference"

// ErrUnknownOutcome is returned for return routes other than success,
// failure and pending.
var ErrUnknownOutcome = fmt.Errorf("unknown payment outcome")

// PreferenceClient creates payment preferences. It is satisfied by both the
// in-process payment.Service and the HTTP proxy client.
type PreferenceClient interface {
	CreatePreference(ctx context.Context, req payment.PreferenceRequest) (payment.Preference, error)
}

// Session is one checkout attempt.
type Session struct {
	State State
	// RedirectTo is set when State is StateRedirected.
	RedirectTo   string
	PreferenceID string
	InitPoint    string
	// Error is the user-facing message of StateError.
	Error string

	Items  []cart.LineItem
	Totals cart.Totals
}

func (s *Session) moveTo(to State) error {
	if !CanTransition(s.State, to) {
		return &TransitionError{From: s.State, To: to}
	}
	s.State = to
	return nil
}

// Pay moves a ready session to paying and returns the provider URL the buyer
// must be sent to.
func (s *Session) Pay() (string, error) {
	if err := s.moveTo(StatePaying); err != nil {
		return "", err
	}
	return s.InitPoint, nil
}

// Config configures an Orchestrator.
type Config struct {
	// Buyer is sent as the payer. The storefront does not collect buyer
	// details, so it is usually empty.
	Buyer payment.Buyer
}

// Orchestrator runs checkout for one cart.
type Orchestrator struct {
	cart     *cart.Store
	payments PreferenceClient
	buyer    payment.Buyer
}

// NewOrchestrator creates an Orchestrator for the cart in store.
func NewOrchestrator(store *cart.Store, payments PreferenceClient, cfg Config) *Orchestrator {
	return &Orchestrator{
		cart:     store,
		payments: payments,
		buyer:    cfg.Buyer,
	}
}

// Start reads the cart and requests a payment preference for it.
//
// An empty cart ends in StateRedirected without contacting the payment
// service. A failed preference request ends in StateError; the cart is left
// untouched and nothing is retried. The returned error is non-nil only for
// failures outside the flow itself.
func (o *Orchestrator) Start(ctx context.Context) (*Session, error) {
	lg := zctx.From(ctx)
	s := &Session{State: StateLoading}

	items := o.cart.List(ctx)
	if len(items) == 0 {
		s.RedirectTo = HomePath
		return s, s.moveTo(StateRedirected)
	}
	s.Items = items
	s.Totals = cart.Calculate(items, o.cart.Policy())

	req := payment.PreferenceRequest{
		Items: make([]payment.Item, len(items)),
		Total: s.Totals.Total,
		Buyer: o.buyer,
	}
	for i, it := range items {
		req.Items[i] = payment.Item{
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
		}
	}

	pref, err := o.payments.CreatePreference(ctx, req)
	if err != nil {
		lg.Warn("Checkout preference failed", zap.Error(err))
		s.Error = PaymentErrorMessage
		return s, s.moveTo(StateError)
	}

	s.PreferenceID = pref.ID
	s.InitPoint = pref.InitPoint
	lg.Debug("Checkout ready",
		zap.String("preference_id", pref.ID),
		zap.Int("items", len(items)),
	)
	return s, s.moveTo(StateReady)
}

// Outcome is the provider return route the buyer lands on.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomePending Outcome = "pending"
)

// ParseOutcome converts a route segment into an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(s); o {
	case OutcomeSuccess, OutcomeFailure, OutcomePending:
		return o, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownOutcome)
	}
}

// State returns the terminal checkout state of the outcome.
func (o Outcome) State() State {
	return State(o)
}

// OutcomeParams are the query parameters the provider appends to back URLs.
type OutcomeParams struct {
	PaymentID       string
	Status          string
	MerchantOrderID string
}

// Result is the outcome of a completed checkout.
type Result struct {
	State       State
	Params      OutcomeParams
	CartCleared bool
}

// Complete handles the buyer returning from the provider. Success clears the
// cart; failure and pending leave it for another attempt.
func (o *Orchestrator) Complete(ctx context.Context, outcome Outcome, params OutcomeParams) (*Result, error) {
	if _, err := ParseOutcome(string(outcome)); err != nil {
		return nil, err
	}

	res := &Result{State: outcome.State(), Params: params}
	zctx.From(ctx).Info("Payment returned",
		zap.String("outcome", string(outcome)),
		zap.String("payment_id", params.PaymentID),
		zap.String("status", params.Status),
		zap.String("merchant_order_id", params.MerchantOrderID),
	)

	if outcome == OutcomeSuccess {
		if err := o.cart.Clear(ctx); err != nil {
			return res, fmt.Errorf("clear cart: %w", err)
		}
		res.CartCleared = true
	}
	return res, nil
}
