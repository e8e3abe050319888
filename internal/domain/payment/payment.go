// Package payment builds checkout preferences and hands them to the payment
// provider.
package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNoItems is returned when a request has neither line items nor a
// positive total.
var ErrNoItems = fmt.Errorf("items or a positive total required")

// InvalidItemError indicates a line item that cannot be charged.
type InvalidItemError struct {
	Index  int
	Reason string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("item %d: %s", e.Index, e.Reason)
}

// Item is one purchased line as sent by the storefront.
type Item struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// Buyer identifies the payer.
type Buyer struct {
	Name  string
	Email string
}

// PreferenceRequest is the input of Service.CreatePreference. When Items is
// empty the preference is built from Total alone.
type PreferenceRequest struct {
	Items   []Item
	Total   decimal.Decimal
	Buyer   Buyer
	OrderID string
}

// Preference is the provider-side checkout session. Both fields are relayed
// verbatim from the provider.
type Preference struct {
	ID        string
	InitPoint string
}

// ProviderItem is a line of the preference as the provider charges it.
type ProviderItem struct {
	Title      string
	UnitPrice  decimal.Decimal
	Quantity   int
	CurrencyID string
}

// BackURLs are the storefront pages the provider returns the buyer to.
type BackURLs struct {
	Success string
	Failure string
	Pending string
}

// ProviderRequest is the fully built preference sent to the Gateway.
type ProviderRequest struct {
	Items               []ProviderItem
	Payer               Buyer
	BackURLs            BackURLs
	AutoReturn          string
	StatementDescriptor string
	ExternalReference   string
}

// Gateway creates preferences at the payment provider.
type Gateway interface {
	CreatePreference(ctx context.Context, req ProviderRequest) (Preference, error)
}
