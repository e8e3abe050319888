package cart

import (
	"context"

	"github.com/shopspring/decimal"
)

// DefaultKey is the storage key used when a cart is not bound to a session.
const DefaultKey = "cart"

// LineItem is one row of the cart: a distinct product or variant and how many
// units of it the shopper wants.
type LineItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image,omitempty"`
	Quantity int             `json:"quantity"`
	Volume   string          `json:"volume"`
}

// Backend persists the full list of line items stored under a key.
//
// Implementations replace the whole list on every Save. A key that was never
// written loads as an empty list without error.
type Backend interface {
	Load(ctx context.Context, key string) ([]LineItem, error)
	Save(ctx context.Context, key string, items []LineItem) error
}
