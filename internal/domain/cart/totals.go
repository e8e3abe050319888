package cart

import "github.com/shopspring/decimal"

// ShippingPolicy decides the shipping fee from the cart subtotal.
type ShippingPolicy struct {
	// FreeThreshold is the subtotal from which shipping is free (inclusive).
	FreeThreshold decimal.Decimal
	// FlatFee is charged when the subtotal is below FreeThreshold.
	FlatFee decimal.Decimal
}

// DefaultShippingPolicy is free shipping from 200 and a flat fee of 15 below it.
var DefaultShippingPolicy = ShippingPolicy{
	FreeThreshold: decimal.NewFromInt(200),
	FlatFee:       decimal.NewFromInt(15),
}

// Totals holds the computed amounts of a cart.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
	// Remaining is how much must be added to reach free shipping.
	Remaining decimal.Decimal `json:"remaining"`
}

// FreeShipping reports whether no shipping fee applies.
func (t Totals) FreeShipping() bool {
	return t.Shipping.IsZero()
}

// Calculate returns the totals for items under the given policy.
func Calculate(items []LineItem, policy ShippingPolicy) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	shipping := policy.FlatFee
	remaining := policy.FreeThreshold.Sub(subtotal)
	if subtotal.GreaterThanOrEqual(policy.FreeThreshold) {
		shipping = decimal.Zero
		remaining = decimal.Zero
	}

	return Totals{
		Subtotal:  subtotal,
		Shipping:  shipping,
		Total:     subtotal.Add(shipping),
		Remaining: remaining,
	}
}
