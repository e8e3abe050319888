package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/smellandco-storefront/internal/domain/cart"
)

// ErrNotFound is returned when a requested perfume does not exist.
var ErrNotFound = errors.New("perfume not found")

// Perfume is a read-only catalog entry.
type Perfume struct {
	ID               string
	Name             string
	ShortDescription string
	Description      string
	Price            decimal.Decimal
	Image            string
	Notes            Notes
	Volume           string
	IsNew            bool
	IsBestseller     bool
}

// Notes groups fragrance notes into the three pyramid tiers.
type Notes struct {
	Top    []string
	Middle []string
	Base   []string
}

// Source fetches perfumes from an upstream catalog.
type Source interface {
	FetchPerfumes(ctx context.Context) ([]Perfume, error)
}

const (
	decantSuffix = "-decant"
	decantVolume = "5ml"
)

// DecantPrice is the fixed price of a 5ml decant of any perfume.
var DecantPrice = decimal.NewFromInt(6990)

// LineItem returns the cart line for a full bottle of p.
func LineItem(p Perfume) cart.LineItem {
	return cart.LineItem{
		ID:     p.ID,
		Name:   p.Name,
		Price:  p.Price,
		Image:  p.Image,
		Volume: p.Volume,
	}
}

// Decant returns the cart line for a 5ml decant of p. Decants are sold at a
// fixed price and get their own line next to the full bottle.
func Decant(p Perfume) cart.LineItem {
	return cart.LineItem{
		ID:     p.ID + decantSuffix,
		Name:   p.Name,
		Price:  DecantPrice,
		Image:  p.Image,
		Volume: decantVolume,
	}
}
