package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/smellandco-storefront/internal/domain/cart"
)

func TestCartBackend_UnknownKeyIsEmpty(t *testing.T) {
	b := NewCartBackend()

	items, err := b.Load(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartBackend_SaveLoad(t *testing.T) {
	ctx := context.Background()
	b := NewCartBackend()

	in := []cart.LineItem{
		{ID: "a", Name: "Khamrah", Price: decimal.NewFromInt(100), Quantity: 2, Volume: "100ml"},
	}
	require.NoError(t, b.Save(ctx, "k", in))

	// Mutating the caller's slice must not leak into storage.
	in[0].Quantity = 99

	out, err := b.Load(ctx, "k")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 2, out[0].Quantity)
	assert.Equal(t, 1, b.Len())
}

func TestCartBackend_SaveEmptyDeletes(t *testing.T) {
	ctx := context.Background()
	b := NewCartBackend()

	require.NoError(t, b.Save(ctx, "k", []cart.LineItem{{ID: "a", Quantity: 1}}))
	require.NoError(t, b.Save(ctx, "k", nil))

	assert.Equal(t, 0, b.Len())
}
