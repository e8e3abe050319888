// Package memory provides process-local storage adapters.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/smellandco-storefront/internal/domain/cart"
)

var _ cart.Backend = (*CartBackend)(nil)

// CartBackend keeps carts in a map. Contents are lost on restart.
type CartBackend struct {
	mu    sync.RWMutex
	carts map[string][]cart.LineItem
}

// NewCartBackend returns an empty CartBackend.
func NewCartBackend() *CartBackend {
	return &CartBackend{carts: make(map[string][]cart.LineItem)}
}

// Load returns a copy of the items stored under key.
func (b *CartBackend) Load(_ context.Context, key string) ([]cart.LineItem, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return slices.Clone(b.carts[key]), nil
}

// Save replaces the items stored under key. An empty list deletes the key.
func (b *CartBackend) Save(_ context.Context, key string, items []cart.LineItem) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(items) == 0 {
		delete(b.carts, key)
		return nil
	}
	b.carts[key] = slices.Clone(items)
	return nil
}

// Len returns the number of non-empty carts.
func (b *CartBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.carts)
}
