package cart

import (
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// DefaultSettleDelay is how long Add waits after persisting, so clients can
// pace their add-to-cart animation on the response.
const DefaultSettleDelay = 300 * time.Millisecond

// Options tunes a Store.
type Options struct {
	// SettleDelay is waited after every successful Add. Zero disables it.
	SettleDelay time.Duration
	// Shipping is the policy used by Totals. The zero value selects
	// DefaultShippingPolicy.
	Shipping ShippingPolicy
}

// DefaultOptions returns the options matching the storefront behaviour.
func DefaultOptions() Options {
	return Options{
		SettleDelay: DefaultSettleDelay,
		Shipping:    DefaultShippingPolicy,
	}
}

// Store reads and mutates the cart persisted under a single key.
//
// Every mutation loads the full list, changes it and saves it back. Two
// writers of the same key race and the last one wins.
type Store struct {
	backend Backend
	key     string
	delay   time.Duration
	policy  ShippingPolicy
}

// NewStore returns a Store for key backed by backend.
func NewStore(backend Backend, key string, opts Options) *Store {
	policy := opts.Shipping
	if policy.FreeThreshold.IsZero() && policy.FlatFee.IsZero() {
		policy = DefaultShippingPolicy
	}
	return &Store{
		backend: backend,
		key:     key,
		delay:   opts.SettleDelay,
		policy:  policy,
	}
}

// Key returns the storage key of the cart.
func (s *Store) Key() string {
	return s.key
}

// List returns the current line items. Unreadable or corrupt stored data is
// logged and reported as an empty cart.
func (s *Store) List(ctx context.Context) []LineItem {
	if s.backend == nil {
		return []LineItem{}
	}
	items, err := s.backend.Load(ctx, s.key)
	if err != nil {
		zctx.From(ctx).Warn("Cart unreadable, treating as empty",
			zap.String("key", s.key),
			zap.Error(err),
		)
		return []LineItem{}
	}
	if items == nil {
		return []LineItem{}
	}
	return items
}

// Add puts quantity units of item into the cart. A line with the same ID gets
// its quantity increased; otherwise a new line is appended. Quantities below
// one are treated as one.
func (s *Store) Add(ctx context.Context, item LineItem, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	items := s.List(ctx)
	if i := indexOf(items, item.ID); i >= 0 {
		items[i].Quantity += quantity
	} else {
		item.Quantity = quantity
		items = append(items, item)
	}
	if err := s.save(ctx, items); err != nil {
		return err
	}

	if s.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SetQuantity replaces the quantity of the line with the given ID.
//
// A quantity below one leaves the cart untouched: deleting a line is done
// with Remove, never by setting it to zero.
func (s *Store) SetQuantity(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return nil
	}
	items := s.List(ctx)
	i := indexOf(items, id)
	if i < 0 {
		return nil
	}
	items[i].Quantity = quantity
	return s.save(ctx, items)
}

// Remove deletes the line with the given ID. Missing IDs are ignored.
func (s *Store) Remove(ctx context.Context, id string) error {
	items := s.List(ctx)
	items = slices.DeleteFunc(items, func(item LineItem) bool {
		return item.ID == id
	})
	return s.save(ctx, items)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	return s.save(ctx, []LineItem{})
}

// Totals computes subtotal, shipping and total from the current contents.
func (s *Store) Totals(ctx context.Context) Totals {
	return Calculate(s.List(ctx), s.policy)
}

// Policy returns the shipping policy applied by Totals.
func (s *Store) Policy() ShippingPolicy {
	return s.policy
}

func (s *Store) save(ctx context.Context, items []LineItem) error {
	if s.backend == nil {
		return errors.New("cart backend is not configured")
	}
	if err := s.backend.Save(ctx, s.key, items); err != nil {
		return errors.Wrap(err, "save cart")
	}
	return nil
}

func indexOf(items []LineItem, id string) int {
	return slices.IndexFunc(items, func(item LineItem) bool {
		return item.ID == id
	})
}
