package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/smellandco-storefront/internal/domain/cart"
)

var _ cart.Backend = (*CartBackend)(nil)

var cartColumns = []string{"cart_key", "position", "item_id", "name", "price", "image", "quantity", "volume"}

// CartBackend keeps cart lines in the cart_lines table, one row per line.
type CartBackend struct {
	pool *pgxpool.Pool
}

// NewCartBackend returns a CartBackend that uses the given pool.
func NewCartBackend(pool *pgxpool.Pool) *CartBackend {
	return &CartBackend{pool: pool}
}

// Load returns the lines of the cart in insertion order.
func (b *CartBackend) Load(ctx context.Context, key string) ([]cart.LineItem, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT item_id, name, price, image, quantity, volume
		FROM cart_lines
		WHERE cart_key = $1
		ORDER BY position`, key)
	if err != nil {
		return nil, fmt.Errorf("querying cart %q: %w", key, err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.LineItem, error) {
		var li cart.LineItem
		err := row.Scan(&li.ID, &li.Name, &li.Price, &li.Image, &li.Quantity, &li.Volume)
		return li, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning cart %q: %w", key, err)
	}
	return items, nil
}

// Save replaces every line of the cart in a single transaction.
func (b *CartBackend) Save(ctx context.Context, key string, items []cart.LineItem) error {
	err := pgx.BeginFunc(ctx, b.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_key = $1`, key); err != nil {
			return fmt.Errorf("deleting lines: %w", err)
		}
		if len(items) == 0 {
			return nil
		}

		rows := make([][]any, len(items))
		for i, li := range items {
			rows[i] = []any{key, i, li.ID, li.Name, li.Price, li.Image, li.Quantity, li.Volume}
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"cart_lines"}, cartColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copying lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving cart %q: %w", key, err)
	}
	return nil
}

// Ping checks the connection.
func (b *CartBackend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}
