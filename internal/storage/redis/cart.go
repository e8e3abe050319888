// Package redis stores carts in Redis.
package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/xenking/smellandco-storefront/internal/domain/cart"
)

const keyPrefix = "cart:"

var _ cart.Backend = (*CartBackend)(nil)

// CartBackend keeps each cart as one JSON document under cart:<key>.
type CartBackend struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCartBackend returns a CartBackend. A positive ttl expires carts that
// were not written for that long.
func NewCartBackend(client redis.UniversalClient, ttl time.Duration) *CartBackend {
	return &CartBackend{client: client, ttl: ttl}
}

// Load returns the items stored under key, or nil when there are none.
func (b *CartBackend) Load(ctx context.Context, key string) ([]cart.LineItem, error) {
	data, err := b.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}

	items, err := decodeItems(data)
	if err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	return items, nil
}

// Save replaces the items stored under key. An empty list deletes the key.
func (b *CartBackend) Save(ctx context.Context, key string, items []cart.LineItem) error {
	if len(items) == 0 {
		if err := b.client.Del(ctx, keyPrefix+key).Err(); err != nil {
			return errors.Wrap(err, "redis del")
		}
		return nil
	}

	if err := b.client.Set(ctx, keyPrefix+key, encodeItems(items), b.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// Ping checks the connection.
func (b *CartBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// encodeItems renders items as a JSON array. Prices are decimal strings so
// that no digit is lost.
func encodeItems(items []cart.LineItem) []byte {
	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, it := range items {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
				e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
				e.Field("price", func(e *jx.Encoder) { e.Str(it.Price.String()) })
				if it.Image != "" {
					e.Field("image", func(e *jx.Encoder) { e.Str(it.Image) })
				}
				e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
				e.Field("volume", func(e *jx.Encoder) { e.Str(it.Volume) })
			})
		}
	})
	return e.Bytes()
}

func decodeItems(data []byte) ([]cart.LineItem, error) {
	var items []cart.LineItem
	err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		var it cart.LineItem
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "id":
				it.ID, err = d.Str()
			case "name":
				it.Name, err = d.Str()
			case "price":
				it.Price, err = decodePrice(d)
			case "image":
				it.Image, err = d.Str()
			case "quantity":
				it.Quantity, err = d.Int()
			case "volume":
				it.Volume, err = d.Str()
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	return items, err
}

// decodePrice accepts a decimal string or a JSON number.
func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() == jx.Number {
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(n.String())
	}
	s, err := d.Str()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(s)
}
