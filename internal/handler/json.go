package handler

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Response bodies.

func encodeStrings(e *jx.Encoder, s []string) {
	e.Arr(func(e *jx.Encoder) {
		for _, v := range s {
			e.Str(v)
		}
	})
}

// Encode implements encoder.
func (r NotesResponse) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("top", func(e *jx.Encoder) { encodeStrings(e, r.Top) })
		e.Field("middle", func(e *jx.Encoder) { encodeStrings(e, r.Middle) })
		e.Field("base", func(e *jx.Encoder) { encodeStrings(e, r.Base) })
	})
}

// Encode implements encoder.
func (r PerfumeResponse) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(r.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(r.Name) })
		e.Field("shortDescription", func(e *jx.Encoder) { e.Str(r.ShortDescription) })
		e.Field("description", func(e *jx.Encoder) { e.Str(r.Description) })
		e.Field("price", func(e *jx.Encoder) { e.Float64(r.Price) })
		e.Field("image", func(e *jx.Encoder) { e.Str(r.Image) })
		e.Field("notes", r.Notes.Encode)
		e.Field("volume", func(e *jx.Encoder) { e.Str(r.Volume) })
		e.Field("isNew", func(e *jx.Encoder) { e.Bool(r.IsNew) })
		e.Field("isBestseller", func(e *jx.Encoder) { e.Bool(r.IsBestseller) })
	})
}

// Encode implements encoder.
func (r PerfumesResponse) Encode(e *jx.Encoder) {
	e.Arr(func(e *jx.Encoder) {
		for _, p := range r {
			p.Encode(e)
		}
	})
}

// Encode implements encoder.
func (r LineItemResponse) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(r.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(r.Name) })
		e.Field("price", func(e *jx.Encoder) { e.Float64(r.Price) })
		if r.Image != "" {
			e.Field("image", func(e *jx.Encoder) { e.Str(r.Image) })
		}
		e.Field("quantity", func(e *jx.Encoder) { e.Int(r.Quantity) })
		e.Field("volume", func(e *jx.Encoder) { e.Str(r.Volume) })
	})
}

func encodeLineItems(e *jx.Encoder, items []LineItemResponse) {
	e.Arr(func(e *jx.Encoder) {
		for _, it := range items {
			it.Encode(e)
		}
	})
}

// Encode implements encoder.
func (r TotalsResponse) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("subtotal", func(e *jx.Encoder) { e.Float64(r.Subtotal) })
		e.Field("shipping", func(e *jx.Encoder) { e.Float64(r.Shipping) })
		e.Field("total", func(e *jx.Encoder) { e.Float64(r.Total) })
		e.Field("remaining", func(e *jx.Encoder) { e.Float64(r.Remaining) })
		e.Field("freeShipping", func(e *jx.Encoder) { e.Bool(r.FreeShipping) })
	})
}

// Encode implements encoder.
func (r CartResponse) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) { encodeLineItems(e, r.Items) })
		e.Field("count", func(e *jx.Encoder) { e.Int(r.Count) })
		e.Field("totals", r.Totals.Encode)
	})
}

// Encode implements encoder.
func (r PreferenceResponse) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("preferenceId", func(e *jx.Encoder) { e.Str(r.PreferenceID) })
		e.Field("init_point", func(e *jx.Encoder) { e.Str(r.InitPoint) })
	})
}

// Encode implements encoder.
func (r CheckoutResponse) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("state", func(e *jx.Encoder) { e.Str(r.State) })
		optField(e, "redirectTo", r.RedirectTo)
		optField(e, "preferenceId", r.PreferenceID)
		optField(e, "init_point", r.InitPoint)
		optField(e, "error", r.Error)
		e.Field("items", func(e *jx.Encoder) { encodeLineItems(e, r.Items) })
		e.Field("totals", r.Totals.Encode)
	})
}

// Encode implements encoder.
func (r OutcomeResponse) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("state", func(e *jx.Encoder) { e.Str(r.State) })
		optField(e, "paymentId", r.PaymentID)
		optField(e, "status", r.Status)
		optField(e, "merchantOrderId", r.MerchantOrderID)
		e.Field("cartCleared", func(e *jx.Encoder) { e.Bool(r.CartCleared) })
	})
}

func optField(e *jx.Encoder, name, v string) {
	if v == "" {
		return
	}
	e.Field(name, func(e *jx.Encoder) { e.Str(v) })
}

// Request bodies. Unknown fields are skipped and null leaves the zero value.

// Decode implements decoder.
func (r *AddItemRequest) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			return decodeString(d, &r.ID)
		case "quantity":
			return decodeInt(d, &r.Quantity)
		case "decant":
			return decodeBool(d, &r.Decant)
		default:
			return d.Skip()
		}
	})
}

// Decode implements decoder.
func (r *SetQuantityRequest) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		if key == "quantity" {
			return decodeInt(d, &r.Quantity)
		}
		return d.Skip()
	})
}

// Decode implements decoder.
func (r *PreferenceRequest) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "items":
			if d.Next() == jx.Null {
				return d.Null()
			}
			return d.Arr(func(d *jx.Decoder) error {
				var it PreferenceItem
				if err := it.Decode(d); err != nil {
					return err
				}
				r.Items = append(r.Items, it)
				return nil
			})
		case "total":
			return decodeDecimal(d, &r.Total)
		case "buyer":
			if d.Next() == jx.Null {
				return d.Null()
			}
			return r.Buyer.Decode(d)
		case "orderId":
			return decodeString(d, &r.OrderID)
		default:
			return d.Skip()
		}
	})
}

// Decode implements decoder.
func (r *PreferenceItem) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			return decodeString(d, &r.Name)
		case "price":
			return decodeDecimal(d, &r.Price)
		case "quantity":
			return decodeInt(d, &r.Quantity)
		default:
			return d.Skip()
		}
	})
}

// Decode implements decoder.
func (r *BuyerRequest) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			return decodeString(d, &r.Name)
		case "email":
			return decodeString(d, &r.Email)
		default:
			return d.Skip()
		}
	})
}

func decodeString(d *jx.Decoder, dst *string) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return err
	}
	*dst = s
	return nil
}

func decodeInt(d *jx.Decoder, dst *int) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	v, err := d.Int()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func decodeBool(d *jx.Decoder, dst *bool) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	v, err := d.Bool()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// decodeDecimal accepts a JSON number or a numeric string, keeping every
// digit.
func decodeDecimal(d *jx.Decoder, dst *decimal.Decimal) error {
	var raw string
	switch d.Next() {
	case jx.Null:
		return d.Null()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return err
		}
		raw = s
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return err
		}
		raw = n.String()
	default:
		return errors.Errorf("unexpected %s for decimal", d.Next())
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return errors.Wrap(err, "parse decimal")
	}
	*dst = v
	return nil
}
