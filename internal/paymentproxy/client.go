// Package paymentproxy is the HTTP client of the storefront payment
// preference endpoint.
package paymentproxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/xenking/smellandco-storefront/internal/domain/checkout"
	"github.com/xenking/smellandco-storefront/internal/domain/payment"
)

// Path is the route of the payment preference endpoint.
const Path = "/api/payment-preference"

// Error is a non-2xx answer of the endpoint.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payment proxy: status %d", e.StatusCode)
	}
	return e.Message
}

// Client posts preference requests to a storefront server.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ checkout.PreferenceClient = (*Client)(nil)

// New creates a Client for the storefront at baseURL. A nil httpClient
// selects an instrumented default.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// CreatePreference requests a preference for req.
func (c *Client) CreatePreference(ctx context.Context, req payment.PreferenceRequest) (payment.Preference, error) {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+Path, bytes.NewReader(EncodeRequest(req)))
	if err != nil {
		return payment.Preference{}, errors.Wrap(err, "create request")
	}
	hreq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(hreq)
	if err != nil {
		return payment.Preference{}, errors.Wrap(err, "do request")
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return payment.Preference{}, errors.Wrap(err, "read body")
	}
	if resp.StatusCode != http.StatusOK {
		return payment.Preference{}, &Error{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	var pref payment.Preference
	if err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "preferenceId":
			s, err := d.Str()
			pref.ID = s
			return err
		case "init_point":
			s, err := d.Str()
			pref.InitPoint = s
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return payment.Preference{}, errors.Wrap(err, "decode response")
	}
	return pref, nil
}

// EncodeRequest renders req in the wire form of the endpoint.
func EncodeRequest(req payment.PreferenceRequest) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range req.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
						e.Field("price", func(e *jx.Encoder) { e.Num(jx.Num(it.Price.String())) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
					})
				}
			})
		})
		if !req.Total.IsZero() {
			e.Field("total", func(e *jx.Encoder) { e.Num(jx.Num(req.Total.String())) })
		}
		e.Field("buyer", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("name", func(e *jx.Encoder) { e.Str(req.Buyer.Name) })
				e.Field("email", func(e *jx.Encoder) { e.Str(req.Buyer.Email) })
			})
		})
		if req.OrderID != "" {
			e.Field("orderId", func(e *jx.Encoder) { e.Str(req.OrderID) })
		}
	})
	return e.Bytes()
}

func errorMessage(data []byte) string {
	var msg string
	_ = jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if key != "error" || d.Next() != jx.String {
			return d.Skip()
		}
		s, err := d.Str()
		msg = s
		return err
	})
	return msg
}
