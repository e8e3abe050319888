// Package mercadopago is a minimal client for the MercadoPago Checkout Pro
// preferences API.
package mercadopago

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

	"github.com/xenking/smellandco-storefront/internal/domain/payment"
)

// DefaultBaseURL is the production API origin.
const DefaultBaseURL = "https://api.mercadopago.com"

const preferencesPath = "/checkout/preferences"

// ErrNoAccessToken is returned by New when no credential was configured.
var ErrNoAccessToken = errors.New("mercadopago access token is required")

// APIError is a non-2xx answer of the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("mercadopago: status %d", e.StatusCode)
	}
	return fmt.Sprintf("mercadopago: status %d: %s (%s)", e.StatusCode, e.Message, e.Code)
}

// Config configures a Client.
type Config struct {
	AccessToken string
	// BaseURL overrides DefaultBaseURL.
	BaseURL string
	// Sandbox selects the sandbox_init_point of created preferences.
	Sandbox bool
	// HTTPClient overrides the instrumented default client.
	HTTPClient *http.Client
}

// Client creates payment preferences.
type Client struct {
	token   string
	baseURL string
	sandbox bool
	http    *http.Client
}

var _ payment.Gateway = (*Client)(nil)

// New creates a Client. The access token must come from configuration.
func New(cfg Config) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, ErrNoAccessToken
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Client{
		token:   cfg.AccessToken,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		sandbox: cfg.Sandbox,
		http:    cfg.HTTPClient,
	}, nil
}

// CreatePreference posts req to the preferences endpoint.
func (c *Client) CreatePreference(ctx context.Context, req payment.ProviderRequest) (payment.Preference, error) {
	body := encodePreference(req)

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+preferencesPath, bytes.NewReader(body))
	if err != nil {
		return payment.Preference{}, errors.Wrap(err, "create request")
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Authorization", "Bearer "+c.token)
	if req.ExternalReference != "" {
		hreq.Header.Set("X-Idempotency-Key", req.ExternalReference)
	}

	resp, err := c.http.Do(hreq)
	if err != nil {
		return payment.Preference{}, errors.Wrap(err, "do request")
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return payment.Preference{}, errors.Wrap(err, "read body")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return payment.Preference{}, decodeAPIError(resp.StatusCode, data)
	}

	pref, err := c.decodePreference(data)
	if err != nil {
		return payment.Preference{}, errors.Wrap(err, "decode preference")
	}
	return pref, nil
}

func encodePreference(req payment.ProviderRequest) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range req.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("title", func(e *jx.Encoder) { e.Str(it.Title) })
						e.Field("unit_price", func(e *jx.Encoder) { e.Num(jx.Num(it.UnitPrice.String())) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("currency_id", func(e *jx.Encoder) { e.Str(it.CurrencyID) })
					})
				}
			})
		})
		e.Field("payer", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("name", func(e *jx.Encoder) { e.Str(req.Payer.Name) })
				e.Field("email", func(e *jx.Encoder) { e.Str(req.Payer.Email) })
			})
		})
		e.Field("back_urls", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("success", func(e *jx.Encoder) { e.Str(req.BackURLs.Success) })
				e.Field("failure", func(e *jx.Encoder) { e.Str(req.BackURLs.Failure) })
				e.Field("pending", func(e *jx.Encoder) { e.Str(req.BackURLs.Pending) })
			})
		})
		if req.AutoReturn != "" {
			e.Field("auto_return", func(e *jx.Encoder) { e.Str(req.AutoReturn) })
		}
		if req.StatementDescriptor != "" {
			e.Field("statement_descriptor", func(e *jx.Encoder) { e.Str(req.StatementDescriptor) })
		}
		e.Field("external_reference", func(e *jx.Encoder) { e.Str(req.ExternalReference) })
	})
	return e.Bytes()
}

func (c *Client) decodePreference(data []byte) (payment.Preference, error) {
	var (
		pref    payment.Preference
		sandbox string
	)
	if err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			s, err := d.Str()
			pref.ID = s
			return err
		case "init_point":
			s, err := d.Str()
			pref.InitPoint = s
			return err
		case "sandbox_init_point":
			s, err := d.Str()
			sandbox = s
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return payment.Preference{}, err
	}
	if c.sandbox && sandbox != "" {
		pref.InitPoint = sandbox
	}
	if pref.ID == "" || pref.InitPoint == "" {
		return payment.Preference{}, errors.New("preference id or init point missing")
	}
	return pref, nil
}

func decodeAPIError(status int, data []byte) error {
	apiErr := &APIError{StatusCode: status}
	// Best effort: the body may not be JSON at all.
	_ = jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if d.Next() != jx.String {
			return d.Skip()
		}
		switch key {
		case "message":
			s, err := d.Str()
			apiErr.Message = s
			return err
		case "error":
			s, err := d.Str()
			apiErr.Code = s
			return err
		default:
			return d.Skip()
		}
	})
	return apiErr
}
