package mercadopago

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/smellandco-storefront/internal/domain/payment"
)

func testRequest() payment.ProviderRequest {
	return payment.ProviderRequest{
		Items: []payment.ProviderItem{
			{Title: "Lattafa Yara", UnitPrice: decimal.RequireFromString("49000"), Quantity: 1, CurrencyID: "ARS"},
			{Title: "Afnan 9PM", UnitPrice: decimal.RequireFromString("6990.5"), Quantity: 2, CurrencyID: "ARS"},
		},
		Payer: payment.Buyer{Name: "Ana", Email: "ana@example.com"},
		BackURLs: payment.BackURLs{
			Success: "https://shop/checkout/success",
			Failure: "https://shop/checkout/failure",
			Pending: "https://shop/checkout/pending",
		},
		AutoReturn:          "approved",
		StatementDescriptor: "Smell&Co",
		ExternalReference:   "order-1",
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc, sandbox bool) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{
		AccessToken: "TEST-token",
		BaseURL:     srv.URL + "/",
		Sandbox:     sandbox,
		HTTPClient:  srv.Client(),
	})
	require.NoError(t, err)
	return c
}

func TestClient_CreatePreference(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer TEST-token", r.Header.Get("Authorization"))
		assert.Equal(t, "order-1", r.Header.Get("X-Idempotency-Key"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))

		items := body["items"].([]any)
		require.Len(t, items, 2)
		second := items[1].(map[string]any)
		assert.Equal(t, "Afnan 9PM", second["title"])
		assert.InDelta(t, 6990.5, second["unit_price"], 0.0001)
		assert.InDelta(t, 2, second["quantity"], 0)
		assert.Equal(t, "ARS", second["currency_id"])

		assert.Equal(t, map[string]any{"name": "Ana", "email": "ana@example.com"}, body["payer"])
		assert.Equal(t, "https://shop/checkout/failure", body["back_urls"].(map[string]any)["failure"])
		assert.Equal(t, "approved", body["auto_return"])
		assert.Equal(t, "Smell&Co", body["statement_descriptor"])
		assert.Equal(t, "order-1", body["external_reference"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"123-abc","init_point":"https://mp/init?pref_id=123-abc","sandbox_init_point":"https://sandbox/init","collector_id":1}`))
	}, false)

	pref, err := c.CreatePreference(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, payment.Preference{ID: "123-abc", InitPoint: "https://mp/init?pref_id=123-abc"}, pref)
}

func TestClient_CreatePreferenceSandbox(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"1","init_point":"https://mp/init","sandbox_init_point":"https://sandbox/init"}`))
	}, true)

	pref, err := c.CreatePreference(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox/init", pref.InitPoint)
}

func TestClient_CreatePreferenceErrors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid access token","error":"unauthorized","status":401,"cause":[]}`))
		}, false)

		_, err := c.CreatePreference(context.Background(), testRequest())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "invalid access token", apiErr.Message)
		assert.Equal(t, "unauthorized", apiErr.Code)
	})

	t.Run("non-json error body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		}, false)

		_, err := c.CreatePreference(context.Background(), testRequest())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	})

	t.Run("missing init point", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"1"}`))
		}, false)

		_, err := c.CreatePreference(context.Background(), testRequest())
		require.Error(t, err)
	})
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, ErrNoAccessToken)

	c, err := New(Config{AccessToken: "x"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}
