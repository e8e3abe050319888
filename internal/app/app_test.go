package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xenking/smellandco-storefront/internal/catalogapi"
	"github.com/xenking/smellandco-storefront/internal/domain/catalog"
	"github.com/xenking/smellandco-storefront/internal/domain/payment"
	"github.com/xenking/smellandco-storefront/internal/mercadopago"
	"github.com/xenking/smellandco-storefront/internal/storage/memory"
	"github.com/xenking/smellandco-storefront/pkg/health"
)

type noopTelemetry struct{}

func (noopTelemetry) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }
func (noopTelemetry) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }

// tracingTelemetry records spans so that trace IDs are valid.
type tracingTelemetry struct {
	tp *sdktrace.TracerProvider
}

func (t tracingTelemetry) TracerProvider() trace.TracerProvider { return t.tp }
func (tracingTelemetry) MeterProvider() metric.MeterProvider    { return metricnoop.NewMeterProvider() }

// fakeMercadoPago records preference requests and answers like the provider.
type fakeMercadoPago struct {
	mu     sync.Mutex
	auth   []string
	bodies []map[string]any
}

func (f *fakeMercadoPago) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = io.WriteString(w, `{"id":"pref-123","init_point":"https://mp.example/checkout?pref_id=pref-123","sandbox_init_point":"https://sandbox.mp.example/checkout?pref_id=pref-123"}`)
}

type testApp struct {
	url    string
	client *http.Client
	health *health.Health
	mp     *fakeMercadoPago
}

func newTestApp(t *testing.T, mutate func(*Config)) *testApp {
	t.Helper()
	ctx := zctx.Base(context.Background(), zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)

	mp := &fakeMercadoPago{}
	mpServer := httptest.NewServer(mp)
	t.Cleanup(mpServer.Close)

	remoteCatalog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(remoteCatalog.Close)

	cfg := &Config{SiteURL: "https://shop.example"}
	cfg.CORS.Origins = []string{"*"}
	cfg.RateLimit.Rate = 100
	cfg.RateLimit.Burst = 100
	cfg.MercadoPago.AccessToken = "test-token"
	cfg.MercadoPago.BaseURL = mpServer.URL
	if mutate != nil {
		mutate(cfg)
	}

	perfumes, err := catalog.NewProvider(catalogapi.New(remoteCatalog.URL), catalog.ProviderConfig{Timeout: time.Second})
	require.NoError(t, err)
	gateway, err := mercadopago.New(mercadopago.Config{
		AccessToken: cfg.MercadoPago.AccessToken,
		BaseURL:     cfg.MercadoPago.BaseURL,
	})
	require.NoError(t, err)
	payments, err := payment.NewService(gateway, payment.Config{SiteURL: cfg.SiteURL})
	require.NoError(t, err)

	healthSvc := health.New()
	healthSvc.SetReady(true)

	srv := httptest.NewServer(newHTTPHandler(ctx, cfg, noopTelemetry{}, services{
		health:   healthSvc,
		catalog:  perfumes,
		carts:    memory.NewCartBackend(),
		payments: payments,
	}))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testApp{
		url:    srv.URL,
		client: &http.Client{Jar: jar, Timeout: 5 * time.Second},
		health: healthSvc,
		mp:     mp,
	}
}

func (a *testApp) do(t *testing.T, method, path, body string, header map[string]string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, a.url+path, r)
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := a.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthEndpoints(t *testing.T) {
	a := newTestApp(t, nil)

	resp := a.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeJSON[map[string]any](t, resp)["status"])

	resp = a.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	a.health.SetReady(false)
	resp = a.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMiddlewareChain(t *testing.T) {
	a := newTestApp(t, nil)

	t.Run("request id echoed", func(t *testing.T) {
		resp := a.do(t, http.MethodGet, "/livez", "", map[string]string{"X-Request-ID": "custom-request-id-12345"})
		assert.Equal(t, "custom-request-id-12345", resp.Header.Get("X-Request-ID"))
	})

	t.Run("request id generated", func(t *testing.T) {
		resp := a.do(t, http.MethodGet, "/api/perfumes", "", nil)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	})

	t.Run("cors preflight", func(t *testing.T) {
		resp := a.do(t, http.MethodOptions, "/api/cart/items", "", map[string]string{
			"Origin":                        "http://example.com",
			"Access-Control-Request-Method": http.MethodPost,
		})
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Methods"))
	})

	t.Run("not found is json", func(t *testing.T) {
		resp := a.do(t, http.MethodGet, "/api/unknown", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "not found", decodeJSON[map[string]string](t, resp)["error"])
	})
}

func TestRateLimited(t *testing.T) {
	a := newTestApp(t, func(cfg *Config) {
		cfg.RateLimit.Rate = 0.001
		cfg.RateLimit.Burst = 2
	})

	for range 2 {
		require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/livez", "", nil).StatusCode)
	}
	assert.Equal(t, http.StatusTooManyRequests, a.do(t, http.MethodGet, "/livez", "", nil).StatusCode)
}

func TestCatalogFallsBack(t *testing.T) {
	a := newTestApp(t, nil)

	resp := a.do(t, http.MethodGet, "/api/perfumes?filter=new", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	perfumes := decodeJSON[[]map[string]any](t, resp)
	require.Len(t, perfumes, 4)
	assert.Equal(t, "lattafa-yara", perfumes[0]["id"])
}

func TestCheckoutFlow(t *testing.T) {
	a := newTestApp(t, nil)

	resp := a.do(t, http.MethodPost, "/api/checkout", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "redirected", decodeJSON[map[string]any](t, resp)["state"])

	resp = a.do(t, http.MethodPost, "/api/cart/items", `{"id":"armaf-club","quantity":2}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/api/checkout", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session := decodeJSON[map[string]any](t, resp)
	assert.Equal(t, "ready", session["state"])
	assert.Equal(t, "pref-123", session["preferenceId"])
	assert.Equal(t, "https://mp.example/checkout?pref_id=pref-123", session["init_point"])

	a.mp.mu.Lock()
	require.Len(t, a.mp.bodies, 1)
	assert.Equal(t, "Bearer test-token", a.mp.auth[0])
	sent := a.mp.bodies[0]
	a.mp.mu.Unlock()

	items := sent["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "Club de Nuit Intense Man", item["title"])
	assert.EqualValues(t, 2, item["quantity"])
	backURLs := sent["back_urls"].(map[string]any)
	assert.Equal(t, "https://shop.example/checkout/success", backURLs["success"])

	resp = a.do(t, http.MethodGet, "/checkout/pending?payment_id=1&status=in_process", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decodeJSON[map[string]any](t, resp)["cartCleared"])

	resp = a.do(t, http.MethodGet, "/checkout/success?payment_id=1&status=approved&merchant_order_id=9", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeJSON[map[string]any](t, resp)["cartCleared"])

	resp = a.do(t, http.MethodGet, "/api/cart", "", nil)
	assert.Empty(t, decodeJSON[map[string]any](t, resp)["items"])
}

func TestPaymentPreferenceEndpoint(t *testing.T) {
	a := newTestApp(t, nil)

	resp := a.do(t, http.MethodPost, "/api/payment-preference", `{"total":250,"orderId":"order-1"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{
		"preferenceId": "pref-123",
		"init_point":   "https://mp.example/checkout?pref_id=pref-123",
	}, decodeJSON[map[string]string](t, resp))

	a.mp.mu.Lock()
	defer a.mp.mu.Unlock()
	require.Len(t, a.mp.bodies, 1)
	assert.Equal(t, "order-1", a.mp.bodies[0]["external_reference"])
}

func TestHTTPHandler_LogsTraceID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := zctx.Base(context.Background(), zap.New(core))

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	healthSvc := health.New()
	healthSvc.SetReady(true)
	h := newHTTPHandler(ctx, &Config{}, tracingTelemetry{tp: tp}, services{
		health: healthSvc,
		carts:  memory.NewCartBackend(),
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	require.Equal(t, http.StatusOK, w.Code)

	entries := logs.FilterMessage("Request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Len(t, fields["trace_id"], 32)
	assert.Equal(t, w.Header().Get("X-Request-ID"), fields["request_id"])
}
