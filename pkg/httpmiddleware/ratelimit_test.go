package httpmiddleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doFrom(h http.Handler, remoteAddr string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/perfumes", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	h := RateLimit(context.Background(), RateLimitConfig{Rate: 0.001, Burst: 3})(okHandler())

	for i := range 3 {
		w := doFrom(h, "10.0.0.1:1000", nil)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := doFrom(h, "10.0.0.1:1000", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "rate limit exceeded", body["error"])
}

func TestRateLimit_Refills(t *testing.T) {
	h := RateLimit(context.Background(), RateLimitConfig{Rate: 50, Burst: 1})(okHandler())

	require.Equal(t, http.StatusOK, doFrom(h, "10.0.0.1:1", nil).Code)
	require.Equal(t, http.StatusTooManyRequests, doFrom(h, "10.0.0.1:1", nil).Code)

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, http.StatusOK, doFrom(h, "10.0.0.1:1", nil).Code)
}

func TestRateLimit_PerClient(t *testing.T) {
	h := RateLimit(context.Background(), RateLimitConfig{Rate: 0.001, Burst: 1})(okHandler())

	assert.Equal(t, http.StatusOK, doFrom(h, "10.0.0.1:1", nil).Code)
	assert.Equal(t, http.StatusOK, doFrom(h, "10.0.0.2:1", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, doFrom(h, "10.0.0.1:2", nil).Code)
}

func TestRateLimit_ForwardedFor(t *testing.T) {
	h := RateLimit(context.Background(), RateLimitConfig{Rate: 0.001, Burst: 1})(okHandler())
	xff := map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}

	assert.Equal(t, http.StatusOK, doFrom(h, "192.168.1.1:1", xff).Code)
	assert.Equal(t, http.StatusTooManyRequests, doFrom(h, "192.168.1.2:1", xff).Code)
}

func TestRateLimit_CustomKey(t *testing.T) {
	h := RateLimit(context.Background(), RateLimitConfig{
		Rate:  0.001,
		Burst: 1,
		KeyFunc: func(r *http.Request) string {
			return r.Header.Get("X-Session")
		},
	})(okHandler())

	assert.Equal(t, http.StatusOK, doFrom(h, "1.1.1.1:1", map[string]string{"X-Session": "a"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, doFrom(h, "2.2.2.2:1", map[string]string{"X-Session": "a"}).Code)
	assert.Equal(t, http.StatusOK, doFrom(h, "1.1.1.1:1", map[string]string{"X-Session": "b"}).Code)
}

func TestRateLimit_EvictsIdle(t *testing.T) {
	set := &limiterSet{
		cfg:      RateLimitConfig{Rate: 1, Burst: 1, IdleTTL: time.Minute},
		visitors: make(map[string]*visitor),
	}
	now := time.Now()
	set.get("old", now.Add(-2*time.Minute))
	set.get("fresh", now)

	set.evict(now)
	assert.NotContains(t, set.visitors, "old")
	assert.Contains(t, set.visitors, "fresh")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		header map[string]string
		want   string
	}{
		{name: "remote addr", remote: "10.1.1.1:5555", want: "10.1.1.1"},
		{name: "remote without port", remote: "10.1.1.1", want: "10.1.1.1"},
		{name: "real ip", remote: "10.1.1.1:1", header: map[string]string{"X-Real-IP": "198.51.100.7"}, want: "198.51.100.7"},
		{name: "forwarded wins", remote: "10.1.1.1:1", header: map[string]string{"X-Forwarded-For": " 203.0.113.9 ", "X-Real-IP": "198.51.100.7"}, want: "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
