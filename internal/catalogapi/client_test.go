package catalogapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/smellandco-storefront/internal/domain/catalog"
)

func serve(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, WithHTTPClient(srv.Client()))
}

func TestClient_FetchPerfumes(t *testing.T) {
	c := serve(t, http.StatusOK, `[
		{"nombre": "Oud Wood", "notas": ["Oud", "Cardamomo", "Vetiver"], "imagen": "https://img/1.jpg"},
		{"nombre": "", "notas": []},
		{"nombre": 42, "notas": ["Bergamota"], "imagen": null, "extra": {"a": [1, 2]}},
		"garbage",
		{},
		{"nombre": "Sexto"},
		{"nombre": "Séptimo"}
	]`)

	got, err := c.FetchPerfumes(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 7)

	first := got[0]
	assert.Equal(t, "perfume-1", first.ID)
	assert.Equal(t, "Oud Wood", first.Name)
	assert.Equal(t, "Fragancia con notas de Oud, Cardamomo, Vetiver", first.ShortDescription)
	assert.Equal(t, "Una exquisita combinación de Oud, Cardamomo, Vetiver, creando una experiencia olfativa única y sofisticada.", first.Description)
	assert.Equal(t, catalog.Notes{Top: []string{"Oud"}, Middle: []string{"Cardamomo"}, Base: []string{"Vetiver"}}, first.Notes)
	assert.Equal(t, "https://img/1.jpg", first.Image)
	assert.Equal(t, "100ml", first.Volume)
	assert.True(t, decimal.NewFromInt(120).Equal(first.Price))

	second := got[1]
	assert.Equal(t, "Perfume 2", second.Name)
	assert.Equal(t, "Fragancia con notas de Nota cítrica, Nota floral, Nota amaderada", second.ShortDescription)
	assert.Equal(t, []string{"Nota cítrica"}, second.Notes.Top)
	assert.Empty(t, second.Image)

	third := got[2]
	assert.Equal(t, "Perfume 3", third.Name)
	assert.Equal(t, []string{"Bergamota"}, third.Notes.Top)
	assert.Equal(t, []string{"Notas florales"}, third.Notes.Middle)
	assert.Equal(t, []string{"Notas amaderadas"}, third.Notes.Base)
	assert.True(t, decimal.NewFromInt(130).Equal(third.Price))

	assert.Equal(t, "Perfume 4", got[3].Name)
	assert.True(t, decimal.NewFromInt(150).Equal(got[6].Price))

	for i, p := range got {
		assert.Equal(t, i < 3, p.IsNew, "index %d", i)
		assert.Equal(t, i >= 3 && i < 6, p.IsBestseller, "index %d", i)
	}
}

func TestClient_FetchPerfumesBlankNoteKeepsSlot(t *testing.T) {
	c := serve(t, http.StatusOK, `[{"nombre": "Rosa Oud", "notas": ["", "Rosa", "Oud"]}]`)

	got, err := c.FetchPerfumes(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, catalog.Notes{
		Top:    []string{"Notas cítricas"},
		Middle: []string{"Rosa"},
		Base:   []string{"Oud"},
	}, got[0].Notes)
	assert.Equal(t, "Fragancia con notas de , Rosa, Oud", got[0].ShortDescription)
}

func TestClient_FetchPerfumesErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `[]`},
		{name: "not found", status: http.StatusNotFound, body: `{"error":"nope"}`},
		{name: "empty array", status: http.StatusOK, body: `[]`},
		{name: "object payload", status: http.StatusOK, body: `{"perfumes":[]}`},
		{name: "malformed", status: http.StatusOK, body: `[{"nombre": "x"`},
		{name: "empty body", status: http.StatusOK, body: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := serve(t, tt.status, tt.body)
			got, err := c.FetchPerfumes(context.Background())
			require.Error(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestClient_StatusError(t *testing.T) {
	c := serve(t, http.StatusBadGateway, ``)

	_, err := c.FetchPerfumes(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
}

func TestClient_HonoursDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	c := New(srv.URL, WithHTTPClient(srv.Client()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.FetchPerfumes(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNew_DefaultURL(t *testing.T) {
	assert.Equal(t, DefaultURL, New("").url)
}
