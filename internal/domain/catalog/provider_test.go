package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockSource struct {
	fetchFn func(ctx context.Context) ([]Perfume, error)
	calls   atomic.Int32
}

func (m *mockSource) FetchPerfumes(ctx context.Context) ([]Perfume, error) {
	m.calls.Add(1)
	return m.fetchFn(ctx)
}

func remote(n int) []Perfume {
	out := make([]Perfume, n)
	for i := range out {
		out[i] = Perfume{
			ID:    "perfume-" + string(rune('1'+i)),
			Name:  "Remote",
			Price: decimal.NewFromInt(int64(120 + 5*i)),
		}
	}
	return out
}

func newTestProvider(t *testing.T, src Source, cfg ProviderConfig) *Provider {
	t.Helper()
	p, err := NewProvider(src, cfg)
	require.NoError(t, err)
	return p
}

func assertFallback(t *testing.T, got []Perfume) {
	t.Helper()
	require.Len(t, got, 6)
	assert.Equal(t, "lattafa-yara", got[0].ID)
	assert.Equal(t, "afnan-9pm", got[5].ID)
}

// --- Tests ---

func TestProvider_ListRemote(t *testing.T) {
	src := &mockSource{fetchFn: func(context.Context) ([]Perfume, error) {
		return remote(3), nil
	}}
	p := newTestProvider(t, src, ProviderConfig{})

	got := p.List(context.Background())
	require.Len(t, got, 3)
	assert.Equal(t, "perfume-1", got[0].ID)
	assert.True(t, decimal.NewFromInt(130).Equal(got[2].Price))
}

func TestProvider_ListFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		fetch func(ctx context.Context) ([]Perfume, error)
	}{
		{
			name: "transport error",
			fetch: func(context.Context) ([]Perfume, error) {
				return nil, errors.New("connection refused")
			},
		},
		{
			name: "empty payload",
			fetch: func(context.Context) ([]Perfume, error) {
				return []Perfume{}, nil
			},
		},
		{
			name: "timeout",
			fetch: func(ctx context.Context) ([]Perfume, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, &mockSource{fetchFn: tt.fetch}, ProviderConfig{
				Timeout: 10 * time.Millisecond,
			})
			assertFallback(t, p.List(context.Background()))
		})
	}
}

func TestProvider_NilSource(t *testing.T) {
	p := newTestProvider(t, nil, ProviderConfig{})
	assertFallback(t, p.List(context.Background()))
}

func TestProvider_FallbackIsCopy(t *testing.T) {
	p := newTestProvider(t, nil, ProviderConfig{})

	first := p.List(context.Background())
	first[0].Name = "mutated"
	first[0].Notes.Top[0] = "mutated"

	second := p.List(context.Background())
	assert.Equal(t, "Lattafa Yara", second[0].Name)
	assert.Equal(t, "Ananá tropical", second[0].Notes.Top[0])
}

func TestProvider_BreakerOpens(t *testing.T) {
	src := &mockSource{fetchFn: func(context.Context) ([]Perfume, error) {
		return nil, errors.New("upstream down")
	}}
	p := newTestProvider(t, src, ProviderConfig{
		BreakerFailures: 2,
		BreakerCooldown: time.Hour,
	})
	ctx := context.Background()

	for range 5 {
		assertFallback(t, p.List(ctx))
	}
	assert.Equal(t, int32(2), src.calls.Load(), "open circuit must not reach the source")
}

func TestProvider_SharesInFlightFetch(t *testing.T) {
	release := make(chan struct{})
	src := &mockSource{fetchFn: func(context.Context) ([]Perfume, error) {
		<-release
		return remote(2), nil
	}}
	p := newTestProvider(t, src, ProviderConfig{})

	var wg sync.WaitGroup
	results := make([][]Perfume, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = p.List(context.Background())
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	for _, r := range results {
		assert.Len(t, r, 2)
	}

	// Nothing is cached once the fetch completed.
	p.List(context.Background())
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestProvider_CallerCancelDoesNotAbortFetch(t *testing.T) {
	src := &mockSource{fetchFn: func(ctx context.Context) ([]Perfume, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return remote(1), nil
	}}
	p := newTestProvider(t, src, ProviderConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := p.List(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "perfume-1", got[0].ID)
}

func TestProvider_Get(t *testing.T) {
	p := newTestProvider(t, nil, ProviderConfig{})
	ctx := context.Background()

	got, err := p.Get(ctx, "armaf-club")
	require.NoError(t, err)
	assert.Equal(t, "Club de Nuit Intense Man", got.Name)
	assert.True(t, got.IsBestseller)

	_, err = p.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
