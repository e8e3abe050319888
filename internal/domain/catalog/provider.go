package catalog

import (
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrEmptyCatalog is returned by fetches that produced no perfumes.
var ErrEmptyCatalog = errors.New("remote catalog is empty")

// Defaults for ProviderConfig.
const (
	DefaultFetchTimeout    = 3 * time.Second
	DefaultBreakerFailures = 5
	DefaultBreakerCooldown = 30 * time.Second
)

// ProviderConfig tunes a Provider. Zero fields select the defaults.
type ProviderConfig struct {
	// Timeout bounds a single remote fetch.
	Timeout time.Duration
	// BreakerFailures is the number of consecutive failed fetches that open
	// the circuit.
	BreakerFailures uint32
	// BreakerCooldown is how long an open circuit serves the fallback
	// before probing the remote source again.
	BreakerCooldown time.Duration

	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

func (c *ProviderConfig) setDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultFetchTimeout
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = DefaultBreakerFailures
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = DefaultBreakerCooldown
	}
	if c.MeterProvider == nil {
		c.MeterProvider = metricnoop.NewMeterProvider()
	}
	if c.TracerProvider == nil {
		c.TracerProvider = tracenoop.NewTracerProvider()
	}
}

// Provider serves the perfume catalog. It prefers the remote Source and
// falls back to the built-in list on any failure, so callers never see an
// error from List.
type Provider struct {
	source  Source
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[[]Perfume]
	group   singleflight.Group

	tracer    trace.Tracer
	fallbacks metric.Int64Counter
}

// NewProvider creates a Provider over source. A nil source always serves the
// fallback list.
func NewProvider(source Source, cfg ProviderConfig) (*Provider, error) {
	cfg.setDefaults()

	fallbacks, err := cfg.MeterProvider.Meter("catalog").Int64Counter("catalog.fallbacks",
		metric.WithDescription("Catalog requests served from the built-in list"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create fallback counter")
	}

	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[[]Perfume](gobreaker.Settings{
		Name:    "catalog",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
	})

	return &Provider{
		source:    source,
		timeout:   cfg.Timeout,
		breaker:   breaker,
		tracer:    cfg.TracerProvider.Tracer("catalog"),
		fallbacks: fallbacks,
	}, nil
}

// List returns the catalog. Concurrent calls share one in-flight fetch;
// results are not cached once the fetch returns.
func (p *Provider) List(ctx context.Context) []Perfume {
	ctx, span := p.tracer.Start(ctx, "catalog.List")
	defer span.End()

	v, err, shared := p.group.Do("perfumes", func() (any, error) {
		return p.breaker.Execute(func() ([]Perfume, error) {
			return p.fetch(ctx)
		})
	})
	span.SetAttributes(attribute.Bool("catalog.shared", shared))
	if err != nil {
		reason := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			reason = "circuit_open"
		}
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("catalog.fallback", reason))
		p.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
		zctx.From(ctx).Warn("Serving fallback catalog",
			zap.String("reason", reason),
			zap.Error(err),
		)
		return Fallback()
	}
	return slices.Clone(v.([]Perfume))
}

// Get returns the perfume with the given ID from the current catalog.
func (p *Provider) Get(ctx context.Context, id string) (Perfume, error) {
	for _, perfume := range p.List(ctx) {
		if perfume.ID == id {
			return perfume, nil
		}
	}
	return Perfume{}, errors.Wrapf(ErrNotFound, "%q", id)
}

func (p *Provider) fetch(ctx context.Context) ([]Perfume, error) {
	if p.source == nil {
		return nil, errors.New("no remote catalog configured")
	}
	// The fetch is shared between callers, so one caller going away must not
	// cancel it for the others. The timeout still bounds it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	perfumes, err := p.source.FetchPerfumes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch perfumes")
	}
	if len(perfumes) == 0 {
		return nil, ErrEmptyCatalog
	}
	return perfumes, nil
}
