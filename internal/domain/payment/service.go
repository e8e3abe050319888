package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Config holds the storefront-wide preference settings.
type Config struct {
	// SiteURL is the public origin of the storefront, used for back URLs.
	SiteURL             string
	Currency            string
	StatementDescriptor string
	// AggregateTitle names the single line sent when only a total is known.
	AggregateTitle string

	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// Defaults for Config.
const (
	DefaultCurrency            = "ARS"
	DefaultStatementDescriptor = "Smell&Co"
	DefaultAggregateTitle      = "Smell&Co order"
	autoReturnApproved         = "approved"
)

// Service turns storefront checkout requests into provider preferences.
type Service struct {
	gateway Gateway
	cfg     Config

	tracer  trace.Tracer
	results metric.Int64Counter
}

// NewService creates a Service that creates preferences through gateway.
func NewService(gateway Gateway, cfg Config) (*Service, error) {
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}
	if cfg.StatementDescriptor == "" {
		cfg.StatementDescriptor = DefaultStatementDescriptor
	}
	if cfg.AggregateTitle == "" {
		cfg.AggregateTitle = DefaultAggregateTitle
	}
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = metricnoop.NewMeterProvider()
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = tracenoop.NewTracerProvider()
	}

	results, err := cfg.MeterProvider.Meter("payment").Int64Counter("payment.preferences",
		metric.WithDescription("Payment preference attempts by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("create preference counter: %w", err)
	}

	return &Service{
		gateway: gateway,
		cfg:     cfg,
		tracer:  cfg.TracerProvider.Tracer("payment"),
		results: results,
	}, nil
}

// CreatePreference validates req, builds the provider request and creates the
// preference. Provider failures are returned as is; there is no retry.
func (s *Service) CreatePreference(ctx context.Context, req PreferenceRequest) (Preference, error) {
	ctx, span := s.tracer.Start(ctx, "payment.CreatePreference")
	defer span.End()

	preq, err := s.Build(req)
	if err != nil {
		s.record(ctx, "invalid")
		return Preference{}, err
	}
	span.SetAttributes(
		attribute.String("payment.external_reference", preq.ExternalReference),
		attribute.Int("payment.items", len(preq.Items)),
	)

	pref, err := s.gateway.CreatePreference(ctx, preq)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.record(ctx, "error")
		zctx.From(ctx).Error("Create payment preference",
			zap.String("external_reference", preq.ExternalReference),
			zap.Error(err),
		)
		return Preference{}, fmt.Errorf("create preference: %w", err)
	}

	s.record(ctx, "ok")
	zctx.From(ctx).Info("Payment preference created",
		zap.String("preference_id", pref.ID),
		zap.String("external_reference", preq.ExternalReference),
	)
	return pref, nil
}

// Build maps a storefront request to the provider request. Line items take
// precedence over Total; Total is only used when there are no items.
func (s *Service) Build(req PreferenceRequest) (ProviderRequest, error) {
	var items []ProviderItem
	switch {
	case len(req.Items) > 0:
		items = make([]ProviderItem, len(req.Items))
		for i, it := range req.Items {
			if it.Quantity < 1 {
				return ProviderRequest{}, &InvalidItemError{Index: i, Reason: "quantity must be at least 1"}
			}
			if it.Price.IsNegative() {
				return ProviderRequest{}, &InvalidItemError{Index: i, Reason: "price must not be negative"}
			}
			items[i] = ProviderItem{
				Title:      it.Name,
				UnitPrice:  it.Price,
				Quantity:   it.Quantity,
				CurrencyID: s.cfg.Currency,
			}
		}
	case req.Total.IsPositive():
		items = []ProviderItem{{
			Title:      s.cfg.AggregateTitle,
			UnitPrice:  req.Total,
			Quantity:   1,
			CurrencyID: s.cfg.Currency,
		}}
	default:
		return ProviderRequest{}, ErrNoItems
	}

	ref := req.OrderID
	if ref == "" {
		ref = uuid.NewString()
	}

	return ProviderRequest{
		Items: items,
		Payer: req.Buyer,
		BackURLs: BackURLs{
			Success: s.cfg.SiteURL + "/checkout/success",
			Failure: s.cfg.SiteURL + "/checkout/failure",
			Pending: s.cfg.SiteURL + "/checkout/pending",
		},
		AutoReturn:          autoReturnApproved,
		StatementDescriptor: s.cfg.StatementDescriptor,
		ExternalReference:   ref,
	}, nil
}

func (s *Service) record(ctx context.Context, result string) {
	s.results.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
