package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/smellandco-storefront/internal/catalogapi"
	"github.com/xenking/smellandco-storefront/internal/domain/cart"
	"github.com/xenking/smellandco-storefront/internal/domain/catalog"
	"github.com/xenking/smellandco-storefront/internal/domain/checkout"
	"github.com/xenking/smellandco-storefront/internal/domain/payment"
	"github.com/xenking/smellandco-storefront/internal/handler"
	"github.com/xenking/smellandco-storefront/internal/mercadopago"
	"github.com/xenking/smellandco-storefront/internal/storage/memory"
	"github.com/xenking/smellandco-storefront/internal/storage/postgres"
	redisstorage "github.com/xenking/smellandco-storefront/internal/storage/redis"
	"github.com/xenking/smellandco-storefront/pkg/health"
	"github.com/xenking/smellandco-storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("cart_backend", cfg.Cart.Backend),
		zap.Bool("sandbox", cfg.MercadoPago.Sandbox),
	)

	// Health check service.
	healthSvc := health.New()
	healthSvc.Add(health.Liveness, "goroutines", time.Second, health.GoroutineCountCheck(10000))

	carts, closeCarts, err := openCartBackend(ctx, cfg, healthSvc)
	if err != nil {
		return errors.Wrap(err, "open cart backend")
	}
	defer closeCarts()

	// Outbound calls share one instrumented client; deadlines come from
	// request contexts.
	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	// Catalog.
	perfumes, err := catalog.NewProvider(
		catalogapi.New(cfg.Catalog.URL, catalogapi.WithHTTPClient(httpClient)),
		catalog.ProviderConfig{
			Timeout:         cfg.Catalog.Timeout,
			BreakerFailures: cfg.Catalog.BreakerFailures,
			BreakerCooldown: cfg.Catalog.BreakerCooldown,
			MeterProvider:   m.MeterProvider(),
			TracerProvider:  m.TracerProvider(),
		},
	)
	if err != nil {
		return errors.Wrap(err, "create catalog provider")
	}

	// Payments.
	gateway, err := mercadopago.New(mercadopago.Config{
		AccessToken: cfg.MercadoPago.AccessToken,
		BaseURL:     cfg.MercadoPago.BaseURL,
		Sandbox:     cfg.MercadoPago.Sandbox,
		HTTPClient:  httpClient,
	})
	if err != nil {
		return errors.Wrap(err, "create mercadopago client")
	}
	payments, err := payment.NewService(gateway, payment.Config{
		SiteURL:        cfg.SiteURL,
		Currency:       cfg.MercadoPago.Currency,
		MeterProvider:  m.MeterProvider(),
		TracerProvider: m.TracerProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create payment service")
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: newHTTPHandler(ctx, cfg, m, services{
			health:   healthSvc,
			catalog:  perfumes,
			carts:    carts,
			payments: payments,
		}),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		// Graceful shutdown: wait for cancellation, drain, then stop.
		<-gctx.Done()
		healthSvc.SetReady(false)
		if ctx.Err() != nil {
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})
	return g.Wait()
}

// openCartBackend connects the configured cart backend and registers its
// readiness probe. The returned func releases the connection.
func openCartBackend(ctx context.Context, cfg *Config, healthSvc *health.Health) (cart.Backend, func(), error) {
	switch cfg.Cart.Backend {
	case BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "parse redis url")
		}
		client := redis.NewClient(opts)
		backend := redisstorage.NewCartBackend(client, cfg.Cart.TTL)
		healthSvc.Add(health.Readiness, "redis", 2*time.Second, health.PingCheck(backend))
		return backend, func() { _ = client.Close() }, nil

	case BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		backend := postgres.NewCartBackend(pool)
		healthSvc.Add(health.Readiness, "postgres", 5*time.Second, health.PingCheck(backend))
		return backend, pool.Close, nil

	default:
		return memory.NewCartBackend(), func() {}, nil
	}
}

var _ checkout.PreferenceClient = (*payment.Service)(nil)

// services are the wired dependencies served over HTTP.
type services struct {
	health   *health.Health
	catalog  handler.Catalog
	carts    cart.Backend
	payments checkout.PreferenceClient
}

// newHTTPHandler builds the router with health endpoints and wraps it in the
// middleware chain, outermost first.
func newHTTPHandler(ctx context.Context, cfg *Config, t httpmiddleware.Telemetry, svc services) http.Handler {
	h := handler.New(
		handler.Config{
			Cart: cart.Options{
				SettleDelay: cfg.Cart.SettleDelay,
				Shipping:    cart.DefaultShippingPolicy,
			},
			SecureCookie: cfg.Cart.SecureCookie,
			SessionTTL:   cfg.Cart.TTL,
		},
		svc.catalog,
		svc.carts,
		svc.payments,
	)
	router := h.Router()
	router.Get("/livez", svc.health.LiveEndpoint)
	router.Get("/readyz", svc.health.ReadyEndpoint)

	return httpmiddleware.Wrap(router,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			Origins:     cfg.CORS.Origins,
			Headers:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
			Credentials: cfg.CORS.AllowCredentials,
			MaxAge:      24 * time.Hour,
		}),
		httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Rate:    cfg.RateLimit.Rate,
			Burst:   cfg.RateLimit.Burst,
			IdleTTL: 10 * time.Minute,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.Instrument("storefront", t),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.LogRequests(),
		httpmiddleware.Labeler(),
	)
}
