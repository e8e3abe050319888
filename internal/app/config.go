package app

import (
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Cart backends selectable with Cart.Backend.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	SiteURL     string `default:"http://localhost:8080" usage:"Public storefront origin used for payment back URLs" flag:"site-url"`
	DatabaseURL string `usage:"PostgreSQL connection URL (STOREFRONT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL    string `usage:"Redis connection URL (STOREFRONT_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	Catalog     CatalogConfig
	MercadoPago MercadoPagoConfig `env:"MERCADOPAGO"`
	Cart        CartConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// CatalogConfig controls the remote perfume catalog.
type CatalogConfig struct {
	URL             string        `default:"https://api-perfumes-xukq.onrender.com/perfumes" usage:"Remote catalog endpoint"`
	Timeout         time.Duration `default:"3s" usage:"Remote catalog fetch timeout"`
	BreakerFailures uint32        `default:"5" usage:"Consecutive failures before the catalog breaker opens"`
	BreakerCooldown time.Duration `default:"30s" usage:"Time the catalog breaker stays open"`
}

// MercadoPagoConfig holds the payment provider credentials. The access token
// is never committed; it comes from the environment or a secret file.
type MercadoPagoConfig struct {
	AccessToken string `usage:"MercadoPago access token (STOREFRONT_MERCADOPAGO_ACCESS_TOKEN or MERCADOPAGO_ACCESS_TOKEN)"`
	BaseURL     string `default:"https://api.mercadopago.com" usage:"MercadoPago API base URL"`
	Sandbox     bool   `default:"false" usage:"Redirect buyers to the sandbox checkout"`
	Currency    string `default:"ARS" usage:"Currency of created preferences"`
}

// CartConfig selects and tunes cart persistence.
type CartConfig struct {
	Backend      string        `default:"memory" usage:"Cart backend: memory, redis or postgres"`
	TTL          time.Duration `default:"720h" usage:"Cart and session cookie lifetime; 0 disables expiry"`
	SettleDelay  time.Duration `default:"300ms" usage:"Pause after add-to-cart before responding"`
	SecureCookie bool          `default:"false" usage:"Mark the session cookie Secure" flag:"secure-cookie"`
}

// RateLimitConfig controls the per-client token bucket limiter.
type RateLimitConfig struct {
	Rate  float64 `default:"5" usage:"Sustained requests per second per client"`
	Burst int     `default:"50" usage:"Requests allowed in a burst"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports missing or inconsistent settings.
func (c *Config) Validate() error {
	if c.MercadoPago.AccessToken == "" {
		return errors.New("mercadopago access token is required: set STOREFRONT_MERCADOPAGO_ACCESS_TOKEN or MERCADOPAGO_ACCESS_TOKEN")
	}

	switch c.Cart.Backend = strings.ToLower(c.Cart.Backend); c.Cart.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("redis URL is required for the redis cart backend: set STOREFRONT_REDIS_URL or REDIS_URL")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required for the postgres cart backend: set STOREFRONT_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown cart backend %q", c.Cart.Backend)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's STOREFRONT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	fill := func(dst *string, env string) {
		if *dst == "" {
			*dst = os.Getenv(env)
		}
	}
	fill(&c.DatabaseURL, "DATABASE_URL")
	fill(&c.RedisURL, "REDIS_URL")
	fill(&c.MercadoPago.AccessToken, "MERCADOPAGO_ACCESS_TOKEN")

	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
