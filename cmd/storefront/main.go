// Command storefront is an operator CLI for the Smell&Co catalog, carts and
// checkout.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xenking/smellandco-storefront/internal/domain/cart"
	"github.com/xenking/smellandco-storefront/internal/storage/postgres"
	redisstorage "github.com/xenking/smellandco-storefront/internal/storage/redis"
)

var Version = "dev"

// options are the persistent flags shared by every command.
type options struct {
	redisURL    string
	databaseURL string
	cartKey     string
	jsonOut     bool
	verbose     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Smell&Co storefront operator CLI",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			lg, err := newLogger(opts.verbose)
			if err != nil {
				return err
			}
			cmd.SetContext(zctx.Base(cmd.Context(), lg))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.redisURL, "redis-url", os.Getenv("REDIS_URL"), "Redis URL of the cart store (or REDIS_URL env)")
	flags.StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL URL of the cart store (or DATABASE_URL env)")
	flags.StringVar(&opts.cartKey, "cart", cart.DefaultKey, "Cart key, the session id for storefront carts")
	flags.BoolVar(&opts.jsonOut, "json", false, "Output as JSON")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(catalogCmd(opts))
	root.AddCommand(cartCmd(opts))
	root.AddCommand(checkoutCmd(opts))
	return root
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	lg, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return lg, nil
}

// openCart connects the cart backend selected by the flags and returns the
// store for the configured key.
func (o *options) openCart(ctx context.Context) (*cart.Store, func(), error) {
	opts := cart.Options{Shipping: cart.DefaultShippingPolicy}

	switch {
	case o.redisURL != "":
		ropts, err := redis.ParseURL(o.redisURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "parse redis url")
		}
		client := redis.NewClient(ropts)
		backend := redisstorage.NewCartBackend(client, 0)
		if err := backend.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, errors.Wrap(err, "connect redis")
		}
		return cart.NewStore(backend, o.cartKey, opts), func() { _ = client.Close() }, nil

	case o.databaseURL != "":
		pool, err := postgres.NewPool(ctx, o.databaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect postgres")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		return cart.NewStore(postgres.NewCartBackend(pool), o.cartKey, opts), pool.Close, nil

	default:
		return nil, nil, errors.New("no cart store: set --redis-url or --database-url")
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
