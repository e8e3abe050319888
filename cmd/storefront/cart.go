package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/smellandco-storefront/internal/catalogapi"
	"github.com/xenking/smellandco-storefront/internal/domain/cart"
	"github.com/xenking/smellandco-storefront/internal/domain/catalog"
)

type cartOutput struct {
	Key       string          `json:"key"`
	Items     []cart.LineItem `json:"items"`
	Subtotal  string          `json:"subtotal"`
	Shipping  string          `json:"shipping"`
	Total     string          `json:"total"`
	Remaining string          `json:"remaining"`
}

func cartCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and edit a stored cart",
		Long: `Inspect and edit a cart stored in Redis or PostgreSQL.

Storefront carts are keyed by the cart_session cookie; pass it with --cart.

Examples:
  storefront cart list --redis-url redis://localhost:6379/0 --cart 5f0c...
  storefront cart add afnan-9pm --quantity 2
  storefront cart add afnan-9pm --decant`,
	}

	cmd.AddCommand(cartListCmd(opts))
	cmd.AddCommand(cartAddCmd(opts))
	cmd.AddCommand(cartSetCmd(opts))
	cmd.AddCommand(cartRemoveCmd(opts))
	cmd.AddCommand(cartClearCmd(opts))

	return cmd
}

// withCart opens the cart store, runs fn and prints the resulting cart.
func withCart(cmd *cobra.Command, opts *options, fn func(ctx context.Context, store *cart.Store) error) error {
	ctx := cmd.Context()
	store, closeFn, err := opts.openCart(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if fn != nil {
		if err := fn(ctx, store); err != nil {
			return err
		}
	}
	return printCart(cmd.OutOrStdout(), opts, store.Key(), store.List(ctx), store.Policy())
}

func newCartOutput(key string, items []cart.LineItem, totals cart.Totals) cartOutput {
	return cartOutput{
		Key:       key,
		Items:     items,
		Subtotal:  totals.Subtotal.StringFixed(2),
		Shipping:  totals.Shipping.StringFixed(2),
		Total:     totals.Total.StringFixed(2),
		Remaining: totals.Remaining.StringFixed(2),
	}
}

func printCart(w io.Writer, opts *options, key string, items []cart.LineItem, policy cart.ShippingPolicy) error {
	totals := cart.Calculate(items, policy)
	out := newCartOutput(key, items, totals)
	if opts.jsonOut {
		return writeJSON(w, out)
	}

	if len(items) == 0 {
		fmt.Fprintf(w, "Cart %s is empty\n", key)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tVOLUME\tQTY\tPRICE")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", it.ID, it.Name, it.Volume, it.Quantity, it.Price.StringFixed(2))
	}
	fmt.Fprintf(tw, "\t\t\tSubtotal\t%s\n", out.Subtotal)
	fmt.Fprintf(tw, "\t\t\tShipping\t%s\n", out.Shipping)
	fmt.Fprintf(tw, "\t\t\tTotal\t%s\n", out.Total)
	if !totals.FreeShipping() {
		fmt.Fprintf(tw, "\t\t\tTo free shipping\t%s\n", out.Remaining)
	}
	return tw.Flush()
}

func cartListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the cart with its totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCart(cmd, opts, nil)
		},
	}
}

func cartAddCmd(opts *options) *cobra.Command {
	var (
		quantity   int
		decant     bool
		catalogURL string
	)

	cmd := &cobra.Command{
		Use:   "add [perfume-id]",
		Short: "Add a perfume, or its 5ml decant, to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := catalog.NewProvider(catalogapi.New(catalogURL), catalog.ProviderConfig{})
			if err != nil {
				return errors.Wrap(err, "create catalog provider")
			}
			p, err := provider.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			item := catalog.LineItem(p)
			if decant {
				item = catalog.Decant(p)
			}
			return withCart(cmd, opts, func(ctx context.Context, store *cart.Store) error {
				return store.Add(ctx, item, quantity)
			})
		},
	}

	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "Units to add")
	cmd.Flags().BoolVar(&decant, "decant", false, "Add the 5ml decant instead of the full bottle")
	cmd.Flags().StringVar(&catalogURL, "catalog-url", catalogapi.DefaultURL, "Catalog API endpoint")

	return cmd
}

func cartSetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "set [item-id] [quantity]",
		Short: "Set the quantity of a cart line",
		Long:  "Set the quantity of a cart line. Quantities below one are ignored; use remove instead.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.Wrapf(err, "parse quantity %q", args[1])
			}
			return withCart(cmd, opts, func(ctx context.Context, store *cart.Store) error {
				return store.SetQuantity(ctx, args[0], quantity)
			})
		},
	}
}

func cartRemoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "remove [item-id]",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCart(cmd, opts, func(ctx context.Context, store *cart.Store) error {
				return store.Remove(ctx, args[0])
			})
		},
	}
}

func cartClearCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCart(cmd, opts, func(ctx context.Context, store *cart.Store) error {
				return store.Clear(ctx)
			})
		},
	}
}
