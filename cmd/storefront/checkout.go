package main

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/smellandco-storefront/internal/domain/cart"
	"github.com/xenking/smellandco-storefront/internal/domain/checkout"
	"github.com/xenking/smellandco-storefront/internal/paymentproxy"
)

type sessionOutput struct {
	State        checkout.State `json:"state"`
	RedirectTo   string         `json:"redirectTo,omitempty"`
	PreferenceID string         `json:"preferenceId,omitempty"`
	InitPoint    string         `json:"init_point,omitempty"`
	Error        string         `json:"error,omitempty"`
	Total        string         `json:"total,omitempty"`
}

type outcomeOutput struct {
	State           checkout.State `json:"state"`
	PaymentID       string         `json:"paymentId,omitempty"`
	Status          string         `json:"status,omitempty"`
	MerchantOrderID string         `json:"merchantOrderId,omitempty"`
	CartCleared     bool           `json:"cartCleared"`
	Cart            cartOutput     `json:"cart"`
}

func checkoutCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Run checkout for a stored cart",
	}
	cmd.AddCommand(checkoutStartCmd(opts))
	cmd.AddCommand(checkoutCompleteCmd(opts))
	return cmd
}

func checkoutStartCmd(opts *options) *cobra.Command {
	var (
		server string
		pay    bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Create a payment preference for the cart through a storefront server",
		Long: `Create a payment preference for the cart through the payment preference
endpoint of a running storefront server.

With --pay the session moves on to paying and only the provider URL the
buyer must be sent to is printed.

Examples:
  storefront checkout start --server http://localhost:8080 --cart 5f0c...
  storefront checkout start --pay`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, closeFn, err := opts.openCart(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			orch := checkout.NewOrchestrator(store, paymentproxy.New(server, nil), checkout.Config{})
			s, err := orch.Start(ctx)
			if err != nil {
				return err
			}

			if pay && s.State == checkout.StateReady {
				url, err := s.Pay()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			}
			return printSession(cmd, opts, s)
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "Storefront server base URL")
	cmd.Flags().BoolVar(&pay, "pay", false, "Print only the provider checkout URL")

	return cmd
}

func printSession(cmd *cobra.Command, opts *options, s *checkout.Session) error {
	out := sessionOutput{
		State:        s.State,
		RedirectTo:   s.RedirectTo,
		PreferenceID: s.PreferenceID,
		InitPoint:    s.InitPoint,
		Error:        s.Error,
	}
	if len(s.Items) > 0 {
		out.Total = s.Totals.Total.StringFixed(2)
	}
	if opts.jsonOut {
		return writeJSON(cmd.OutOrStdout(), out)
	}

	w := cmd.OutOrStdout()
	switch s.State {
	case checkout.StateRedirected:
		fmt.Fprintf(w, "Cart is empty, nothing to pay (redirect to %s)\n", s.RedirectTo)
	case checkout.StateError:
		fmt.Fprintln(w, s.Error)
		return errors.New("checkout failed")
	default:
		fmt.Fprintf(w, "State:       %s\n", s.State)
		fmt.Fprintf(w, "Total:       %s\n", out.Total)
		fmt.Fprintf(w, "Preference:  %s\n", s.PreferenceID)
		fmt.Fprintf(w, "Checkout at: %s\n", s.InitPoint)
	}
	return nil
}

func checkoutCompleteCmd(opts *options) *cobra.Command {
	var params checkout.OutcomeParams

	cmd := &cobra.Command{
		Use:       "complete [success|failure|pending]",
		Short:     "Record the buyer's return from the payment provider",
		Long:      "Record the buyer's return from the payment provider. Success empties the cart; failure and pending keep it.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(checkout.OutcomeSuccess), string(checkout.OutcomeFailure), string(checkout.OutcomePending)},
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := checkout.ParseOutcome(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, closeFn, err := opts.openCart(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := checkout.NewOrchestrator(store, nil, checkout.Config{}).Complete(ctx, outcome, params)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				items := store.List(ctx)
				return writeJSON(cmd.OutOrStdout(), outcomeOutput{
					State:           res.State,
					PaymentID:       res.Params.PaymentID,
					Status:          res.Params.Status,
					MerchantOrderID: res.Params.MerchantOrderID,
					CartCleared:     res.CartCleared,
					Cart:            newCartOutput(store.Key(), items, cart.Calculate(items, store.Policy())),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Payment %s (%s), cart cleared: %t\n", res.State, params.PaymentID, res.CartCleared)
			return printCart(cmd.OutOrStdout(), opts, store.Key(), store.List(ctx), store.Policy())
		},
	}

	cmd.Flags().StringVar(&params.PaymentID, "payment-id", "", "Provider payment id")
	cmd.Flags().StringVar(&params.Status, "status", "", "Provider payment status")
	cmd.Flags().StringVar(&params.MerchantOrderID, "merchant-order-id", "", "Provider merchant order id")

	return cmd
}
