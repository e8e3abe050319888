package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/smellandco-storefront/internal/catalogapi"
	"github.com/xenking/smellandco-storefront/internal/domain/catalog"
)

type perfumeOutput struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Price        string   `json:"price"`
	Volume       string   `json:"volume"`
	IsNew        bool     `json:"isNew"`
	IsBestseller bool     `json:"isBestseller"`
	TopNotes     []string `json:"topNotes"`
}

func catalogCmd(opts *options) *cobra.Command {
	var (
		url     string
		filter  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List perfumes from the remote catalog, or the built-in fallback",
		Long: `List perfumes from the remote catalog.

When the catalog API is unreachable, slow or empty the built-in fallback
selection is listed instead, exactly as the storefront would serve it.

Examples:
  storefront catalog
  storefront catalog --filter bestsellers --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := catalog.ParseFilter(filter)
			if err != nil {
				return err
			}
			provider, err := catalog.NewProvider(catalogapi.New(url), catalog.ProviderConfig{Timeout: timeout})
			if err != nil {
				return errors.Wrap(err, "create catalog provider")
			}

			perfumes := catalog.Apply(f, provider.List(cmd.Context()))
			out := make([]perfumeOutput, len(perfumes))
			for i, p := range perfumes {
				out[i] = perfumeOutput{
					ID:           p.ID,
					Name:         p.Name,
					Price:        p.Price.StringFixed(2),
					Volume:       p.Volume,
					IsNew:        p.IsNew,
					IsBestseller: p.IsBestseller,
					TopNotes:     p.Notes.Top,
				}
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), out)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPRICE\tVOLUME\tFLAGS")
			for _, p := range out {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Price, p.Volume, flags(p))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&url, "url", catalogapi.DefaultURL, "Catalog API endpoint")
	cmd.Flags().StringVarP(&filter, "filter", "f", string(catalog.FilterAll), "Filter: all, new or bestsellers")
	cmd.Flags().DurationVar(&timeout, "timeout", catalog.DefaultFetchTimeout, "Catalog fetch timeout")

	return cmd
}

func flags(p perfumeOutput) string {
	switch {
	case p.IsNew && p.IsBestseller:
		return "new,bestseller"
	case p.IsNew:
		return "new"
	case p.IsBestseller:
		return "bestseller"
	default:
		return "-"
	}
}
