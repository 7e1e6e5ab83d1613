package cli

import (
	"github.com/spf13/cobra"

	"github.com/avencourt/listflow/internal/ui"
	"github.com/avencourt/listflow/pkg/api"
)

func newBrowseCmd() *cobra.Command {
	var (
		scope    string
		category string
		keyword  string
		sortBy   string
		priceMin string
		priceMax string
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse a list interactively; cached state shows instantly",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			defer app.Close()
			if scope == "" {
				scope = app.V.GetString("scope")
			}

			fs := api.FilterSet{}
			set := func(k, v string) {
				if v != "" {
					fs[k] = v
				}
			}
			set(api.FilterCategory, category)
			set(api.FilterKeyword, keyword)
			set(api.FilterSort, sortBy)
			set(api.FilterPriceMin, priceMin)
			set(api.FilterPriceMax, priceMax)

			ctrl := app.Controller(scope)
			return ui.Browse(cmd.Context(), ctrl, fs)
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "snapshot scope (defaults to config)")
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().StringVar(&keyword, "keyword", "", "filter by keyword")
	cmd.Flags().StringVar(&sortBy, "sort", "", "server sort order")
	cmd.Flags().StringVar(&priceMin, "price-min", "", "minimum price")
	cmd.Flags().StringVar(&priceMax, "price-max", "", "maximum price")

	return cmd
}
