package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avencourt/listflow/internal/revalidate"
	"github.com/avencourt/listflow/pkg/api"
)

func newRefreshCmd() *cobra.Command {
	var (
		scope    string
		category string
		keyword  string
	)

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Revalidate one filter set and overwrite its snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			defer app.Close()
			if scope == "" {
				scope = app.V.GetString("scope")
			}

			fs := api.FilterSet{}
			if category != "" {
				fs[api.FilterCategory] = category
			}
			if keyword != "" {
				fs[api.FilterKeyword] = keyword
			}

			ctrl := app.Controller(scope)
			settled := make(chan struct{}, 1)
			ctrl.Subscribe(func() {
				switch ctrl.View().Status {
				case revalidate.StatusSettled, revalidate.StatusError:
					select {
					case settled <- struct{}{}:
					default:
					}
				}
			})
			ctrl.Use(cmd.Context(), fs)

			select {
			case <-settled:
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}

			v := ctrl.View()
			if v.Status == revalidate.StatusError {
				return fmt.Errorf("refresh %q: %s", fs.Canonical(), v.Notice)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "refreshed %d items for %q\n", v.Total, fs.Canonical())
			return nil
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "snapshot scope (defaults to config)")
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().StringVar(&keyword, "keyword", "", "filter by keyword")
	return cmd
}
