package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avencourt/listflow/pkg/api"
)

func newWarmCmd() *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "warm [category ...]",
		Short: "Prime the snapshot cache for the given categories",
		Long: "Fetches page one for each category (plus the unfiltered view) and\n" +
			"stores the results, so the next browse of each view starts warm.\n" +
			"Ctrl-C stops the run; completed fetches are kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			defer app.Close()
			if scope == "" {
				scope = app.V.GetString("scope")
			}

			sets := []api.FilterSet{{}}
			for _, c := range args {
				sets = append(sets, api.FilterSet{api.FilterCategory: c})
			}

			s, err := app.Warmer(scope).Run(cmd.Context(), sets)
			fmt.Fprintf(cmd.OutOrStdout(), "warmed %d, skipped %d fresh, %d failed\n",
				s.Warmed, s.Skipped, s.Failed)
			return err
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "snapshot scope (defaults to config)")
	return cmd
}
