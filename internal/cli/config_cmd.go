package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avencourt/listflow/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Print a default config.toml with comments",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), config.RenderDefaultTOML())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the standard config file location",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.DefaultConfigPath())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings after defaults, file, and env",
		Run: func(cmd *cobra.Command, args []string) {
			app := getApp(cmd)
			for _, o := range config.GetConfigOptions() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", o.Key, app.V.Get(o.Key))
			}
		},
	})

	return cmd
}
