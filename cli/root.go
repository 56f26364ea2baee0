package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "markethub",
	Short:         "Market Hub multi-vendor e-commerce backend",
	Long:          "Market Hub serves the catalog, cart, checkout and admin REST API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd)
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}
