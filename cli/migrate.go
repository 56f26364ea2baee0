package cli

import (
	"github.com/junaidrashid-git/market-hub/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer database.Close(db)
		return database.Migrate(db)
	},
}
