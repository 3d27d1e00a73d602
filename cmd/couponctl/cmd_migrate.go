package main

import (
	"couponly/internal/db"

	"github.com/spf13/cobra"
)

// migrateCmd applies pending schema migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCatalog()
		if err != nil {
			return err
		}
		defer c.close()

		ctx, cancel := commandContext(cmd)
		defer cancel()

		applied, err := db.Migrate(ctx, c.pool)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			logger.Info("schema is up to date")
			return nil
		}
		for _, name := range applied {
			logger.Infow("migration applied", "name", name)
		}
		return nil
	},
}
