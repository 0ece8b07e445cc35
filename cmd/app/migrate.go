package main

import (
	"fmt"

	"github.com/spf13/cobra"

	pg "ai-coach-chat/internal/infra/db/postgres"
)

func newMigrateCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long:  "Creates the chat tables and indexes. Safe to run repeatedly.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := f.load()
			if err != nil {
				return err
			}
			ctx := cmdContext(cmd)
			pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 2)
			if err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			defer pool.Close()
			if err := pg.Migrate(ctx, pool); err != nil {
				return err
			}
			log.Info().Msg("schema applied")
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}
