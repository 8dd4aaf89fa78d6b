package main

import (
	"errors"
	"fmt"

	pg "wcu-registry/internal/adapters/storage/postgres"
	"wcu-registry/internal/platform/logger"
	"wcu-registry/migrations"

	"github.com/spf13/cobra"
)

func migrateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones SQL pendientes a DB_DSN",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			defer logger.Sync(log)

			if cfg.DB.DSN == "" {
				return errors.New("DB_DSN is required")
			}
			db, err := pg.Open(cfg.DB.DSN)
			if err != nil {
				return fmt.Errorf("open postgres: %w", err)
			}
			defer db.Close()

			applied, err := pg.Migrate(cmd.Context(), db, migrations.FS)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			}
			for _, name := range applied {
				log.Info("migration applied", map[string]any{"name": name})
				fmt.Fprintln(cmd.OutOrStdout(), "applied", name)
			}
			return nil
		},
	}
}
