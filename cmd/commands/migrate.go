package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oksasatya/go-identity-docstore/config"
	pginfra "github.com/oksasatya/go-identity-docstore/internal/infrastructure/postgres"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the postgres schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Backend != config.BackendPostgres {
				return fmt.Errorf("migrate needs the postgres backend, not %q", cfg.Backend)
			}
			return pginfra.RunMigrations(cfg.PostgresDSN(), logger)
		},
	}
}
