package commands

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/facr-ledger/internal/app"
	"github.com/riskibarqy/facr-ledger/internal/platform/migration"
)

func newMigrateCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}
			if err := migration.Up(cfg.DBDriver, app.MigrationDSN(cfg)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (driver=%s)\n", cfg.DBDriver)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version.",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			cfg, err := root.config()
			if err != nil {
				return err
			}
			m, err := migration.Open(cfg.DBDriver, app.MigrationDSN(cfg))
			if err != nil {
				return err
			}
			defer func() {
				srcErr, dbErr := m.Close()
				if err == nil {
					err = errors.Join(srcErr, dbErr)
				}
			}()

			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Fprintln(cmd.OutOrStdout(), "version: none")
				return nil
			}
			if err != nil {
				return fmt.Errorf("read version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version: %d\ndirty: %t\n", version, dirty)
			return nil
		},
	})

	return cmd
}
