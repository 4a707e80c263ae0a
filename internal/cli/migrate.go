package cli

import (
	"fmt"

	"noteguard-be/internal/config"
	"noteguard-be/internal/model"
	"noteguard-be/pkg/database"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.Config
			if cfg.Database.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate needs DB_DRIVER=postgres, got %q", cfg.Database.Driver)
			}
			if cfg.Database.Connection == "" {
				return fmt.Errorf("DB_CONNECTION_STRING is not set")
			}

			db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Running AutoMigrate...")
			models := model.All()
			if err := database.Migrate(db, models...); err != nil {
				return err
			}
			opts.Logger.Info("CLI", "Schema migrated", map[string]interface{}{"tables": len(models)})
			fmt.Fprintln(out, color.GreenString("✓")+fmt.Sprintf(" Migrated %d tables", len(models)))
			return nil
		},
	}
}
