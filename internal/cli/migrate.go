package cli

import (
	"fmt"

	"github.com/admissions-dev/admissions/db"
	"github.com/admissions-dev/admissions/internal/config"
	"github.com/admissions-dev/admissions/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return err
			}

			log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			conn, err := db.ConnectDatabase(cfg.Database.GetDSN(), databaseOptions(cfg.Database))
			if err != nil {
				return err
			}
			defer db.Close(conn)

			if err := db.MigrateDatabase(conn); err != nil {
				return err
			}

			log.Info("migrations applied", zap.String("database", cfg.Database.Name))
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	}
}

func databaseOptions(cfg config.DatabaseConfig) db.Options {
	return db.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
}
