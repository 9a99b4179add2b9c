package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kubotadaichi/HealthManagement/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the result tables and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := database.Open(cfg.Database, log)
		if err != nil {
			log.Error("Failed to connect to database", zap.Error(err))
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		if err := database.Migrate(db, log); err != nil {
			log.Error("Failed to migrate database", zap.Error(err))
			return err
		}
		log.Info("Migration complete", zap.String("dialect", db.Dialector.Name()))
		return nil
	},
}
