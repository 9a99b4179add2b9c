package database

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kubotadaichi/HealthManagement/internal/config"
	logger "github.com/kubotadaichi/HealthManagement/internal/logging"
	"github.com/kubotadaichi/HealthManagement/internal/models"
)

// Open connects to the database named by cfg.URL. URLs starting with
// "sqlite:" use the embedded sqlite driver, anything else is handed to the
// postgres driver.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg.URL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormZapLogger(log, cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s database: %w", dialector.Name(), err)
	}

	log.Info("Database connection established successfully.", zap.String("driver", dialector.Name()))
	return db, nil
}

// Dialector picks the gorm driver for url.
func Dialector(url string) (gorm.Dialector, error) {
	switch {
	case url == "":
		return nil, fmt.Errorf("empty database url")
	case strings.HasPrefix(url, "sqlite:///"):
		return sqlite.Open(strings.TrimPrefix(url, "sqlite:///")), nil
	case strings.HasPrefix(url, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(url, "sqlite://")), nil
	case strings.HasPrefix(url, "sqlite:"):
		return sqlite.Open(strings.TrimPrefix(url, "sqlite:")), nil
	default:
		return postgres.Open(url), nil
	}
}

// Migrate creates or updates the result tables and their listing indexes.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	// GORM's AutoMigrate will create tables and columns.
	// It will NOT create the descending listing indexes, so we handle that separately.
	err := db.AutoMigrate(
		&models.PVTResult{},
		&models.FlankerResult{},
		&models.EFSIResult{},
		&models.VASResult{},
	)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("Database migrations completed successfully.")

	for _, table := range []string{"pvt_results", "flanker_results", "efsi_results", "vas_results"} {
		index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_recent ON %s (completed_at DESC, id DESC);`, table, table)
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("creating listing index on %s: %w", table, err)
		}
	}
	log.Info("Custom indexes ensured successfully.")
	return nil
}
