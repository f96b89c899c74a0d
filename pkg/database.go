package pkg

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lestari-hub/forestry-service/internal/config"
	"github.com/lestari-hub/forestry-service/internal/models"
)

// InitDatabase opens the Postgres connection, tunes the pool and runs the
// schema migration.
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.Environment == "development" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Grant{},
		&models.CarbonProject{},
		&models.CarbonEstimate{},
		&models.VerificationSchedule{},
		&models.KMLFile{},
		&models.OrganizationalProfile{},
		&models.LandTenure{},
		&models.ForestStatusRecord{},
		&models.DeforestationDriver{},
		&models.ProjectModel{},
		&models.TimelineMilestone{},
		&models.Organization{},
		&models.ProjectOrganization{},
		&models.Ledger{},
		&models.BudgetLine{},
		&models.Transaction{},
	)
}
