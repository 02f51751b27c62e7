package database

import (
	"fmt"
	"time"

	"barstock-backend/internal/config"
	"barstock-backend/internal/logger"
	"barstock-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to postgres and brings the schema up to date.
func Open(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.LogDevelopment {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Infow("database connected, migration complete")
	return db, nil
}

// Models lists every table in migration order.
func Models() []any {
	return []any{
		&models.Profile{},
		&models.InventoryItem{},
		&models.StockItem{},
		&models.StockSheet{},
		&models.StockMovement{},
		&models.SalesRecord{},
		&models.ExpenseRecord{},
		&models.AuditLog{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
