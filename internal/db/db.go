package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pataalerta/config"
	"pataalerta/internal/model"
)

// Init opens the remote document store and runs migrations. Driver postgres
// is the production backend; sqlite serves local and development setups.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	log.Println("Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, err
	}

	if cfg.Driver == "postgres" {
		if err := applyPostgresDDL(db); err != nil {
			log.Printf("Warning: failed to apply some PostgreSQL DDL: %v. Continuing without them.", err)
		}
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate creates or updates every table the store uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Alert{},
		&model.Report{},
		&model.ConfigDocument{},
		&model.PushSubscription{},
		&model.SubscriptionNeighborhood{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

func applyPostgresDDL(db *gorm.DB) error {
	ddls := []string{
		// Feed pages only ever read active alerts, newest first.
		"CREATE INDEX IF NOT EXISTS idx_alerts_active_created ON alerts (created_at DESC, id DESC) WHERE status = 'active';",
		// The sweeper scans active alerts by expiry.
		"CREATE INDEX IF NOT EXISTS idx_alerts_active_expires ON alerts (expires_at) WHERE status = 'active';",
		"CREATE INDEX IF NOT EXISTS idx_reports_alert_created ON reports (alert_id, created_at DESC);",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
