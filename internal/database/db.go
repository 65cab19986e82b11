package database

import (
	"log/slog"

	"absensi/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.Account{},
		&model.Session{},
		&model.Profile{},
		&model.Attendance{},
		&model.AuditLog{},
	)
	if err != nil {
		slog.Warn("failed to auto-migrate models", "error", err)
	}

	return db, nil
}
