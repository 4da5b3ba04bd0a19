package postgresql

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects gorm to PostgreSQL. Duplicate key violations are reported
// as gorm.ErrDuplicatedKey.
func Open(dsn string, level logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	return db, nil
}

// LogLevel picks the gorm log level for the application environment.
func LogLevel(env string) logger.LogLevel {
	switch env {
	case "test":
		return logger.Silent
	case "prod":
		return logger.Warn
	default:
		return logger.Info
	}
}
