package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func dialector(databaseURL string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.Open(databaseURL), nil

	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		return sqlite.Open(path), nil

	case strings.HasPrefix(databaseURL, "file:"):
		return sqlite.Open(databaseURL), nil

	default:
		return nil, fmt.Errorf("unsupported database url '%s', expected postgres://, sqlite:// or file:", databaseURL)
	}
}

// NewDatabase opens the transcript database and brings its schema up to date.
func NewDatabase(databaseURL string) (*gorm.DB, error) {
	dial, err := dialector(databaseURL)
	if err != nil {
		return nil, err
	}

	log.Println("Connecting to database...")
	db, err := gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := GetMigrator(db).Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Println("Database connection established.")
	return db, nil
}
