// Package db caches the remote catalogue in a local SQLite database so listing and searching
// work offline.
package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// Db is the connection opened by InitDB.
	Db *gorm.DB
	// Path is the SQLite file. Callers set it from the configuration before InitDB.
	Path = filepath.Join(os.Getenv("HOME"), ".smoke", "games.db")
)

// InitDB opens the database at Path, creating its directory and tables as needed.
func InitDB() error {
	if err := createDBDirectory(); err != nil {
		return err
	}

	if err := openDatabase(); err != nil {
		return err
	}

	if err := migrateTables(); err != nil {
		return err
	}

	configureLogger()

	log.Debug().Str("path", Path).Msg("Database initialized successfully")
	return nil
}

// GetDB returns the connection opened by InitDB, or nil.
func GetDB() *gorm.DB {
	return Db
}

func createDBDirectory() error {
	if err := os.MkdirAll(filepath.Dir(Path), 0o750); err != nil {
		log.Error().Err(err).Msg("Failed to create database directory")
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

func openDatabase() error {
	var err error
	Db, err = gorm.Open(sqlite.Open(Path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		return fmt.Errorf("failed to open database %s: %w", Path, err)
	}
	return nil
}

func migrateTables() error {
	if err := Db.AutoMigrate(&Game{}); err != nil {
		log.Error().Err(err).Msg("Failed to auto-migrate database")
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// configureLogger keeps gorm quiet unless debug logging is on.
func configureLogger() {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		Db.Logger = Db.Logger.LogMode(logger.Info)
	} else {
		Db.Logger = Db.Logger.LogMode(logger.Silent)
	}
}

// CloseDB closes the connection opened by InitDB. It is a no-op when none is open.
func CloseDB() error {
	if Db == nil {
		return nil
	}
	sqlDB, err := Db.DB()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get raw database connection")
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return err
	}
	Db = nil
	return nil
}
