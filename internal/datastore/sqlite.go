package datastore

import (
	"fmt"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements the metadata store over a local SQLite file.
type SQLiteStore struct {
	DataStore
	Path string
}

// NewSQLite creates a store backed by the SQLite database at path. The
// database file is created on first Open.
func NewSQLite(path string) *SQLiteStore {
	return &SQLiteStore{Path: path}
}

// Open sets up the SQLite database connection and migrates the schema.
func (store *SQLiteStore) Open() error {
	if store.Path == "" {
		return fmt.Errorf("sqlite database path is not set")
	}

	dir := filepath.Dir(store.Path)
	if dir != "." {
		ensureDir(dir)
	}

	db, err := gorm.Open(sqlite.Open(store.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store.DB = db
	return performAutoMigration(db)
}

// Close releases the underlying database handle.
func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
