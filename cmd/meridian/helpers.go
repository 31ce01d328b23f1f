package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/meridian-crm/meridian/internal/config"
	"github.com/meridian-crm/meridian/internal/service"
	"github.com/meridian-crm/meridian/internal/storage"
)

// initStorage opens the configured database and brings its schema current.
func initStorage(ctx context.Context) (service.Storage, error) {
	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.config/meridian/meridian.db"
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}
