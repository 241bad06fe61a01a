package app

import (
	"fmt"
	"time"

	"quotedesk/pkg/storage"
	"quotedesk/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	Store       store.Store
	Objects     storage.ObjectStore
	PresignTTL  time.Duration
}

// App is the core application service wiring storage and domain rules.
// Authorization gates that only depend on the route (authenticated,
// distributorOrAdmin, adminOnly) live in the server; ownership checks that
// need the record live here.
type App struct {
	store      store.Store
	objects    storage.ObjectStore
	presignTTL time.Duration
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 15 * time.Minute
	}
	return &App{
		store:      dataStore,
		objects:    cfg.Objects,
		presignTTL: cfg.PresignTTL,
	}, nil
}

// Store exposes the record store for session wiring.
func (a *App) Store() store.Store {
	return a.store
}
