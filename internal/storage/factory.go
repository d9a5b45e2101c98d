package storage

import (
	"fmt"

	"github.com/mattwrdg/snoozydozy/internal"
	"github.com/mattwrdg/snoozydozy/internal/config"
)

// NewStore picks the backend configured via STORAGE_BACKEND.
func NewStore(cfg *config.Config, logger internal.Logger) (Store, error) {
	switch cfg.StorageBackend {
	case "file":
		return NewFileStorage(cfg.DataFile, cfg.DataDir+"/app_state.json", logger)
	case "sqlite":
		return NewSQLiteStorage(cfg.SQLitePath, logger)
	case "postgres":
		return NewPostgresStorage(cfg.PostgresDSN, logger)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.StorageBackend)
	}
}
