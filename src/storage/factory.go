package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"holiday-pipeline/src/interfaces"
	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/models"
)

// NewStorage opens the configured backend rooted at dir. For minio, dir
// becomes the object prefix.
func NewStorage(ctx context.Context, cfg models.MStorageConfig, dir string) (interfaces.IStorage, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStorage(dir)
	case "memory":
		return NewMemoryStorage(), nil
	case "minio":
		return NewMinioStorage(ctx, cfg.Minio, path.Clean(filepath.ToSlash(dir)))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// -----------------------------------------------------------------------------

// NewMigrationTarget builds the configured target. Initialize is left to the caller.
func NewMigrationTarget(cfg *models.MConfig, log *logger.Logger) (interfaces.IMigrationTarget, error) {
	switch cfg.Migration.DBType {
	case "postgres":
		return NewPostgresTarget(cfg, log)
	case "", "sqlite":
		return NewSQLiteTarget(cfg, log)
	default:
		return nil, fmt.Errorf("unknown database type %q", cfg.Migration.DBType)
	}
}
