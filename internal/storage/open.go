package storage

import (
	"context"
	"fmt"

	"docvault/internal/config"
)

// Open builds the store selected by cfg.Storage.Driver. Remote stores are
// bounded by the configured storage timeout.
func Open(ctx context.Context, cfg *config.AppConfig) (Storage, error) {
	var (
		s   Storage
		err error
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverMinIO:
		s, err = NewMinIO(ctx, cfg.MinIO)
	case config.StorageDriverAzure:
		s, err = NewAzure(ctx, cfg.Azure)
	case config.StorageDriverLocal:
		s, err = NewLocal(cfg.Local)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, err
	}
	if d := cfg.Storage.TimeoutDuration(); d > 0 {
		s = WithTimeout(s, d)
	}
	return s, nil
}
