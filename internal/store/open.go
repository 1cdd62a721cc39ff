package store

import (
	"context"
	"fmt"

	"github.com/gyaneshwarpardhi/combatlog/internal/config"
)

// Open returns the backend selected by conf.
func Open(ctx context.Context, conf config.StorageConf) (Store, error) {
	switch conf.Driver {
	case config.DriverMemory, "":
		return NewMemoryStore(), nil
	case config.DriverSQLite:
		return NewSQLiteStore(conf.DSN)
	case config.DriverPostgres:
		return NewPostgresStore(ctx, conf.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", conf.Driver)
	}
}
