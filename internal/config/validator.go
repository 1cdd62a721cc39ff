package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Validate checks the config for:
//   - A known storage driver, and a DSN where the driver needs one
//   - Positive engine sizes
//   - A parseable log level and inbox pattern
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	if cfg.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if cfg.Server.MaxBodyBytes < 0 {
		errs = append(errs, fmt.Sprintf("server.max_body_bytes must be positive, got %d", cfg.Server.MaxBodyBytes))
	}

	switch cfg.Storage.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if cfg.Storage.DSN == "" {
			errs = append(errs, fmt.Sprintf("storage.dsn is required for driver %q", cfg.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.driver %q is not one of %s, %s, %s",
			cfg.Storage.Driver, DriverMemory, DriverSQLite, DriverPostgres))
	}

	if cfg.Engine.IngestWorkers < 1 {
		errs = append(errs, fmt.Sprintf("engine.ingest_workers must be at least 1, got %d", cfg.Engine.IngestWorkers))
	}
	if cfg.Engine.QueueDepth < 1 {
		errs = append(errs, fmt.Sprintf("engine.queue_depth must be at least 1, got %d", cfg.Engine.QueueDepth))
	}
	if cfg.Engine.IngestTimeoutMs < 1 {
		errs = append(errs, fmt.Sprintf("engine.ingest_timeout_ms must be at least 1, got %d", cfg.Engine.IngestTimeoutMs))
	}

	if _, err := filepath.Match(cfg.Inbox.Pattern, "x"); err != nil {
		errs = append(errs, fmt.Sprintf("inbox.pattern %q: %s", cfg.Inbox.Pattern, err))
	}
	if _, err := cfg.Log.SlogLevel(); err != nil {
		errs = append(errs, fmt.Sprintf("log.level %q: %s", cfg.Log.Level, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
