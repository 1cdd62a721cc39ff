package config

import "log/slog"

// Config is the top-level YAML structure.
type Config struct {
	Version string      `yaml:"version"`
	Server  ServerConf  `yaml:"server"`
	Storage StorageConf `yaml:"storage"`
	Engine  EngineConf  `yaml:"engine"`
	Inbox   InboxConf   `yaml:"inbox"`
	Log     LogConf     `yaml:"log"`
}

// ServerConf configures the HTTP listener.
type ServerConf struct {
	Addr         string `yaml:"addr"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StorageConf selects the event store backend.
type StorageConf struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"` // file path for sqlite, connection URL for postgres
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	IngestWorkers   int `yaml:"ingest_workers"`
	QueueDepth      int `yaml:"queue_depth"`
	IngestTimeoutMs int `yaml:"ingest_timeout_ms"`
}

// InboxConf configures the drop directory. An empty Dir disables it.
type InboxConf struct {
	Dir     string `yaml:"dir"`
	Pattern string `yaml:"pattern"`
}

// LogConf is the only section applied live on reload.
type LogConf struct {
	Level string `yaml:"level"`
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (c LogConf) SlogLevel() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.Level))
	return l, err
}
