package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gyaneshwarpardhi/combatlog/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "combatlog.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoader_Defaults(t *testing.T) {
	l, err := config.NewLoader("")
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	cfg := l.Config()
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr: got %q", cfg.Server.Addr)
	}
	if cfg.Storage.Driver != config.DriverMemory {
		t.Errorf("driver: got %q", cfg.Storage.Driver)
	}
	if cfg.Engine.IngestWorkers != 4 || cfg.Engine.QueueDepth != 64 || cfg.Engine.IngestTimeoutMs != 30000 {
		t.Errorf("engine defaults: got %+v", cfg.Engine)
	}
	if err := config.Validate(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoader_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
version: v1
server:
  addr: ":9090"
storage:
  driver: sqlite
  dsn: /tmp/file.db
engine:
  ingest_workers: 2
log:
  level: debug
`)
	t.Setenv(config.EnvStorageDSN, "/var/lib/combatlog.db")

	l, err := config.NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	cfg := l.Config()
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr: got %q", cfg.Server.Addr)
	}
	if cfg.Storage.Driver != config.DriverSQLite || cfg.Storage.DSN != "/var/lib/combatlog.db" {
		t.Errorf("storage: got %+v", cfg.Storage)
	}
	if cfg.Engine.IngestWorkers != 2 || cfg.Engine.QueueDepth != 64 {
		t.Errorf("engine: got %+v", cfg.Engine)
	}
	lvl, err := cfg.Log.SlogLevel()
	if err != nil || lvl != slog.LevelDebug {
		t.Errorf("log level: got %v, %v", lvl, err)
	}
}

func TestLoader_BadEnvNumber(t *testing.T) {
	t.Setenv(config.EnvIngestWorkers, "many")
	if _, err := config.NewLoader(""); err == nil {
		t.Fatal("expected error for non-numeric worker count")
	}
}

func TestLoader_ReloadNotifies(t *testing.T) {
	path := writeConfig(t, "version: v1\nlog:\n  level: info\n")
	l, err := config.NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	var got string
	l.OnChange(func(c *config.Config) { got = c.Log.Level })

	if err := os.WriteFile(path, []byte("version: v1\nlog:\n  level: warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got != "warn" {
		t.Errorf("callback saw level %q, want warn", got)
	}
	if l.Config().Log.Level != "warn" {
		t.Errorf("current config not swapped")
	}
}

func TestLoader_ReloadRejectsInvalid(t *testing.T) {
	path := writeConfig(t, "version: v1\n")
	l, err := config.NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	if err := os.WriteFile(path, []byte("version: v1\nstorage:\n  driver: mongo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err == nil {
		t.Fatal("expected validation error")
	}
	if l.Config().Storage.Driver != config.DriverMemory {
		t.Errorf("invalid config must not replace the current one")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"ok", func(c *config.Config) {}, ""},
		{"unknown driver", func(c *config.Config) { c.Storage.Driver = "mongo" }, "storage.driver"},
		{"sqlite without dsn", func(c *config.Config) { c.Storage.Driver = config.DriverSQLite }, "storage.dsn"},
		{"zero workers", func(c *config.Config) { c.Engine.IngestWorkers = 0 }, "engine.ingest_workers"},
		{"bad level", func(c *config.Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad pattern", func(c *config.Config) { c.Inbox.Pattern = "[" }, "inbox.pattern"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l, err := config.NewLoader("")
			if err != nil {
				t.Fatal(err)
			}
			cfg := *l.Config()
			tc.mutate(&cfg)
			err = config.Validate(&cfg)
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}
