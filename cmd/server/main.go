package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gyaneshwarpardhi/combatlog/internal/api"
	"github.com/gyaneshwarpardhi/combatlog/internal/config"
	"github.com/gyaneshwarpardhi/combatlog/internal/engine"
	"github.com/gyaneshwarpardhi/combatlog/internal/inbox"
	"github.com/gyaneshwarpardhi/combatlog/internal/ingest"
	"github.com/gyaneshwarpardhi/combatlog/internal/stats"
	"github.com/gyaneshwarpardhi/combatlog/internal/store"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	cfgPath := flag.String("config", "", "Path to YAML config (defaults and env only if empty)")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// A missing .env is fine; anything else is worth knowing about.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env", "err", err)
	}

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}
	applyLogLevel(level, cfg.Log)
	listen := cfg.Server.Addr
	if *addr != "" {
		listen = *addr
	}

	// ── Event store ──────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to open event store", "driver", cfg.Storage.Driver, "err", err)
		os.Exit(1)
	}
	defer st.Close()
	slog.Info("event store ready", "driver", cfg.Storage.Driver)

	// ── Engine ────────────────────────────────────────────────────────────────
	eng := engine.New(ctx, ingest.New(st, st, logger), cfg.Engine, logger)
	agg := stats.New(st)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		applyLogLevel(level, newCfg.Log)
		slog.Info("config reloaded", "log_level", newCfg.Log.Level)
	})
	if *cfgPath != "" {
		stopWatch, err := loader.Watch()
		if err != nil {
			slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
		} else {
			defer stopWatch()
		}
	}

	// ── Inbox ─────────────────────────────────────────────────────────────────
	if cfg.Inbox.Dir != "" {
		w := inbox.New(cfg.Inbox, eng, logger)
		go func() {
			if err := w.Run(ctx); err != nil {
				slog.Error("inbox stopped", "err", err)
			}
		}()
		slog.Info("inbox watching", "dir", cfg.Inbox.Dir, "pattern", cfg.Inbox.Pattern)
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(eng, agg, st, loader, cfg.Server.MaxBodyBytes)
	srv := &http.Server{
		Addr:         listen,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(cfg.Engine.IngestTimeoutMs)*time.Millisecond + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	eng.Shutdown() // finish queued ingestions while the context is live
	cancel()       // stop inbox
	slog.Info("goodbye")
}

func applyLogLevel(level *slog.LevelVar, conf config.LogConf) {
	l, err := conf.SlogLevel()
	if err != nil {
		slog.Warn("unknown log level, keeping current", "level", conf.Level)
		return
	}
	level.Set(l)
}
