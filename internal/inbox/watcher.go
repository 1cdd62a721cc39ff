package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gyaneshwarpardhi/combatlog/internal/config"
	"github.com/gyaneshwarpardhi/combatlog/internal/engine"
)

// Suffixes appended to a file once its ingestion has finished.
const (
	DoneSuffix   = ".done"
	FailedSuffix = ".failed"
)

const rescanInterval = 5 * time.Second

// Submitter schedules one ingestion.
type Submitter interface {
	IngestAsync(source, raw string, done func(engine.Result)) bool
}

// Watcher ingests every combat log file that appears in a directory.
// Files must be complete when they appear (write elsewhere, then move in).
// Each file becomes its own match; afterwards it is renamed with DoneSuffix
// or FailedSuffix, and names carrying either suffix are never picked up,
// whatever the pattern.
type Watcher struct {
	dir     string
	pattern string
	sub     Submitter
	logger  *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// New creates a Watcher for conf.Dir.
func New(conf config.InboxConf, sub Submitter, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		dir:      conf.Dir,
		pattern:  conf.Pattern,
		sub:      sub,
		logger:   logger.With("inbox", conf.Dir),
		inFlight: make(map[string]struct{}),
	}
}

// Run scans the directory, then watches it until ctx is cancelled.
// Files the engine could not accept are retried on the next rescan.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("inbox watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("inbox watcher add %s: %w", w.dir, err)
	}

	w.Scan()
	ticker := time.NewTicker(rescanInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				w.consider(ev.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("inbox watcher error", "err", err)
		case <-ticker.C:
			w.Scan()
		case <-ctx.Done():
			return nil
		}
	}
}

// Scan submits every matching file currently in the directory.
func (w *Watcher) Scan() {
	matches, err := filepath.Glob(filepath.Join(w.dir, w.pattern))
	if err != nil {
		w.logger.Warn("inbox scan failed", "err", err)
		return
	}
	for _, path := range matches {
		w.consider(path)
	}
}

func (w *Watcher) consider(path string) {
	name := filepath.Base(path)
	if strings.HasSuffix(name, DoneSuffix) || strings.HasSuffix(name, FailedSuffix) {
		return
	}
	if ok, _ := filepath.Match(w.pattern, name); !ok {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}

	w.mu.Lock()
	if _, busy := w.inFlight[path]; busy {
		w.mu.Unlock()
		return
	}
	w.inFlight[path] = struct{}{}
	w.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("failed to read combat log", "path", path, "err", err)
		w.release(path)
		return
	}
	if !w.sub.IngestAsync(path, string(data), w.finish) {
		w.logger.Warn("ingest queue full, will retry", "path", path)
		w.release(path)
	}
}

func (w *Watcher) finish(res engine.Result) {
	defer w.release(res.Source)
	suffix := DoneSuffix
	if res.Err != nil {
		suffix = FailedSuffix
		w.logger.Error("combat log rejected", "path", res.Source, "err", res.Err)
	} else {
		w.logger.Info("combat log ingested", "path", res.Source, "match_id", res.MatchID)
	}
	if err := os.Rename(res.Source, res.Source+suffix); err != nil {
		w.logger.Warn("failed to mark combat log", "path", res.Source, "err", err)
	}
}

func (w *Watcher) release(path string) {
	w.mu.Lock()
	delete(w.inFlight, path)
	w.mu.Unlock()
}
