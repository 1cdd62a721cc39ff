package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gyaneshwarpardhi/combatlog/internal/event"
	"github.com/gyaneshwarpardhi/combatlog/internal/metrics"
	"github.com/gyaneshwarpardhi/combatlog/internal/parser"
	"github.com/gyaneshwarpardhi/combatlog/internal/store"
)

// Ingestor turns a raw combat log into a persisted match.
type Ingestor struct {
	matches store.MatchStore
	sink    store.EventSink
	logger  *slog.Logger
}

// New creates an Ingestor writing through the given collaborators.
func New(matches store.MatchStore, sink store.EventSink, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{matches: matches, sink: sink, logger: logger}
}

// Ingest parses raw, creates a match and appends every recognised event in
// line order. The whole log is parsed before anything is written, so a
// malformed timestamp leaves no match behind. If the store fails part way,
// the match is deleted before the error is returned.
func (in *Ingestor) Ingest(ctx context.Context, raw string) (event.MatchID, error) {
	start := time.Now()

	res, err := parser.ParseLog(raw)
	if err != nil {
		metrics.IngestFailures.WithLabelValues("parse").Inc()
		return "", fmt.Errorf("parse combat log: %w", err)
	}
	metrics.LinesRead.Add(float64(res.Lines))
	metrics.LinesSkipped.Add(float64(res.Skipped))

	id, err := in.matches.CreateMatch(ctx)
	if err != nil {
		metrics.IngestFailures.WithLabelValues("store").Inc()
		return "", fmt.Errorf("create match: %w", err)
	}

	for i := range res.Events {
		ev := res.Events[i]
		ev.MatchID = id
		if err := in.sink.Append(ctx, ev); err != nil {
			metrics.IngestFailures.WithLabelValues("store").Inc()
			in.discard(id)
			return "", fmt.Errorf("append event %d of match %s: %w", i, id, err)
		}
		metrics.EventsParsed.WithLabelValues(string(ev.Kind())).Inc()
	}

	elapsed := time.Since(start)
	metrics.MatchesIngested.Inc()
	metrics.IngestDuration.Observe(float64(elapsed.Milliseconds()))
	in.logger.Info("match ingested",
		"match_id", id,
		"lines", res.Lines,
		"events", len(res.Events),
		"skipped", res.Skipped,
		"duration", elapsed)
	return id, nil
}

// discard removes a partially written match. It runs detached from the
// request context, which may already be cancelled.
func (in *Ingestor) discard(id event.MatchID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := in.matches.DeleteMatch(ctx, id); err != nil && !errors.Is(err, store.ErrMatchNotFound) {
		in.logger.Warn("failed to discard partial match", "match_id", id, "err", err)
	}
}
