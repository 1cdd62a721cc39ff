package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gyaneshwarpardhi/combatlog/internal/config"
	"github.com/gyaneshwarpardhi/combatlog/internal/event"
	"github.com/gyaneshwarpardhi/combatlog/internal/metrics"
)

var (
	// ErrQueueFull is returned when no ingestion slot is available.
	ErrQueueFull = errors.New("ingest queue full")
	// ErrTimeout is returned when an ingestion did not finish in time.
	ErrTimeout = errors.New("ingest timed out")
)

// Ingester is the core ingestion operation the engine schedules.
type Ingester interface {
	Ingest(ctx context.Context, raw string) (event.MatchID, error)
}

// Result is the outcome of one scheduled ingestion.
type Result struct {
	Source   string
	MatchID  event.MatchID
	Err      error
	Duration time.Duration
}

type ingestWork struct {
	ctx     context.Context // nil means the engine context
	source  string
	raw     string
	resultC chan Result // buffered; may be nil
	done    func(Result)
}

// Engine runs ingestions of independent matches on a bounded worker pool.
// Each ingestion is itself sequential.
type Engine struct {
	ingester Ingester
	pool     *workerPool[*ingestWork]
	conf     config.EngineConf
	logger   *slog.Logger
}

// New creates an Engine using conf and starts the worker pool.
func New(ctx context.Context, ing Ingester, conf config.EngineConf, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{ingester: ing, conf: conf, logger: logger}
	e.pool = newWorkerPool[*ingestWork](ctx, conf.IngestWorkers, conf.QueueDepth, e.process)
	return e
}

// IngestSync schedules raw and waits for its match id. It fails fast with
// ErrQueueFull when the queue is full and gives up with ErrTimeout after the
// configured timeout; a timed-out ingestion is cancelled, not left running.
func (e *Engine) IngestSync(ctx context.Context, raw string) (event.MatchID, error) {
	timeout := time.Duration(e.conf.IngestTimeoutMs) * time.Millisecond
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	w := &ingestWork{ctx: ctx, source: "sync", raw: raw, resultC: make(chan Result, 1)}
	if !e.pool.Submit(w) {
		metrics.IngestRejected.Inc()
		return "", fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.conf.QueueDepth)
	}
	e.updateUtilization()

	select {
	case res := <-w.resultC:
		return res.MatchID, res.Err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %v", ErrTimeout, timeout)
		}
		return "", ctx.Err()
	}
}

// IngestAsync enqueues raw for background ingestion and calls done (if not
// nil) with the outcome. Returns false if the queue is full.
func (e *Engine) IngestAsync(source, raw string, done func(Result)) bool {
	w := &ingestWork{source: source, raw: raw, done: done}
	if !e.pool.Submit(w) {
		metrics.IngestRejected.Inc()
		return false
	}
	e.updateUtilization()
	return true
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

func (e *Engine) updateUtilization() {
	metrics.QueueUtilization.Set(e.QueueUtilization())
}

func (e *Engine) process(ctx context.Context, w *ingestWork) {
	defer e.updateUtilization()
	if w.ctx != nil {
		ctx = w.ctx
	}
	start := time.Now()
	var res Result
	if err := ctx.Err(); err != nil {
		res = Result{Source: w.source, Err: err}
	} else {
		id, err := e.ingester.Ingest(ctx, w.raw)
		res = Result{Source: w.source, MatchID: id, Err: err}
	}
	res.Duration = time.Since(start)

	if res.Err != nil {
		e.logger.Warn("ingestion failed", "source", w.source, "err", res.Err)
	} else {
		e.logger.Debug("ingestion finished", "source", w.source, "match_id", res.MatchID, "duration", res.Duration)
	}
	if w.resultC != nil {
		w.resultC <- res
	}
	if w.done != nil {
		w.done(res)
	}
}

// Shutdown stops accepting work and waits for queued ingestions to finish.
// Call it before cancelling the engine context: workers stop taking jobs
// once that context is done.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
