package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/combatlog/internal/config"
	"github.com/gyaneshwarpardhi/combatlog/internal/engine"
	"github.com/gyaneshwarpardhi/combatlog/internal/event"
	"github.com/gyaneshwarpardhi/combatlog/internal/parser"
	"github.com/gyaneshwarpardhi/combatlog/internal/stats"
)

// Ingester schedules a combat log for ingestion.
type Ingester interface {
	IngestSync(ctx context.Context, raw string) (event.MatchID, error)
	QueueUtilization() float64
}

// Queries answers the per-match summaries.
type Queries interface {
	HeroKills(ctx context.Context, match event.MatchID) ([]stats.HeroKills, error)
	HeroItems(ctx context.Context, match event.MatchID, hero string) ([]stats.HeroItem, error)
	HeroSpells(ctx context.Context, match event.MatchID, hero string) ([]stats.HeroSpells, error)
	HeroDamage(ctx context.Context, match event.MatchID, hero string) ([]stats.HeroDamage, error)
}

// MatchLookup reports whether a match exists.
type MatchLookup interface {
	MatchExists(ctx context.Context, id event.MatchID) (bool, error)
}

// Reloader re-reads the configuration.
type Reloader interface {
	Reload() (*config.Config, error)
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	ingester     Ingester
	queries      Queries
	matches      MatchLookup
	reloader     Reloader
	maxBodyBytes int64
	mux          *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(ing Ingester, q Queries, m MatchLookup, r Reloader, maxBodyBytes int64) http.Handler {
	h := &Handler{
		ingester:     ing,
		queries:      q,
		matches:      m,
		reloader:     r,
		maxBodyBytes: maxBodyBytes,
		mux:          http.NewServeMux(),
	}

	h.mux.HandleFunc("POST /api/match", h.ingestMatch)
	h.mux.HandleFunc("GET /api/match/{matchId}", h.heroKills)
	h.mux.HandleFunc("GET /api/match/{matchId}/{heroName}/items", h.heroItems)
	h.mux.HandleFunc("GET /api/match/{matchId}/{heroName}/spells", h.heroSpells)
	h.mux.HandleFunc("GET /api/match/{matchId}/{heroName}/damage", h.heroDamage)
	h.mux.HandleFunc("POST /v1/config/reload", h.reloadConfig)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /api/match — ingest a plain-text combat log, respond with the match id.
func (h *Handler) ingestMatch(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("combat log exceeds %d bytes", tooBig.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read body: %s", err))
		return
	}

	id, err := h.ingester.IngestSync(r.Context(), string(data))
	if err != nil {
		writeError(w, ingestStatus(err), err.Error())
		return
	}
	writeText(w, http.StatusOK, string(id))
}

func ingestStatus(err error) int {
	switch {
	case errors.Is(err, parser.ErrMalformedTimestamp):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, engine.ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GET /api/match/{matchId}
func (h *Handler) heroKills(w http.ResponseWriter, r *http.Request) {
	id, ok := h.match(w, r)
	if !ok {
		return
	}
	res, err := h.queries.HeroKills(r.Context(), id)
	respond(w, res, err)
}

// GET /api/match/{matchId}/{heroName}/items
func (h *Handler) heroItems(w http.ResponseWriter, r *http.Request) {
	id, ok := h.match(w, r)
	if !ok {
		return
	}
	res, err := h.queries.HeroItems(r.Context(), id, r.PathValue("heroName"))
	respond(w, res, err)
}

// GET /api/match/{matchId}/{heroName}/spells
func (h *Handler) heroSpells(w http.ResponseWriter, r *http.Request) {
	id, ok := h.match(w, r)
	if !ok {
		return
	}
	res, err := h.queries.HeroSpells(r.Context(), id, r.PathValue("heroName"))
	respond(w, res, err)
}

// GET /api/match/{matchId}/{heroName}/damage
func (h *Handler) heroDamage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.match(w, r)
	if !ok {
		return
	}
	res, err := h.queries.HeroDamage(r.Context(), id, r.PathValue("heroName"))
	respond(w, res, err)
}

// match resolves the path's match id and writes a 404 when it is unknown.
func (h *Handler) match(w http.ResponseWriter, r *http.Request) (event.MatchID, bool) {
	id := event.MatchID(r.PathValue("matchId"))
	exists, err := h.matches.MatchExists(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return "", false
	}
	if !exists {
		writeError(w, http.StatusNotFound, fmt.Sprintf("match %s not found", id))
		return "", false
	}
	return id, true
}

func respond(w http.ResponseWriter, v interface{}, err error) {
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// POST /v1/config/reload — re-read the config file.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	if h.reloader == nil {
		writeError(w, http.StatusNotImplemented, "config reload not available")
		return
	}
	cfg, err := h.reloader.Reload()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":  true,
		"log_level": cfg.Log.Level,
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the ingest queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.ingester.QueueUtilization()
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}
