package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyaneshwarpardhi/combatlog/internal/event"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS matches (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS events (
	seq           BIGSERIAL PRIMARY KEY,
	match_id      TEXT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
	kind          TEXT NOT NULL,
	timestamp_ms  BIGINT NOT NULL,
	actor         TEXT NOT NULL,
	target        TEXT,
	ability       TEXT,
	ability_level BIGINT,
	item          TEXT,
	damage        BIGINT
);
CREATE INDEX IF NOT EXISTS idx_events_match_kind ON events(match_id, kind);
CREATE INDEX IF NOT EXISTS idx_events_match_actor_kind ON events(match_id, actor, kind);
`

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn, checks the connection and creates the
// schema if it does not exist.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) CreateMatch(ctx context.Context) (event.MatchID, error) {
	id := uuid.New().String()
	if _, err := s.pool.Exec(ctx, `INSERT INTO matches (id) VALUES ($1)`, id); err != nil {
		return "", fmt.Errorf("insert match: %w", err)
	}
	return event.MatchID(id), nil
}

func (s *PostgresStore) MatchExists(ctx context.Context, id event.MatchID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM matches WHERE id = $1)`, string(id)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query match: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) DeleteMatch(ctx context.Context, id event.MatchID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM matches WHERE id = $1`, string(id))
	if err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMatchNotFound
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, ev event.Event) error {
	r, err := toRow(ev)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO events (`+eventColumns+`)
		SELECT $1::text, $2::text, $3::bigint, $4::text, $5::text, $6::text, $7::bigint, $8::text, $9::bigint
		WHERE EXISTS (SELECT 1 FROM matches WHERE id = $1::text)
	`, r.MatchID, r.Kind, r.Timestamp, r.Actor, r.Target, r.Ability, r.AbilityLevel, r.Item, r.Damage)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("append event: %w", ErrMatchNotFound)
	}
	return nil
}

func (s *PostgresStore) FindByMatchAndKind(ctx context.Context, id event.MatchID, kind event.Kind) ([]event.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE match_id = $1 AND kind = $2 ORDER BY seq`,
		string(id), string(kind))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return scanPgRows(rows)
}

func (s *PostgresStore) FindByMatchActorAndKind(ctx context.Context, id event.MatchID, actor string, kind event.Kind) ([]event.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE match_id = $1 AND actor = $2 AND kind = $3 ORDER BY seq`,
		string(id), actor, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return scanPgRows(rows)
}

func scanPgRows(rows pgx.Rows) ([]event.Event, error) {
	defer rows.Close()
	var events []event.Event
	for rows.Next() {
		var r eventRow
		if err := rows.Scan(&r.MatchID, &r.Kind, &r.Timestamp, &r.Actor,
			&r.Target, &r.Ability, &r.AbilityLevel, &r.Item, &r.Damage); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev, err := r.toEvent()
		if err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return events, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
