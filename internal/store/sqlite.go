package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gyaneshwarpardhi/combatlog/internal/event"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS matches (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	match_id      TEXT NOT NULL,
	kind          TEXT NOT NULL,
	timestamp_ms  INTEGER NOT NULL,
	actor         TEXT NOT NULL,
	target        TEXT,
	ability       TEXT,
	ability_level INTEGER,
	item          TEXT,
	damage        INTEGER
);
CREATE INDEX IF NOT EXISTS idx_events_match_kind ON events(match_id, kind);
CREATE INDEX IF NOT EXISTS idx_events_match_actor_kind ON events(match_id, actor, kind);
`

const eventColumns = "match_id, kind, timestamp_ms, actor, target, ability, ability_level, item, damage"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) a SQLite database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateMatch(ctx context.Context) (event.MatchID, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO matches (id, created_at) VALUES (?, ?)", id, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("insert match: %w", err)
	}
	return event.MatchID(id), nil
}

func (s *SQLiteStore) MatchExists(ctx context.Context, id event.MatchID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM matches WHERE id = ?)", string(id)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query match: %w", err)
	}
	return exists, nil
}

func (s *SQLiteStore) DeleteMatch(ctx context.Context, id event.MatchID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM events WHERE match_id = ?", string(id)); err != nil {
		return fmt.Errorf("delete events: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM matches WHERE id = ?", string(id))
	if err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMatchNotFound
	}
	return tx.Commit()
}

func (s *SQLiteStore) Append(ctx context.Context, ev event.Event) error {
	r, err := toRow(ev)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO events ("+eventColumns+") "+
			"SELECT ?, ?, ?, ?, ?, ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM matches WHERE id = ?)",
		r.MatchID, r.Kind, r.Timestamp, r.Actor, r.Target, r.Ability, r.AbilityLevel, r.Item, r.Damage, r.MatchID,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("append event: %w", ErrMatchNotFound)
	}
	return nil
}

func (s *SQLiteStore) FindByMatchAndKind(ctx context.Context, id event.MatchID, kind event.Kind) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE match_id = ? AND kind = ? ORDER BY seq",
		string(id), string(kind))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	return scanSQLRows(rows)
}

func (s *SQLiteStore) FindByMatchActorAndKind(ctx context.Context, id event.MatchID, actor string, kind event.Kind) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE match_id = ? AND actor = ? AND kind = ? ORDER BY seq",
		string(id), actor, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	return scanSQLRows(rows)
}

func scanSQLRows(rows *sql.Rows) ([]event.Event, error) {
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

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
