package store

import (
	"context"
	"errors"

	"github.com/gyaneshwarpardhi/combatlog/internal/event"
)

// ErrMatchNotFound is returned when an operation names a match the store
// does not know about.
var ErrMatchNotFound = errors.New("match not found")

// MatchStore creates and tracks match identities.
type MatchStore interface {
	CreateMatch(ctx context.Context) (event.MatchID, error)
	MatchExists(ctx context.Context, id event.MatchID) (bool, error)
	// DeleteMatch removes a match and all of its events.
	DeleteMatch(ctx context.Context, id event.MatchID) error
}

// EventSink persists classified events.
type EventSink interface {
	Append(ctx context.Context, ev event.Event) error
}

// EventSource reads events back. Results are in append order.
type EventSource interface {
	FindByMatchAndKind(ctx context.Context, id event.MatchID, kind event.Kind) ([]event.Event, error)
	FindByMatchActorAndKind(ctx context.Context, id event.MatchID, actor string, kind event.Kind) ([]event.Event, error)
}

// Store is a complete storage backend.
type Store interface {
	MatchStore
	EventSink
	EventSource
	Close() error
}
