package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/combatlog/internal/event"
)

// MemoryStore keeps every match in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	matches map[event.MatchID][]event.Event
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{matches: make(map[event.MatchID][]event.Event)}
}

func (s *MemoryStore) CreateMatch(ctx context.Context) (event.MatchID, error) {
	id := event.MatchID(uuid.New().String())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[id] = nil
	return id, nil
}

func (s *MemoryStore) MatchExists(ctx context.Context, id event.MatchID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.matches[id]
	return ok, nil
}

func (s *MemoryStore) DeleteMatch(ctx context.Context, id event.MatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[id]; !ok {
		return ErrMatchNotFound
	}
	delete(s.matches, id)
	return nil
}

func (s *MemoryStore) Append(ctx context.Context, ev event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, ok := s.matches[ev.MatchID]
	if !ok {
		return fmt.Errorf("append event: %w", ErrMatchNotFound)
	}
	s.matches[ev.MatchID] = append(events, ev)
	return nil
}

func (s *MemoryStore) FindByMatchAndKind(ctx context.Context, id event.MatchID, kind event.Kind) ([]event.Event, error) {
	return s.find(id, func(ev event.Event) bool { return ev.Kind() == kind }), nil
}

func (s *MemoryStore) FindByMatchActorAndKind(ctx context.Context, id event.MatchID, actor string, kind event.Kind) ([]event.Event, error) {
	return s.find(id, func(ev event.Event) bool { return ev.Kind() == kind && ev.Actor == actor }), nil
}

func (s *MemoryStore) find(id event.MatchID, keep func(event.Event) bool) []event.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []event.Event
	for _, ev := range s.matches[id] {
		if keep(ev) {
			out = append(out, ev)
		}
	}
	return out
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
