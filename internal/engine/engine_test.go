package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/combatlog/internal/config"
	"github.com/gyaneshwarpardhi/combatlog/internal/engine"
	"github.com/gyaneshwarpardhi/combatlog/internal/event"
	"github.com/gyaneshwarpardhi/combatlog/internal/ingest"
	"github.com/gyaneshwarpardhi/combatlog/internal/parser"
	"github.com/gyaneshwarpardhi/combatlog/internal/store"
)

// gatedIngester blocks every ingestion until release is closed.
type gatedIngester struct {
	release chan struct{}
	started chan struct{}
}

func newGated() *gatedIngester {
	return &gatedIngester{release: make(chan struct{}), started: make(chan struct{}, 16)}
}

func (g *gatedIngester) Ingest(ctx context.Context, raw string) (event.MatchID, error) {
	g.started <- struct{}{}
	select {
	case <-g.release:
		return event.MatchID("m-" + raw), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func conf(workers, depth, timeoutMs int) config.EngineConf {
	return config.EngineConf{IngestWorkers: workers, QueueDepth: depth, IngestTimeoutMs: timeoutMs}
}

func TestIngestSync(t *testing.T) {
	s := store.NewMemoryStore()
	e := engine.New(context.Background(), ingest.New(s, s, nil), conf(2, 4, 5000), nil)
	defer e.Shutdown()

	id, err := e.IngestSync(context.Background(), "[00:00:01] npc_dota_hero_lina uses item_tango\n")
	require.NoError(t, err)
	ok, err := s.MatchExists(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIngestSync_ParseErrorIsReturned(t *testing.T) {
	s := store.NewMemoryStore()
	e := engine.New(context.Background(), ingest.New(s, s, nil), conf(1, 1, 5000), nil)
	defer e.Shutdown()

	_, err := e.IngestSync(context.Background(), "[xx] npc_dota_hero_lina uses item_tango\n")
	assert.ErrorIs(t, err, parser.ErrMalformedTimestamp)
}

func TestIngestSync_QueueFull(t *testing.T) {
	g := newGated()
	e := engine.New(context.Background(), g, conf(1, 1, 5000), nil)
	defer func() {
		close(g.release)
		e.Shutdown()
	}()

	// One job occupies the worker, one fills the queue.
	require.True(t, e.IngestAsync("a", "a", nil))
	<-g.started
	require.True(t, e.IngestAsync("b", "b", nil))

	_, err := e.IngestSync(context.Background(), "c")
	assert.ErrorIs(t, err, engine.ErrQueueFull)
	assert.False(t, e.IngestAsync("d", "d", nil))
	assert.InDelta(t, 1.0, e.QueueUtilization(), 0.001)
}

func TestIngestSync_Timeout(t *testing.T) {
	g := newGated()
	e := engine.New(context.Background(), g, conf(1, 1, 50), nil)
	defer func() {
		close(g.release)
		e.Shutdown()
	}()

	_, err := e.IngestSync(context.Background(), "slow")
	assert.ErrorIs(t, err, engine.ErrTimeout)
}

func TestIngestAsync_ReportsResults(t *testing.T) {
	g := newGated()
	close(g.release)
	e := engine.New(context.Background(), g, conf(3, 10, 5000), nil)

	var (
		mu  sync.Mutex
		got = map[string]event.MatchID{}
		wg  sync.WaitGroup
	)
	for _, name := range []string{"one", "two", "three"} {
		wg.Add(1)
		require.True(t, e.IngestAsync(name, name, func(r engine.Result) {
			defer wg.Done()
			mu.Lock()
			defer mu.Unlock()
			got[r.Source] = r.MatchID
		}))
	}
	wg.Wait()
	e.Shutdown()

	assert.Equal(t, map[string]event.MatchID{"one": "m-one", "two": "m-two", "three": "m-three"}, got)
	assert.False(t, e.IngestAsync("late", "late", nil), "drained engine must reject work")
}

func TestShutdown_DrainsQueuedWork(t *testing.T) {
	g := newGated()
	e := engine.New(context.Background(), g, conf(1, 4, 5000), nil)

	var (
		mu   sync.Mutex
		done []engine.Result
	)
	record := func(r engine.Result) {
		mu.Lock()
		defer mu.Unlock()
		done = append(done, r)
	}
	// The first job holds the only worker; the rest wait in the queue.
	require.True(t, e.IngestAsync("a", "a", record))
	<-g.started
	require.True(t, e.IngestAsync("b", "b", record))
	require.True(t, e.IngestAsync("c", "c", record))

	close(g.release)
	e.Shutdown()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, done, 3)
	for _, r := range done {
		assert.NoError(t, r.Err, r.Source)
		assert.Equal(t, event.MatchID("m-"+r.Source), r.MatchID)
	}
}

func TestIngestSync_CallerCancel(t *testing.T) {
	g := newGated()
	e := engine.New(context.Background(), g, conf(1, 1, 5000), nil)
	defer func() {
		close(g.release)
		e.Shutdown()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-g.started
		cancel()
	}()
	_, err := e.IngestSync(ctx, "x")
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}
