package inbox_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/combatlog/internal/config"
	"github.com/gyaneshwarpardhi/combatlog/internal/engine"
	"github.com/gyaneshwarpardhi/combatlog/internal/event"
	"github.com/gyaneshwarpardhi/combatlog/internal/inbox"
)

// syncSubmitter runs the completion callback inline.
type syncSubmitter struct {
	mu     sync.Mutex
	seen   []string
	fail   map[string]bool
	reject bool
}

func (s *syncSubmitter) IngestAsync(source, raw string, done func(engine.Result)) bool {
	if s.reject {
		return false
	}
	s.mu.Lock()
	s.seen = append(s.seen, filepath.Base(source))
	s.mu.Unlock()
	res := engine.Result{Source: source, MatchID: event.MatchID("m-" + filepath.Base(source))}
	if s.fail[filepath.Base(source)] {
		res = engine.Result{Source: source, Err: errors.New("malformed timestamp")}
	}
	done(res)
	return true
}

func (s *syncSubmitter) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

func write(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("[00:00:01] npc_dota_hero_lina uses item_tango\n"), 0o644))
}

func TestScan_MarksFiles(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "good.txt")
	write(t, dir, "bad.txt")
	write(t, dir, "notes.md")

	sub := &syncSubmitter{fail: map[string]bool{"bad.txt": true}}
	inbox.New(config.InboxConf{Dir: dir, Pattern: "*.txt"}, sub, nil).Scan()

	assert.ElementsMatch(t, []string{"good.txt", "bad.txt"}, sub.names())
	assert.FileExists(t, filepath.Join(dir, "good.txt"+inbox.DoneSuffix))
	assert.FileExists(t, filepath.Join(dir, "bad.txt"+inbox.FailedSuffix))
	assert.FileExists(t, filepath.Join(dir, "notes.md"))
	assert.NoFileExists(t, filepath.Join(dir, "good.txt"))
}

func TestScan_MarkedFilesAreNotIngestedAgain(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "good.txt")
	write(t, dir, "bad.txt")

	sub := &syncSubmitter{fail: map[string]bool{"bad.txt": true}}
	w := inbox.New(config.InboxConf{Dir: dir, Pattern: "*"}, sub, nil)
	w.Scan()
	w.Scan()

	assert.ElementsMatch(t, []string{"good.txt", "bad.txt"}, sub.names())
	assert.FileExists(t, filepath.Join(dir, "good.txt"+inbox.DoneSuffix))
	assert.FileExists(t, filepath.Join(dir, "bad.txt"+inbox.FailedSuffix))
	assert.NoFileExists(t, filepath.Join(dir, "good.txt"+inbox.DoneSuffix+inbox.DoneSuffix))
}

func TestScan_RejectedFilesStay(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "match.txt")

	w := inbox.New(config.InboxConf{Dir: dir, Pattern: "*.txt"}, &syncSubmitter{reject: true}, nil)
	w.Scan()
	assert.FileExists(t, filepath.Join(dir, "match.txt"))
}

func TestRun_PicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	sub := &syncSubmitter{}
	w := inbox.New(config.InboxConf{Dir: dir, Pattern: "*.txt"}, sub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errC := make(chan error, 1)
	go func() { errC <- w.Run(ctx) }()

	// Write outside the inbox, then move in.
	staging := t.TempDir()
	write(t, staging, "late.txt")
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "late.txt"+inbox.DoneSuffix))
		if err == nil {
			return true
		}
		_ = os.Rename(filepath.Join(staging, "late.txt"), filepath.Join(dir, "late.txt"))
		return false
	}, 10*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-errC)
	assert.Equal(t, []string{"late.txt"}, sub.names())
}

func TestRun_MissingDir(t *testing.T) {
	w := inbox.New(config.InboxConf{Dir: filepath.Join(t.TempDir(), "nope"), Pattern: "*.txt"}, &syncSubmitter{}, nil)
	assert.Error(t, w.Run(context.Background()))
}
