package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/combatlog/internal/event"
	"github.com/gyaneshwarpardhi/combatlog/internal/parser"
	"github.com/gyaneshwarpardhi/combatlog/internal/stats"
	"github.com/gyaneshwarpardhi/combatlog/internal/store"
)

const sampleLog = `[00:00:04.023] npc_dota_hero_lina uses item_tango
[00:00:09.100] npc_dota_hero_lina casts ability lina_dragon_slave (lvl 1) on dota_unknown
[00:00:12.000] npc_dota_hero_lina hits npc_dota_hero_axe with lina_dragon_slave for 90 damage (600->510)
[00:00:31.000] npc_dota_hero_axe is killed by npc_dota_hero_lina
`

func writeLog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "match.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	k, err := kong.New(&cli, kong.Name("combatlog"))
	require.NoError(t, err)
	ctx, err := k.Parse(args)
	require.NoError(t, err)
	var out bytes.Buffer
	err = ctx.Run(&Global{Out: &out})
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, "parse", writeLog(t, sampleLog))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, string(event.KindItemPurchased), first["kind"])
	assert.Equal(t, "lina", first["actor"])
}

func TestParseCommand_MalformedTimestamp(t *testing.T) {
	_, err := run(t, "parse", writeLog(t, "[00:00:xx] npc_dota_hero_lina uses item_tango\n"))
	assert.ErrorIs(t, err, parser.ErrMalformedTimestamp)
}

func TestSummaryCommand(t *testing.T) {
	out, err := run(t, "summary", writeLog(t, sampleLog), "--hero", "lina")
	require.NoError(t, err)

	var sum Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, []stats.HeroKills{{Hero: "axe", Kills: 1}}, sum.Kills)
	assert.Equal(t, "lina", sum.Hero)
	assert.Equal(t, []stats.HeroItem{{Item: "tango", Timestamp: 4023}}, sum.Items)
	assert.Equal(t, []stats.HeroSpells{{Spell: "lina_dragon_slave", Casts: 1}}, sum.Spells)
	assert.Equal(t, []stats.HeroDamage{{Target: "axe", DamageInstances: 1, TotalDamage: 90}}, sum.Damage)
}

func TestSummaryCommand_KillsOnly(t *testing.T) {
	out, err := run(t, "summary", writeLog(t, sampleLog))
	require.NoError(t, err)
	assert.NotContains(t, out, `"items"`)
}

func TestIngestCommand_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "events.db")
	out, err := run(t, "ingest", writeLog(t, sampleLog), "--driver", "sqlite", "--dsn", dsn)
	require.NoError(t, err)
	id := event.MatchID(strings.TrimSpace(out))
	require.NotEmpty(t, id)

	st, err := store.NewSQLiteStore(dsn)
	require.NoError(t, err)
	defer st.Close()

	evs, err := st.FindByMatchAndKind(context.Background(), id, event.KindHeroKilled)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "axe", evs[0].Actor)
}

func TestIngestCommand_UnknownDriver(t *testing.T) {
	var cli CLI
	k, err := kong.New(&cli, kong.Name("combatlog"))
	require.NoError(t, err)
	_, err = k.Parse([]string{"ingest", writeLog(t, sampleLog), "--driver", "mysql"})
	assert.Error(t, err)
}
