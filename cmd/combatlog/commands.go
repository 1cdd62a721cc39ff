package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/gyaneshwarpardhi/combatlog/internal/config"
	"github.com/gyaneshwarpardhi/combatlog/internal/event"
	"github.com/gyaneshwarpardhi/combatlog/internal/ingest"
	"github.com/gyaneshwarpardhi/combatlog/internal/parser"
	"github.com/gyaneshwarpardhi/combatlog/internal/stats"
	"github.com/gyaneshwarpardhi/combatlog/internal/store"
)

// ParseCmd implements the 'parse' command.
type ParseCmd struct {
	File string `arg:"" type:"existingfile" help:"Combat log file"`
}

// Run prints one JSON object per recognized event.
func (c *ParseCmd) Run(g *Global) error {
	raw, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	res, err := parser.ParseLog(string(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", c.File, err)
	}
	enc := json.NewEncoder(g.Out)
	for _, ev := range res.Events {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	slog.Info("parsed combat log", "file", c.File, "lines", res.Lines, "events", len(res.Events), "skipped", res.Skipped)
	return nil
}

// SummaryCmd implements the 'summary' command.
type SummaryCmd struct {
	File string `arg:"" type:"existingfile" help:"Combat log file"`
	Hero string `help:"Also report items, spells and damage for this hero (without the npc_dota_hero_ prefix)"`
}

// Summary is what the 'summary' command prints.
type Summary struct {
	Kills  []stats.HeroKills  `json:"kills"`
	Hero   string             `json:"hero,omitempty"`
	Items  []stats.HeroItem   `json:"items,omitempty"`
	Spells []stats.HeroSpells `json:"spells,omitempty"`
	Damage []stats.HeroDamage `json:"damage,omitempty"`
}

// Run ingests the file into a throwaway memory store and queries it.
func (c *SummaryCmd) Run(g *Global) error {
	raw, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	ctx := context.Background()
	mem := store.NewMemoryStore()
	id, err := ingest.New(mem, mem, slog.Default()).Ingest(ctx, string(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", c.File, err)
	}
	sum, err := summarize(ctx, stats.New(mem), id, c.Hero)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(g.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}

func summarize(ctx context.Context, agg *stats.Aggregator, id event.MatchID, hero string) (*Summary, error) {
	var (
		sum Summary
		err error
	)
	if sum.Kills, err = agg.HeroKills(ctx, id); err != nil {
		return nil, err
	}
	if hero == "" {
		return &sum, nil
	}
	sum.Hero = hero
	if sum.Items, err = agg.HeroItems(ctx, id, hero); err != nil {
		return nil, err
	}
	if sum.Spells, err = agg.HeroSpells(ctx, id, hero); err != nil {
		return nil, err
	}
	if sum.Damage, err = agg.HeroDamage(ctx, id, hero); err != nil {
		return nil, err
	}
	return &sum, nil
}

// IngestCmd implements the 'ingest' command.
type IngestCmd struct {
	File   string `arg:"" type:"existingfile" help:"Combat log file"`
	Driver string `default:"sqlite" enum:"memory,sqlite,postgres" env:"COMBATLOG_STORAGE_DRIVER" help:"Event store driver"`
	DSN    string `name:"dsn" default:"combatlog.db" env:"COMBATLOG_STORAGE_DSN" help:"SQLite file or Postgres connection URL"`
}

// Run stores the file's events and prints the new match id.
func (c *IngestCmd) Run(g *Global) error {
	raw, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	ctx := context.Background()
	conf := config.StorageConf{Driver: c.Driver, DSN: c.DSN}
	st, err := store.Open(ctx, conf)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := ingest.New(st, st, slog.Default()).Ingest(ctx, string(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", c.File, err)
	}
	_, err = fmt.Fprintln(g.Out, id)
	return err
}
