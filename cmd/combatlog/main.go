package main

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// Global carries shared state into every command's Run.
type Global struct {
	Out io.Writer
}

// CLI is the root command line.
type CLI struct {
	Verbose bool `short:"v" help:"Enable verbose logging"`

	Parse   ParseCmd   `cmd:"" help:"Parse a combat log and print its events as JSON lines"`
	Summary SummaryCmd `cmd:"" help:"Parse a combat log and print its match summary"`
	Ingest  IngestCmd  `cmd:"" help:"Ingest a combat log into an event store and print the match id"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func main() {
	// Flags fall back to COMBATLOG_* variables, which may come from .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("combatlog"),
		kong.Description("Parse and summarize combat logs."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&Global{Out: os.Stdout}))
}
