// Package config resolves CLI flags and environment variables into a
// validated Config, the way cmd/hitori's single entrypoint wires every other
// package.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/smilemakc/hitori/internal/logx"
)

// Config is the fully resolved, validated set of knobs cmd/hitori needs.
type Config struct {
	N      int `validate:"required_without=Fixed,omitempty,gt=0"`
	Fixed  bool
	Cutoff int `validate:"gte=0"`
	Chunk  int `validate:"gt=0"`
	Bench  bool

	Procs int `validate:"omitempty,gt=0"`

	Rank  int      `validate:"gte=0"`
	Peers []string `validate:"omitempty,dive,required"`

	CacheURL     string
	CatalogDSN   string
	Board        string
	StatusAddr   string
	CronSchedule string

	LogLevel string `validate:"omitempty,oneof=debug info warn error"`
	Pretty   bool
}

var validate = validator.New()

// Parse loads a .env file if present (ignored if absent), parses args
// against `fs`, and validates the result. Returns a usage error on any
// misuse, per spec.md §7's "rank 0 prints usage, all ranks exit 1".
func Parse(args []string) (Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("hitori", flag.ContinueOnError)
	var cfg Config

	fs.IntVar(&cfg.N, "n", 0, "puzzle side length (N*N must be <= 64)")
	fs.BoolVar(&cfg.Fixed, "p", false, "use the fixed 8x8 test grid")
	fs.IntVar(&cfg.Cutoff, "c", -1, "minimum local stack size above which a donor shares work")
	fs.IntVar(&cfg.Chunk, "w", 0, "states popped per work burst before protocol service")
	fs.BoolVar(&cfg.Bench, "b", false, "benchmark mode: run 10 iterations and invoke benchmark.py")

	fs.IntVar(&cfg.Procs, "procs", 1, "number of simulated in-process workers")
	fs.IntVar(&cfg.Rank, "rank", 0, "this process's rank in networked mode")
	var peers string
	fs.StringVar(&peers, "peers", "", "comma-separated host:port list, networked mode")

	fs.StringVar(&cfg.CacheURL, "cache", "", "redis URL for solved-board memoization")
	fs.StringVar(&cfg.CatalogDSN, "catalog", "", "postgres DSN for the named board catalog")
	fs.StringVar(&cfg.Board, "board", "", "named board to load from the catalog")
	fs.StringVar(&cfg.StatusAddr, "status-addr", "", "host:port to serve live status on")
	fs.StringVar(&cfg.CronSchedule, "schedule", "", "cron expression for repeated benchmark runs")

	fs.StringVar(&cfg.LogLevel, "log-level", "info", "debug, info, warn, or error")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "console-format logs instead of JSON")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if peers != "" {
		cfg.Peers = strings.Split(peers, ",")
	}
	if cfg.Fixed {
		cfg.N = 8
	}

	prettySet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "pretty" {
			prettySet = true
		}
	})
	if !prettySet {
		cfg.Pretty = logx.AutoPretty()
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Usage writes the standard usage message to stderr, matching the "rank 0
// prints usage" contract in spec.md §7.
func Usage() {
	fmt.Fprintln(os.Stderr, "usage: hitori -n <N> -c <cutoff> -w <chunk> [-p] [-b] [-procs P] [-rank R -peers host:port,...]")
}

// BenchInterval is the fixed iteration count spec.md §6 mandates for -b.
const BenchInterval = 10
