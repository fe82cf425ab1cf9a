// Package logx builds the one zerolog.Logger per rank that every other
// package takes as a constructor argument, console-formatted for local runs
// and JSON otherwise.
package logx

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// AutoPretty reports whether stderr looks like an interactive terminal,
// used as the default for -pretty when the flag is left unset.
func AutoPretty() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// New returns a logger tagged with this process's rank, at the given level
// ("debug", "info", "warn", "error"; anything else defaults to info).
func New(rank int, level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var writer io.Writer = os.Stderr
	if pretty {
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	return zerolog.New(writer).
		Level(lvl).
		With().
		Timestamp().
		Int("rank", rank).
		Logger()
}
