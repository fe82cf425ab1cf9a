package bench

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDriver_RunOnceCountsIterations(t *testing.T) {
	calls := 0
	d := New(func(ctx context.Context) error {
		calls++
		return nil
	}, 2, 4, zerolog.Nop())
	// An empty script stands in for benchmark.py; python3 itself must be on PATH.
	script := filepath.Join(t.TempDir(), "noop.py")
	require.NoError(t, os.WriteFile(script, nil, 0o644))
	d.scriptPath = script

	report, err := d.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, Iterations, calls)
	require.Equal(t, 2, report.Procs)
	require.Equal(t, 4, report.N)
}

func TestDriver_RunOnceStopsOnFirstError(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	d := New(func(ctx context.Context) error {
		calls++
		if calls == 3 {
			return boom
		}
		return nil
	}, 1, 1, zerolog.Nop())

	_, err := d.RunOnce(context.Background())
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, calls)
}
