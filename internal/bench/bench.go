// Package bench drives -b benchmark mode: run the solver 10 times, average
// the wall-clock time, then hand the result to the external benchmark.py
// exactly as spec.md §6 describes, optionally repeating on a cron schedule.
package bench

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Iterations is the fixed repeat count spec.md §6 mandates for -b.
const Iterations = 10

// Run is one full solve, supplied by the caller so this package stays
// decoupled from internal/engine.
type Run func(ctx context.Context) error

// Report is the outcome of one benchmark pass.
type Report struct {
	Procs       int
	N           int
	AvgDuration time.Duration
}

// Driver runs Run Iterations times, averages the duration, and invokes the
// external plotting script exactly once per pass.
type Driver struct {
	run   Run
	procs int
	n     int
	log   zerolog.Logger

	scriptPath string
	resultsDir string
}

// New builds a Driver. scriptPath defaults to "../benchmark.py",
// resultsDir to "results", matching spec.md §6's invocation contract.
func New(run Run, procs, n int, log zerolog.Logger) *Driver {
	return &Driver{
		run:        run,
		procs:      procs,
		n:          n,
		log:        log.With().Str("component", "bench").Logger(),
		scriptPath: "../benchmark.py",
		resultsDir: "results",
	}
}

// RunOnce performs one full Iterations-pass benchmark and invokes the
// external script with the averaged result.
func (d *Driver) RunOnce(ctx context.Context) (Report, error) {
	var total time.Duration
	for i := 0; i < Iterations; i++ {
		start := time.Now()
		if err := d.run(ctx); err != nil {
			return Report{}, fmt.Errorf("bench: iteration %d: %w", i, err)
		}
		total += time.Since(start)
	}
	avg := total / Iterations
	report := Report{Procs: d.procs, N: d.n, AvgDuration: avg}

	d.log.Info().
		Int("procs", d.procs).
		Int("n", d.n).
		Dur("avg", avg).
		Msg("benchmark pass complete")

	if err := d.invokeScript(ctx, report); err != nil {
		return report, err
	}
	return report, nil
}

func (d *Driver) invokeScript(ctx context.Context, report Report) error {
	cmd := exec.CommandContext(ctx, "python3", d.scriptPath,
		fmt.Sprintf("%d", report.Procs),
		fmt.Sprintf("%f", report.AvgDuration.Seconds()),
		fmt.Sprintf("%d", report.N),
		d.resultsDir,
	)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("bench: invoke %s: %w", d.scriptPath, err)
	}
	return nil
}

// Schedule re-runs RunOnce on a cron schedule instead of once, for -schedule.
// Blocks until ctx is done.
func (d *Driver) Schedule(ctx context.Context, expr string) error {
	c := cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))
	_, err := c.AddFunc(expr, func() {
		if _, err := d.RunOnce(ctx); err != nil {
			d.log.Error().Err(err).Msg("scheduled benchmark pass failed")
		}
	})
	if err != nil {
		return fmt.Errorf("bench: invalid schedule %q: %w", expr, err)
	}
	c.Start()
	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	return nil
}
