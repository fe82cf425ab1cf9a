// Command hitori solves a Hitori puzzle with a distributed parallel DFS
// engine, either as P goroutines sharing one process (-procs) or as one OS
// process per rank talking over a real gRPC mesh (-rank/-peers).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smilemakc/hitori/internal/bench"
	"github.com/smilemakc/hitori/internal/boardio"
	"github.com/smilemakc/hitori/internal/catalog"
	"github.com/smilemakc/hitori/internal/config"
	"github.com/smilemakc/hitori/internal/coordinator"
	"github.com/smilemakc/hitori/internal/engine"
	"github.com/smilemakc/hitori/internal/grid"
	"github.com/smilemakc/hitori/internal/logx"
	"github.com/smilemakc/hitori/internal/rescache"
	"github.com/smilemakc/hitori/internal/stats"
	"github.com/smilemakc/hitori/internal/statusapi"
	"github.com/smilemakc/hitori/internal/transport"
	"github.com/smilemakc/hitori/internal/transport/grpcnet"
	"github.com/smilemakc/hitori/internal/transport/inproc"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Parse(args)
	if err != nil {
		config.Usage()
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	networked := len(cfg.Peers) > 0
	rank := cfg.Rank
	log := logx.New(rank, cfg.LogLevel, cfg.Pretty)

	matrix, err := resolveBoard(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("resolve board")
		return 1
	}

	var cache *rescache.Cache
	if cfg.CacheURL != "" {
		cache, err = rescache.New(cfg.CacheURL, 24*time.Hour)
		if err != nil {
			log.Error().Err(err).Msg("connect cache")
			return 1
		}
		defer cache.Close()

		if sol, found, hit, err := cache.Lookup(context.Background(), matrix); err != nil {
			log.Warn().Err(err).Msg("cache lookup failed, continuing without it")
		} else if hit {
			printOutcome(matrix, sol, found, 0)
			return 0
		}
	}

	policy := coordinator.DefaultPolicy()
	policy.Cutoff = cfg.Cutoff

	engCfg := engine.Config{M: matrix, WorkChunkSize: cfg.Chunk}

	solve := func(ctx context.Context) (engine.Result, []engine.Result, error) {
		if networked {
			return runNetworked(ctx, cfg, engCfg, policy, log)
		}
		return runInProcess(ctx, cfg, engCfg, policy, log)
	}

	if cfg.Bench {
		return runBench(cfg, matrix, solve, log)
	}

	ctx := context.Background()
	start := time.Now()
	best, all, err := solve(ctx)
	elapsed := time.Since(start)
	if err != nil {
		log.Error().Err(err).Msg("search failed")
		return 1
	}

	var totalLeaves uint64
	for _, r := range all {
		totalLeaves += r.Leaves
	}

	printOutcome(matrix, best.Solution, best.Found, totalLeaves)
	for i, r := range all {
		workerRank := i
		if networked {
			workerRank = cfg.Rank
		}
		fmt.Printf("rank %d leaves examined: %d\n", workerRank, r.Leaves)
	}
	fmt.Printf("elapsed: %s\n", elapsed)

	if cache != nil {
		if err := cache.Store(context.Background(), matrix, best.Solution, best.Found); err != nil {
			log.Warn().Err(err).Msg("cache store failed")
		}
	}
	return 0
}

func resolveBoard(cfg config.Config, log zerolog.Logger) (grid.Matrix, error) {
	if cfg.CatalogDSN != "" && cfg.Board != "" {
		cat, err := catalog.Open(cfg.CatalogDSN)
		if err != nil {
			return grid.Matrix{}, err
		}
		defer cat.Close()
		return cat.Load(context.Background(), cfg.Board)
	}
	if cfg.Fixed {
		return boardio.Fixed8x8(), nil
	}
	return boardio.Random(cfg.N, 1), nil
}

func printOutcome(m grid.Matrix, solution grid.Status, found bool, leaves uint64) {
	fmt.Println(boardio.Render(m, grid.NewStatus(m.N)))
	if !found {
		fmt.Println("no solution found")
		return
	}
	if solution == nil {
		fmt.Println("solution found by another rank")
		return
	}
	fmt.Println(boardio.Render(m, solution))
	if leaves > 0 {
		fmt.Printf("leaves examined: %d\n", leaves)
	}
}

// runInProcess runs cfg.Procs workers as goroutines over an inproc mesh.
func runInProcess(ctx context.Context, cfg config.Config, engCfg engine.Config, policy coordinator.Policy, log zerolog.Logger) (engine.Result, []engine.Result, error) {
	size := cfg.Procs
	if size < 1 {
		size = 1
	}
	mesh := inproc.NewMesh(size)
	registry := stats.NewRegistry(size)

	stopStatus := maybeServeStatus(cfg, registry, log)
	if stopStatus != nil {
		defer stopStatus()
	}

	results := make([]engine.Result, size)
	errs := make([]error, size)
	var wg sync.WaitGroup
	for r := 0; r < size; r++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			w := engine.NewWorker(mesh.Endpoint(rank), engCfg, policy, log)
			res, err := w.Run(ctx)
			registry.Add(rank, int64(res.Leaves))
			results[rank] = res
			errs[rank] = err
		}(r)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return engine.Result{}, results, err
		}
	}
	return bestResult(results), results, nil
}

// runNetworked runs this single OS process as cfg.Rank of len(cfg.Peers)
// over a real gRPC mesh.
func runNetworked(ctx context.Context, cfg config.Config, engCfg engine.Config, policy coordinator.Policy, log zerolog.Logger) (engine.Result, []engine.Result, error) {
	node := grpcnet.NewNode(cfg.Rank, cfg.Peers, log)
	defer node.Close()

	if err := node.Start(ctx); err != nil {
		return engine.Result{}, nil, fmt.Errorf("grpcnet start: %w", err)
	}

	var tr transport.Transport = node
	w := engine.NewWorker(tr, engCfg, policy, log)
	res, err := w.Run(ctx)
	if err != nil {
		return engine.Result{}, nil, err
	}
	return res, []engine.Result{res}, nil
}

func bestResult(results []engine.Result) engine.Result {
	for _, r := range results {
		if r.Found && r.Solution != nil {
			return r
		}
	}
	return engine.Result{}
}

func runBench(cfg config.Config, matrix grid.Matrix, solve func(context.Context) (engine.Result, []engine.Result, error), log zerolog.Logger) int {
	driver := bench.New(func(ctx context.Context) error {
		_, _, err := solve(ctx)
		return err
	}, maxInt(cfg.Procs, 1), matrix.N, log)

	ctx := context.Background()
	if cfg.CronSchedule != "" {
		if err := driver.Schedule(ctx, cfg.CronSchedule); err != nil {
			log.Error().Err(err).Msg("scheduled benchmark failed")
			return 1
		}
		return 0
	}

	report, err := driver.RunOnce(ctx)
	if err != nil {
		log.Error().Err(err).Msg("benchmark failed")
		return 1
	}
	fmt.Printf("average over %d iterations: %s\n", bench.Iterations, report.AvgDuration)
	return 0
}

func maybeServeStatus(cfg config.Config, registry *stats.Registry, log zerolog.Logger) func() {
	if cfg.StatusAddr == "" {
		return nil
	}
	srv := statusapi.New(registry, log)
	httpSrv := &http.Server{Addr: cfg.StatusAddr, Handler: srv.Handler()}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("status server failed")
		}
	}()

	pushCtx, stopPush := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-pushCtx.Done():
				return
			case <-ticker.C:
				srv.Publish(statusapi.Snapshot{
					Leaves: registry.Snapshot(),
					Total:  registry.Total(),
				})
			}
		}
	}()

	return func() {
		stopPush()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(ctx)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
