// Package engine drives the per-worker DFS loop: it is the one place that
// decides, each outer iteration, whether to service the messaging protocol,
// steal work, or expand a chunk of the local stack.
package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/smilemakc/hitori/internal/coordinator"
	"github.com/smilemakc/hitori/internal/grid"
	"github.com/smilemakc/hitori/internal/search"
	"github.com/smilemakc/hitori/internal/transport"
)

// Config is everything a Worker needs about the puzzle instance and the
// engine's own pacing, as distinct from the work-stealing policy.
type Config struct {
	M grid.Matrix
	// WorkChunkSize bounds how many states are popped between protocol
	// service points (spec's -w).
	WorkChunkSize int
}

// Result is what Run returns once the search loop exits.
type Result struct {
	Solution grid.Status
	Found    bool
	Leaves   uint64
}

// Worker is one rank's DFS driver: it owns a search.Stack and a
// coordinator.Coordinator bound to the same transport.
type Worker struct {
	tr    transport.Transport
	coord *coordinator.Coordinator
	cfg   Config
	stack *search.Stack
	log   zerolog.Logger

	leaves uint64
}

// NewWorker builds a Worker for tr's rank. Rank 0 seeds its stack with the
// all-open initial state; every other rank starts empty.
func NewWorker(tr transport.Transport, cfg Config, policy coordinator.Policy, log zerolog.Logger) *Worker {
	w := &Worker{
		tr:    tr,
		coord: coordinator.NewCoordinator(tr, cfg.M.N, policy),
		cfg:   cfg,
		stack: search.NewStack(),
		log:   log.With().Int("rank", tr.Rank()).Logger(),
	}
	if tr.Rank() == 0 {
		w.stack.Push(search.State{Status: grid.NewStatus(cfg.M.N), Row: 0, Col: 0})
	}
	return w
}

// Run drives the loop until a solution is found, found elsewhere, or the
// token ring confirms quiescence. On a clean return Found is true both for
// the worker that found the solution (Solution set) and for a worker told of
// it by a peer (Solution nil); Found==false always comes with a nil Solution.
func (w *Worker) Run(ctx context.Context) (Result, error) {
	size := w.tr.Size()

	for {
		select {
		case <-ctx.Done():
			return Result{Leaves: w.leaves}, ctx.Err()
		default:
		}

		if err := w.serviceRequests(ctx); err != nil {
			return Result{Leaves: w.leaves}, fmt.Errorf("engine: service requests: %w", err)
		}
		if w.coord.Broadcast.Poll() {
			w.log.Debug().Msg("solution reported by a peer")
			return Result{Found: true, Leaves: w.leaves}, nil
		}
		if w.sawTermination() {
			w.log.Debug().Msg("termination notice received")
			return Result{Leaves: w.leaves}, nil
		}

		if w.stack.Len() == 0 {
			if size == 1 {
				return Result{Leaves: w.leaves}, nil
			}
			if w.tr.Rank() == 0 {
				if err := w.coord.Term.Initiate(ctx); err != nil {
					return Result{Leaves: w.leaves}, fmt.Errorf("engine: initiate token: %w", err)
				}
			}
			terminate, err := w.coord.Term.Poll(ctx)
			if err != nil {
				return Result{Leaves: w.leaves}, fmt.Errorf("engine: poll token: %w", err)
			}
			if terminate {
				w.log.Info().Msg("ring quiescent, broadcasting termination")
				if err := w.broadcastTermination(ctx); err != nil {
					return Result{Leaves: w.leaves}, err
				}
				return Result{Leaves: w.leaves}, nil
			}
			if _, err := w.coord.RequestWork(ctx, w.stack); err != nil {
				return Result{Leaves: w.leaves}, fmt.Errorf("engine: request work: %w", err)
			}
			continue
		}

		solution, found, err := w.expandChunk(ctx)
		if err != nil {
			return Result{Leaves: w.leaves}, err
		}
		if found {
			return Result{Solution: solution, Found: true, Leaves: w.leaves}, nil
		}
	}
}

// serviceRequests drains every pending REQUEST, donor-side, before resuming
// local work — spec.md §4.7 step 3's first service point.
func (w *Worker) serviceRequests(ctx context.Context) error {
	for {
		src, _, ok := w.tr.TryRecv(transport.Request)
		if !ok {
			return nil
		}
		if _, err := w.coord.HandleWorkRequest(ctx, src, w.stack); err != nil {
			return err
		}
	}
}

func (w *Worker) sawTermination() bool {
	_, _, ok := w.tr.TryRecv(transport.Termination)
	return ok
}

func (w *Worker) broadcastTermination(ctx context.Context) error {
	for r := 0; r < w.tr.Size(); r++ {
		if r == w.tr.Rank() {
			continue
		}
		if err := w.tr.Send(ctx, r, transport.Termination, transport.Zero); err != nil {
			return err
		}
	}
	return nil
}

// expandChunk pops up to WorkChunkSize states, expanding each per spec.md
// §4.7 step 2: a no-mark child always, a mark child only when IsSafe holds,
// mark pushed last so it is explored first (LIFO).
func (w *Worker) expandChunk(ctx context.Context) (grid.Status, bool, error) {
	n := w.cfg.M.N
	popped := 0
	for popped < w.cfg.WorkChunkSize && w.stack.Len() > 0 {
		st := w.stack.Pop()
		popped++

		if st.Row == n {
			w.leaves++
			if grid.IsValid(w.cfg.M, st.Status) {
				if err := w.coord.Broadcast.Announce(ctx); err != nil {
					return nil, false, fmt.Errorf("engine: announce solution: %w", err)
				}
				w.log.Info().Uint64("leaves", w.leaves).Msg("solution found")
				return st.Status, true, nil
			}
			continue
		}

		nextR, nextC := st.Row, st.Col+1
		if nextC == n {
			nextR, nextC = st.Row+1, 0
		}

		noMark := st.Status.Clone()
		w.stack.Push(search.State{Status: noMark, Row: nextR, Col: nextC})

		if grid.IsSafe(st.Status, st.Row, st.Col, w.cfg.M) {
			marked := st.Status.Clone()
			marked.Set(n, st.Row, st.Col, grid.Blackened)
			w.stack.Push(search.State{Status: marked, Row: nextR, Col: nextC})
		}
	}
	return nil, false, nil
}

// Leaves reports the running count of terminal states examined so far.
func (w *Worker) Leaves() uint64 { return w.leaves }
