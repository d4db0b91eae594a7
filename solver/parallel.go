package solver

import (
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// A ParallelSolver runs several workers on the same problem, exchanging
// learnt clauses through a shared Control. The first definitive answer
// wins; the remaining workers are interrupted cooperatively.
type ParallelSolver struct {
	control *Control
	workers []*Worker

	mu     sync.Mutex
	status Status
	winner *Worker
}

// NewParallelSolver builds a controller and nbWorkers workers for the
// given problem. Workers differ only by their PRNG seed.
func NewParallelSolver(pb *Problem, nbWorkers int, conf Conf, log logrus.FieldLogger) *ParallelSolver {
	if nbWorkers < 1 {
		nbWorkers = 1
	}
	c := NewControl(pb, nbWorkers, conf, log)
	ps := &ParallelSolver{control: c}
	for i := 0; i < nbWorkers; i++ {
		ps.workers = append(ps.workers, NewWorker(c, i))
	}
	return ps
}

// Solve runs every worker under the given assumptions until one of them
// reaches a definitive answer or the shared conflict budget is spent.
func (ps *ParallelSolver) Solve(assumptions []Lit, maxConfls uint64) Status {
	ps.mu.Lock()
	ps.status = Indet
	ps.winner = nil
	ps.mu.Unlock()
	ps.control.bar.reset(len(ps.workers))
	for _, wk := range ps.workers {
		wk.needToInterrupt.Store(false)
	}
	var g errgroup.Group
	for _, wk := range ps.workers {
		wk := wk
		g.Go(func() error {
			st := wk.Solve(assumptions, maxConfls)
			ps.control.bar.leave()
			if st == Sat || st == Unsat {
				ps.mu.Lock()
				if ps.status == Indet {
					ps.status = st
					ps.winner = wk
				}
				ps.mu.Unlock()
				ps.Interrupt()
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; outcomes travel via status
	return ps.status
}

// Interrupt asks every worker to stop cooperatively.
func (ps *ParallelSolver) Interrupt() {
	for _, wk := range ps.workers {
		wk.SetNeedToInterrupt()
	}
}

// Model returns the model found by the winning worker.
// It panics if the last Solve did not return Sat.
func (ps *ParallelSolver) Model() []bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.status != Sat || ps.winner == nil {
		panic("cannot call Model() on a non-Sat solver")
	}
	return ps.winner.Model()
}

// Conflict returns the assumption conflict set of the winning worker,
// or nil if unsatisfiability does not depend on the assumptions.
func (ps *ParallelSolver) Conflict() []Lit {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.winner == nil {
		return nil
	}
	return ps.winner.Conflict()
}

// Stats returns a copy of each worker's statistics.
func (ps *ParallelSolver) Stats() []Stats {
	res := make([]Stats, len(ps.workers))
	for i, wk := range ps.workers {
		res[i] = wk.Stats
	}
	return res
}

// NumConflicts returns the total number of conflicts across workers.
func (ps *ParallelSolver) NumConflicts() uint64 {
	return ps.control.sumConflicts()
}
