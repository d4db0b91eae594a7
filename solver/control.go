package solver

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// A barrier makes every registered worker wait for the others, like the
// fork/join points of the original OpenMP implementation. Workers that
// finish solving deregister with leave so the rest cannot deadlock.
type barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	parties int
	waiting int
	gen     uint64
}

func newBarrier(parties int) *barrier {
	b := &barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// wait blocks until every registered party arrived.
func (b *barrier) wait() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.waiting++
	if b.waiting >= b.parties {
		b.waiting = 0
		b.gen++
		b.cond.Broadcast()
		return
	}
	gen := b.gen
	for gen == b.gen {
		b.cond.Wait()
	}
}

// leave permanently deregisters one party, releasing the current
// generation if it was the last one being waited for.
func (b *barrier) leave() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parties--
	if b.parties > 0 && b.waiting >= b.parties {
		b.waiting = 0
		b.gen++
		b.cond.Broadcast()
	}
}

func (b *barrier) reset(parties int) {
	b.mu.Lock()
	b.parties = parties
	b.waiting = 0
	b.mu.Unlock()
}

// Control is the state shared by all workers: the original problem, the
// shared clause store, the learnt-clause exchange queues and the
// cleanup machinery. Every mutation goes through the critical region
// (mu); shared clause records are immutable once published, so workers
// may dereference a handle without the lock once they learnt about it
// inside the region.
type Control struct {
	mu  sync.Mutex
	log logrus.FieldLogger

	nbVars      int
	ok          bool
	decisionVar []bool
	elimed      []bool
	trail       []Lit          // level-0 facts known at init
	binClauses  []BinaryClause // original binary clauses
	clauses     []ClauseRef    // original clauses of size >= 3
	learnts     []ClauseRef    // shared learnt clauses of size >= 3
	arena       arena          // shared immutable clause store

	// Monotone, append-only exchange queues. Workers remember how much
	// of each they consumed.
	unitLearntsToAdd []Lit
	binLearntsToAdd  []BinaryClause
	longLearntsToAdd []ClauseRef

	// Clauses scheduled for detachment during the current cleanup round.
	toDetach []ClauseRef

	implCache    [][]Lit // optional per-literal implication cache
	litReachable []Lit   // optional per-literal dominating literal

	perWorkerConfls []uint64
	sumConfls       atomic.Uint64
	nextClean       atomic.Uint64

	bar        *barrier
	schedRound uint64
	freeRound  uint64

	conf Conf
}

// NewControl builds the shared state for nbWorkers workers from a
// parsed problem.
func NewControl(pb *Problem, nbWorkers int, conf Conf, log logrus.FieldLogger) *Control {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Control{
		log:             log,
		nbVars:          pb.NbVars,
		ok:              pb.Status != Unsat,
		decisionVar:     make([]bool, pb.NbVars),
		elimed:          make([]bool, pb.NbVars),
		trail:           append([]Lit{}, pb.Units...),
		perWorkerConfls: make([]uint64, nbWorkers),
		bar:             newBarrier(nbWorkers),
		conf:            conf,
	}
	for i := range c.decisionVar {
		c.decisionVar[i] = true
	}
	c.nextClean.Store(conf.FirstCleanLimit)
	for _, lits := range pb.Clauses {
		switch len(lits) {
		case 0:
			c.ok = false
		case 1:
			c.trail = append(c.trail, lits[0])
		case 2:
			c.binClauses = append(c.binClauses, BinaryClause{First: lits[0], Second: lits[1]})
		default:
			c.clauses = append(c.clauses, c.arena.alloc(lits, false, 0))
		}
	}
	return c
}

// SetImplCache installs a per-literal implication cache (indexed by
// literal, listing the literals it implies). It enables the
// watch/cache-based learnt-clause minimisation of the workers.
func (c *Control) SetImplCache(cache [][]Lit) {
	c.implCache = cache
}

// SetLitReachable installs the per-literal dominating-literal map used
// by the decision heuristic.
func (c *Control) SetLitReachable(reach []Lit) {
	c.litReachable = reach
}

// newClauseByThread publishes a clause learnt by a worker. The critical
// region must be held. It returns the shared handle for clauses of
// size >= 3, RefUndef for units and binaries which live inline in the
// queues.
func (c *Control) newClauseByThread(lits []Lit, glue int, workerID int, numConfls uint64) ClauseRef {
	c.perWorkerConfls[workerID] = numConfls
	var sum uint64
	for _, n := range c.perWorkerConfls {
		sum += n
	}
	c.sumConfls.Store(sum)
	switch len(lits) {
	case 1:
		c.unitLearntsToAdd = append(c.unitLearntsToAdd, lits[0])
		return RefUndef
	case 2:
		c.binLearntsToAdd = append(c.binLearntsToAdd, BinaryClause{First: lits[0], Second: lits[1], Learnt: true})
		return RefUndef
	default:
		ref := c.arena.alloc(lits, true, glue)
		c.longLearntsToAdd = append(c.longLearntsToAdd, ref)
		c.learnts = append(c.learnts, ref)
		return ref
	}
}

// sumConflicts returns the total number of conflicts across workers, as
// of their last publications.
func (c *Control) sumConflicts() uint64 {
	return c.sumConfls.Load()
}

// getNextCleanLimit returns the global conflict count at which the next
// cleanup barrier applies.
func (c *Control) getNextCleanLimit() uint64 {
	return c.nextClean.Load()
}

// waitAllThreads blocks until every active worker reached the barrier.
func (c *Control) waitAllThreads() {
	c.bar.wait()
}

// scheduleCleanupOnce selects the clauses to detach for the given
// cleanup round. Exactly one worker per round does the work; the others
// return immediately (or block until it is done, the mutex orders them).
func (c *Control) scheduleCleanupOnce(round uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.schedRound >= round {
		return
	}
	c.schedRound = round
	// Worst clauses first: high glue; ties keep publication order (older first).
	sort.SliceStable(c.learnts, func(i, j int) bool {
		return c.arena.clause(c.learnts[i]).Glue() > c.arena.clause(c.learnts[j]).Glue()
	})
	half := len(c.learnts) / 2
	var keep, drop []ClauseRef
	for i, ref := range c.learnts {
		if i < half && c.arena.clause(ref).Glue() > 2 {
			drop = append(drop, ref)
		} else {
			keep = append(keep, ref)
		}
	}
	c.learnts = keep
	c.toDetach = drop
	c.nextClean.Add(c.conf.CleanLimitIncr)
	c.log.WithFields(logrus.Fields{
		"round":    round,
		"detached": len(drop),
		"kept":     len(keep),
	}).Debug("scheduled learnt-clause cleanup")
}

// toDetachFreeOnce releases the detached clauses and resets the
// exchange queues once per cleanup round. Every worker already consumed
// and detached them at this point.
func (c *Control) toDetachFreeOnce(round uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.freeRound >= round {
		return
	}
	c.freeRound = round
	for _, ref := range c.toDetach {
		c.arena.free(ref)
	}
	c.toDetach = nil
	c.unitLearntsToAdd = c.unitLearntsToAdd[:0]
	c.binLearntsToAdd = c.binLearntsToAdd[:0]
	c.longLearntsToAdd = c.longLearntsToAdd[:0]
}
