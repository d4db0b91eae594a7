package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoWorkers builds two workers sharing one control.
func twoWorkers(t *testing.T, cnf [][]int) (*Control, *Worker, *Worker) {
	t.Helper()
	pb := ParseSlice(cnf)
	c := NewControl(pb, 2, DefaultConf(), testLogger())
	return c, NewWorker(c, 0), NewWorker(c, 1)
}

func TestPublishAndIngestUnit(t *testing.T) {
	c, w0, w1 := twoWorkers(t, [][]int{{1, 2, 3}})
	ref := w0.publishLearnt([]Lit{IntToLit(1)}, 1)
	assert.Equal(t, RefUndef, ref, "units have no shared handle")
	assert.Len(t, c.unitLearntsToAdd, 1)

	c.mu.Lock()
	w1.syncFromControl()
	c.mu.Unlock()
	require.True(t, w1.installOtherClauses())
	assert.Equal(t, True, w1.litValue(IntToLit(1)))
	assert.Equal(t, int32(0), w1.level(IntToVar(1)))

	// The publisher must not re-ingest its own clause.
	c.mu.Lock()
	w0.syncFromControl()
	c.mu.Unlock()
	require.True(t, w0.installOtherClauses())
	assert.Equal(t, Undef, w0.litValue(IntToLit(1)))
}

func TestPublishAndIngestBinary(t *testing.T) {
	c, w0, w1 := twoWorkers(t, [][]int{{1, 2, 3}})
	ref := w0.publishLearnt([]Lit{IntToLit(1), IntToLit(-2)}, 2)
	assert.Equal(t, RefUndef, ref)
	assert.Len(t, c.binLearntsToAdd, 1)

	c.mu.Lock()
	w1.syncFromControl()
	c.mu.Unlock()
	require.True(t, w1.installOtherClauses())
	assert.Equal(t, 1, countWatchers(w1, func(wt watcher) bool { return wt.kind == watchBinary && wt.learnt && wt.other == IntToLit(1) }))

	// The ingested binary propagates like a native one.
	w1.newDecisionLevel()
	w1.enqueue(IntToLit(2), reason{})
	require.Nil(t, w1.propagate())
	assert.Equal(t, True, w1.litValue(IntToLit(1)))
}

func TestPublishAndIngestLong(t *testing.T) {
	c, w0, w1 := twoWorkers(t, [][]int{{1, 2, 3, 4, 5}})
	lits := []Lit{IntToLit(1), IntToLit(2), IntToLit(3), IntToLit(4)}
	ref := w0.publishLearnt(lits, 3)
	require.NotEqual(t, RefUndef, ref)
	assert.Len(t, c.longLearntsToAdd, 1)
	assert.True(t, c.arena.clause(ref).Learnt())

	c.mu.Lock()
	w1.syncFromControl()
	c.mu.Unlock()
	require.True(t, w1.installOtherClauses())
	att, found := w1.localByShared[ref]
	require.True(t, found)
	assert.NotEqual(t, RefUndef, att.ref)
	assert.ElementsMatch(t, lits, w1.arena.clause(att.ref).Lits())
	checkWatchInvariant(t, w1)
}

func TestIngestUnitConflictPoisonsWorker(t *testing.T) {
	_, w0, w1 := twoWorkers(t, [][]int{{1, 2, 3}, {-1}})
	// w1 already knows -1 at level 0; an ingested unit 1 is the empty clause.
	w0.publishLearnt([]Lit{IntToLit(1)}, 1)
	c := w1.control
	c.mu.Lock()
	w1.syncFromControl()
	c.mu.Unlock()
	require.False(t, w1.installOtherClauses())
	assert.False(t, w1.ok)
	assert.Equal(t, Unsat, w1.Solve(nil, noBudget))
}

func TestIngestLongBacktracks(t *testing.T) {
	_, w0, w1 := twoWorkers(t, [][]int{{1, 2, 3, 4, 5}})
	// w1 deep in a branch that falsifies the incoming clause.
	for _, l := range []int{-1, -2, -3} {
		w1.newDecisionLevel()
		w1.enqueue(IntToLit(l), reason{})
		require.Nil(t, w1.propagate())
	}
	w0.publishLearnt([]Lit{IntToLit(1), IntToLit(2), IntToLit(3)}, 3)
	c := w1.control
	c.mu.Lock()
	w1.syncFromControl()
	c.mu.Unlock()
	require.True(t, w1.installOtherClauses())
	// The clause asserts its last-falsified literal after backtracking.
	assert.Equal(t, int32(2), w1.decisionLevel())
	assert.Equal(t, True, w1.litValue(IntToLit(3)))
}

func TestCleanupRoundDetachesSharedClauses(t *testing.T) {
	pb := ParseSlice([][]int{{1, 2, 3, 4, 5}})
	conf := DefaultConf()
	c := NewControl(pb, 1, conf, testLogger())
	w := NewWorker(c, 0)
	// Publish six mediocre clauses (glue > 2).
	var refs []ClauseRef
	for i := 0; i < 6; i++ {
		lits := []Lit{IntToLit(1), IntToLit(2), IntToLit(3), IntToLit(i%2 + 4)}
		refs = append(refs, w.publishLearnt(lits, 5))
	}
	c.mu.Lock()
	w.syncFromControl()
	c.mu.Unlock()

	// Attach them locally the way handleConflict would.
	for _, ref := range refs {
		shared := c.arena.clause(ref)
		local := w.arena.alloc(shared.Lits(), true, shared.Glue())
		w.attachLong(local)
		w.longRefs = append(w.longRefs, local)
		w.localByShared[ref] = localAttachment{ref: local}
	}
	require.Len(t, c.learnts, 6)

	require.True(t, w.cleanupRound())
	assert.Len(t, c.learnts, 3, "half of the learnt clauses are dropped")
	assert.Empty(t, c.toDetach, "toDetachFree must release the list")
	assert.Empty(t, c.longLearntsToAdd, "queues are reset at cleanup")
	assert.Equal(t, 0, w.lastLong)
	assert.Equal(t, uint64(3), w.Stats.NbDeleted)
	assert.Len(t, w.localByShared, 3)
	checkWatchInvariant(t, w)
}

func TestBarrierLeaveUnblocks(t *testing.T) {
	b := newBarrier(2)
	done := make(chan struct{})
	go func() {
		b.wait()
		close(done)
	}()
	b.leave()
	<-done
}
