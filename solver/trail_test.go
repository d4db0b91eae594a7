package solver

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger returns a quiet logger for tests.
func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newTestWorker builds a single worker over the given CNF.
func newTestWorker(t *testing.T, cnf [][]int) *Worker {
	t.Helper()
	pb := ParseSlice(cnf)
	c := NewControl(pb, 1, DefaultConf(), testLogger())
	return NewWorker(c, 0)
}

func TestEnqueueCancelRoundTrip(t *testing.T) {
	w := newTestWorker(t, [][]int{{1, 2, 3}})
	l := IntToLit(-2)
	v := l.Var()

	w.newDecisionLevel()
	w.enqueue(l, reason{})
	assert.Equal(t, False, w.value(v))
	assert.Equal(t, True, w.litValue(l))
	assert.Equal(t, int32(1), w.level(v))
	assert.Equal(t, reasonNone, w.varData[v].reason.kind)
	assert.Equal(t, []Lit{l}, w.trail)

	w.cancelUntil(0)
	assert.Equal(t, Undef, w.value(v))
	assert.Equal(t, int32(0), w.decisionLevel())
	assert.Empty(t, w.trail)
	assert.False(t, w.polarity[v], "phase saving must remember the last binding")
	assert.True(t, w.order.contains(int(v)))
}

func TestEnqueueAssignedPanics(t *testing.T) {
	w := newTestWorker(t, [][]int{{1, 2, 3}})
	w.newDecisionLevel()
	w.enqueue(IntToLit(1), reason{})
	assert.Panics(t, func() { w.enqueue(IntToLit(1), reason{}) })
	assert.Panics(t, func() { w.enqueue(IntToLit(-1), reason{}) })
}

func TestCancelUntilPartial(t *testing.T) {
	w := newTestWorker(t, [][]int{{1, 2, 3, 4}})
	w.newDecisionLevel()
	w.enqueue(IntToLit(-1), reason{})
	w.newDecisionLevel()
	w.enqueue(IntToLit(-2), reason{})
	w.newDecisionLevel()
	w.enqueue(IntToLit(-3), reason{})
	require.Equal(t, int32(3), w.decisionLevel())

	w.cancelUntil(1)
	assert.Equal(t, int32(1), w.decisionLevel())
	assert.Equal(t, False, w.value(IntToVar(1)))
	assert.Equal(t, Undef, w.value(IntToVar(2)))
	assert.Equal(t, Undef, w.value(IntToVar(3)))
	assert.Equal(t, 1, len(w.trail))
	assert.Equal(t, len(w.trail), w.qhead)
}

// countWatchers returns how many watch entries across all lists match.
func countWatchers(w *Worker, match func(watcher) bool) int {
	n := 0
	for _, ws := range w.watches {
		for _, wt := range ws {
			if match(wt) {
				n++
			}
		}
	}
	return n
}

func TestAttachDetachBinaryRoundTrip(t *testing.T) {
	w := newTestWorker(t, [][]int{{4, 5}})
	a, b := IntToLit(1), IntToLit(-3)
	before := countWatchers(w, func(wt watcher) bool { return true })
	w.attachBinary(a, b, true)
	assert.Len(t, w.watches[a.Negation()], 1)
	assert.Len(t, w.watches[b.Negation()], 1)
	w.detachBinary(a, b)
	assert.Equal(t, before, countWatchers(w, func(wt watcher) bool { return true }))
	assert.Empty(t, w.watches[a.Negation()])
	assert.Empty(t, w.watches[b.Negation()])
}

func TestAttachDetachTernaryRoundTrip(t *testing.T) {
	w := newTestWorker(t, [][]int{{1, 2}})
	a, b, c := IntToLit(1), IntToLit(2), IntToLit(-2)
	w.attachTernary(a, b, c)
	assert.Equal(t, 3, countWatchers(w, func(wt watcher) bool { return wt.kind == watchTernary }))
	w.detachTernary(a, b, c)
	assert.Equal(t, 0, countWatchers(w, func(wt watcher) bool { return wt.kind == watchTernary }))
}

func TestAttachDetachLongRoundTrip(t *testing.T) {
	w := newTestWorker(t, [][]int{{9, 10}})
	lits := []Lit{IntToLit(1), IntToLit(2), IntToLit(3), IntToLit(4)}
	ref := w.arena.alloc(lits, true, 2)
	w.attachLong(ref)
	assert.Len(t, w.watches[lits[0].Negation()], 1)
	assert.Len(t, w.watches[lits[1].Negation()], 1)
	assert.Equal(t, 2, countWatchers(w, func(wt watcher) bool { return wt.kind == watchLong && wt.ref == ref }))
	w.detachLong(ref)
	assert.Equal(t, 0, countWatchers(w, func(wt watcher) bool { return wt.kind == watchLong }))
}

// checkWatchInvariant verifies that every attached long clause is
// watched exactly at its positions 0 and 1, and nowhere else.
func checkWatchInvariant(t *testing.T, w *Worker) {
	t.Helper()
	for _, ref := range w.longRefs {
		ref := ref
		c := w.arena.clause(ref)
		in := func(l Lit) bool {
			for _, wt := range w.watches[l.Negation()] {
				if wt.kind == watchLong && wt.ref == ref {
					return true
				}
			}
			return false
		}
		assert.True(t, in(c.First()), "clause %s must be watched on its first literal", c.CNF())
		assert.True(t, in(c.Second()), "clause %s must be watched on its second literal", c.CNF())
		total := countWatchers(w, func(wt watcher) bool { return wt.kind == watchLong && wt.ref == ref })
		assert.Equal(t, 2, total, "clause %s must have exactly two watchers", c.CNF())
	}
}
