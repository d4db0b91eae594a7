package solver

// Watch lists. watches[l] holds the watchers that must be visited when l
// becomes true, i.e. when its negation becomes false. A watcher is a
// closed tagged variant: binary and ternary clauses are stored inline to
// avoid dereferencing the arena, long clauses are (handle, blocker) pairs.

type watchKind byte

const (
	watchBinary watchKind = iota
	watchTernary
	watchLong
)

type watcher struct {
	kind   watchKind
	learnt bool // binary watchers only
	other  Lit  // binary: companion lit; ternary: first companion; long: blocker
	other2 Lit  // ternary: second companion
	ref    ClauseRef
}

// attachBinary watches the clause {a, b}.
func (w *Worker) attachBinary(a, b Lit, learnt bool) {
	w.watches[a.Negation()] = append(w.watches[a.Negation()], watcher{kind: watchBinary, other: b, learnt: learnt})
	w.watches[b.Negation()] = append(w.watches[b.Negation()], watcher{kind: watchBinary, other: a, learnt: learnt})
}

// attachTernary watches the clause {a, b, c} in all three lists, so the
// propagator never needs positional bookkeeping for it.
func (w *Worker) attachTernary(a, b, c Lit) {
	w.watches[a.Negation()] = append(w.watches[a.Negation()], watcher{kind: watchTernary, other: b, other2: c})
	w.watches[b.Negation()] = append(w.watches[b.Negation()], watcher{kind: watchTernary, other: a, other2: c})
	w.watches[c.Negation()] = append(w.watches[c.Negation()], watcher{kind: watchTernary, other: a, other2: b})
}

// attachLong watches positions 0 and 1 of the clause behind ref, each
// with the other watched literal as initial blocker.
func (w *Worker) attachLong(ref ClauseRef) {
	c := w.arena.clause(ref)
	first, second := c.First(), c.Second()
	w.watches[first.Negation()] = append(w.watches[first.Negation()], watcher{kind: watchLong, ref: ref, other: second})
	w.watches[second.Negation()] = append(w.watches[second.Negation()], watcher{kind: watchLong, ref: ref, other: first})
}

// detachBinary removes the watchers of the clause {a, b}.
func (w *Worker) detachBinary(a, b Lit) {
	w.removeWatcher(a.Negation(), func(wt watcher) bool { return wt.kind == watchBinary && wt.other == b })
	w.removeWatcher(b.Negation(), func(wt watcher) bool { return wt.kind == watchBinary && wt.other == a })
}

// detachTernary removes the three watchers of the clause {a, b, c}.
func (w *Worker) detachTernary(a, b, c Lit) {
	same := func(x, y, p, q Lit) bool { return (x == p && y == q) || (x == q && y == p) }
	w.removeWatcher(a.Negation(), func(wt watcher) bool { return wt.kind == watchTernary && same(wt.other, wt.other2, b, c) })
	w.removeWatcher(b.Negation(), func(wt watcher) bool { return wt.kind == watchTernary && same(wt.other, wt.other2, a, c) })
	w.removeWatcher(c.Negation(), func(wt watcher) bool { return wt.kind == watchTernary && same(wt.other, wt.other2, a, b) })
}

// detachLong removes the two watchers of the clause behind ref. The
// clause's current positions 0 and 1 are the watched ones.
func (w *Worker) detachLong(ref ClauseRef) {
	c := w.arena.clause(ref)
	byRef := func(wt watcher) bool { return wt.kind == watchLong && wt.ref == ref }
	w.removeWatcher(c.First().Negation(), byRef)
	w.removeWatcher(c.Second().Negation(), byRef)
}

// removeWatcher removes the first watcher of p's list matching the
// predicate. The watcher must be present.
func (w *Worker) removeWatcher(p Lit, match func(watcher) bool) {
	ws := w.watches[p]
	i := 0
	for !match(ws[i]) {
		i++
	}
	last := len(ws) - 1
	ws[i] = ws[last]
	w.watches[p] = ws[:last]
}
