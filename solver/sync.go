package solver

import "sort"

// Cross-worker clause exchange: draining the controller's queues into
// local staging buffers, installing the staged clauses, publishing
// learnt clauses, and the barrier-coordinated cleanup rounds.

// stagedClause is a long clause copied out of the shared arena under
// the critical region, waiting to be installed locally.
type stagedClause struct {
	ref    ClauseRef // handle in the shared arena
	lits   []Lit
	glue   int
	learnt bool
}

// syncFromControl drains the exchange queues into the staging buffers.
// The critical region must be held: long clauses are copied out of the
// shared arena here so installation never touches it.
func (w *Worker) syncFromControl() {
	c := w.control
	w.unitToAdd = append(w.unitToAdd, c.unitLearntsToAdd[w.lastUnit:]...)
	w.lastUnit = len(c.unitLearntsToAdd)
	w.binToAdd = append(w.binToAdd, c.binLearntsToAdd[w.lastBin:]...)
	w.lastBin = len(c.binLearntsToAdd)
	for _, ref := range c.longLearntsToAdd[w.lastLong:] {
		shared := c.arena.clause(ref)
		w.longToAdd = append(w.longToAdd, stagedClause{
			ref:    ref,
			lits:   shared.Lits(),
			glue:   shared.Glue(),
			learnt: shared.Learnt(),
		})
	}
	w.lastLong = len(c.longLearntsToAdd)
}

// publishLearnt publishes one learnt clause and drains whatever the
// siblings published since the last sync, in a single critical region.
// The consume counters step over our own publication.
func (w *Worker) publishLearnt(lits []Lit, glue int) ClauseRef {
	c := w.control
	c.mu.Lock()
	defer c.mu.Unlock()
	w.syncFromControl()
	ref := c.newClauseByThread(lits, glue, w.id, w.Stats.NbConflicts)
	switch len(lits) {
	case 1:
		w.lastUnit++
	case 2:
		w.lastBin++
	default:
		w.lastLong++
	}
	return ref
}

// publishNewUnits publishes the facts appended to the trail at level 0
// since position from.
func (w *Worker) publishNewUnits(from int) {
	c := w.control
	c.mu.Lock()
	defer c.mu.Unlock()
	w.syncFromControl()
	for _, l := range w.trail[from:] {
		c.newClauseByThread([]Lit{l}, 1, w.id, w.Stats.NbConflicts)
		w.lastUnit++
	}
}

// installOtherClauses installs every staged clause. It may backtrack to
// make an ingested clause propagate. It returns false when an ingested
// clause is falsified at level 0, in which case ok is cleared.
func (w *Worker) installOtherClauses() bool {
	for _, l := range w.unitToAdd {
		if w.litValue(l) == True && w.level(l.Var()) == 0 {
			continue
		}
		w.cancelUntil(0)
		switch w.litValue(l) {
		case True:
		case Undef:
			w.enqueue(l, reason{})
		default:
			w.ok = false
			return false
		}
	}
	w.Stats.NbImported += uint64(len(w.unitToAdd))
	w.unitToAdd = w.unitToAdd[:0]

	for i, b := range w.binToAdd {
		if !w.installBinary(b) {
			w.Stats.NbImported += uint64(i)
			w.binToAdd = w.binToAdd[:0]
			w.ok = false
			return false
		}
	}
	w.Stats.NbImported += uint64(len(w.binToAdd))
	w.binToAdd = w.binToAdd[:0]

	for i, sc := range w.longToAdd {
		if !w.installLong(sc) {
			w.Stats.NbImported += uint64(i)
			w.longToAdd = w.longToAdd[:0]
			w.ok = false
			return false
		}
	}
	w.Stats.NbImported += uint64(len(w.longToAdd))
	w.longToAdd = w.longToAdd[:0]
	return true
}

// installBinary attaches an ingested binary clause and repairs the
// assignment so the clause is respected.
func (w *Worker) installBinary(b BinaryClause) bool {
	w.attachBinary(b.First, b.Second, b.Learnt)
	l0, l1 := b.First, b.Second
	if w.litValue(l0) == True || w.litValue(l1) == True {
		return true
	}
	if w.litValue(l1) == Undef {
		l0, l1 = l1, l0
	}
	if w.litValue(l1) == Undef { // both free
		return true
	}
	if w.litValue(l0) == Undef { // one free, one false
		w.enqueue(l0, reason{kind: reasonBinary, lit1: l1})
		return true
	}
	// Both false: back up below the higher of the two levels.
	if w.level(l0.Var()) < w.level(l1.Var()) {
		l0, l1 = l1, l0
	}
	if w.level(l0.Var()) == 0 {
		w.cancelUntil(0)
		return false
	}
	w.cancelUntil(w.level(l0.Var()) - 1)
	if w.litValue(l1) == False {
		w.enqueue(l0, reason{kind: reasonBinary, lit1: l1})
	}
	// Otherwise both got unassigned (they shared a level); nothing to do.
	return true
}

// installLong attaches an ingested clause of size >= 3. The literal
// positions are ordered by attach priority first: true before undef
// before false, higher decision level first within equal values, so
// positions 0 and 1 are the best possible watches.
func (w *Worker) installLong(sc stagedClause) bool {
	lits := sc.lits
	sort.SliceStable(lits, func(i, j int) bool {
		return w.attachBetter(lits[i], lits[j])
	})
	var from reason
	att := localAttachment{ref: RefUndef}
	if len(lits) == 3 {
		w.attachTernary(lits[0], lits[1], lits[2])
		att.lits = [3]Lit{lits[0], lits[1], lits[2]}
		from = reason{kind: reasonTernary, lit1: lits[1], lit2: lits[2]}
	} else {
		local := w.arena.alloc(lits, sc.learnt, sc.glue)
		w.attachLong(local)
		w.longRefs = append(w.longRefs, local)
		att.ref = local
		from = reason{kind: reasonClause, ref: local}
	}
	w.localByShared[sc.ref] = att

	if w.litValue(lits[0]) == True ||
		(w.litValue(lits[0]) == Undef && w.litValue(lits[1]) == Undef) {
		return true
	}
	// Everything from position 1 on is false here.
	if w.litValue(lits[0]) == Undef {
		w.enqueue(lits[0], from)
		return true
	}
	lastLevel := w.level(lits[0].Var())
	if lastLevel == 0 {
		w.cancelUntil(0)
		return false
	}
	w.cancelUntil(lastLevel - 1)
	if w.litValue(lits[1]) == False {
		w.enqueue(lits[0], from)
	}
	return true
}

// attachBetter orders literals for attachment: true first, then undef,
// then false; within equal values, higher decision level first.
func (w *Worker) attachBetter(a, b Lit) bool {
	rank := func(v Value) int {
		switch v {
		case True:
			return 0
		case Undef:
			return 1
		default:
			return 2
		}
	}
	ra, rb := rank(w.litValue(a)), rank(w.litValue(b))
	if ra != rb {
		return ra < rb
	}
	return w.level(a.Var()) > w.level(b.Var())
}

// cleanupRound is the barrier ladder every worker walks through when
// the global conflict count passes the cleanup limit: drain, install,
// schedule detachments, detach, free. All workers are at level 0 here,
// so no detached clause can be a live reason.
func (w *Worker) cleanupRound() bool {
	c := w.control
	w.cleanupsDone++
	round := w.cleanupsDone

	c.waitAllThreads()
	c.mu.Lock()
	w.syncFromControl()
	c.mu.Unlock()
	c.waitAllThreads()

	ok := w.installOtherClauses()

	c.scheduleCleanupOnce(round)
	c.waitAllThreads()

	for _, ref := range c.toDetach {
		w.detachShared(ref)
	}
	// The queues are about to be reset; restart consumption from scratch.
	w.lastUnit, w.lastBin, w.lastLong = 0, 0, 0
	w.compactLocalArena()
	c.waitAllThreads()

	c.toDetachFreeOnce(round)
	c.waitAllThreads()
	return ok
}

// detachShared detaches the local attachment of a shared learnt clause,
// if this worker has one.
func (w *Worker) detachShared(sharedRef ClauseRef) {
	att, found := w.localByShared[sharedRef]
	if !found {
		return
	}
	delete(w.localByShared, sharedRef)
	w.Stats.NbDeleted++
	if att.ref == RefUndef {
		w.detachTernary(att.lits[0], att.lits[1], att.lits[2])
		return
	}
	w.detachLong(att.ref)
	w.arena.free(att.ref)
	for i, ref := range w.longRefs {
		if ref == att.ref {
			last := len(w.longRefs) - 1
			w.longRefs[i] = w.longRefs[last]
			w.longRefs = w.longRefs[:last]
			break
		}
	}
}

// compactLocalArena compacts the local clause store when a quarter of
// it is garbage, re-patching every handle the worker holds.
func (w *Worker) compactLocalArena() {
	if !w.arena.needsCompact() {
		return
	}
	remap := w.arena.compact()
	for i, ref := range w.longRefs {
		w.longRefs[i] = remap[ref]
	}
	for p := range w.watches {
		ws := w.watches[p]
		for i := range ws {
			if ws[i].kind == watchLong {
				ws[i].ref = remap[ws[i].ref]
			}
		}
	}
	for shared, att := range w.localByShared {
		if att.ref != RefUndef {
			att.ref = remap[att.ref]
			w.localByShared[shared] = att
		}
	}
	// Only level-0 assignments exist here and their reasons are never
	// dereferenced; drop them instead of remapping.
	for v := range w.varData {
		if w.assigns[v] != Undef {
			w.varData[v].reason = reason{}
		}
	}
}
