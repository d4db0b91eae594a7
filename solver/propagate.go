package solver

// Boolean constraint propagation over the watch lists.

// propagate runs unit propagation from qhead until fixpoint or conflict.
// It returns nil if no conflict arose. Clause ingestion is quiesced by
// the caller: nothing may touch the watch lists while this runs.
func (w *Worker) propagate() *conflict {
	for w.qhead < len(w.trail) {
		p := w.trail[w.qhead] // p is now true; watchers of p see its negation falsified
		w.qhead++
		falseLit := p.Negation()
		ws := w.watches[p]
		i, j := 0, 0
		for i < len(ws) {
			wt := ws[i]
			switch wt.kind {
			case watchBinary:
				switch w.litValue(wt.other) {
				case False:
					w.watches[p] = compactWatchers(ws, i, j)
					return &conflict{kind: reasonBinary, fail: falseLit, lit1: wt.other}
				case Undef:
					w.enqueue(wt.other, reason{kind: reasonBinary, lit1: falseLit})
				}
				ws[j] = wt
				j++
				i++
			case watchTernary:
				va, vb := w.litValue(wt.other), w.litValue(wt.other2)
				switch {
				case va == True || vb == True:
				case va == False && vb == False:
					w.watches[p] = compactWatchers(ws, i, j)
					return &conflict{kind: reasonTernary, fail: falseLit, lit1: wt.other, lit2: wt.other2}
				case va == Undef && vb == False:
					w.enqueue(wt.other, reason{kind: reasonTernary, lit1: falseLit, lit2: wt.other2})
				case va == False && vb == Undef:
					w.enqueue(wt.other2, reason{kind: reasonTernary, lit1: falseLit, lit2: wt.other})
				}
				ws[j] = wt
				j++
				i++
			case watchLong:
				if w.litValue(wt.other) == True { // blocker fast path
					ws[j] = wt
					j++
					i++
					continue
				}
				c := w.arena.clause(wt.ref)
				if c.First() == falseLit {
					c.swap(0, 1)
				}
				first := c.First()
				if first != wt.other && w.litValue(first) == True {
					ws[j] = watcher{kind: watchLong, ref: wt.ref, other: first}
					j++
					i++
					continue
				}
				found := false
				for k := 2; k < c.Len(); k++ {
					if w.litValue(c.Get(k)) != False {
						c.swap(1, k)
						neg := c.Second().Negation()
						w.watches[neg] = append(w.watches[neg], watcher{kind: watchLong, ref: wt.ref, other: first})
						found = true
						break
					}
				}
				if found { // watcher moved to the new literal's list
					i++
					continue
				}
				switch w.litValue(first) {
				case True:
					ws[j] = watcher{kind: watchLong, ref: wt.ref, other: first}
					j++
					i++
				case Undef:
					w.enqueue(first, reason{kind: reasonClause, ref: wt.ref})
					ws[j] = watcher{kind: watchLong, ref: wt.ref, other: first}
					j++
					i++
				default:
					w.watches[p] = compactWatchers(ws, i, j)
					return &conflict{kind: reasonClause, ref: wt.ref}
				}
			}
		}
		w.watches[p] = ws[:j]
		w.Stats.NbPropagations++
	}
	return nil
}

// compactWatchers closes the in-place keep/drop walk when propagation
// stops early: everything from i on is kept.
func compactWatchers(ws []watcher, i, j int) []watcher {
	for ; i < len(ws); i++ {
		ws[j] = ws[i]
		j++
	}
	return ws[:j]
}
