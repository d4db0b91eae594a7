package solver

// First-UIP conflict analysis, learnt-clause minimisation and
// final-conflict analysis under assumptions.

// analyze performs first-UIP resolution on the given conflict. It
// returns the learnt clause (asserting literal at position 0, the
// max-level non-asserting literal at position 1), the level to
// backtrack to, and the clause's glue value. The returned slice is
// only valid until the next call.
func (w *Worker) analyze(confl *conflict) ([]Lit, int32, int) {
	if w.decisionLevel() == 0 {
		panic("conflict analysis at level 0")
	}
	learnt := append(w.learntBuf[:0], LitUndef) // room for the asserting literal
	pathC := 0
	p := LitUndef
	idx := len(w.trail) - 1
	cur := *confl
	for {
		w.markAntecedents(&cur, p, &learnt, &pathC)
		for !w.seenVar[w.trail[idx].Var()] {
			idx--
		}
		p = w.trail[idx]
		idx--
		w.seenVar[p.Var()] = false
		pathC--
		if pathC <= 0 {
			break
		}
		cur = w.reasonAsConflict(p)
	}
	learnt[0] = p.Negation()
	w.Stats.MaxLiterals += uint64(len(learnt))

	if w.implCache != nil {
		learnt = w.minimiseLearntFurther(learnt)
	}
	w.Stats.TotLiterals += uint64(len(learnt))
	glue := w.calcGlue(learnt)

	// Find the backtrack level and move its literal to position 1.
	// On ties, the first literal encountered wins.
	var btLevel int32
	if len(learnt) > 1 {
		maxI := 1
		for i := 2; i < len(learnt); i++ {
			if w.level(learnt[i].Var()) > w.level(learnt[maxI].Var()) {
				maxI = i
			}
		}
		learnt[1], learnt[maxI] = learnt[maxI], learnt[1]
		btLevel = w.level(learnt[1].Var())
	}

	for _, l := range learnt {
		w.seenVar[l.Var()] = false
	}
	w.varDecayActivity()
	w.learntBuf = learnt[:0:cap(learnt)]
	return learnt, btLevel, glue
}

// markAntecedents marks the literals of the conflicting (or resolved)
// clause, counting current-level ones in pathC and collecting
// lower-level ones into learnt. Level-0 literals are dropped. p is the
// literal currently being resolved, or LitUndef on the first step.
func (w *Worker) markAntecedents(confl *conflict, p Lit, learnt *[]Lit, pathC *int) {
	skip := Var(-1)
	if p != LitUndef {
		skip = p.Var()
	}
	switch confl.kind {
	case reasonClause:
		c := w.arena.clause(confl.ref)
		for i := 0; i < c.Len(); i++ {
			if q := c.Get(i); q.Var() != skip {
				w.markLit(q, learnt, pathC)
			}
		}
	case reasonTernary:
		w.markLit(confl.lit2, learnt, pathC)
		fallthrough
	case reasonBinary:
		w.markLit(confl.lit1, learnt, pathC)
		if confl.fail != LitUndef {
			w.markLit(confl.fail, learnt, pathC)
		}
	default:
		panic("missing reason during conflict analysis")
	}
}

func (w *Worker) markLit(q Lit, learnt *[]Lit, pathC *int) {
	v := q.Var()
	if w.seenVar[v] || w.level(v) == 0 {
		return
	}
	w.seenVar[v] = true
	w.varBumpActivity(v)
	if w.level(v) == w.decisionLevel() {
		*pathC++
	} else {
		*learnt = append(*learnt, q)
	}
}

// reasonAsConflict turns p's reason into the clause shape the next
// resolution step walks. The implied literal p itself is excluded
// (inline reasons never carry it; clause reasons are skipped by var).
func (w *Worker) reasonAsConflict(p Lit) conflict {
	r := w.varData[p.Var()].reason
	switch r.kind {
	case reasonBinary:
		return conflict{kind: reasonBinary, fail: LitUndef, lit1: r.lit1}
	case reasonTernary:
		return conflict{kind: reasonTernary, fail: LitUndef, lit1: r.lit1, lit2: r.lit2}
	case reasonClause:
		return conflict{kind: reasonClause, ref: r.ref}
	default:
		panic("missing reason during conflict analysis")
	}
}

// calcGlue returns the number of distinct decision levels among lits.
func (w *Worker) calcGlue(lits []Lit) int {
	w.stamp++
	glue := 0
	for _, l := range lits {
		lvl := w.level(l.Var())
		if w.levelStamp[lvl] != w.stamp {
			w.levelStamp[lvl] = w.stamp
			glue++
		}
	}
	return glue
}

// minimiseLearntFurther shrinks the learnt clause by self-subsuming
// resolution against the implication cache and the binary/ternary
// clauses present in the watch lists. Only called when the controller
// supplies an implication cache.
func (w *Worker) minimiseLearntFurther(cl []Lit) []Lit {
	w.Stats.NbMinimiseCalls++
	for _, l := range cl {
		w.seenLit[l] = true
	}
	for _, l := range cl {
		if !w.seenLit[l] {
			continue
		}
		for _, impl := range w.implCache[l.Negation()] {
			w.seenLit[impl.Negation()] = false
		}
		for _, wt := range w.watches[l.Negation()] {
			switch wt.kind {
			case watchBinary:
				w.seenLit[wt.other.Negation()] = false
			case watchTernary:
				if w.seenLit[wt.other2] {
					w.seenLit[wt.other.Negation()] = false
				}
				if w.seenLit[wt.other] {
					w.seenLit[wt.other2.Negation()] = false
				}
			}
		}
	}
	// The asserting literal is always preserved.
	w.seenLit[cl[0]] = true
	j := 0
	for i := 0; i < len(cl); i++ {
		l := cl[i]
		keep := w.seenLit[l]
		w.seenLit[l] = false
		if keep {
			cl[j] = l
			j++
		}
	}
	return cl[:j]
}

// analyzeFinal expresses a conflict in terms of the current
// assumptions: it returns the set of assumption negations that entail
// the assignment of p (p itself included). The walk marks antecedent
// variables down the trail and stops once no marks remain above level 0.
func (w *Worker) analyzeFinal(p Lit) []Lit {
	out := []Lit{p}
	if w.decisionLevel() == 0 {
		return out
	}
	w.seenVar[p.Var()] = true
	marked := 1
	for i := len(w.trail) - 1; i >= int(w.trailLim[0]) && marked > 0; i-- {
		x := w.trail[i].Var()
		if !w.seenVar[x] {
			continue
		}
		w.seenVar[x] = false
		marked--
		r := w.varData[x].reason
		if r.kind == reasonNone {
			out = append(out, w.trail[i].Negation())
			continue
		}
		mark := func(q Lit) {
			if v := q.Var(); v != x && w.level(v) > 0 && !w.seenVar[v] {
				w.seenVar[v] = true
				marked++
			}
		}
		switch r.kind {
		case reasonBinary:
			mark(r.lit1)
		case reasonTernary:
			mark(r.lit1)
			mark(r.lit2)
		case reasonClause:
			c := w.arena.clause(r.ref)
			for j := 0; j < c.Len(); j++ {
				mark(c.Get(j))
			}
		}
	}
	w.seenVar[p.Var()] = false
	return out
}
