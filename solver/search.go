package solver

import (
	"math/rand"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// A Worker is one CDCL search engine. It owns its trail, watch lists
// and variable state, and exchanges learnt clauses with its siblings
// through the shared Control. A Worker runs straight-line on a single
// goroutine; the only interaction points with shared state are the
// controller's critical region and the cleanup barriers.
type Worker struct {
	id      int
	control *Control
	conf    Conf
	log     logrus.FieldLogger
	rand    *rand.Rand

	// ok turns false once the empty clause was derived; every
	// subsequent Solve call returns Unsat without work.
	ok bool

	nbVars      int
	assigns     []Value
	varData     []varData
	polarity    []bool // saved phase of each var
	decisionVar []bool
	activity    []float64 // how often each var is involved in conflicts
	varInc      float64
	varDecay    float64
	order       varOrder

	arena    arena       // worker-local clause store
	watches  [][]watcher // for each literal, the watchers to visit when it becomes true
	longRefs []ClauseRef // long clauses attached in the local arena

	trail    []Lit
	trailLim []int32
	qhead    int

	assumptions []Lit

	// Analysis buffers, reused across conflicts.
	seenVar    []bool
	seenLit    []bool
	learntBuf  []Lit
	levelStamp []uint32
	stamp      uint32

	implCache    [][]Lit // per-literal implied literals, may be nil
	litReachable []Lit   // per-literal dominating literal, may be nil

	agility       agilityData
	glueHist      histQueue
	conflSizeHist histQueue
	branchHist    histQueue

	// Sync state: how much of each controller queue was consumed, and
	// the staging buffers filled under the critical region.
	lastUnit  int
	lastBin   int
	lastLong  int
	unitToAdd []Lit
	binToAdd  []BinaryClause
	longToAdd []stagedClause
	// For every shared learnt clause attached locally, how to find it again.
	localByShared map[ClauseRef]localAttachment
	cleanupsDone  uint64

	localRestarts   uint
	needToInterrupt atomic.Bool

	solution []Value // populated on Sat
	conflict []Lit   // populated on Unsat under assumptions

	// Stats hold the worker's solving statistics.
	Stats Stats
}

// localAttachment records how a shared learnt clause was attached
// locally: as a record in the local arena, or inline when ternary.
type localAttachment struct {
	ref  ClauseRef // RefUndef for inline ternaries
	lits [3]Lit
}

// NewWorker creates a worker bound to the given control, attaches every
// original clause and propagates the level-0 facts.
func NewWorker(c *Control, id int) *Worker {
	nbVars := c.nbVars
	w := &Worker{
		id:            id,
		control:       c,
		conf:          c.conf,
		log:           c.log.WithField("worker", id),
		rand:          rand.New(rand.NewSource(c.conf.Seed + int64(id))),
		ok:            c.ok,
		nbVars:        nbVars,
		assigns:       make([]Value, nbVars),
		varData:       make([]varData, nbVars),
		polarity:      make([]bool, nbVars),
		decisionVar:   make([]bool, nbVars),
		activity:      make([]float64, nbVars),
		varInc:        1.0,
		varDecay:      c.conf.VarDecay,
		watches:       make([][]watcher, nbVars*2),
		trail:         make([]Lit, 0, nbVars),
		seenVar:       make([]bool, nbVars),
		seenLit:       make([]bool, nbVars*2),
		levelStamp:    make([]uint32, nbVars+1),
		implCache:     c.implCache,
		litReachable:  c.litReachable,
		agility:       newAgilityData(c.conf.AgilityG),
		glueHist:      newHistQueue(c.conf.ShortTermGlueHistorySize),
		conflSizeHist: newHistQueue(1000),
		branchHist:    newHistQueue(500),
		localByShared: make(map[ClauseRef]localAttachment),
	}
	copy(w.decisionVar, c.decisionVar)
	w.order = newVarOrder(w.activity)
	if !w.ok {
		return w
	}
	for _, b := range c.binClauses {
		w.attachBinary(b.First, b.Second, b.Learnt)
	}
	for _, ref := range c.clauses {
		shared := c.arena.clause(ref)
		lits := shared.Lits()
		if len(lits) == 3 {
			w.attachTernary(lits[0], lits[1], lits[2])
		} else {
			local := w.arena.alloc(lits, false, 0)
			w.attachLong(local)
			w.longRefs = append(w.longRefs, local)
		}
	}
	for _, l := range c.trail {
		switch w.litValue(l) {
		case Undef:
			w.enqueue(l, reason{})
		case False:
			w.ok = false
			return w
		}
	}
	if w.propagate() != nil {
		w.ok = false
	}
	return w
}

// Solve searches for a model under the given assumptions, within the
// given global conflict budget. It returns Sat (Model is then
// available), Unsat (Conflict holds the assumption conflict set, if
// any) or Indet when the budget ran out or the worker was interrupted.
func (w *Worker) Solve(assumptions []Lit, maxConfls uint64) Status {
	if !w.ok {
		return Unsat
	}
	w.assumptions = assumptions
	w.conflict = nil
	w.solution = nil
	w.localRestarts = 0

	// Pick up whatever the siblings published before this call.
	w.control.mu.Lock()
	w.syncFromControl()
	w.control.mu.Unlock()
	if !w.installOtherClauses() {
		w.cancelUntil(0)
		return Unsat
	}

	status := Indet
	for status == Indet && !w.needToInterrupt.Load() && w.control.sumConflicts() < maxConfls {
		w.localRestarts++
		budget := w.conf.RestartBase * uint64(luby(w.localRestarts))
		if remaining := maxConfls - w.control.sumConflicts(); remaining < budget {
			budget = remaining
		}
		params := searchParams{conflictsToDo: budget}
		status = w.search(&params)
		if w.control.sumConflicts() >= maxConfls {
			break
		}
		if status == Indet && w.control.sumConflicts() > w.control.getNextCleanLimit() {
			if !w.cleanupRound() {
				status = Unsat
			}
		}
	}
	if status == Sat {
		w.solution = make([]Value, len(w.assigns))
		copy(w.solution, w.assigns)
	} else if status == Unsat && len(w.conflict) == 0 {
		w.ok = false
	}
	w.cancelUntil(0)
	fields := logrus.Fields{
		"status":    status,
		"conflicts": w.Stats.NbConflicts,
		"restarts":  w.Stats.NbRestarts,
		"avgGlue":   w.glueHist.avgAll(),
		"avgSize":   w.conflSizeHist.avgAll(),
		"avgDepth":  w.branchHist.avgAll(),
	}
	if w.glueHist.valid() {
		fields["recentGlue"] = w.glueHist.avg()
	}
	w.log.WithFields(fields).Debug("solve finished")
	return status
}

// search runs the decide/propagate/analyse/backtrack loop until a
// definitive answer or a restart.
func (w *Worker) search(params *searchParams) Status {
	w.Stats.NbRestarts++
	w.glueHist.fastClear()
	w.agility.reset()
	for {
		oldTrailSize := len(w.trail)
		confl := w.propagate()
		if w.decisionLevel() == 0 && len(w.trail) > oldTrailSize {
			w.publishNewUnits(oldTrailSize)
		}
		if confl != nil {
			w.checkNeedRestart(params)
			if !w.handleConflict(params, confl) {
				return Unsat
			}
			if !w.installOtherClauses() {
				return Unsat
			}
		} else {
			if params.needToStopSearch || w.control.sumConflicts() > w.control.getNextCleanLimit() {
				w.cancelUntil(0)
				return Indet
			}
			if st := w.newDecision(); st != Indet {
				return st
			}
		}
	}
}

// newDecision performs the next assumption if any remains, otherwise
// picks a branching literal. Returns Sat when no free variable is
// left, Unsat when an assumption is falsified, Indet to keep searching.
func (w *Worker) newDecision() Status {
	next := LitUndef
	for next == LitUndef && int(w.decisionLevel()) < len(w.assumptions) {
		p := w.assumptions[w.decisionLevel()]
		switch w.litValue(p) {
		case True:
			w.newDecisionLevel() // dummy level: the assumption already holds
		case False:
			w.conflict = w.analyzeFinal(p.Negation())
			return Unsat
		default:
			next = p
		}
	}
	if next == LitUndef {
		w.Stats.NbDecisions++
		next = w.pickBranchLit()
		if next == LitUndef {
			return Sat
		}
	}
	w.newDecisionLevel()
	w.enqueue(next, reason{})
	return Indet
}

// pickBranchLit returns the next decision literal, or LitUndef when
// every decision variable is bound (a model was found).
func (w *Worker) pickBranchLit() Lit {
	next := Var(-1)
	if w.conf.RandomVarFreq > 0 && !w.order.empty() && w.rand.Float64() < w.conf.RandomVarFreq {
		if v := Var(w.order.get(w.rand.Intn(w.order.len()))); w.value(v) == Undef && w.decisionVar[v] {
			next = v
			w.Stats.NbRndDecisions++
		}
	}
	for next == -1 || w.value(next) != Undef || !w.decisionVar[next] {
		if w.order.empty() {
			return LitUndef
		}
		next = Var(w.order.removeMin())
	}
	lit := next.SignedLit(!w.polarity[next])
	if w.litReachable != nil && w.rand.Intn(2) == 1 {
		// Half of the time, branch on a literal known to dominate this one.
		if l2 := w.litReachable[lit]; l2 != LitUndef && l2 != lit &&
			w.value(l2.Var()) == Undef && w.decisionVar[l2.Var()] {
			w.insertVarOrder(next)
			lit = l2
		}
	}
	return lit
}

// handleConflict analyses the conflict, publishes and attaches the
// learnt clause, and enqueues its asserting literal. Returns false when
// the conflict proves unsatisfiability.
func (w *Worker) handleConflict(params *searchParams, confl *conflict) bool {
	w.Stats.NbConflicts++
	params.conflictsDone++
	if w.decisionLevel() == 0 {
		return false
	}
	w.branchHist.push(int(w.decisionLevel()))
	learnt, btLevel, glue := w.analyze(confl)
	w.glueHist.push(glue)
	w.conflSizeHist.push(len(learnt))
	w.cancelUntil(btLevel)
	if w.Stats.NbConflicts%5000 == 0 && w.varDecay < 0.95 {
		w.varDecay += 0.01
	}
	sharedRef := w.publishLearnt(learnt, glue)
	switch len(learnt) {
	case 1:
		w.Stats.NbUnitLearned++
		w.enqueue(learnt[0], reason{})
	case 2:
		w.Stats.NbBinaryLearned++
		w.attachBinary(learnt[0], learnt[1], true)
		w.enqueue(learnt[0], reason{kind: reasonBinary, lit1: learnt[1]})
	case 3:
		w.attachTernary(learnt[0], learnt[1], learnt[2])
		w.localByShared[sharedRef] = localAttachment{ref: RefUndef, lits: [3]Lit{learnt[0], learnt[1], learnt[2]}}
		w.enqueue(learnt[0], reason{kind: reasonTernary, lit1: learnt[1], lit2: learnt[2]})
	default:
		local := w.arena.alloc(learnt, true, glue)
		w.attachLong(local)
		w.longRefs = append(w.longRefs, local)
		w.localByShared[sharedRef] = localAttachment{ref: local}
		w.enqueue(learnt[0], reason{kind: reasonClause, ref: local})
	}
	w.Stats.NbLearned++
	return true
}

func (w *Worker) varDecayActivity() {
	w.varInc *= 1 / w.varDecay
}

func (w *Worker) varBumpActivity(v Var) {
	w.activity[v] += w.varInc
	if w.activity[v] > 1e100 { // Rescaling is needed to avoid overflowing
		for i := range w.activity {
			w.activity[i] *= 1e-100
		}
		w.varInc *= 1e-100
	}
	if w.order.contains(int(v)) {
		w.order.decrease(int(v))
	}
}

// SetNeedToInterrupt asks the worker to stop cooperatively: the current
// propagation and analysis run to completion, the next restart check
// requests a restart and Solve returns Indet.
func (w *Worker) SetNeedToInterrupt() {
	w.needToInterrupt.Store(true)
}

// NumConflicts returns the number of conflicts this worker went through.
func (w *Worker) NumConflicts() uint64 {
	return w.Stats.NbConflicts
}

// Model returns the assignment found by the last successful Solve call.
// It panics if the worker's last status was not Sat.
func (w *Worker) Model() []bool {
	if w.solution == nil {
		panic("cannot call Model() on a non-Sat worker")
	}
	res := make([]bool, w.nbVars)
	for i, val := range w.solution {
		res[i] = val == True
	}
	return res
}

// Conflict returns the assumption conflict set of the last Unsat
// answer, or nil if the problem is unsatisfiable regardless of
// assumptions.
func (w *Worker) Conflict() []Lit {
	return w.conflict
}
