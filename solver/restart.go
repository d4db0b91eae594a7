package solver

// Restart heuristics: bounded sliding windows over recent glue and
// conflict sizes, and the agility tracker. A restart fires when the
// interrupt flag is set, when agility stayed under its limit for too
// many consecutive conflicts, or when the restart's conflict budget
// runs out.

// histQueue is a fixed-size ring of recent integer observations with a
// running average over the window and over the whole run.
type histQueue struct {
	vals      []int
	ptr       int
	nb        int    // nb of valid entries in vals
	recentSum int    // sum over the window
	totalNb   uint64 // total number of observations
	totalSum  uint64 // sum of all observations so far
}

func newHistQueue(size int) histQueue {
	return histQueue{vals: make([]int, size)}
}

// push adds an observation, evicting the oldest one once the window is full.
func (h *histQueue) push(v int) {
	h.totalNb++
	h.totalSum += uint64(v)
	if h.nb < len(h.vals) {
		h.vals[h.nb] = v
		h.nb++
		h.recentSum += v
		return
	}
	h.recentSum += v - h.vals[h.ptr]
	h.vals[h.ptr] = v
	h.ptr++
	if h.ptr == len(h.vals) {
		h.ptr = 0
	}
}

// valid is true once the window is fully populated.
func (h *histQueue) valid() bool {
	return h.nb == len(h.vals)
}

// avg is the average over the window.
func (h *histQueue) avg() float64 {
	if h.nb == 0 {
		return 0
	}
	return float64(h.recentSum) / float64(h.nb)
}

// avgAll is the average over every observation so far.
func (h *histQueue) avgAll() float64 {
	if h.totalNb == 0 {
		return 0
	}
	return float64(h.totalSum) / float64(h.totalNb)
}

// fastClear empties the window but keeps the all-time totals.
// Called at each restart.
func (h *histQueue) fastClear() {
	h.ptr = 0
	h.nb = 0
	h.recentSum = 0
}

// agilityData is an exponential moving average of polarity flips: each
// assignment contributes 1 when the chosen polarity differs from the
// saved one, 0 otherwise. Low agility means the search revisits the
// same region and a restart is likely to help.
type agilityData struct {
	g         float64 // smoothing factor, close to 1
	agility   float64
	numTooLow int // consecutive conflicts with agility under the limit
}

func newAgilityData(g float64) agilityData {
	return agilityData{g: g}
}

// update folds one assignment into the moving average.
func (a *agilityData) update(flipped bool) {
	a.agility *= a.g
	if flipped {
		a.agility += 1 - a.g
	}
}

func (a *agilityData) value() float64 {
	return a.agility
}

// countLow records one conflict's agility reading against the limit.
// The too-low counter is consecutive: one healthy reading resets it.
func (a *agilityData) countLow(limit float64) {
	if a.agility < limit {
		a.numTooLow++
	} else {
		a.numTooLow = 0
	}
}

// reset forgets the too-low streak. Called at each restart.
func (a *agilityData) reset() {
	a.numTooLow = 0
}

// searchParams is the per-restart state of the search loop.
type searchParams struct {
	conflictsToDo    uint64 // conflict budget for this restart
	conflictsDone    uint64
	needToStopSearch bool
}

// checkNeedRestart raises needToStopSearch when any restart trigger fires.
func (w *Worker) checkNeedRestart(params *searchParams) {
	if w.needToInterrupt.Load() {
		params.needToStopSearch = true
	}
	w.agility.countLow(w.conf.AgilityLimit)
	if w.agility.numTooLow > w.conf.NumTooLowAgilitiesLimit {
		w.log.WithField("agility", w.agility.value()).Debug("agility too low, restarting as soon as possible")
		params.needToStopSearch = true
	}
	if params.conflictsDone > params.conflictsToDo {
		params.needToStopSearch = true
	}
}
