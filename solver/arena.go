package solver

// The clause arena is a flat, indexable store of variable-length clauses.
// Clauses are contiguous int32 records [header, length, lits...] and are
// referred to by their offset, which is stable until the arena is compacted.
// Each worker owns a private arena for the clauses it has attached; the
// controller owns a shared one whose records are immutable once published.

// ClauseRef is a stable handle on a clause inside an arena.
type ClauseRef uint32

// RefUndef is the "no clause" handle.
const RefUndef = ^ClauseRef(0)

const (
	hdrLearnt  = uint32(1) << 31
	hdrDead    = uint32(1) << 30
	hdrGlue    = hdrDead - 1 // 30 lowest bits hold the glue value
	recordMeta = 2           // words per record before the literals
)

type arena struct {
	data   []int32
	wasted int // words occupied by freed records
}

// alloc copies lits into a new record and returns its handle.
func (a *arena) alloc(lits []Lit, learnt bool, glue int) ClauseRef {
	hdr := uint32(glue) & hdrGlue
	if learnt {
		hdr |= hdrLearnt
	}
	ref := ClauseRef(len(a.data))
	a.data = append(a.data, int32(hdr), int32(len(lits)))
	for _, l := range lits {
		a.data = append(a.data, int32(l))
	}
	return ref
}

// clause returns an accessor on the record at ref.
func (a *arena) clause(ref ClauseRef) Clause {
	return Clause{a: a, off: int(ref)}
}

// free marks the record at ref as dead. The handle must not be used
// afterwards. Freeing is only legal outside of propagation and analysis.
func (a *arena) free(ref ClauseRef) {
	off := int(ref)
	hdr := uint32(a.data[off])
	if hdr&hdrDead != 0 {
		panic("double free of clause record")
	}
	a.data[off] = int32(hdr | hdrDead)
	a.wasted += recordMeta + int(a.data[off+1])
}

// needsCompact reports whether enough garbage accumulated to justify a
// compaction pass.
func (a *arena) needsCompact() bool {
	return a.wasted > 0 && a.wasted*4 > len(a.data)
}

// compact rewrites the store without its dead records and returns the
// remap from old handles to new ones. The caller must re-patch every
// watch list and reason that holds a handle into this arena.
func (a *arena) compact() map[ClauseRef]ClauseRef {
	remap := make(map[ClauseRef]ClauseRef)
	newData := make([]int32, 0, len(a.data)-a.wasted)
	off := 0
	for off < len(a.data) {
		hdr := uint32(a.data[off])
		size := int(a.data[off+1])
		if hdr&hdrDead == 0 {
			remap[ClauseRef(off)] = ClauseRef(len(newData))
			newData = append(newData, a.data[off:off+recordMeta+size]...)
		}
		off += recordMeta + size
	}
	a.data = newData
	a.wasted = 0
	return remap
}
