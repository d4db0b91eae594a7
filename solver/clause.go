package solver

import "fmt"

// A Clause is an accessor on an arena record. Positions 0 and 1 are the
// watched literals by convention. Handles are cheap values; the literal
// storage lives in the arena.
type Clause struct {
	a   *arena
	off int
}

// Len returns the nb of lits in the clause.
func (c Clause) Len() int {
	return int(c.a.data[c.off+1])
}

// Learnt returns true iff c was learnt during search.
func (c Clause) Learnt() bool {
	return uint32(c.a.data[c.off])&hdrLearnt != 0
}

// Glue returns the glue value the clause was recorded with.
func (c Clause) Glue() int {
	return int(uint32(c.a.data[c.off]) & hdrGlue)
}

// First returns the first lit from the clause.
func (c Clause) First() Lit {
	return Lit(c.a.data[c.off+recordMeta])
}

// Second returns the second lit from the clause.
func (c Clause) Second() Lit {
	return Lit(c.a.data[c.off+recordMeta+1])
}

// Get returns the ith literal from the clause.
func (c Clause) Get(i int) Lit {
	return Lit(c.a.data[c.off+recordMeta+i])
}

// Set sets the ith literal of the clause.
func (c Clause) Set(i int, l Lit) {
	c.a.data[c.off+recordMeta+i] = int32(l)
}

// swap swaps the ith and jth lits from the clause.
func (c Clause) swap(i, j int) {
	d := c.a.data
	d[c.off+recordMeta+i], d[c.off+recordMeta+j] = d[c.off+recordMeta+j], d[c.off+recordMeta+i]
}

// Lits returns a copy of the clause's literals.
func (c Clause) Lits() []Lit {
	lits := make([]Lit, c.Len())
	for i := range lits {
		lits[i] = c.Get(i)
	}
	return lits
}

// CNF returns a DIMACS CNF representation of the clause.
func (c Clause) CNF() string {
	res := ""
	for i := 0; i < c.Len(); i++ {
		res += fmt.Sprintf("%d ", c.Get(i).Int())
	}
	return fmt.Sprintf("%s0", res)
}

// A BinaryClause is a two-literal clause. Binaries are never stored in an
// arena: they live inline in watch lists and in the exchange queues.
type BinaryClause struct {
	First, Second Lit
	Learnt        bool
}
