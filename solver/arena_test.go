package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaAllocDeref(t *testing.T) {
	var a arena
	lits := []Lit{IntToLit(1), IntToLit(-2), IntToLit(3), IntToLit(4)}
	ref := a.alloc(lits, true, 3)
	c := a.clause(ref)
	require.Equal(t, 4, c.Len())
	assert.True(t, c.Learnt())
	assert.Equal(t, 3, c.Glue())
	assert.Equal(t, lits, c.Lits())
	assert.Equal(t, lits[0], c.First())
	assert.Equal(t, lits[1], c.Second())

	ref2 := a.alloc([]Lit{IntToLit(5), IntToLit(6), IntToLit(7)}, false, 0)
	c2 := a.clause(ref2)
	assert.False(t, c2.Learnt())
	assert.Equal(t, 3, c2.Len())
	// The first record is untouched by the second allocation.
	assert.Equal(t, lits, a.clause(ref).Lits())
}

func TestArenaSwap(t *testing.T) {
	var a arena
	ref := a.alloc([]Lit{0, 2, 4, 6}, false, 0)
	c := a.clause(ref)
	c.swap(0, 2)
	assert.Equal(t, []Lit{4, 2, 0, 6}, c.Lits())
	c.Set(3, 8)
	assert.Equal(t, Lit(8), c.Get(3))
}

func TestArenaFreeCompact(t *testing.T) {
	var a arena
	refs := make([]ClauseRef, 6)
	for i := range refs {
		refs[i] = a.alloc([]Lit{Lit(2 * i), Lit(2*i + 2), Lit(2*i + 4), Lit(2*i + 6)}, i%2 == 0, i)
	}
	a.free(refs[1])
	a.free(refs[3])
	a.free(refs[4])
	require.True(t, a.needsCompact())

	remap := a.compact()
	require.Len(t, remap, 3)
	for _, i := range []int{0, 2, 5} {
		newRef, found := remap[refs[i]]
		require.True(t, found, "live record %d must be remapped", i)
		c := a.clause(newRef)
		assert.Equal(t, []Lit{Lit(2 * i), Lit(2*i + 2), Lit(2*i + 4), Lit(2*i + 6)}, c.Lits())
		assert.Equal(t, i, c.Glue())
		assert.Equal(t, i%2 == 0, c.Learnt())
	}
	for _, i := range []int{1, 3, 4} {
		_, found := remap[refs[i]]
		assert.False(t, found, "dead record %d must not be remapped", i)
	}
	assert.Equal(t, 0, a.wasted)
}

func TestArenaDoubleFreePanics(t *testing.T) {
	var a arena
	ref := a.alloc([]Lit{0, 2, 4}, false, 0)
	a.free(ref)
	assert.Panics(t, func() { a.free(ref) })
}
