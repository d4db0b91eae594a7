package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLitEncoding(t *testing.T) {
	tests := []struct {
		cnf int
		lit Lit
	}{
		{1, 0},
		{-1, 1},
		{3, 4},
		{-3, 5},
		{42, 82},
	}
	for _, test := range tests {
		lit := IntToLit(test.cnf)
		assert.Equal(t, test.lit, lit, "IntToLit(%d)", test.cnf)
		assert.Equal(t, int32(test.cnf), lit.Int(), "Int() round trip for %d", test.cnf)
		assert.Equal(t, test.cnf > 0, lit.IsPositive())
		assert.Equal(t, lit, lit.Negation().Negation())
		assert.NotEqual(t, lit, lit.Negation())
		assert.Equal(t, lit.Var(), lit.Negation().Var())
	}
}

func TestVarLit(t *testing.T) {
	v := IntToVar(7)
	assert.Equal(t, Var(6), v)
	assert.Equal(t, Lit(12), v.Lit())
	assert.Equal(t, Lit(13), v.SignedLit(true))
	assert.Equal(t, Lit(12), v.SignedLit(false))
}
