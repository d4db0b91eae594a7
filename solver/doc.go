/*
Package solver provides a parallel CDCL SAT solver.

The unit of work is the Worker, a complete conflict-driven
clause-learning engine: unit propagation over two watched literals,
first-UIP conflict analysis with learnt-clause minimisation,
activity-based decision ordering with phase saving, and an
agility-driven restart policy. Several workers run on goroutines around
a shared Control, through which they exchange the unit, binary and long
clauses they learn, and synchronise on barriers to clean up the common
learnt-clause store.

Describing a problem

A problem can be parsed from a DIMACS stream:

	pb, err := solver.ParseCNF(f)

or built from a list of lists of literals, where the integer conventions
of DIMACS apply (variables start at 1, a negative value is a negated
literal):

	pb := solver.ParseSlice([][]int{
		{1, 2, 3},
		{-1, 2},
		{-2, -3},
	})

Solving

The simplest entry point is the portfolio solver:

	ps := solver.NewParallelSolver(pb, 4, solver.DefaultConf(), nil)
	status := ps.Solve(nil, math.MaxUint64)
	if status == solver.Sat {
		model := ps.Model()
		...
	}

A single Worker can also be driven directly, which is useful for
deterministic runs and for solving under assumptions:

	c := solver.NewControl(pb, 1, solver.DefaultConf(), nil)
	w := solver.NewWorker(c, 0)
	status := w.Solve([]solver.Lit{solver.IntToLit(-7)}, 100000)

On Unsat under assumptions, Worker.Conflict returns the subset of
assumption literals that entailed the conflict. On Sat, Worker.Model
returns a binding for every variable. When the conflict budget is
exhausted or the worker is interrupted, Solve returns Indet.
*/
package solver
