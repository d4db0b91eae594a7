package solver

import "fmt"

// A Problem is a list of clauses & a nb of vars.
type Problem struct {
	NbVars  int     // Total nb of vars
	Clauses [][]Lit // List of non-empty, non-unit clauses
	Units   []Lit   // List of unit literals found in the problem
	Status  Status  // Trivially Unsat if an empty clause or two conflicting units were found
}

// CNF returns a DIMACS CNF representation of the problem.
func (pb *Problem) CNF() string {
	res := fmt.Sprintf("p cnf %d %d\n", pb.NbVars, len(pb.Clauses)+len(pb.Units))
	for _, unit := range pb.Units {
		res += fmt.Sprintf("%d 0\n", unit.Int())
	}
	for _, clause := range pb.Clauses {
		for _, lit := range clause {
			res += fmt.Sprintf("%d ", lit.Int())
		}
		res += "0\n"
	}
	return res
}

// addUnit registers a unit literal, detecting trivial inconsistency
// between units.
func (pb *Problem) addUnit(l Lit) {
	for _, u := range pb.Units {
		if u == l.Negation() {
			pb.Status = Unsat
			return
		}
	}
	pb.Units = append(pb.Units, l)
}
