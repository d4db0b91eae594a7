package solver

// Stats are statistics about one worker's search.
// They are provided for information purpose only.
type Stats struct {
	NbRestarts      uint64
	NbConflicts     uint64
	NbDecisions     uint64
	NbRndDecisions  uint64 // How many decisions were made at random
	NbPropagations  uint64
	NbUnitLearned   uint64 // How many unit clauses were learned
	NbBinaryLearned uint64 // How many binary clauses were learned
	NbLearned       uint64 // How many clauses were learned
	NbImported      uint64 // How many clauses were ingested from siblings
	NbDeleted       uint64 // How many clauses were detached at cleanup
	NbMinimiseCalls uint64
	MaxLiterals     uint64 // Learnt literals before minimisation
	TotLiterals     uint64 // Learnt literals after minimisation
}
