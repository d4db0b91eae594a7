package main

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"runtime/debug"

	arg "github.com/alexflint/go-arg"
	"github.com/sirupsen/logrus"

	"github.com/satlab/parasat/solver"
)

type args struct {
	Input        string `arg:"positional,required" help:"path to a DIMACS CNF file"`
	Workers      int    `arg:"-j,--workers" default:"0" help:"number of worker engines (0 = one per CPU)"`
	MaxConflicts uint64 `arg:"--max-conflicts" default:"0" help:"global conflict budget (0 = unlimited)"`
	Verbose      bool   `arg:"-v,--verbose" help:"log solving progress"`
}

func (args) Description() string {
	return "parasat - a parallel CDCL SAT solver"
}

func main() {
	debug.SetGCPercent(300)
	var a args
	arg.MustParse(&a)

	log := logrus.New()
	if a.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	f, err := os.Open(a.Input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not open %q: %v\n", a.Input, err)
		os.Exit(1)
	}
	defer func() { _ = f.Close() }()
	pb, err := solver.ParseCNF(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not parse problem: %v\n", err)
		os.Exit(1)
	}

	nbWorkers := a.Workers
	if nbWorkers <= 0 {
		nbWorkers = runtime.NumCPU()
	}
	budget := a.MaxConflicts
	if budget == 0 {
		budget = math.MaxUint64
	}
	fmt.Printf("c solving %s with %d workers\n", a.Input, nbWorkers)
	ps := solver.NewParallelSolver(pb, nbWorkers, solver.DefaultConf(), log)
	status := ps.Solve(nil, budget)
	switch status {
	case solver.Sat:
		fmt.Printf("s SATISFIABLE\nv ")
		for i, val := range ps.Model() {
			if val {
				fmt.Printf("%d ", i+1)
			} else {
				fmt.Printf("%d ", -i-1)
			}
		}
		fmt.Printf("0\n")
	case solver.Unsat:
		fmt.Printf("s UNSATISFIABLE\n")
		os.Exit(20)
	default:
		fmt.Printf("s INDETERMINATE\n")
	}
}
