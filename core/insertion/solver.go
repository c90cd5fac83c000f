package insertion

import (
	"github.com/kilianp07/drt/core/fleet"
	"github.com/kilianp07/drt/core/model"
)

// BestInsertion is the cheapest feasible insertion into one vehicle.
type BestInsertion struct {
	Insertion
	Entry      *fleet.Entry
	Cost       float64
	Evaluation Evaluation
}

// Outcome summarizes the search over one vehicle.
type Outcome struct {
	Best      BestInsertion
	Found     bool
	Evaluated int
	Queries   int
}

// Solver finds the best insertion of a request into a single vehicle.
// It is stateless and may be shared between goroutines.
type Solver struct {
	provider *DetourProvider
	calc     *CostCalculator
}

// NewSolver returns a solver using provider for paths and calc for costs.
func NewSolver(provider *DetourProvider, calc *CostCalculator) *Solver {
	return &Solver{provider: provider, calc: calc}
}

// FindBestInsertion evaluates candidates in order and keeps the first one
// with the lowest finite cost. It reports false if none is feasible.
func (s *Solver) FindBestInsertion(req model.Request, entry *fleet.Entry, candidates []Candidate) (BestInsertion, bool) {
	out := s.Solve(req, entry, candidates)
	return out.Best, out.Found
}

// Solve is FindBestInsertion with search statistics.
func (s *Solver) Solve(req model.Request, entry *fleet.Entry, candidates []Candidate) Outcome {
	var out Outcome
	if entry == nil {
		return out
	}
	data := s.provider.DetourDataSet(req, entry)
	minCost := InfeasibleCost
	for _, c := range candidates {
		ins := data.Insertion(c)
		out.Evaluated++
		ev := s.calc.Evaluate(req, entry, ins)
		if !ev.Feasible() {
			continue
		}
		cost := s.calc.cost(ev)
		if cost < minCost {
			minCost = cost
			out.Best = BestInsertion{Insertion: ins, Entry: entry, Cost: cost, Evaluation: ev}
			out.Found = true
		}
	}
	out.Queries = data.Queries()
	return out
}
