// Package insertion searches the positions at which a new request can be
// spliced into a vehicle's stop sequence.
//
// Candidates are generated structurally, resolved against the road network
// through a DetourDataSet, then checked and scored by a CostCalculator. The
// Solver combines the three for a single vehicle.
package insertion

import "fmt"

// Candidate inserts the pickup before existing stop P and the dropoff before
// existing stop D of the unmodified sequence. P or D equal to the number of
// stops means "at the end".
type Candidate struct {
	P int
	D int
}

func (c Candidate) String() string { return fmt.Sprintf("(%d,%d)", c.P, c.D) }

// Generate returns every structurally valid candidate for a sequence of n
// stops, ordered by ascending P then D.
func Generate(n int) []Candidate {
	if n < 0 {
		return nil
	}
	out := make([]Candidate, 0, (n+1)*(n+2)/2)
	for p := 0; p <= n; p++ {
		for d := p; d <= n; d++ {
			out = append(out, Candidate{P: p, D: d})
		}
	}
	return out
}
