package constraint

import (
	"cmp"
	"slices"
)

// Solver runs the sequential impulse iterations over a set of constraints.
type Solver struct {
	Iterations int

	contacts []*Contact
	active   []Constraint
}

func NewSolver(iterations int) *Solver {
	if iterations <= 0 {
		iterations = DefaultSettings().Iterations
	}
	return &Solver{Iterations: iterations}
}

// Solve prepares every enabled contact, deepest first, then iterates the
// velocity passes. Disabled contacts are skipped entirely.
func (s *Solver) Solve(contacts []*Contact, dt float64) {
	s.contacts = s.contacts[:0]
	for _, c := range contacts {
		if c.Enabled() {
			s.contacts = append(s.contacts, c)
		}
	}
	slices.SortStableFunc(s.contacts, func(a, b *Contact) int {
		return cmp.Compare(b.Depth, a.Depth)
	})

	s.active = s.active[:0]
	for _, c := range s.contacts {
		s.active = append(s.active, c)
	}
	s.SolveConstraints(s.active, dt)

	clear(s.contacts)
	s.contacts = s.contacts[:0]
	clear(s.active)
	s.active = s.active[:0]
}

// SolveConstraints runs PreStep once on every constraint, then Iterations
// passes of Solve, in the given order.
func (s *Solver) SolveConstraints(constraints []Constraint, dt float64) {
	if len(constraints) == 0 {
		return
	}
	for _, c := range constraints {
		c.PreStep(dt)
	}
	for i := 0; i < s.Iterations; i++ {
		for _, c := range constraints {
			c.Solve()
		}
	}
}
