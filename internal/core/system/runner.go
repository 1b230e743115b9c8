package system

import (
	"sort"
)

// Runner executes systems in phase order each tick.
type Runner struct {
	systems []System
	sorted  bool
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick advances the clock by one step and runs every system.
func (r *Runner) Tick(clk *Clock) {
	r.ensureSorted()
	clk.Advance()
	for _, s := range r.systems {
		s.Update(clk)
	}
}

// TickPhase runs only the systems of one phase without advancing the clock.
func (r *Runner) TickPhase(phase Phase, clk *Clock) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(clk)
		}
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
