package system

import (
	coresys "github.com/warp8/engine/internal/core/system"
	"github.com/warp8/engine/internal/world"
)

// TaskSystem runs one of the world's task lists in a fixed phase.
type TaskSystem struct {
	phase coresys.Phase
	tasks *world.TaskList
}

// NewSimulateSystem runs lifetimes and countdowns. Phase 1 (Simulate).
func NewSimulateSystem(w *world.World) *TaskSystem {
	return &TaskSystem{phase: coresys.PhaseSimulate, tasks: w.Simulatables}
}

// NewUpdateSystem runs weapons, regeneration, ship actuators and link
// followers. Phase 3 (Update).
func NewUpdateSystem(w *world.World) *TaskSystem {
	return &TaskSystem{phase: coresys.PhaseUpdate, tasks: w.Updatables}
}

// NewControlSystem runs the aimers, which write next tick's intents.
// Phase 4 (Control).
func NewControlSystem(w *world.World) *TaskSystem {
	return &TaskSystem{phase: coresys.PhaseControl, tasks: w.Controllers}
}

func (s *TaskSystem) Phase() coresys.Phase { return s.phase }

func (s *TaskSystem) Update(clk *coresys.Clock) { s.tasks.Run(clk) }
