package system

import (
	"github.com/warp8/engine/internal/core/event"
	coresys "github.com/warp8/engine/internal/core/system"
	"github.com/warp8/engine/internal/world"
)

// DispatchSystem opens the tick and delivers the events emitted during the
// previous one. Phase 0 (Dispatch).
type DispatchSystem struct {
	world *world.World
	bus   *event.Bus
}

func NewDispatchSystem(w *world.World) *DispatchSystem {
	return &DispatchSystem{world: w, bus: w.Bus()}
}

func (s *DispatchSystem) Phase() coresys.Phase { return coresys.PhaseDispatch }

func (s *DispatchSystem) Update(_ *coresys.Clock) {
	// deletions requested by handlers wait for cleanup
	s.world.BeginTick()
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
