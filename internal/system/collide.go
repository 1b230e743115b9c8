package system

import (
	coresys "github.com/warp8/engine/internal/core/system"
	"github.com/warp8/engine/internal/physics"
)

// CollideSystem steps the physics world and delivers its contacts.
// Phase 2 (Collide).
type CollideSystem struct {
	phys *physics.Bridge
}

func NewCollideSystem(phys *physics.Bridge) *CollideSystem {
	return &CollideSystem{phys: phys}
}

func (s *CollideSystem) Phase() coresys.Phase { return coresys.PhaseCollide }

func (s *CollideSystem) Update(clk *coresys.Clock) { s.phys.CollideAll(clk) }
