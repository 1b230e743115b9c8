package system

import (
	coresys "github.com/warp8/engine/internal/core/system"
	"github.com/warp8/engine/internal/physics"
	"github.com/warp8/engine/internal/world"
	"go.uber.org/zap"
)

// RegisterCore adds the simulation systems of phases 0 through 5.
func RegisterCore(r *coresys.Runner, w *world.World, phys *physics.Bridge, log *zap.Logger) {
	r.Register(NewDispatchSystem(w))
	r.Register(NewSimulateSystem(w))
	r.Register(NewCollideSystem(phys))
	r.Register(NewUpdateSystem(w))
	r.Register(NewControlSystem(w))
	r.Register(NewCleanupSystem(w, log))
}
