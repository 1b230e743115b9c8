package system

import (
	coresys "github.com/warp8/engine/internal/core/system"
	"github.com/warp8/engine/internal/world"
	"go.uber.org/zap"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end.
// Phase 5 (Cleanup).
type CleanupSystem struct {
	world *world.World
	log   *zap.Logger
}

func NewCleanupSystem(w *world.World, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: w, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(clk *coresys.Clock) {
	if n := s.world.EndTick(); n > 0 {
		s.log.Debug("entities removed", zap.Uint32("turn", clk.Turn), zap.Int("count", n))
	}
}
