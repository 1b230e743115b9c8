package system

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/warp8/engine/internal/core/event"
	coresys "github.com/warp8/engine/internal/core/system"
	"github.com/warp8/engine/internal/persist"
	"github.com/warp8/engine/internal/world"
	"go.uber.org/zap"
)

// KillWriter stores a batch of kill records for one match.
type KillWriter interface {
	WriteKills(ctx context.Context, match uuid.UUID, kills []persist.KillRecord) error
}

// PersistSystem buffers deaths and periodically writes them to the kill
// log. Phase 6 (Persist).
type PersistSystem struct {
	world     *world.World
	writer    KillWriter
	match     uuid.UUID
	log       *zap.Logger
	pending   []persist.KillRecord
	tickCount int
	interval  int // flush every N ticks
}

func NewPersistSystem(w *world.World, writer KillWriter, match uuid.UUID, log *zap.Logger, intervalTicks int) *PersistSystem {
	if intervalTicks <= 0 {
		intervalTicks = 1
	}
	s := &PersistSystem{
		world:    w,
		writer:   writer,
		match:    match,
		log:      log,
		interval: intervalTicks,
	}
	event.Subscribe(w.Bus(), s.record)
	return s
}

func (s *PersistSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistSystem) Update(_ *coresys.Clock) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.flush()
}

// Pending counts records not yet written.
func (s *PersistSystem) Pending() int { return len(s.pending) }

// Close writes whatever is still buffered. Called on shutdown.
func (s *PersistSystem) Close() {
	s.flush()
}

func (s *PersistSystem) record(ev event.EntityDied) {
	s.pending = append(s.pending, persist.KillRecord{
		Turn:     ev.Turn,
		Victim:   uint32(ev.ID),
		Template: s.world.TemplateName(ev.Template),
		Killer:   uint32(ev.Killer),
		Source:   uint32(ev.Source),
		X:        ev.Position.X,
		Y:        ev.Position.Y,
	})
}

func (s *PersistSystem) flush() {
	if len(s.pending) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.writer.WriteKills(ctx, s.match, s.pending); err != nil {
		// keep the batch for the next attempt
		s.log.Error("kill log flush failed", zap.Int("count", len(s.pending)), zap.Error(err))
		return
	}
	s.log.Debug("kill log flushed", zap.Int("count", len(s.pending)))
	s.pending = s.pending[:0]
}
