package world

import (
	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/geom"
	"github.com/warp8/engine/internal/data"
	"go.uber.org/zap"
)

// PlaceSpawns instantiates the entries of a spawn list. Instances are
// scattered uniformly inside the entry's spread box using the world's
// random source. An owner names a template whose first live instance
// becomes the owner. Bad entries are logged and skipped.
func (w *World) PlaceSpawns(entries []data.SpawnEntry) int {
	placed := 0
	for _, e := range entries {
		tid, ok := w.TemplateID(e.Template)
		if !ok {
			w.log.Warn("spawn list: unknown template", zap.String("template", e.Template))
			continue
		}
		var owner ecs.ID
		if e.Owner != "" {
			owner = w.firstOf(e.Owner)
			if owner == 0 {
				w.log.Warn("spawn list: owner not found",
					zap.String("template", e.Template), zap.String("owner", e.Owner))
			}
		}
		for range e.Count {
			pos := geom.V(
				e.X+(w.rng.Float64()*2-1)*e.SpreadX,
				e.Y+(w.rng.Float64()*2-1)*e.SpreadY,
			)
			if _, err := w.Instantiate(Spawn{
				Template: tid,
				Owner:    owner,
				Angle:    geom.Deg2Rad(e.Angle),
				Position: pos,
			}); err != nil {
				w.log.Warn("spawn list: instantiate failed",
					zap.String("template", e.Template), zap.Error(err))
				continue
			}
			placed++
		}
	}
	return placed
}

// firstOf returns the live instance of a template with the lowest id.
func (w *World) firstOf(name string) ecs.ID {
	tid, ok := w.TemplateID(name)
	if !ok {
		return 0
	}
	var found ecs.ID
	for id := range w.Entities.All() {
		if w.templateOf.Get(id) == tid && w.Alive(id) && (found == 0 || id < found) {
			found = id
		}
	}
	return found
}

