package world

import (
	"fmt"

	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/geom"
	"go.uber.org/zap"
)

// Instantiate creates an entity from a template and activates every kind
// that has a template record for it, in registration order. If a kind
// fails to activate, the kinds already activated are deactivated again,
// the id is released and the error is returned.
func (w *World) Instantiate(s Spawn) (ecs.ID, error) {
	if !w.IsTemplate(s.Template) {
		return 0, fmt.Errorf("instantiate %s: %w", w.TemplateName(s.Template), ErrUnknownTemplate)
	}
	if s.Backlink != 0 && !w.exists(s.Backlink) {
		return 0, fmt.Errorf("instantiate %s under %d: %w", w.TemplateName(s.Template), s.Backlink, ErrNotAlive)
	}

	id := w.ecs.CreateEntity()
	w.states.Put(id, Activating)
	w.templateOf.Put(id, s.Template)
	if s.Owner != 0 {
		w.owners.Put(id, s.Owner)
	}
	if s.Backlink != 0 {
		w.backlinks.Put(id, s.Backlink)
	}
	if team := w.TeamTemplates.Find(s.Template); team != nil {
		w.Teams.Put(id, *team)
	} else if team := w.Teams.Find(s.Owner); team != nil {
		w.Teams.Put(id, *team)
	}

	xf := geom.NewTransform(s.Angle, s.Position)
	w.Entities.Put(id, Entity{
		Transform: xf,
		Prev:      xf,
		Velocity:  s.Velocity,
		Omega:     s.Omega,
		Turn:      w.clock.Turn,
		Fraction:  s.Fraction,
	})

	done := make([]int, 0, 4)
	for i, k := range w.kinds {
		if !k.HasTemplate(s.Template) {
			continue
		}
		if err := k.Activate(id); err != nil {
			w.unwind(id, done)
			return 0, fmt.Errorf("activate %s on %s: %w", k.Name(), w.TemplateName(s.Template), err)
		}
		done = append(done, i)
	}
	w.activated.Put(id, done)
	w.states.Put(id, Active)

	w.log.Debug("entity created",
		zap.Uint32("id", uint32(id)),
		zap.String("template", w.TemplateName(s.Template)),
		zap.Uint32("owner", uint32(s.Owner)),
	)
	return id, nil
}

// exists accepts parents that are still activating, so a kind may attach
// children from inside its Activate.
func (w *World) exists(id ecs.ID) bool {
	st := w.states.Get(id)
	return st == Active || st == Activating
}

func (w *World) unwind(id ecs.ID, done []int) {
	w.states.Put(id, Deactivating)
	for i := len(done) - 1; i >= 0; i-- {
		w.kinds[done[i]].Deactivate(id)
	}
	for i := len(w.hooks) - 1; i >= 0; i-- {
		w.hooks[i](id)
	}
	w.ecs.Registry().RemoveAll(id)
	w.ecs.Pool().Destroy(id)
}

// Delete removes an entity. Inside a tick the deletion is queued and runs
// at the tick boundary; otherwise it runs now. Unknown ids and ids already
// on their way out are ignored.
func (w *World) Delete(id ecs.ID) {
	if id == 0 || !w.Alive(id) || w.ecs.Pending(id) {
		return
	}
	w.ecs.MarkForDestruction(id)
	if !w.ticking && !w.flushing {
		w.flush()
	}
}

// Deleting reports whether id is queued for deletion or mid-teardown.
func (w *World) Deleting(id ecs.ID) bool {
	return w.ecs.Pending(id) || w.states.Get(id) == Deactivating
}

// BeginTick switches Delete to deferred mode.
func (w *World) BeginTick() { w.ticking = true }

// EndTick processes every deletion queued during the tick.
func (w *World) EndTick() int {
	n := w.flush()
	w.ticking = false
	return n
}

func (w *World) flush() int {
	if w.flushing {
		return 0
	}
	w.flushing = true
	defer func() { w.flushing = false }()
	return w.ecs.FlushDestroyQueue(w.teardown)
}

func (w *World) teardown(id ecs.ID) {
	w.states.Put(id, Deactivating)
	done := w.activated.Get(id)
	for i := len(done) - 1; i >= 0; i-- {
		w.kinds[done[i]].Deactivate(id)
	}
	for i := len(w.hooks) - 1; i >= 0; i-- {
		w.hooks[i](id)
	}
	w.log.Debug("entity deleted",
		zap.Uint32("id", uint32(id)),
		zap.String("template", w.TemplateName(w.templateOf.Get(id))),
	)
}

// DeleteAll removes every entity, children before the entities they hang from.
func (w *World) DeleteAll() {
	ids := w.Entities.Keys()
	for i := len(ids) - 1; i >= 0; i-- {
		w.Delete(ids[i])
	}
	w.flush()
}
