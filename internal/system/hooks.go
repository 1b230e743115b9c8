package system

import (
	"github.com/warp8/engine/internal/core/event"
	"github.com/warp8/engine/internal/scripting"
	"github.com/warp8/engine/internal/world"
)

// ScriptHooks receives gameplay events on the Lua side.
type ScriptHooks interface {
	OnDeath(ctx scripting.DeathContext)
	OnResource(ctx scripting.ResourceContext)
}

// BindScriptHooks forwards death and resource threshold events to hooks.
// They arrive during the dispatch phase of the tick after they happened.
func BindScriptHooks(w *world.World, hooks ScriptHooks) {
	bus := w.Bus()
	event.Subscribe(bus, func(ev event.EntityDied) {
		hooks.OnDeath(scripting.DeathContext{
			Turn:     ev.Turn,
			ID:       uint32(ev.ID),
			Template: w.TemplateName(ev.Template),
			Killer:   uint32(ev.Killer),
			Source:   uint32(ev.Source),
			X:        ev.Position.X,
			Y:        ev.Position.Y,
		})
	})
	event.Subscribe(bus, func(ev event.ResourceEmptied) {
		hooks.OnResource(scripting.ResourceContext{
			Turn:     ev.Turn,
			ID:       uint32(ev.ID),
			Template: w.TemplateName(w.TemplateOf(ev.ID)),
			Resource: uint32(ev.Resource),
		})
	})
	event.Subscribe(bus, func(ev event.ResourceFilled) {
		hooks.OnResource(scripting.ResourceContext{
			Turn:     ev.Turn,
			ID:       uint32(ev.ID),
			Template: w.TemplateName(w.TemplateOf(ev.ID)),
			Resource: uint32(ev.Resource),
			Full:     true,
		})
	})
}
