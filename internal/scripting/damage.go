package scripting

import (
	"github.com/warp8/engine/internal/component"
	"github.com/warp8/engine/internal/core/ecs"
)

// damageHook routes damage through calc_damage.
type damageHook struct {
	e   *Engine
	set *component.Set
}

// DamageModifier adapts the engine to the damagable component. It returns
// nil when no calc_damage function is loaded.
func (e *Engine) DamageModifier(set *component.Set) component.DamageModifier {
	if !e.Has("calc_damage") {
		return nil
	}
	return damageHook{e: e, set: set}
}

func (h damageHook) ModifyDamage(target, source ecs.ID, amount float64) float64 {
	w := h.set.World()
	return h.e.CalcDamage(DamageContext{
		Target:         uint32(target),
		TargetTemplate: w.TemplateName(w.TemplateOf(target)),
		Source:         uint32(source),
		SourceTemplate: w.TemplateName(w.TemplateOf(source)),
		Amount:         amount,
		Health:         h.set.Damagables.Health(target),
		MaxHealth:      h.set.Damagables.MaxHealth(target),
	})
}
