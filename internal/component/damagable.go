package component

import (
	"slices"

	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/event"
	"github.com/warp8/engine/internal/data"
	"github.com/warp8/engine/internal/world"
	"go.uber.org/zap"
)

type DamagableTemplate struct {
	Health       float64
	SpawnOnDeath ecs.ID
}

// DamageFunc observes damage dealt to id. Negative amounts are healing.
type DamageFunc func(id, source ecs.ID, amount float64)

type Damagable struct {
	Health    float64
	dead      bool
	listeners []DamageFunc
}

// Damagables is the health kind.
type Damagables struct {
	set       *Set
	templates *ecs.Store[DamagableTemplate]
	inst      *ecs.Store[Damagable]
	modifier  DamageModifier
}

func newDamagables(s *Set) *Damagables {
	reg := s.w.Registry()
	ds := &Damagables{
		set:       s,
		templates: ecs.NewTemplateStore[DamagableTemplate](reg, "damagabletemplate"),
		inst:      ecs.NewStore[Damagable](reg, "damagable"),
	}
	ds.templates.SetDefault(DamagableTemplate{Health: 1})
	return ds
}

func (*Damagables) Name() string { return "damagable" }

func (ds *Damagables) Configure(el data.Element, template ecs.ID) error {
	t := ds.templates.Get(template)
	r := data.Read(el)
	r.Float("health", &t.Health)
	r.Key("spawnondeath", &t.SpawnOnDeath)
	if err := r.Err(); err != nil {
		return err
	}
	ds.templates.Put(template, t)
	return nil
}

func (ds *Damagables) Inherit(dst, src ecs.ID) { ds.templates.Put(dst, ds.templates.Get(src)) }

func (ds *Damagables) HasTemplate(template ecs.ID) bool { return ds.templates.Has(template) }

func (ds *Damagables) Activate(id ecs.ID) error {
	t := ds.templates.Get(ds.set.w.TemplateOf(id))
	ds.inst.Put(id, Damagable{Health: t.Health})
	return nil
}

func (ds *Damagables) Deactivate(id ecs.ID) { ds.inst.Delete(id) }

// Has reports whether id can take damage.
func (ds *Damagables) Has(id ecs.ID) bool { return ds.inst.Has(id) }

// Health is the current health of id, zero when id is not damagable.
func (ds *Damagables) Health(id ecs.ID) float64 { return ds.inst.Get(id).Health }

// MaxHealth is the configured health of id's template.
func (ds *Damagables) MaxHealth(id ecs.ID) float64 {
	return ds.templates.Get(ds.set.w.TemplateOf(id)).Health
}

// OnDamage registers fn for every hit on id.
func (ds *Damagables) OnDamage(id ecs.ID, fn DamageFunc) {
	if d := ds.inst.Find(id); d != nil {
		d.listeners = append(d.listeners, fn)
	}
}

// Damage subtracts amount from id's health after the damage modifier has
// had its say. Running out of health kills the entity, once.
func (ds *Damagables) Damage(id, source ecs.ID, amount float64) {
	d := ds.inst.Find(id)
	if d == nil || d.dead {
		return
	}
	if ds.modifier != nil {
		amount = ds.modifier.ModifyDamage(id, source, amount)
	}
	if amount == 0 {
		return
	}
	d.Health -= amount
	if limit := ds.MaxHealth(id); d.Health > limit {
		d.Health = limit
	}
	for _, fn := range slices.Clone(d.listeners) {
		fn(id, source, amount)
	}
	if d = ds.inst.Find(id); d != nil && !d.dead && d.Health <= 0 {
		ds.kill(id, source, d)
	}
}

// Kill destroys id as if its health had run out.
func (ds *Damagables) Kill(id, source ecs.ID) {
	if d := ds.inst.Find(id); d != nil && !d.dead {
		ds.kill(id, source, d)
	}
}

func (ds *Damagables) kill(id, source ecs.ID, d *Damagable) {
	d.dead = true
	w := ds.set.w
	e := w.Entity(id)
	var killer ecs.ID
	if source != 0 {
		killer = ds.set.ownerOf(source)
	}
	event.Emit(w.Bus(), event.EntityDied{
		Turn:     w.Clock().Turn,
		ID:       id,
		Template: w.TemplateOf(id),
		Killer:   killer,
		Source:   source,
		Position: e.Transform.P,
	})
	w.Cue(id, cueDeath)

	if spawn := ds.templates.Get(w.TemplateOf(id)).SpawnOnDeath; spawn != 0 {
		_, err := w.Instantiate(world.Spawn{
			Template: spawn,
			Owner:    w.Owner(id),
			Angle:    e.Transform.Angle,
			Position: e.Transform.P,
			Velocity: e.Velocity,
		})
		if err != nil {
			ds.set.log.Warn("death spawn failed",
				zap.Uint32("id", uint32(id)),
				zap.String("spawn", w.TemplateName(spawn)),
				zap.Error(err),
			)
		}
	}
	w.Delete(id)
}
