package component

import (
	"math"

	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/hash"
	"github.com/warp8/engine/internal/core/system"
	"github.com/warp8/engine/internal/data"
	"github.com/warp8/engine/internal/physics"
	"github.com/warp8/engine/internal/world"
	"go.uber.org/zap"
)

var bulletKey = ecs.ID(hash.Hash("bullet"))

type BulletTemplate struct {
	Life          float64
	Damage        float64 // negative heals
	Ricochet      bool    // bounce off things that cannot be damaged
	SpawnOnExpire ecs.ID
	SpawnOnDeath  ecs.ID
}

type Bullet struct {
	Life  float64
	spent bool
	task  world.Handle
}

// Bullets is the ordnance kind: timed life and damage on contact.
type Bullets struct {
	set       *Set
	templates *ecs.Store[BulletTemplate]
	inst      *ecs.Store[Bullet]
}

func newBullets(s *Set) *Bullets {
	reg := s.w.Registry()
	bs := &Bullets{
		set:       s,
		templates: ecs.NewTemplateStore[BulletTemplate](reg, "bullettemplate"),
		inst:      ecs.NewStore[Bullet](reg, "bullet"),
	}
	bs.templates.SetDefault(BulletTemplate{Life: math.MaxFloat64})
	return bs
}

func (*Bullets) Name() string { return "bullet" }

func (bs *Bullets) Configure(el data.Element, template ecs.ID) error {
	t := bs.templates.Get(template)
	r := data.Read(el)
	r.Float("life", &t.Life)
	r.Float("damage", &t.Damage)
	r.Bool("ricochet", &t.Ricochet)
	r.Key("spawnonexpire", &t.SpawnOnExpire)
	r.Key("spawnondeath", &t.SpawnOnDeath)
	if err := r.Err(); err != nil {
		return err
	}
	bs.templates.Put(template, t)
	return nil
}

func (bs *Bullets) Inherit(dst, src ecs.ID)          { bs.templates.Put(dst, bs.templates.Get(src)) }
func (bs *Bullets) HasTemplate(template ecs.ID) bool { return bs.templates.Has(template) }

func (bs *Bullets) Activate(id ecs.ID) error {
	s := bs.set
	t := bs.templates.Get(s.w.TemplateOf(id))
	b := Bullet{Life: t.Life}
	b.task = s.w.Simulatables.Add(id, func(clk *system.Clock) { bs.simulate(id, clk) })
	bs.inst.Put(id, b)
	s.phys.AddContactListener(id, bulletKey, bs.contact)
	return nil
}

func (bs *Bullets) Deactivate(id ecs.ID) {
	if b := bs.inst.Find(id); b != nil {
		bs.set.w.Simulatables.Remove(b.task)
	}
	bs.set.phys.RemoveContactListener(id, bulletKey)
	bs.inst.Delete(id)
}

func (bs *Bullets) simulate(id ecs.ID, clk *system.Clock) {
	b := bs.inst.Find(id)
	if b == nil || b.spent {
		return
	}
	b.Life -= clk.Step
	if b.Life > 0 {
		return
	}
	bs.die(id, b, bs.templates.Get(bs.set.w.TemplateOf(id)).SpawnOnExpire)
}

func (bs *Bullets) contact(c physics.Contact) {
	if !c.Begin || c.SelfSensor || c.OtherSensor {
		return
	}
	id := c.Self
	b := bs.inst.Find(id)
	if b == nil || b.spent {
		return
	}
	t := bs.templates.Get(bs.set.w.TemplateOf(id))
	ds := bs.set.Damagables
	switch {
	case ds.Has(c.Other):
		if t.Damage > 0 || (t.Damage < 0 && ds.Health(c.Other) < ds.MaxHealth(c.Other)) {
			ds.Damage(c.Other, id, t.Damage)
		}
	case t.Ricochet:
		return
	}
	if b = bs.inst.Find(id); b != nil && !b.spent {
		bs.die(id, b, t.SpawnOnDeath)
	}
}

func (bs *Bullets) die(id ecs.ID, b *Bullet, spawn ecs.ID) {
	b.spent = true
	w := bs.set.w
	if spawn != 0 {
		e := w.Entity(id)
		_, err := w.Instantiate(world.Spawn{
			Template: spawn,
			Owner:    w.Owner(id),
			Angle:    e.Transform.Angle,
			Position: e.Transform.P,
			Velocity: e.Velocity,
		})
		if err != nil {
			bs.set.log.Warn("bullet spawn failed", zap.String("spawn", w.TemplateName(spawn)), zap.Error(err))
		}
	}
	w.Delete(id)
}
