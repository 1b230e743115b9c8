package component

import (
	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/system"
	"github.com/warp8/engine/internal/data"
	"github.com/warp8/engine/internal/world"
)

type explosion struct {
	life float64
	task world.Handle
}

// Explosions is the timed-effect kind: the entity lives for a fixed time.
type Explosions struct {
	set   *Set
	lives *ecs.Store[float64]
	inst  *ecs.Store[explosion]
}

func newExplosions(s *Set) *Explosions {
	reg := s.w.Registry()
	xs := &Explosions{
		set:   s,
		lives: ecs.NewTemplateStore[float64](reg, "explosiontemplate"),
		inst:  ecs.NewStore[explosion](reg, "explosion"),
	}
	xs.lives.SetDefault(0.25)
	return xs
}

func (*Explosions) Name() string { return "explosion" }

func (xs *Explosions) Configure(el data.Element, template ecs.ID) error {
	life := xs.lives.Get(template)
	r := data.Read(el)
	r.Float("life", &life)
	if err := r.Err(); err != nil {
		return err
	}
	xs.lives.Put(template, life)
	return nil
}

func (xs *Explosions) Inherit(dst, src ecs.ID)          { xs.lives.Put(dst, xs.lives.Get(src)) }
func (xs *Explosions) HasTemplate(template ecs.ID) bool { return xs.lives.Has(template) }

func (xs *Explosions) Activate(id ecs.ID) error {
	x := explosion{life: xs.lives.Get(xs.set.w.TemplateOf(id))}
	x.task = xs.set.w.Simulatables.Add(id, func(clk *system.Clock) { xs.simulate(id, clk) })
	xs.inst.Put(id, x)
	return nil
}

func (xs *Explosions) Deactivate(id ecs.ID) {
	if x := xs.inst.Find(id); x != nil {
		xs.set.w.Simulatables.Remove(x.task)
	}
	xs.inst.Delete(id)
}

func (xs *Explosions) simulate(id ecs.ID, clk *system.Clock) {
	x := xs.inst.Find(id)
	if x == nil {
		return
	}
	x.life -= clk.Step
	if x.life <= 0 {
		xs.set.w.Delete(id)
	}
}
