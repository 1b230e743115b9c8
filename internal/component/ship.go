package component

import (
	"math"

	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/system"
	"github.com/warp8/engine/internal/data"
	"github.com/warp8/engine/internal/world"
)

// ShipTemplate limits how hard a controller may drive the entity.
type ShipTemplate struct {
	MaxVeloc float64
	MaxAccel float64
	MaxOmega float64 // radians per second
}

// Ships is the actuator kind: it turns controller intent into velocity.
type Ships struct {
	set       *Set
	templates *ecs.Store[ShipTemplate]
	tasks     *ecs.Store[world.Handle]
}

func newShips(s *Set) *Ships {
	reg := s.w.Registry()
	ss := &Ships{
		set:       s,
		templates: ecs.NewTemplateStore[ShipTemplate](reg, "shiptemplate"),
		tasks:     ecs.NewStore[world.Handle](reg, "ship"),
	}
	ss.templates.SetDefault(ShipTemplate{MaxVeloc: 64, MaxAccel: 256, MaxOmega: math.Pi})
	return ss
}

func (*Ships) Name() string { return "ship" }

func (ss *Ships) Configure(el data.Element, template ecs.ID) error {
	t := ss.templates.Get(template)
	r := data.Read(el)
	r.Float("maxveloc", &t.MaxVeloc)
	r.Float("maxaccel", &t.MaxAccel)
	r.Degrees("maxomega", &t.MaxOmega)
	if err := r.Err(); err != nil {
		return err
	}
	ss.templates.Put(template, t)
	return nil
}

func (ss *Ships) Inherit(dst, src ecs.ID)          { ss.templates.Put(dst, ss.templates.Get(src)) }
func (ss *Ships) HasTemplate(template ecs.ID) bool { return ss.templates.Has(template) }

// Template returns the ship limits of a template id, or the defaults.
func (ss *Ships) Template(template ecs.ID) ShipTemplate { return ss.templates.Get(template) }

func (ss *Ships) Activate(id ecs.ID) error {
	ss.tasks.Put(id, ss.set.w.Updatables.Add(id, func(clk *system.Clock) { ss.update(id, clk) }))
	return nil
}

func (ss *Ships) Deactivate(id ecs.ID) {
	ss.set.w.Updatables.Remove(ss.tasks.Get(id))
	ss.tasks.Delete(id)
}

func (ss *Ships) update(id ecs.ID, clk *system.Clock) {
	e := ss.set.w.Entity(id)
	if e == nil {
		return
	}
	t := ss.templates.Get(ss.set.w.TemplateOf(id))
	c := ss.set.Controllers.Get(ss.set.FindController(id))

	desired := c.Move.Scale(t.MaxVeloc)
	dv := desired.Sub(e.Velocity).ClampLength(t.MaxAccel * clk.Step)
	v := e.Velocity.Add(dv)
	omega := c.Turn * t.MaxOmega
	if !ss.set.phys.SetVelocity(id, v, omega) {
		e.Velocity = v
		e.Omega = omega
	}
}
