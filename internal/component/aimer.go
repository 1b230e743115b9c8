package component

import (
	"math"
	"slices"

	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/geom"
	"github.com/warp8/engine/internal/core/system"
	"github.com/warp8/engine/internal/data"
	"github.com/warp8/engine/internal/physics"
	"github.com/warp8/engine/internal/world"
)

// RangeGain steers toward a preferred distance: a proportional term on the
// distance error and a derivative term on the closing speed.
type RangeGain struct {
	Range      float64
	ScaleDist  float64
	ScaleSpeed float64
}

// FireCone triggers a channel when the target sits inside it.
type FireCone struct {
	Channel   int
	Range     float64
	Direction float64 // radians from the forward axis
	CosAngle  float64
	Clear     bool // require an unobstructed line of fire
}

type Wander struct {
	Side, SideRate   float64
	Front, FrontRate float64
	Turn, TurnRate   float64
}

// AimerTemplate configures the AI controller.
type AimerTemplate struct {
	Period  float64 // seconds between target scans
	Range   float64
	Focus   float64
	Filter  physics.Filter
	Leading float64 // projectile speed; 0 takes it from the weapons
	Drift   float64 // forward throttle with no target

	AimStrength float64
	Close, Far  RangeGain
	Evade       float64
	Wander      Wander
	AvoidRange  float64
	AvoidForce  float64
	Fire        []FireCone
}

func defaultAimerTemplate() AimerTemplate {
	return AimerTemplate{
		Period:      0.25,
		Range:       256,
		Focus:       1,
		Filter:      physics.DefaultFilter,
		AimStrength: 1,
	}
}

// Aimer is the runtime state of one AI controller.
type Aimer struct {
	Target  ecs.ID
	Offset  geom.Vec2 // aim point in the target's local frame
	Delay   float64
	Leading float64
	phase   [3]float64
	task    world.Handle
}

// Aimers is the aimer kind. Each instance writes its entity's Controller
// during the control phase.
type Aimers struct {
	set       *Set
	templates *ecs.Store[AimerTemplate]
	inst      *ecs.Store[Aimer]
}

func newAimers(s *Set) *Aimers {
	reg := s.w.Registry()
	as := &Aimers{
		set:       s,
		templates: ecs.NewTemplateStore[AimerTemplate](reg, "aimertemplate"),
		inst:      ecs.NewStore[Aimer](reg, "aimer"),
	}
	as.templates.SetDefault(defaultAimerTemplate())
	return as
}

func (*Aimers) Name() string { return "aimer" }

func (as *Aimers) Configure(el data.Element, template ecs.ID) error {
	t := as.templates.Get(template)
	t.Fire = slices.Clone(t.Fire)

	r := data.Read(el)
	r.Float("period", &t.Period)
	r.Float("range", &t.Range)
	r.Float("focus", &t.Focus)
	r.Float("leading", &t.Leading)
	r.Float("drift", &t.Drift)
	if err := r.Err(); err != nil {
		return err
	}

	for _, child := range el.Children() {
		r := data.Read(child)
		switch child.Tag() {
		case "target":
			r.Float("period", &t.Period)
			r.Float("range", &t.Range)
			r.Float("focus", &t.Focus)
			if err := as.set.phys.ReadFilter(child, &t.Filter); err != nil {
				return err
			}
		case "aim":
			r.Float("strength", &t.AimStrength)
			r.Float("leading", &t.Leading)
		case "fire":
			cone := FireCone{CosAngle: math.Cos(0.3)}
			if r.Int("channel", &cone.Channel) {
				cone.Channel--
			}
			r.Float("range", &cone.Range)
			r.Degrees("direction", &cone.Direction)
			var angle float64
			if r.Degrees("angle", &angle) {
				cone.CosAngle = math.Cos(angle)
			}
			r.Bool("clear", &cone.Clear)
			if cone.Channel >= 0 && cone.Channel < Channels {
				t.Fire = append(t.Fire, cone)
			}
		case "close":
			readGain(r, &t.Close)
		case "far":
			readGain(r, &t.Far)
		case "evade":
			r.Float("strength", &t.Evade)
		case "wander":
			r.Float("side", &t.Wander.Side)
			r.Float("siderate", &t.Wander.SideRate)
			r.Float("front", &t.Wander.Front)
			r.Float("frontrate", &t.Wander.FrontRate)
			r.Float("turn", &t.Wander.Turn)
			r.Float("turnrate", &t.Wander.TurnRate)
		case "avoid":
			r.Float("range", &t.AvoidRange)
			r.Float("strength", &t.AvoidForce)
		}
		if err := r.Err(); err != nil {
			return err
		}
	}
	as.templates.Put(template, t)
	return nil
}

func readGain(r *data.Reader, g *RangeGain) {
	r.Float("range", &g.Range)
	r.Float("scaledist", &g.ScaleDist)
	r.Float("scalespeed", &g.ScaleSpeed)
}

func (as *Aimers) Inherit(dst, src ecs.ID) {
	t := as.templates.Get(src)
	t.Fire = slices.Clone(t.Fire)
	as.templates.Put(dst, t)
}

func (as *Aimers) HasTemplate(template ecs.ID) bool { return as.templates.Has(template) }

func (as *Aimers) Activate(id ecs.ID) error {
	s := as.set
	tmpl := s.w.TemplateOf(id)
	t := as.templates.Get(tmpl)

	a := Aimer{Leading: t.Leading}
	if a.Leading <= 0 {
		a.Leading = as.muzzleSpeed(tmpl)
	}
	for i := range a.phase {
		a.phase[i] = s.w.Rand().Float64() * 2 * math.Pi
	}
	a.task = s.w.Controllers.Add(id, func(clk *system.Clock) { as.Control(id, clk) })
	as.inst.Put(id, a)
	s.Controllers.Put(id, Controller{})
	return nil
}

func (as *Aimers) Deactivate(id ecs.ID) {
	if a := as.inst.Find(id); a != nil {
		as.set.w.Controllers.Remove(a.task)
	}
	as.inst.Delete(id)
	as.set.Controllers.Delete(id)
}

// muzzleSpeed looks for a weapon on the template itself, then on its
// linked secondaries.
func (as *Aimers) muzzleSpeed(tmpl ecs.ID) float64 {
	ws := as.set.Weapons
	if v := ws.MuzzleSpeed(tmpl); v > 0 {
		return v
	}
	for _, lt := range as.set.Links.Templates(tmpl) {
		if v := ws.MuzzleSpeed(lt.Secondary); v > 0 {
			return v
		}
	}
	return 0
}

// Find returns the aimer state of id, or nil.
func (as *Aimers) Find(id ecs.ID) *Aimer { return as.inst.Find(id) }

// Control rewrites id's controller from scratch.
func (as *Aimers) Control(id ecs.ID, clk *system.Clock) {
	s := as.set
	w := s.w
	a, c, e := as.inst.Find(id), s.Controllers.Find(id), w.Entity(id)
	if a == nil || c == nil || e == nil {
		return
	}
	t := as.templates.Get(w.TemplateOf(id))
	*c = Controller{}

	a.Delay -= clk.Step
	if a.Delay <= 0 {
		a.Delay += t.Period
		if a.Delay < 0 {
			a.Delay = 0
		}
		as.acquire(id, a, e, &t)
	}
	if a.Target != 0 && !w.Alive(a.Target) {
		a.Target = 0
	}

	as.wander(a, e, &t, c, clk)

	if a.Target == 0 {
		c.Move = c.Move.Add(e.Transform.Forward().Scale(t.Drift))
		c.Clamp()
		return
	}
	te := w.Entity(a.Target)

	aimPoint := te.Transform.Apply(a.Offset)
	p := aimPoint.Sub(e.Transform.P)
	v := te.Velocity.Sub(e.Velocity)
	dist := p.Length()
	aim := Intercept(p, v, a.Leading).Normalize()
	if aim.IsZero() {
		aim = e.Transform.Forward()
	}
	c.Aim = aim

	if t.AimStrength != 0 {
		ship := s.Ships.Template(w.TemplateOf(id))
		if ship.MaxOmega > 0 && clk.Step > 0 {
			heading := geom.WrapAngle(geom.HeadingOf(aim) - e.Transform.Angle)
			c.Turn += t.AimStrength * geom.Clamp(heading/(ship.MaxOmega*clk.Step), -1, 1)
		}
	}

	if g := t.Close; g.Range > 0 && dist < g.Range {
		closing := -v.Dot(aim)
		c.Move = c.Move.Sub(aim.Scale(g.ScaleDist*(g.Range-dist) + g.ScaleSpeed*closing))
	}
	if g := t.Far; g.Range > 0 && dist > g.Range {
		receding := v.Dot(aim)
		c.Move = c.Move.Add(aim.Scale(g.ScaleDist*(dist-g.Range) + g.ScaleSpeed*receding))
	}

	if t.Evade != 0 && dist > 0 {
		toSelf := p.Neg().Scale(1 / dist)
		if align := te.Transform.Forward().Dot(toSelf); align > 0 {
			side := te.Transform.Right()
			if side.Dot(toSelf) < 0 {
				side = side.Neg()
			}
			c.Move = c.Move.Add(side.Scale(t.Evade * align * align * align))
		}
	}

	as.avoid(id, a, e, &t, c)
	as.fire(id, a, e, &t, c, aim, aimPoint, dist)
	c.Clamp()
}

// acquire scans for the best target around e.
func (as *Aimers) acquire(id ecs.ID, a *Aimer, e *world.Entity, t *AimerTemplate) {
	s := as.set
	w := s.w
	team := w.Team(id)
	shapes := s.phys.QueryRadius(e.Transform.P, t.Range, 0)
	cands := make([]candidate, 0, len(shapes))
	for _, sh := range shapes {
		if sh.Sensor || sh.ID == 0 || sh.ID == id {
			continue
		}
		other := w.Team(sh.ID)
		if other == 0 || other == team {
			continue
		}
		if !physics.CheckFilter(t.Filter, sh.Filter) || !s.Damagables.Has(sh.ID) {
			continue
		}
		te := w.Entity(sh.ID)
		if te == nil {
			continue
		}
		r := te.Transform.P.Sub(e.Transform.P).Length() - 0.5*s.phys.Radius(sh.ID)
		if r > t.Range {
			continue
		}
		cands = append(cands, candidate{id: sh.ID, score: r})
	}

	prev := a.Target
	a.Target = selectTarget(cands, a.Target, t.Focus)
	if a.Target == prev || a.Target == 0 {
		return
	}
	// aim at the surface point facing us rather than the centre
	a.Offset = geom.Vec2{}
	te := w.Entity(a.Target)
	if hit, ok := s.phys.TestSegment(e.Transform.P, te.Transform.P, physics.DefaultFilter, id); ok && hit.ID == a.Target {
		a.Offset = te.Transform.Untransform(hit.Point)
	}
}

func (as *Aimers) wander(a *Aimer, e *world.Entity, t *AimerTemplate, c *Controller, clk *system.Clock) {
	wd := t.Wander
	if wd.Side == 0 && wd.Front == 0 && wd.Turn == 0 {
		return
	}
	step := 2 * math.Pi * clk.Step
	a.phase[0] = math.Mod(a.phase[0]+wd.SideRate*step, 2*math.Pi)
	a.phase[1] = math.Mod(a.phase[1]+wd.FrontRate*step, 2*math.Pi)
	a.phase[2] = math.Mod(a.phase[2]+wd.TurnRate*step, 2*math.Pi)
	c.Move = c.Move.
		Add(e.Transform.Right().Scale(wd.Side * math.Sin(a.phase[0]))).
		Add(e.Transform.Forward().Scale(wd.Front * math.Sin(a.phase[1])))
	c.Turn += wd.Turn * math.Sin(a.phase[2])
}

// avoid pushes the move vector off obstacles in the direction of travel.
func (as *Aimers) avoid(id ecs.ID, a *Aimer, e *world.Entity, t *AimerTemplate, c *Controller) {
	if t.AvoidRange <= 0 || t.AvoidForce == 0 || c.Move.IsZero() {
		return
	}
	phys := as.set.phys
	ahead := e.Transform.P.Add(c.Move.Normalize().Scale(t.AvoidRange))
	hit, ok := phys.TestSegment(e.Transform.P, ahead, phys.Filter(id), id)
	if !ok || hit.ID == a.Target {
		return
	}
	c.Move = c.Move.Add(hit.Normal.Scale(t.AvoidForce * (1 - hit.Fraction)))
}

func (as *Aimers) fire(id ecs.ID, a *Aimer, e *world.Entity, t *AimerTemplate, c *Controller, aim, aimPoint geom.Vec2, dist float64) {
	s := as.set
	heading := geom.HeadingOf(e.Transform.Unrotate(aim))
	for _, cone := range t.Fire {
		if c.Fire[cone.Channel] > 0 {
			continue
		}
		if cone.Range > 0 && dist > cone.Range {
			continue
		}
		if math.Cos(geom.WrapAngle(heading-cone.Direction)) < cone.CosAngle {
			continue
		}
		if cone.Clear {
			hit, ok := s.phys.TestSegment(e.Transform.P, aimPoint, s.phys.Filter(id), id)
			if ok && hit.ID != a.Target && s.w.Root(hit.ID) != s.w.Root(id) {
				continue
			}
		}
		c.Fire[cone.Channel] = 1
	}
}
