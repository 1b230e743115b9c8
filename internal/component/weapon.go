package component

import (
	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/event"
	"github.com/warp8/engine/internal/core/geom"
	"github.com/warp8/engine/internal/core/system"
	"github.com/warp8/engine/internal/data"
	"github.com/warp8/engine/internal/world"
	"go.uber.org/zap"
)

// WeaponTemplate describes how and what a weapon fires. Transforms carry
// an angle in radians and a local x/y pair.
type WeaponTemplate struct {
	Offset   geom.Transform // muzzle relative to the weapon
	Scatter  geom.Transform // random spread of the muzzle pose
	Inherit  geom.Transform // share of the weapon's velocity passed on
	Velocity geom.Transform // added muzzle velocity, local
	Variance geom.Transform // random spread of the muzzle velocity
	Recoil   float64

	Ordnance ecs.ID
	Flash    ecs.ID

	Channel int // 0-based
	Delay   float64
	Phase   int
	Cycle   int
	Track   int

	AmmoType ecs.ID
	AmmoCost float64
}

func defaultWeaponTemplate() WeaponTemplate {
	return WeaponTemplate{
		Inherit: geom.NewTransform(1, geom.V(1, 1)),
		Delay:   1,
		Cycle:   1,
	}
}

// Weapon is the runtime state of one weapon.
type Weapon struct {
	Timer   float64
	Phase   int
	Tracked int    // live ordnance when the template tracks
	Control ecs.ID // controller entity, resolved lazily
	Ammo    ecs.ID // resource carrier
	task    world.Handle
}

// Weapons is the weapon kind.
type Weapons struct {
	set       *Set
	templates *ecs.Store[WeaponTemplate]
	inst      *ecs.Store[Weapon]
	trackers  *ecs.Store[ecs.ID] // ordnance → weapon
}

func newWeapons(s *Set) *Weapons {
	reg := s.w.Registry()
	ws := &Weapons{
		set:       s,
		templates: ecs.NewTemplateStore[WeaponTemplate](reg, "weapontemplate"),
		inst:      ecs.NewStore[Weapon](reg, "weapon"),
		trackers:  ecs.NewStore[ecs.ID](reg, "weapontracker"),
	}
	ws.templates.SetDefault(defaultWeaponTemplate())
	return ws
}

func (*Weapons) Name() string { return "weapon" }

func (ws *Weapons) Configure(el data.Element, template ecs.ID) error {
	t := ws.templates.Get(template)
	for _, child := range el.Children() {
		r := data.Read(child)
		switch child.Tag() {
		case "offset":
			r.Transform(&t.Offset)
		case "scatter":
			r.Transform(&t.Scatter)
		case "inherit":
			r.Transform(&t.Inherit)
		case "velocity":
			r.Transform(&t.Velocity)
		case "variance":
			r.Transform(&t.Variance)
		case "recoil":
			r.Float("value", &t.Recoil)
		case "ordnance":
			r.Key("name", &t.Ordnance)
		case "flash":
			r.Key("name", &t.Flash)
		case "trigger":
			if r.Int("channel", &t.Channel) {
				t.Channel--
			}
		case "shot":
			r.Float("delay", &t.Delay)
			r.Int("phase", &t.Phase)
			r.Int("cycle", &t.Cycle)
			r.Int("track", &t.Track)
		case "ammo":
			r.Key("type", &t.AmmoType)
			r.Float("cost", &t.AmmoCost)
		}
		if err := r.Err(); err != nil {
			return err
		}
	}
	if t.Cycle < 1 {
		t.Cycle = 1
	}
	if t.Channel < 0 || t.Channel >= Channels {
		t.Channel = 0
	}
	ws.templates.Put(template, t)
	return nil
}

func (ws *Weapons) Inherit(dst, src ecs.ID)          { ws.templates.Put(dst, ws.templates.Get(src)) }
func (ws *Weapons) HasTemplate(template ecs.ID) bool { return ws.templates.Has(template) }

// Template returns the weapon template of a template id, or nil.
func (ws *Weapons) Template(template ecs.ID) *WeaponTemplate { return ws.templates.Find(template) }

func (ws *Weapons) Activate(id ecs.ID) error {
	t := ws.templates.Get(ws.set.w.TemplateOf(id))
	wp := Weapon{Phase: t.Phase}
	if t.AmmoType != 0 {
		wp.Ammo = ws.set.Resources.FindResource(id, t.AmmoType)
	}
	wp.task = ws.set.w.Updatables.Add(id, func(clk *system.Clock) { ws.update(id, clk) })
	ws.inst.Put(id, wp)
	return nil
}

func (ws *Weapons) Deactivate(id ecs.ID) {
	if wp := ws.inst.Find(id); wp != nil {
		ws.set.w.Updatables.Remove(wp.task)
	}
	ws.inst.Delete(id)
}

// Find returns the weapon state of id, or nil.
func (ws *Weapons) Find(id ecs.ID) *Weapon { return ws.inst.Find(id) }

// untrack releases the tracking slot held by deleted ordnance.
func (ws *Weapons) untrack(id ecs.ID) {
	weapon := ws.trackers.Find(id)
	if weapon == nil {
		return
	}
	if wp := ws.inst.Find(*weapon); wp != nil && wp.Tracked > 0 {
		wp.Tracked--
	}
	ws.trackers.Delete(id)
}

func (ws *Weapons) controlOf(id ecs.ID, wp *Weapon) *Controller {
	if wp.Control == 0 || !ws.set.Controllers.Has(wp.Control) {
		wp.Control = ws.set.FindController(id)
	}
	return ws.set.Controllers.Find(wp.Control)
}

func (ws *Weapons) update(id ecs.ID, clk *system.Clock) {
	wp := ws.inst.Find(id)
	if wp == nil {
		return
	}
	c := ws.controlOf(id, wp)
	if c == nil {
		return
	}
	t := ws.templates.Get(ws.set.w.TemplateOf(id))

	wp.Timer += clk.Step
	if !c.Firing(t.Channel) {
		if wp.Timer > 0 {
			wp.Timer = 0
		}
		return
	}

	for wp.Timer > 0 && (t.Track == 0 || wp.Tracked < t.Track) {
		costly := t.AmmoType != 0 && t.AmmoCost != 0
		if costly && (wp.Ammo == 0 || ws.set.Resources.Value(wp.Ammo, t.AmmoType) < t.AmmoCost) {
			break
		}
		if wp.Phase == 0 {
			if costly {
				ws.set.Resources.Add(wp.Ammo, t.AmmoType, id, -t.AmmoCost)
			}
			ws.fire(id, &t, wp.Timer, clk)
			if wp = ws.inst.Find(id); wp == nil {
				return
			}
			wp.Phase = t.Cycle - 1
		} else {
			wp.Phase--
		}
		wp.Timer -= t.Delay / float64(t.Cycle)
		if t.Delay <= 0 {
			wp.Timer = 0
		}
	}
}

// fire emits one shot. timer is how far into the next shot the weapon has
// run, which places the muzzle between the last two poses.
func (ws *Weapons) fire(id ecs.ID, t *WeaponTemplate, timer float64, clk *system.Clock) {
	s := ws.set
	w := s.w
	e := w.Entity(id)
	if e == nil {
		return
	}
	w.Cue(id, cueFire)

	f := 0.0
	if clk.Step > 0 {
		f = geom.Clamp(timer/clk.Step, 0, 1)
	}
	xf := e.Interpolated(1 - f).Mul(t.Offset)
	velocity, omega := e.Velocity, e.Omega

	if t.Recoil != 0 {
		for cur := range w.Chain(id) {
			if s.phys.ApplyImpulse(cur, xf.Rotate(geom.V(0, -t.Recoil)), xf.P) {
				break
			}
		}
	}

	if t.Flash != 0 {
		flash, err := w.Instantiate(world.Spawn{
			Template: t.Flash,
			Owner:    w.Owner(id),
			Backlink: id,
			Angle:    xf.Angle,
			Position: xf.P,
			Velocity: velocity,
			Omega:    omega,
			Fraction: f,
		})
		if err != nil {
			s.log.Warn("flash spawn failed", zap.String("flash", w.TemplateName(t.Flash)), zap.Error(err))
		} else {
			s.Links.children.Put(id, flash, flash)
			s.Links.attach(id, flash, LinkTemplate{Secondary: t.Flash, Offset: t.Offset, UpdateAngle: true})
		}
	}

	if t.Ordnance == 0 {
		return
	}
	shot := xf
	if t.Scatter.Angle != 0 {
		shot.Angle += s.uniform() * t.Scatter.Angle
	}
	if t.Scatter.P.X != 0 {
		shot.P.X += s.uniform() * t.Scatter.P.X
	}
	if t.Scatter.P.Y != 0 {
		shot.P.Y += s.uniform() * t.Scatter.P.Y
	}

	local := shot.Unrotate(velocity)
	local.X = local.X*t.Inherit.P.X + t.Velocity.P.X
	local.Y = local.Y*t.Inherit.P.Y + t.Velocity.P.Y
	spin := omega*t.Inherit.Angle + t.Velocity.Angle
	if t.Variance.Angle != 0 {
		spin += s.uniform() * t.Variance.Angle
	}
	if t.Variance.P.X != 0 {
		local.X += s.uniform() * t.Variance.P.X
	}
	if t.Variance.P.Y != 0 {
		local.Y += s.uniform() * t.Variance.P.Y
	}

	ord, err := w.Instantiate(world.Spawn{
		Template: t.Ordnance,
		Owner:    s.ownerOf(id),
		Angle:    shot.Angle,
		Position: shot.P,
		Velocity: shot.Rotate(local),
		Omega:    spin,
		Fraction: f,
	})
	if err != nil {
		s.log.Warn("ordnance spawn failed", zap.String("ordnance", w.TemplateName(t.Ordnance)), zap.Error(err))
		return
	}
	if t.Track > 0 {
		if wp := ws.inst.Find(id); wp != nil {
			wp.Tracked++
			ws.trackers.Put(ord, id)
		}
	}
	event.Emit(w.Bus(), event.WeaponFired{Turn: clk.Turn, Weapon: id, Ordnance: ord})
}

// MuzzleSpeed is the forward speed a weapon template gives its ordnance.
func (ws *Weapons) MuzzleSpeed(template ecs.ID) float64 {
	if t := ws.templates.Find(template); t != nil {
		return t.Velocity.P.Y
	}
	return 0
}
