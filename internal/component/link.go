package component

import (
	"errors"
	"iter"

	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/geom"
	"github.com/warp8/engine/internal/core/system"
	"github.com/warp8/engine/internal/data"
	"github.com/warp8/engine/internal/physics"
	"github.com/warp8/engine/internal/world"
	"go.uber.org/zap"
)

// LinkTemplate attaches a secondary entity, such as a turret, at an offset.
type LinkTemplate struct {
	Secondary   ecs.ID
	Offset      geom.Transform
	UpdateAngle bool // the secondary keeps the parent's heading
}

// Links is the attachment kind. Secondaries hang from the parent through
// their back-link and are deleted with it.
type Links struct {
	set       *Set
	templates *ecs.Nested[LinkTemplate]
	children  *ecs.Nested[ecs.ID]
	followers *ecs.Store[world.Handle] // keyed by secondary
}

func newLinks(s *Set) *Links {
	reg := s.w.Registry()
	ls := &Links{
		set:       s,
		templates: ecs.NewNestedTemplate[LinkTemplate](reg, "linktemplate"),
		children:  ecs.NewNested[ecs.ID](reg, "link"),
		followers: ecs.NewStore[world.Handle](reg, "linkfollow"),
	}
	ls.templates.SetDefault(LinkTemplate{UpdateAngle: true})
	s.w.OnDeactivate(ls.detach)
	return ls
}

func (*Links) Name() string { return "link" }

func (ls *Links) Configure(el data.Element, template ecs.ID) error {
	name := data.Key(el, "name")
	if name == 0 {
		return errors.New("link without name")
	}
	t := ls.templates.Get(template, name)
	r := data.Read(el)
	r.Key("secondary", &t.Secondary)
	r.Bool("updateangle", &t.UpdateAngle)
	for _, child := range el.Children() {
		if child.Tag() == "offset" {
			r := data.Read(child)
			r.Transform(&t.Offset)
			if err := r.Err(); err != nil {
				return err
			}
		}
	}
	if err := r.Err(); err != nil {
		return err
	}
	if t.Secondary == 0 {
		return errors.New("link without secondary")
	}
	ls.templates.Put(template, name, t)
	return nil
}

func (ls *Links) Inherit(dst, src ecs.ID) {
	for name, t := range ls.templates.Each(src) {
		ls.templates.Put(dst, name, *t)
	}
}

func (ls *Links) HasTemplate(template ecs.ID) bool { return ls.templates.Count(template) > 0 }

// Templates iterates the link templates of a template id.
func (ls *Links) Templates(template ecs.ID) iter.Seq2[ecs.ID, *LinkTemplate] {
	return ls.templates.Each(template)
}

func (ls *Links) Activate(id ecs.ID) error {
	w := ls.set.w
	e := *w.Entity(id)
	for name, t := range ls.templates.Each(w.TemplateOf(id)) {
		pose := e.Transform.Mul(t.Offset)
		child, err := w.Instantiate(world.Spawn{
			Template: t.Secondary,
			Owner:    ls.set.ownerOf(id),
			Backlink: id,
			Angle:    pose.Angle,
			Position: pose.P,
			Velocity: e.Velocity,
			Omega:    e.Omega,
		})
		if err != nil {
			ls.set.log.Warn("link skipped",
				zap.String("template", w.TemplateName(w.TemplateOf(id))),
				zap.String("secondary", w.TemplateName(t.Secondary)),
				zap.Error(err),
			)
			continue
		}
		ls.children.Put(id, name, child)
		ls.attach(id, child, *t)
	}
	return nil
}

func (ls *Links) attach(parent, child ecs.ID, t LinkTemplate) {
	phys := ls.set.phys
	if phys.Has(parent) && phys.Has(child) {
		jd := physics.JointDef{
			Kind:    physics.JointRevolute,
			Body1:   physics.BodyBacklink,
			Body2:   physics.BodyThis,
			Anchor1: t.Offset.P,
			Angle:   t.Offset.Angle,
		}
		if t.UpdateAngle {
			jd.Kind = physics.JointWeld
		}
		if err := phys.CreateJoint(child, jd); err == nil {
			return
		}
	}
	h := ls.set.w.Updatables.Add(child, func(*system.Clock) { ls.follow(parent, child, t) })
	ls.followers.Put(child, h)
}

// follow snaps a body-less secondary onto its mount point.
func (ls *Links) follow(parent, child ecs.ID, t LinkTemplate) {
	pe, ce := ls.set.w.Entity(parent), ls.set.w.Entity(child)
	if pe == nil || ce == nil {
		return
	}
	pose := pe.Transform.Mul(t.Offset)
	if !t.UpdateAngle {
		pose.Angle = ce.Transform.Angle
	}
	ce.Transform = pose
	ce.Velocity = pe.Velocity
	ls.set.phys.SetTransform(child, pose)
}

func (ls *Links) Deactivate(id ecs.ID) {
	for _, child := range ls.children.Each(id) {
		ls.set.w.Delete(*child)
	}
	ls.children.Delete(id)
}

// Child returns the secondary attached under name, or 0.
func (ls *Links) Child(id, name ecs.ID) ecs.ID { return ls.children.Get(id, name) }

// detach runs for every deleted entity. It drops the entity from its
// parent's child records and takes down children attached outside a link
// template, such as muzzle flashes.
func (ls *Links) detach(id ecs.ID) {
	if h := ls.followers.Find(id); h != nil {
		ls.set.w.Updatables.Remove(*h)
		ls.followers.Delete(id)
	}
	if parent := ls.set.w.Backlink(id); parent != 0 {
		ls.children.DeleteSub(parent, id)
	}
	if ls.children.Count(id) > 0 {
		ls.Deactivate(id)
	}
}
