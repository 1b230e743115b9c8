package physics

import (
	"fmt"

	"github.com/ByteArena/box2d"
	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/geom"
	"github.com/warp8/engine/internal/core/system"
	"github.com/warp8/engine/internal/data"
	"github.com/warp8/engine/internal/world"
	"go.uber.org/zap"
)

const (
	velocityIterations = 8
	positionIterations = 3

	// DefaultQueryCap bounds the results of one AABB query.
	DefaultQueryCap = 256
)

// Contact is one begin or end touch, seen from the listener's side.
type Contact struct {
	Self        ecs.ID
	Other       ecs.ID
	SelfSensor  bool
	OtherSensor bool
	Begin       bool
}

// ContactFunc receives contacts after the physics step has finished, so it
// may create or delete entities.
type ContactFunc func(c Contact)

type contactEvent struct {
	a, b             ecs.ID
	aSensor, bSensor bool
	begin            bool
}

// Bridge is the Collidable component: it owns the Box2D world and keeps
// entity poses in step with their bodies.
type Bridge struct {
	w   *world.World
	log *zap.Logger
	b2  box2d.B2World

	templates *ecs.Store[Template]
	filters   *ecs.Store[Filter]
	bodies    *ecs.Store[*box2d.B2Body]
	onContact *ecs.Nested[ContactFunc]

	pending []contactEvent
	walls   *box2d.B2Body

	QueryCap int
}

// NewBridge creates the physics world with zero gravity and registers the
// collidable kind's stores and the <filter> world item.
func NewBridge(w *world.World) *Bridge {
	reg := w.Registry()
	b := &Bridge{
		w:         w,
		log:       w.Log().Named("physics"),
		b2:        box2d.MakeB2World(box2d.MakeB2Vec2(0, 0)),
		templates: ecs.NewTemplateStore[Template](reg, "collidabletemplate"),
		filters:   ecs.NewTemplateStore[Filter](reg, "collidablefilter"),
		bodies:    ecs.NewStore[*box2d.B2Body](reg, "collidable"),
		onContact: ecs.NewNested[ContactFunc](reg, "collidablecontact"),
		QueryCap:  DefaultQueryCap,
	}
	b.templates.SetDefault(DefaultTemplate())
	b.filters.SetDefault(DefaultFilter)
	b.b2.SetContactListener(&contactSink{b: b})
	w.RegisterItem("filter", b.configureNamedFilter)
	return b
}

func (b *Bridge) configureNamedFilter(el data.Element, _ string) error {
	name := data.Key(el, "name")
	if name == 0 {
		return fmt.Errorf("filter without name")
	}
	f := b.filters.Get(name)
	if err := configureFilter(el, &f, b.lookupFilter); err != nil {
		return err
	}
	b.filters.Put(name, f)
	return nil
}

func (b *Bridge) lookupFilter(name ecs.ID) (Filter, bool) {
	if f := b.filters.Find(name); f != nil {
		return *f, true
	}
	return Filter{}, false
}

// ReadFilter applies the filter items under el onto f. A filter attribute
// names a declared filter to start from; other children are left alone.
func (b *Bridge) ReadFilter(el data.Element, f *Filter) error {
	if name := data.Key(el, "filter"); name != 0 {
		named, ok := b.lookupFilter(name)
		if !ok {
			v, _ := el.Attr("filter")
			return fmt.Errorf("unknown filter %q", v)
		}
		*f = named
	}
	for _, child := range el.Children() {
		if _, err := configureFilterItem(child, f); err != nil {
			return err
		}
	}
	return nil
}

// NamedFilter returns a filter declared with <filter name=...>.
func (b *Bridge) NamedFilter(name ecs.ID) (Filter, bool) { return b.lookupFilter(name) }

// Template returns the collidable template for a template id.
func (b *Bridge) Template(template ecs.ID) *Template { return b.templates.Find(template) }

// Body returns the Box2D body of an entity, or nil.
func (b *Bridge) Body(id ecs.ID) *box2d.B2Body { return b.bodies.Get(id) }

// Has reports whether id has a body in the world.
func (b *Bridge) Has(id ecs.ID) bool { return b.bodies.Has(id) }

// Radius is the bounding radius of id's fixtures.
func (b *Bridge) Radius(id ecs.ID) float64 {
	if t := b.templates.Find(b.w.TemplateOf(id)); t != nil {
		return t.Radius
	}
	return 0
}

// Filter returns the filter of id's first fixture.
func (b *Bridge) Filter(id ecs.ID) Filter {
	if t := b.templates.Find(b.w.TemplateOf(id)); t != nil && len(t.Fixtures) > 0 {
		return t.Fixtures[0].Filter
	}
	return DefaultFilter
}

// CreateWalls builds a static perimeter loop on the world bounds.
func (b *Bridge) CreateWalls() {
	if b.walls != nil {
		b.b2.DestroyBody(b.walls)
		b.walls = nil
	}
	bounds := b.w.Bounds()
	if !bounds.Wall {
		return
	}
	def := box2d.MakeB2BodyDef()
	def.Type = box2d.B2BodyType.B2_staticBody
	b.walls = b.b2.CreateBody(&def)
	verts := []box2d.B2Vec2{
		box2d.MakeB2Vec2(bounds.Min.X, bounds.Min.Y),
		box2d.MakeB2Vec2(bounds.Max.X, bounds.Min.Y),
		box2d.MakeB2Vec2(bounds.Max.X, bounds.Max.Y),
		box2d.MakeB2Vec2(bounds.Min.X, bounds.Max.Y),
	}
	chain := box2d.MakeB2ChainShape()
	chain.CreateLoop(verts, len(verts))
	fd := box2d.MakeB2FixtureDef()
	fd.Shape = &chain
	fd.Filter = DefaultFilter.b2()
	b.walls.CreateFixtureFromDef(&fd)
}

func vec(v geom.Vec2) box2d.B2Vec2      { return box2d.MakeB2Vec2(v.X, v.Y) }
func fromVec(v box2d.B2Vec2) geom.Vec2 { return geom.V(v.X, v.Y) }

// AddToWorld creates the body, fixtures and joints for an entity.
func (b *Bridge) AddToWorld(id ecs.ID) error {
	t := b.templates.Find(b.w.TemplateOf(id))
	if t == nil {
		return fmt.Errorf("no collidable template for %d", id)
	}
	e := b.w.Entity(id)
	if e == nil {
		return fmt.Errorf("no entity %d", id)
	}
	if b.b2.IsLocked() {
		return fmt.Errorf("add %d: physics world is stepping", id)
	}

	moving := !e.Velocity.IsZero() || e.Omega != 0
	def := box2d.MakeB2BodyDef()
	switch t.ResolveType(moving) {
	case BodyStatic:
		def.Type = box2d.B2BodyType.B2_staticBody
	case BodyKinematic:
		def.Type = box2d.B2BodyType.B2_kinematicBody
	default:
		def.Type = box2d.B2BodyType.B2_dynamicBody
	}
	xf := e.Transform.Mul(t.Body.Offset)
	def.Position = vec(xf.P)
	def.Angle = xf.Angle
	def.LinearVelocity = vec(e.Velocity)
	def.AngularVelocity = e.Omega
	def.LinearDamping = t.Body.LinearDamping
	def.AngularDamping = t.Body.AngularDamping
	def.AllowSleep = t.Body.AllowSleep
	def.Awake = t.Body.Awake
	def.FixedRotation = t.Body.FixedRotation
	def.Bullet = t.Body.Bullet
	def.Active = t.Body.Active
	def.UserData = id

	body := b.b2.CreateBody(&def)
	for i := range t.Fixtures {
		b.createFixture(body, id, &t.Fixtures[i])
	}
	b.bodies.Put(id, body)

	for _, jd := range t.Joints {
		if err := b.CreateJoint(id, jd); err != nil {
			b.log.Warn("joint skipped",
				zap.String("template", b.w.TemplateName(b.w.TemplateOf(id))),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (b *Bridge) createFixture(body *box2d.B2Body, id ecs.ID, f *FixtureDef) {
	fd := box2d.MakeB2FixtureDef()
	fd.Friction = f.Friction
	fd.Restitution = f.Restitution
	fd.Density = f.Density
	fd.IsSensor = f.Sensor
	fd.Filter = f.Filter.b2()
	fd.UserData = id

	switch f.Shape {
	case ShapeCircle:
		circle := box2d.MakeB2CircleShape()
		circle.M_p = vec(f.Center)
		circle.M_radius = f.Radius
		fd.Shape = &circle
	case ShapeBox:
		box := box2d.MakeB2PolygonShape()
		box.SetAsBoxFromCenterAndAngle(f.HalfW, f.HalfH, vec(f.Center), f.Angle)
		fd.Shape = &box
	case ShapePoly:
		poly := box2d.MakeB2PolygonShape()
		poly.Set(vecs(f.Vertices), len(f.Vertices))
		fd.Shape = &poly
	case ShapeEdge:
		edge := box2d.MakeB2EdgeShape()
		edge.Set(vec(f.Vertices[0]), vec(f.Vertices[1]))
		fd.Shape = &edge
	case ShapeChain:
		chain := box2d.MakeB2ChainShape()
		if f.Loop {
			chain.CreateLoop(vecs(f.Vertices), len(f.Vertices))
		} else {
			chain.CreateChain(vecs(f.Vertices), len(f.Vertices))
		}
		fd.Shape = &chain
	}
	body.CreateFixtureFromDef(&fd)
}

func vecs(vs []geom.Vec2) []box2d.B2Vec2 {
	out := make([]box2d.B2Vec2, len(vs))
	for i, v := range vs {
		out[i] = vec(v)
	}
	return out
}

func (b *Bridge) resolveBody(self, name ecs.ID) ecs.ID {
	switch name {
	case 0, BodyThis:
		return self
	case BodyBacklink:
		return b.w.Backlink(self)
	case BodyOwner:
		return b.w.Owner(self)
	}
	return name
}

// CreateJoint connects two bodies. Body names resolve relative to self;
// anything else is taken as an entity id.
func (b *Bridge) CreateJoint(self ecs.ID, jd JointDef) error {
	id1 := b.resolveBody(self, jd.Body1)
	id2 := b.resolveBody(self, jd.Body2)
	body1, body2 := b.bodies.Get(id1), b.bodies.Get(id2)
	if body1 == nil || body2 == nil {
		return fmt.Errorf("joint between %d and %d: missing body", id1, id2)
	}
	switch jd.Kind {
	case JointRevolute:
		def := box2d.MakeB2RevoluteJointDef()
		def.BodyA, def.BodyB = body1, body2
		def.CollideConnected = jd.CollideConnected
		def.LocalAnchorA = vec(jd.Anchor1)
		def.LocalAnchorB = vec(jd.Anchor2)
		def.ReferenceAngle = jd.Angle
		def.EnableLimit = jd.Limit
		def.LowerAngle = jd.Lower
		def.UpperAngle = jd.Upper
		def.EnableMotor = jd.Motor
		def.MaxMotorTorque = jd.MaxTorque
		def.MotorSpeed = jd.Speed
		b.b2.CreateJoint(&def)
	case JointDistance:
		def := box2d.MakeB2DistanceJointDef()
		def.BodyA, def.BodyB = body1, body2
		def.CollideConnected = jd.CollideConnected
		def.LocalAnchorA = vec(jd.Anchor1)
		def.LocalAnchorB = vec(jd.Anchor2)
		length := jd.Length
		if length <= 0 {
			p1 := body1.GetWorldPoint(def.LocalAnchorA)
			p2 := body2.GetWorldPoint(def.LocalAnchorB)
			length = fromVec(p2).Sub(fromVec(p1)).Length()
		}
		def.Length = length
		def.FrequencyHz = jd.Frequency
		def.DampingRatio = jd.Damping
		b.b2.CreateJoint(&def)
	case JointWeld:
		def := box2d.MakeB2WeldJointDef()
		def.BodyA, def.BodyB = body1, body2
		def.CollideConnected = jd.CollideConnected
		def.LocalAnchorA = vec(jd.Anchor1)
		def.LocalAnchorB = vec(jd.Anchor2)
		def.ReferenceAngle = jd.Angle
		def.FrequencyHz = jd.Frequency
		def.DampingRatio = jd.Damping
		b.b2.CreateJoint(&def)
	default:
		return fmt.Errorf("unknown joint kind %d", jd.Kind)
	}
	return nil
}

// RemoveFromWorld destroys id's body (its joints go with it) and drops its
// contact listeners.
func (b *Bridge) RemoveFromWorld(id ecs.ID) {
	if body := b.bodies.Get(id); body != nil {
		b.b2.DestroyBody(body)
	}
	b.bodies.Delete(id)
	b.onContact.Delete(id)
}

// AddContactListener registers fn for contacts involving id under key.
func (b *Bridge) AddContactListener(id, key ecs.ID, fn ContactFunc) {
	b.onContact.Put(id, key, fn)
}

func (b *Bridge) RemoveContactListener(id, key ecs.ID) {
	b.onContact.DeleteSub(id, key)
}

// ApplyImpulse pushes id's body at a world point.
func (b *Bridge) ApplyImpulse(id ecs.ID, impulse, point geom.Vec2) bool {
	body := b.bodies.Get(id)
	if body == nil {
		return false
	}
	body.ApplyLinearImpulse(vec(impulse), vec(point), true)
	return true
}

// SetVelocity drives a body directly.
func (b *Bridge) SetVelocity(id ecs.ID, v geom.Vec2, omega float64) bool {
	body := b.bodies.Get(id)
	if body == nil {
		return false
	}
	body.SetLinearVelocity(vec(v))
	body.SetAngularVelocity(omega)
	return true
}

// SetTransform teleports a body.
func (b *Bridge) SetTransform(id ecs.ID, xf geom.Transform) bool {
	body := b.bodies.Get(id)
	if body == nil {
		return false
	}
	body.SetTransform(vec(xf.P), xf.Angle)
	return true
}

// CollideAll advances physics by one tick: entity poses are saved for
// interpolation, body-less entities integrate their own velocity, the
// Box2D world steps, awake bodies copy their state back, and the contacts
// collected during the step are delivered.
func (b *Bridge) CollideAll(clk *system.Clock) {
	dt := clk.Step
	for id, e := range b.w.Entities.All() {
		e.Step()
		if b.bodies.Has(id) {
			continue
		}
		e.Transform.P = e.Transform.P.Add(e.Velocity.Scale(dt))
		e.Transform.Angle += e.Omega * dt
	}

	b.b2.Step(dt, velocityIterations, positionIterations)

	for id, body := range b.bodies.All() {
		if !(*body).IsAwake() || (*body).GetType() == box2d.B2BodyType.B2_staticBody {
			continue
		}
		e := b.w.Entity(id)
		if e == nil {
			continue
		}
		e.Transform.P = fromVec((*body).GetPosition())
		e.Transform.Angle = (*body).GetAngle()
		e.Velocity = fromVec((*body).GetLinearVelocity())
		e.Omega = (*body).GetAngularVelocity()
	}

	b.dispatchContacts()
}

func (b *Bridge) dispatchContacts() {
	events := b.pending
	b.pending = nil
	for _, ev := range events {
		b.deliver(Contact{Self: ev.a, Other: ev.b, SelfSensor: ev.aSensor, OtherSensor: ev.bSensor, Begin: ev.begin})
		b.deliver(Contact{Self: ev.b, Other: ev.a, SelfSensor: ev.bSensor, OtherSensor: ev.aSensor, Begin: ev.begin})
	}
}

func (b *Bridge) deliver(c Contact) {
	if c.Self == 0 || b.onContact.Count(c.Self) == 0 {
		return
	}
	// copy first: a listener may remove itself or its entity
	var fns []ContactFunc
	for _, fn := range b.onContact.Each(c.Self) {
		fns = append(fns, *fn)
	}
	for _, fn := range fns {
		fn(c)
	}
}

func fixtureID(f *box2d.B2Fixture) ecs.ID {
	if f == nil {
		return 0
	}
	if id, ok := f.GetUserData().(ecs.ID); ok {
		return id
	}
	return 0
}

// contactSink buffers Box2D callbacks; the world is locked while they run.
type contactSink struct {
	b *Bridge
}

func (s *contactSink) record(contact box2d.B2ContactInterface, begin bool) {
	fa, fb := contact.GetFixtureA(), contact.GetFixtureB()
	s.b.pending = append(s.b.pending, contactEvent{
		a:       fixtureID(fa),
		b:       fixtureID(fb),
		aSensor: fa.IsSensor(),
		bSensor: fb.IsSensor(),
		begin:   begin,
	})
}

func (s *contactSink) BeginContact(contact box2d.B2ContactInterface) { s.record(contact, true) }
func (s *contactSink) EndContact(contact box2d.B2ContactInterface)   { s.record(contact, false) }

func (s *contactSink) PreSolve(box2d.B2ContactInterface, box2d.B2Manifold) {}

func (s *contactSink) PostSolve(box2d.B2ContactInterface, *box2d.B2ContactImpulse) {}
