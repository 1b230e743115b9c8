package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/geom"
	"github.com/warp8/engine/internal/core/hash"
	"github.com/warp8/engine/internal/data"
)

type BodyType uint8

const (
	BodyAuto BodyType = iota
	BodyStatic
	BodyKinematic
	BodyDynamic
)

type ShapeKind uint8

const (
	ShapeCircle ShapeKind = iota
	ShapeBox
	ShapePoly
	ShapeEdge
	ShapeChain
)

type JointKind uint8

const (
	JointRevolute JointKind = iota
	JointDistance
	JointWeld
)

// Special body names a joint may refer to.
var (
	BodyThis     = ecs.ID(hash.Hash("this"))
	BodyBacklink = ecs.ID(hash.Hash("backlink"))
	BodyOwner    = ecs.ID(hash.Hash("owner"))
)

// FixtureDef is one shape of a collidable template.
type FixtureDef struct {
	Shape    ShapeKind
	Center   geom.Vec2
	Angle    float64
	Radius   float64
	HalfW    float64
	HalfH    float64
	Vertices []geom.Vec2
	Loop     bool

	Friction    float64
	Restitution float64
	Density     float64
	Sensor      bool
	Filter      Filter
}

// extent is the distance from the body origin to the farthest point.
func (f *FixtureDef) extent() float64 {
	switch f.Shape {
	case ShapeCircle:
		return f.Center.Length() + f.Radius
	case ShapeBox:
		return f.Center.Length() + math.Hypot(f.HalfW, f.HalfH)
	}
	r := 0.0
	for _, v := range f.Vertices {
		r = math.Max(r, v.Length())
	}
	return r
}

// BodyDef mirrors the Box2D body definition in configuration units.
type BodyDef struct {
	Type           BodyType
	Offset         geom.Transform
	LinearDamping  float64
	AngularDamping float64
	AllowSleep     bool
	Awake          bool
	FixedRotation  bool
	Bullet         bool
	Active         bool
}

// JointDef joins this entity's body to another.
type JointDef struct {
	Kind             JointKind
	Body1, Body2     ecs.ID
	Anchor1, Anchor2 geom.Vec2
	Angle            float64
	Limit            bool
	Lower, Upper     float64
	Motor            bool
	MaxTorque        float64
	Speed            float64
	Length           float64
	Frequency        float64
	Damping          float64
	CollideConnected bool
}

// Template is the collidable configuration of one entity template.
type Template struct {
	Body     BodyDef
	Fixtures []FixtureDef
	Joints   []JointDef
	Radius   float64
}

func DefaultTemplate() Template {
	return Template{
		Body: BodyDef{AllowSleep: true, Awake: true, Active: true},
	}
}

// Clone deep-copies the fixture and joint lists.
func (t Template) Clone() Template {
	c := t
	c.Fixtures = make([]FixtureDef, len(t.Fixtures))
	for i, f := range t.Fixtures {
		f.Vertices = append([]geom.Vec2(nil), f.Vertices...)
		c.Fixtures[i] = f
	}
	c.Joints = append([]JointDef(nil), t.Joints...)
	return c
}

// hasDensity reports whether any fixture has mass.
func (t *Template) hasDensity() bool {
	for i := range t.Fixtures {
		if t.Fixtures[i].Density > 0 {
			return true
		}
	}
	return false
}

// ResolveType applies the auto rule: dynamic with mass, kinematic when
// moving, static otherwise.
func (t *Template) ResolveType(moving bool) BodyType {
	if t.Body.Type != BodyAuto {
		return t.Body.Type
	}
	switch {
	case t.hasDensity():
		return BodyDynamic
	case moving:
		return BodyKinematic
	}
	return BodyStatic
}

// filterLookup resolves a named filter.
type filterLookup func(name ecs.ID) (Filter, bool)

// ConfigureTemplate applies a <collidable> element.
func ConfigureTemplate(el data.Element, t *Template, filters filterLookup) error {
	for _, child := range el.Children() {
		if child.Tag() == "body" {
			if err := ConfigureTemplate(child, t, filters); err != nil {
				return err
			}
			continue
		}
		handled, err := configureBodyItem(child, &t.Body)
		if err != nil {
			return err
		}
		if handled {
			continue
		}
		if fd, ok, err := configureFixture(child, filters); err != nil {
			return err
		} else if ok {
			t.Fixtures = append(t.Fixtures, fd)
			continue
		}
		if jd, ok, err := configureJoint(child); err != nil {
			return err
		} else if ok {
			t.Joints = append(t.Joints, jd)
			continue
		}
		return fmt.Errorf("unknown collidable item <%s>", child.Tag())
	}
	t.measure()
	return nil
}

func (t *Template) measure() {
	t.Radius = 0
	for i := range t.Fixtures {
		t.Radius = math.Max(t.Radius, t.Fixtures[i].extent())
	}
}

func configureBodyItem(el data.Element, b *BodyDef) (bool, error) {
	r := data.Read(el)
	switch el.Tag() {
	case "position":
		r.Transform(&b.Offset)
	case "damping":
		r.Float("linear", &b.LinearDamping)
		r.Float("angular", &b.AngularDamping)
	case "allowsleep":
		r.Bool("value", &b.AllowSleep)
	case "awake":
		r.Bool("value", &b.Awake)
	case "fixedrotation":
		r.Bool("value", &b.FixedRotation)
	case "fast":
		r.Bool("value", &b.Bullet)
	case "active":
		r.Bool("value", &b.Active)
	case "type":
		var v string
		r.String("value", &v)
		switch v {
		case "", "auto":
			b.Type = BodyAuto
		case "static":
			b.Type = BodyStatic
		case "kinematic":
			b.Type = BodyKinematic
		case "dynamic":
			b.Type = BodyDynamic
		default:
			return true, fmt.Errorf("unknown body type %q", v)
		}
	default:
		return false, nil
	}
	return true, r.Err()
}

func configureFixture(el data.Element, filters filterLookup) (FixtureDef, bool, error) {
	fd := FixtureDef{Friction: 0.2, Filter: DefaultFilter}
	r := data.Read(el)
	switch el.Tag() {
	case "circle":
		fd.Shape = ShapeCircle
		r.Float("radius", &fd.Radius)
	case "box":
		fd.Shape = ShapeBox
		r.Float("w", &fd.HalfW)
		r.Float("h", &fd.HalfH)
	case "poly":
		fd.Shape = ShapePoly
	case "edge":
		fd.Shape = ShapeEdge
	case "edgechain":
		fd.Shape = ShapeChain
		r.Bool("loop", &fd.Loop)
	default:
		return fd, false, nil
	}
	// shorthand fixture attributes on the shape element itself
	r.Float("friction", &fd.Friction)
	r.Float("restitution", &fd.Restitution)
	r.Float("density", &fd.Density)
	r.Bool("sensor", &fd.Sensor)
	if err := r.Err(); err != nil {
		return fd, true, err
	}

	var v1, v2 geom.Vec2
	for _, child := range el.Children() {
		cr := data.Read(child)
		switch child.Tag() {
		case "position":
			cr.Vec(&fd.Center)
			cr.Degrees("angle", &fd.Angle)
		case "vertex":
			var v geom.Vec2
			cr.Vec(&v)
			fd.Vertices = append(fd.Vertices, v)
		case "vertex1":
			cr.Vec(&v1)
		case "vertex2":
			cr.Vec(&v2)
		case "friction":
			cr.Float("value", &fd.Friction)
		case "restitution":
			cr.Float("value", &fd.Restitution)
		case "density":
			cr.Float("value", &fd.Density)
		case "sensor":
			cr.Bool("value", &fd.Sensor)
		case "filter":
			if err := configureFilter(child, &fd.Filter, filters); err != nil {
				return fd, true, err
			}
		default:
			if ok, err := configureFilterItem(child, &fd.Filter); err != nil {
				return fd, true, err
			} else if !ok {
				return fd, true, fmt.Errorf("unknown %s item <%s>", el.Tag(), child.Tag())
			}
		}
		if err := cr.Err(); err != nil {
			return fd, true, err
		}
	}

	switch fd.Shape {
	case ShapeCircle:
		if fd.Radius <= 0 {
			return fd, true, errors.New("circle needs a positive radius")
		}
	case ShapeBox:
		if fd.HalfW <= 0 || fd.HalfH <= 0 {
			return fd, true, errors.New("box needs positive w and h")
		}
	case ShapePoly:
		if len(fd.Vertices) < 3 || len(fd.Vertices) > 8 {
			return fd, true, fmt.Errorf("poly needs 3..8 vertices, got %d", len(fd.Vertices))
		}
	case ShapeEdge:
		fd.Vertices = []geom.Vec2{v1, v2}
	case ShapeChain:
		if len(fd.Vertices) < 2 {
			return fd, true, errors.New("edgechain needs at least 2 vertices")
		}
	}
	return fd, true, nil
}

// configureFilter applies a <filter> element: a name reference and/or
// inline category, mask and group items.
func configureFilter(el data.Element, f *Filter, filters filterLookup) error {
	if name := data.Key(el, "name"); name != 0 && filters != nil {
		named, ok := filters(name)
		if !ok {
			v, _ := el.Attr("name")
			return fmt.Errorf("unknown filter %q", v)
		}
		*f = named
	}
	for _, child := range el.Children() {
		ok, err := configureFilterItem(child, f)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("unknown filter item <%s>", child.Tag())
		}
	}
	return nil
}

// ConfigureFilter reads a standalone filter definition.
func ConfigureFilter(el data.Element, f *Filter) error {
	return configureFilter(el, f, nil)
}

func configureJoint(el data.Element) (JointDef, bool, error) {
	jd := JointDef{Body1: BodyBacklink, Body2: BodyThis, Frequency: 0, Damping: 0}
	switch el.Tag() {
	case "revolutejoint":
		jd.Kind = JointRevolute
	case "distancejoint":
		jd.Kind = JointDistance
	case "weldjoint":
		jd.Kind = JointWeld
	default:
		return jd, false, nil
	}
	r := data.Read(el)
	r.Key("body1", &jd.Body1)
	r.Key("body2", &jd.Body2)
	r.Bool("collideconnected", &jd.CollideConnected)
	for _, child := range el.Children() {
		cr := data.Read(child)
		switch child.Tag() {
		case "anchor1":
			cr.Vec(&jd.Anchor1)
		case "anchor2":
			cr.Vec(&jd.Anchor2)
		case "angle":
			cr.Degrees("value", &jd.Angle)
		case "limit":
			jd.Limit = true
			cr.Bool("enable", &jd.Limit)
			cr.Degrees("lower", &jd.Lower)
			cr.Degrees("upper", &jd.Upper)
		case "motor":
			jd.Motor = true
			cr.Bool("enable", &jd.Motor)
			cr.Float("torque", &jd.MaxTorque)
			cr.Degrees("speed", &jd.Speed)
		case "length":
			cr.Float("value", &jd.Length)
		case "spring":
			cr.Float("frequency", &jd.Frequency)
			cr.Float("damping", &jd.Damping)
		default:
			return jd, true, fmt.Errorf("unknown %s item <%s>", el.Tag(), child.Tag())
		}
		if err := cr.Err(); err != nil {
			return jd, true, err
		}
	}
	return jd, true, r.Err()
}
