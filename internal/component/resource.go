package component

import (
	"errors"
	"math"
	"slices"

	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/event"
	"github.com/warp8/engine/internal/core/geom"
	"github.com/warp8/engine/internal/core/system"
	"github.com/warp8/engine/internal/data"
	"github.com/warp8/engine/internal/world"
)

// ResourceTemplate configures one named meter such as ammo or shield.
type ResourceTemplate struct {
	Initial float64
	Maximum float64
	Delay   float64 // pause before regeneration resumes after a loss
	Cycle   float64 // seconds between regeneration steps
	Add     float64 // amount per regeneration step
}

// ResourceFunc observes a resource of an entity. source is whoever caused
// the change.
type ResourceFunc func(id, sub, source ecs.ID, value float64)

// Resource is the runtime state of one meter.
type Resource struct {
	Value float64
	Timer float64

	tmpl     ResourceTemplate
	task     world.Handle
	onChange []ResourceFunc
	onEmpty  []ResourceFunc
	onFull   []ResourceFunc
}

// Resources is the resource kind. An entity may carry any number of named
// resources, each keyed by the hash of its name.
type Resources struct {
	set       *Set
	templates *ecs.Nested[ResourceTemplate]
	inst      *ecs.Nested[Resource]
}

func newResources(s *Set) *Resources {
	reg := s.w.Registry()
	rs := &Resources{
		set:       s,
		templates: ecs.NewNestedTemplate[ResourceTemplate](reg, "resourcetemplate"),
		inst:      ecs.NewNested[Resource](reg, "resource"),
	}
	rs.templates.SetDefault(ResourceTemplate{Maximum: math.MaxFloat64})
	return rs
}

func (*Resources) Name() string { return "resource" }

func (rs *Resources) Configure(el data.Element, template ecs.ID) error {
	sub := data.Key(el, "name")
	if sub == 0 {
		return errors.New("resource without name")
	}
	t := rs.templates.Get(template, sub)
	r := data.Read(el)
	r.Float("initial", &t.Initial)
	r.Float("maximum", &t.Maximum)
	r.Float("delay", &t.Delay)
	r.Float("cycle", &t.Cycle)
	r.Float("add", &t.Add)
	var rate float64
	if r.Float("rate", &rate) {
		t.Add = rate * t.Cycle
	}
	if err := r.Err(); err != nil {
		return err
	}
	rs.templates.Put(template, sub, t)
	return nil
}

func (rs *Resources) Inherit(dst, src ecs.ID) {
	for sub, t := range rs.templates.Each(src) {
		rs.templates.Put(dst, sub, *t)
	}
}

func (rs *Resources) HasTemplate(template ecs.ID) bool {
	return rs.templates.Count(template) > 0
}

// Template returns the template of resource sub on a template id.
func (rs *Resources) Template(template, sub ecs.ID) *ResourceTemplate {
	return rs.templates.Find(template, sub)
}

func (rs *Resources) Activate(id ecs.ID) error {
	for sub, t := range rs.templates.Each(rs.set.w.TemplateOf(id)) {
		rs.inst.Put(id, sub, Resource{Value: geom.Clamp(t.Initial, 0, t.Maximum), Timer: t.Cycle, tmpl: *t})
		r := rs.inst.Find(id, sub)
		if r.wantsRegen() {
			rs.arm(id, sub, r)
		}
	}
	return nil
}

func (rs *Resources) Deactivate(id ecs.ID) {
	for _, r := range rs.inst.Each(id) {
		rs.set.w.Updatables.Remove(r.task)
	}
	rs.inst.Delete(id)
}

func (r *Resource) wantsRegen() bool {
	switch {
	case r.tmpl.Add > 0:
		return r.Value < r.tmpl.Maximum
	case r.tmpl.Add < 0:
		return r.Value > 0
	}
	return false
}

func (rs *Resources) arm(id, sub ecs.ID, r *Resource) {
	if rs.set.w.Updatables.Active(r.task) {
		return
	}
	r.task = rs.set.w.Updatables.Add(id, func(clk *system.Clock) { rs.tick(id, sub, clk) })
}

func (rs *Resources) disarm(r *Resource) {
	rs.set.w.Updatables.Remove(r.task)
	r.task = world.Handle{}
}

func (rs *Resources) tick(id, sub ecs.ID, clk *system.Clock) {
	r := rs.inst.Find(id, sub)
	if r == nil {
		return
	}
	r.Timer -= clk.Step
	for r.Timer <= 0 {
		cycle := r.tmpl.Cycle
		if cycle > 0 {
			r.Timer += cycle
		} else {
			r.Timer = 0
		}
		rs.Add(id, sub, id, r.tmpl.Add)
		if r = rs.inst.Find(id, sub); r == nil || cycle <= 0 || !rs.set.w.Updatables.Active(r.task) {
			return
		}
	}
}

// Find returns the resource sub of id, or nil.
func (rs *Resources) Find(id, sub ecs.ID) *Resource { return rs.inst.Find(id, sub) }

// Value reads resource sub of id; absent resources read zero.
func (rs *Resources) Value(id, sub ecs.ID) float64 {
	if r := rs.inst.Find(id, sub); r != nil {
		return r.Value
	}
	return 0
}

// Maximum is the cap of resource sub of id.
func (rs *Resources) Maximum(id, sub ecs.ID) float64 {
	if r := rs.inst.Find(id, sub); r != nil {
		return r.tmpl.Maximum
	}
	return 0
}

// FindResource returns the entity that supplies resource sub to id: the
// first carrier up the back-link chain, else the owner.
func (rs *Resources) FindResource(id, sub ecs.ID) ecs.ID {
	for cur := range rs.set.w.Chain(id) {
		if rs.inst.Has(cur, sub) {
			return cur
		}
	}
	if owner := rs.set.w.Owner(id); owner != 0 && rs.inst.Has(owner, sub) {
		return owner
	}
	return 0
}

// Add changes resource sub of id by amount.
func (rs *Resources) Add(id, sub, source ecs.ID, amount float64) {
	if r := rs.inst.Find(id, sub); r != nil {
		rs.Set(id, sub, source, r.Value+amount)
	}
}

// Set stores a new value clamped to [0, maximum]. Change listeners run on
// every change; empty and full listeners run once per crossing.
func (rs *Resources) Set(id, sub, source ecs.ID, value float64) {
	r := rs.inst.Find(id, sub)
	if r == nil {
		return
	}
	t := r.tmpl
	value = geom.Clamp(value, 0, t.Maximum)
	old := r.Value
	if value == old {
		return
	}
	r.Value = value

	// a loss against the regeneration direction restarts the delay
	if (t.Add > 0 && value < old) || (t.Add < 0 && value > old) {
		r.Timer = t.Delay
		rs.arm(id, sub, r)
	}

	emptied := old > 0 && value <= 0
	filled := old < t.Maximum && value >= t.Maximum
	if (emptied && t.Add < 0) || (filled && t.Add > 0) {
		rs.disarm(r)
	}

	change := slices.Clone(r.onChange)
	var edge []ResourceFunc
	switch {
	case emptied:
		edge = slices.Clone(r.onEmpty)
	case filled:
		edge = slices.Clone(r.onFull)
	}

	for _, fn := range change {
		fn(id, sub, source, value)
	}
	turn := rs.set.w.Clock().Turn
	switch {
	case emptied:
		event.Emit(rs.set.w.Bus(), event.ResourceEmptied{Turn: turn, ID: id, Resource: sub})
	case filled:
		event.Emit(rs.set.w.Bus(), event.ResourceFilled{Turn: turn, ID: id, Resource: sub})
	}
	for _, fn := range edge {
		fn(id, sub, source, value)
	}
}

// OnChange registers fn for every change of resource sub of id.
func (rs *Resources) OnChange(id, sub ecs.ID, fn ResourceFunc) {
	if r := rs.inst.Find(id, sub); r != nil {
		r.onChange = append(r.onChange, fn)
	}
}

// OnEmpty registers fn for drops to zero.
func (rs *Resources) OnEmpty(id, sub ecs.ID, fn ResourceFunc) {
	if r := rs.inst.Find(id, sub); r != nil {
		r.onEmpty = append(r.onEmpty, fn)
	}
}

// OnFull registers fn for rises to the maximum.
func (rs *Resources) OnFull(id, sub ecs.ID, fn ResourceFunc) {
	if r := rs.inst.Find(id, sub); r != nil {
		r.onFull = append(r.onFull, fn)
	}
}
