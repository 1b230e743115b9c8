package physics

import (
	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/data"
)

// Kind adapts the bridge to the world's capability table.
type Kind struct {
	b *Bridge
}

func (b *Bridge) Kind() Kind { return Kind{b: b} }

func (Kind) Name() string { return "collidable" }

func (k Kind) Configure(el data.Element, template ecs.ID) error {
	base := k.b.templates.Get(template).Clone()
	t := base
	t.Fixtures, t.Joints = nil, nil
	if err := ConfigureTemplate(el, &t, k.b.lookupFilter); err != nil {
		return err
	}
	// an element without shapes or joints keeps the inherited ones
	if len(t.Fixtures) == 0 {
		t.Fixtures = base.Fixtures
		t.measure()
	}
	if len(t.Joints) == 0 {
		t.Joints = base.Joints
	}
	k.b.templates.Put(template, t)
	return nil
}

func (k Kind) Inherit(dst, src ecs.ID) {
	k.b.templates.Put(dst, k.b.templates.Get(src).Clone())
}

func (k Kind) HasTemplate(template ecs.ID) bool { return k.b.templates.Has(template) }

func (k Kind) Activate(id ecs.ID) error { return k.b.AddToWorld(id) }

func (k Kind) Deactivate(id ecs.ID) { k.b.RemoveFromWorld(id) }
