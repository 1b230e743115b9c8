package world

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/geom"
	"github.com/warp8/engine/internal/core/system"
	"github.com/warp8/engine/internal/data"
)

// recorder is a minimal kind that records its calls.
type recorder struct {
	name      string
	log       *[]string
	templates *ecs.Store[float64]
	fail      bool
}

func newRecorder(w *World, name string, log *[]string) *recorder {
	return &recorder{
		name:      name,
		log:       log,
		templates: ecs.NewTemplateStore[float64](w.Registry(), name+"template"),
	}
}

func (p *recorder) Name() string { return p.name }

func (p *recorder) Configure(el data.Element, id ecs.ID) error {
	v := p.templates.Get(id)
	r := data.Read(el)
	r.Float("value", &v)
	if err := r.Err(); err != nil {
		return err
	}
	p.templates.Put(id, v)
	return nil
}

func (p *recorder) Inherit(dst, src ecs.ID)     { p.templates.Put(dst, p.templates.Get(src)) }
func (p *recorder) HasTemplate(id ecs.ID) bool  { return p.templates.Has(id) }
func (p *recorder) Deactivate(id ecs.ID)        { *p.log = append(*p.log, "-"+p.name) }
func (p *recorder) Activate(id ecs.ID) error {
	if p.fail {
		return errors.New("boom")
	}
	*p.log = append(*p.log, "+"+p.name)
	return nil
}

func newTestWorld(t *testing.T) (*World, *[]string, *recorder, *recorder) {
	t.Helper()
	var log []string
	w := New(system.NewClock(60), nil, nil, 1)
	a := newRecorder(w, "collidable", &log)
	b := newRecorder(w, "aimer", &log)
	w.RegisterKind(a)
	w.RegisterKind(b)
	return w, &log, a, b
}

func load(t *testing.T, w *World, xml string) {
	t.Helper()
	w.LoadElement(data.MustParse(xml), ".")
}

func TestInstantiateAndDeleteOrder(t *testing.T) {
	w, log, _, _ := newTestWorld(t)
	load(t, w, `<template name="ship"><collidable value="1"/><aimer/></template>`)
	tid, ok := w.TemplateID("ship")
	require.True(t, ok)

	id, err := w.Instantiate(Spawn{Template: tid, Angle: 1, Position: geom.V(3, 4)})
	require.NoError(t, err)
	assert.True(t, w.Alive(id))
	assert.Equal(t, tid, w.TemplateOf(id))
	assert.Equal(t, geom.V(3, 4), w.Entity(id).Transform.P)
	assert.Equal(t, []string{"+collidable", "+aimer"}, *log)

	w.Delete(id)
	assert.Equal(t, []string{"+collidable", "+aimer", "-aimer", "-collidable"}, *log)
	assert.Nil(t, w.Entity(id))
	assert.Equal(t, Freed, w.State(id))

	// second delete is a no-op
	w.Delete(id)
	assert.Len(t, *log, 4)
}

func TestInstantiateUnknownTemplate(t *testing.T) {
	w, _, _, _ := newTestWorld(t)
	_, err := w.Instantiate(Spawn{Template: 1234})
	assert.ErrorIs(t, err, ErrUnknownTemplate)
	assert.Equal(t, 0, w.Len())
}

func TestActivationFailureUnwinds(t *testing.T) {
	w, log, _, aimer := newTestWorld(t)
	load(t, w, `<template name="ship"><collidable/><aimer/></template>`)
	aimer.fail = true
	tid, _ := w.TemplateID("ship")

	_, err := w.Instantiate(Spawn{Template: tid})
	require.Error(t, err)
	assert.Equal(t, []string{"+collidable", "-collidable"}, *log)
	assert.Equal(t, 0, w.Len())
}

func TestDeleteDeferredInsideTick(t *testing.T) {
	w, log, _, _ := newTestWorld(t)
	load(t, w, `<template name="rock"><collidable/></template>`)
	tid, _ := w.TemplateID("rock")
	id, err := w.Instantiate(Spawn{Template: tid})
	require.NoError(t, err)

	w.BeginTick()
	w.Delete(id)
	w.Delete(id)
	assert.True(t, w.Alive(id))
	assert.True(t, w.Deleting(id))
	assert.Equal(t, 1, w.EndTick())
	assert.False(t, w.Alive(id))
	assert.Equal(t, []string{"+collidable", "-collidable"}, *log)
}

func TestBacklinkCycleRejected(t *testing.T) {
	w, _, _, _ := newTestWorld(t)
	load(t, w, `<template name="part"><collidable/></template>`)
	tid, _ := w.TemplateID("part")
	a, _ := w.Instantiate(Spawn{Template: tid})
	b, _ := w.Instantiate(Spawn{Template: tid, Backlink: a})
	c, _ := w.Instantiate(Spawn{Template: tid, Backlink: b})

	assert.Equal(t, a, w.Root(c))
	var chain []ecs.ID
	for id := range w.Chain(c) {
		chain = append(chain, id)
	}
	assert.Equal(t, []ecs.ID{c, b, a}, chain)

	err := w.SetBacklink(a, c)
	assert.ErrorIs(t, err, ErrBacklinkCycle)
	assert.Zero(t, w.Backlink(a))
}

func TestTemplateInheritanceAndTeam(t *testing.T) {
	w, _, col, _ := newTestWorld(t)
	w.RegisterKind(teamKind{w})
	load(t, w, `<world>
		<template name="base"><collidable value="5"/><team name="red"/></template>
		<template name="derived" type="base"><aimer/></template>
		<template name="orphan" type="nothing"><aimer/></template>
		<template name="odd"><unknownthing/><renderable/><collidable value="oops"/></template>
	</world>`)

	derived, ok := w.TemplateID("derived")
	require.True(t, ok)
	assert.Equal(t, 5.0, col.templates.Get(derived))
	base, _ := w.TemplateID("base")
	assert.Equal(t, w.TeamTemplates.Get(base), w.TeamTemplates.Get(derived))

	odd, ok := w.TemplateID("odd")
	require.True(t, ok)
	assert.False(t, col.HasTemplate(odd), "malformed component is skipped")

	id, err := w.Instantiate(Spawn{Template: derived})
	require.NoError(t, err)
	assert.NotZero(t, w.Team(id))

	shot, err := w.Instantiate(Spawn{Template: odd, Owner: id})
	require.NoError(t, err)
	assert.Equal(t, w.Team(id), w.Team(shot), "team follows the owner")
}

type teamKind struct{ w *World }

func (teamKind) Name() string { return "team" }
func (p teamKind) Configure(el data.Element, id ecs.ID) error {
	p.w.TeamTemplates.Put(id, data.Key(el, "name"))
	return nil
}
func (teamKind) Inherit(dst, src ecs.ID)    {}
func (teamKind) HasTemplate(ecs.ID) bool    { return false }
func (teamKind) Activate(ecs.ID) error      { return nil }
func (teamKind) Deactivate(ecs.ID)          {}

func TestLoadFileWithImportAndEntity(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ships.xml"),
		[]byte(`<template name="drone"><collidable/></template>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "world.xml"), []byte(`
<world xmin="-100" ymin="-50" xmax="100" ymax="50" wall="true">
	<import name="ships.xml"/>
	<entity name="d1" template="drone">
		<position x="10" y="20" angle="90"/>
		<velocity x="1" y="0"/>
	</entity>
</world>`), 0o644))

	w, _, _, _ := newTestWorld(t)
	require.NoError(t, w.LoadFile(filepath.Join(dir, "world.xml")))
	assert.Equal(t, Bounds{Min: geom.V(-100, -50), Max: geom.V(100, 50), Wall: true}, w.Bounds())
	require.Equal(t, 1, w.Len())
	for _, e := range w.Entities.All() {
		assert.Equal(t, geom.V(10, 20), e.Transform.P)
		assert.InDelta(t, 1.5707963, e.Transform.Angle, 1e-6)
		assert.Equal(t, geom.V(1, 0), e.Velocity)
	}

	assert.Error(t, w.LoadFile(filepath.Join(dir, "missing.xml")))
}

func TestTaskListSelfRemovalMidRun(t *testing.T) {
	l := NewTaskList("simulatable")
	calls := map[int]int{}
	handles := make([]Handle, 5)
	for i := range handles {
		i := i
		handles[i] = l.Add(0, func(*system.Clock) {
			calls[i]++
			if i == 2 {
				l.Remove(handles[2])
				l.Add(0, func(*system.Clock) { calls[99]++ })
			}
		})
	}

	clk := system.NewClock(60)
	l.Run(clk)
	assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 1, 3: 1, 4: 1}, calls)
	assert.False(t, l.Active(handles[2]))
	assert.Equal(t, 5, l.Len())

	l.Run(clk)
	assert.Equal(t, 1, calls[2])
	assert.Equal(t, 1, calls[99])
	assert.Equal(t, 2, calls[4])

	// the retired slot is reused with a new generation
	h := l.Add(0, func(*system.Clock) {})
	assert.Equal(t, handles[2].slot, h.slot)
	assert.False(t, l.Remove(handles[2]))
	assert.True(t, l.Active(h))
}

func TestChecksumTracksMotion(t *testing.T) {
	build := func() *World {
		w, _, _, _ := newTestWorld(t)
		load(t, w, `<template name="rock"><collidable/></template>`)
		tid, _ := w.TemplateID("rock")
		for i := 0; i < 3; i++ {
			_, err := w.Instantiate(Spawn{Template: tid, Position: geom.V(float64(i), 0)})
			require.NoError(t, err)
		}
		return w
	}
	a, b := build(), build()
	assert.Equal(t, a.Checksum(), b.Checksum())

	for _, e := range b.Entities.All() {
		e.Transform.P.X += 0.5
		break
	}
	assert.NotEqual(t, a.Checksum(), b.Checksum())
}
