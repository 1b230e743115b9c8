package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/event"
	"github.com/warp8/engine/internal/core/geom"
	"github.com/warp8/engine/internal/core/hash"
	"github.com/warp8/engine/internal/core/system"
	"github.com/warp8/engine/internal/data"
	"github.com/warp8/engine/internal/physics"
	"github.com/warp8/engine/internal/world"
)

const fixtures = `<world>
	<template name="debris"/>
	<template name="pellet"/>
	<template name="battery"><resource name="energy" maximum="10"/></template>
	<template name="regen"><resource name="shield" initial="5" maximum="10" cycle="0.5" add="1" delay="1"/></template>
	<template name="hull"><damagable health="10" spawnondeath="debris"/></template>
	<template name="flare"><explosion life="0.25"/></template>
	<template name="smoke"><explosion life="1"/></template>
	<template name="gun">
		<weapon><ordnance name="pellet"/><velocity x="0" y="100"/><shot delay="0.5"/></weapon>
	</template>
	<template name="minigun" type="gun"><weapon><shot delay="0.1"/></weapon></template>
	<template name="tracker" type="gun"><weapon><shot delay="0.1" track="1"/></weapon></template>
	<template name="blaster" type="minigun">
		<resource name="energy" initial="2" maximum="10"/>
		<weapon><ammo type="energy" cost="1"/></weapon>
	</template>
	<template name="turret"/>
	<template name="carrier"><link name="top" secondary="turret"><offset x="0" y="2"/></link></template>
	<template name="scout"><ship maxveloc="10" maxaccel="100" maxomega="90"/></template>
</world>`

func newTestSet(t *testing.T, extra ...string) (*world.World, *Set, *system.Clock) {
	t.Helper()
	clk := system.NewClock(4)
	w := world.New(clk, nil, nil, 7)
	s := RegisterAll(w, physics.NewBridge(w))
	w.LoadElement(data.MustParse(fixtures), ".")
	for _, x := range extra {
		w.LoadElement(data.MustParse(x), ".")
	}
	return w, s, clk
}

func spawn(t *testing.T, w *world.World, name string, pos geom.Vec2) ecs.ID {
	t.Helper()
	tid, ok := w.TemplateID(name)
	require.True(t, ok, name)
	id, err := w.Instantiate(world.Spawn{Template: tid, Position: pos})
	require.NoError(t, err)
	return id
}

func count(w *world.World, name string) int {
	tid, _ := w.TemplateID(name)
	n := 0
	for id := range w.Entities.All() {
		if w.TemplateOf(id) == tid {
			n++
		}
	}
	return n
}

func key(s string) ecs.ID { return ecs.ID(hash.Hash(s)) }

func TestResourceClampsAndFiresFullOnce(t *testing.T) {
	w, s, _ := newTestSet(t)
	id := spawn(t, w, "battery", geom.Vec2{})
	energy := key("energy")

	var fulls, empties, changes int
	s.Resources.OnFull(id, energy, func(ecs.ID, ecs.ID, ecs.ID, float64) { fulls++ })
	s.Resources.OnEmpty(id, energy, func(ecs.ID, ecs.ID, ecs.ID, float64) { empties++ })
	s.Resources.OnChange(id, energy, func(ecs.ID, ecs.ID, ecs.ID, float64) { changes++ })

	s.Resources.Add(id, energy, 0, 15)
	assert.Equal(t, 10.0, s.Resources.Value(id, energy))
	assert.Equal(t, 1, fulls)

	s.Resources.Add(id, energy, 0, 0)
	s.Resources.Add(id, energy, 0, 5)
	assert.Equal(t, 1, fulls)
	assert.Equal(t, 1, changes)

	s.Resources.Add(id, energy, 0, -20)
	assert.Equal(t, 0.0, s.Resources.Value(id, energy))
	assert.Equal(t, 1, empties)
	s.Resources.Set(id, energy, 0, 10)
	assert.Equal(t, 2, fulls)
	assert.Equal(t, 3, changes)

	var filled []event.ResourceFilled
	event.Subscribe(w.Bus(), func(e event.ResourceFilled) { filled = append(filled, e) })
	w.Bus().SwapBuffers()
	w.Bus().DispatchAll()
	require.Len(t, filled, 2)
	assert.Equal(t, energy, filled[0].Resource)
}

func TestResourceRegenDisarmsWhenFull(t *testing.T) {
	w, s, clk := newTestSet(t)
	id := spawn(t, w, "regen", geom.Vec2{})
	shield := key("shield")
	require.Equal(t, 1, w.Updatables.Len())

	for i := 0; i < 10; i++ {
		clk.Advance()
		w.Updatables.Run(clk)
	}
	assert.Equal(t, 10.0, s.Resources.Value(id, shield))
	assert.Equal(t, 0, w.Updatables.Len())

	// a loss re-arms with the delay before regeneration resumes
	s.Resources.Add(id, shield, 0, -3)
	assert.Equal(t, 1, w.Updatables.Len())
	for i := 0; i < 3; i++ {
		clk.Advance()
		w.Updatables.Run(clk)
	}
	assert.Equal(t, 7.0, s.Resources.Value(id, shield))
	clk.Advance()
	w.Updatables.Run(clk)
	assert.Equal(t, 8.0, s.Resources.Value(id, shield))
}

func TestFindResourceWalksChainThenOwner(t *testing.T) {
	w, s, _ := newTestSet(t)
	energy := key("energy")
	battery := spawn(t, w, "battery", geom.Vec2{})

	tid, _ := w.TemplateID("pellet")
	child, err := w.Instantiate(world.Spawn{Template: tid, Backlink: battery})
	require.NoError(t, err)
	owned, err := w.Instantiate(world.Spawn{Template: tid, Owner: battery})
	require.NoError(t, err)
	loose := spawn(t, w, "pellet", geom.Vec2{})

	assert.Equal(t, battery, s.Resources.FindResource(child, energy))
	assert.Equal(t, battery, s.Resources.FindResource(owned, energy))
	assert.Equal(t, ecs.ID(0), s.Resources.FindResource(loose, energy))
}

func TestDamageKillsAndSpawnsDebris(t *testing.T) {
	w, s, _ := newTestSet(t)
	shooter := spawn(t, w, "pellet", geom.Vec2{})
	tid, _ := w.TemplateID("pellet")
	round, err := w.Instantiate(world.Spawn{Template: tid, Owner: shooter})
	require.NoError(t, err)

	hull := spawn(t, w, "hull", geom.V(3, 4))
	hits := 0
	s.Damagables.OnDamage(hull, func(ecs.ID, ecs.ID, float64) { hits++ })

	s.Damagables.Damage(hull, round, 4)
	assert.Equal(t, 6.0, s.Damagables.Health(hull))
	s.Damagables.Damage(hull, round, 6)

	assert.Equal(t, 2, hits)
	assert.False(t, w.Alive(hull))
	assert.Nil(t, w.Entity(hull))
	require.Equal(t, 1, count(w, "debris"))
	debrisTID, _ := w.TemplateID("debris")
	for id, e := range w.Entities.All() {
		if w.TemplateOf(id) == debrisTID {
			assert.Equal(t, geom.V(3, 4), e.Transform.P)
		}
	}

	var died []event.EntityDied
	event.Subscribe(w.Bus(), func(e event.EntityDied) { died = append(died, e) })
	w.Bus().SwapBuffers()
	w.Bus().DispatchAll()
	require.Len(t, died, 1)
	assert.Equal(t, hull, died[0].ID)
	assert.Equal(t, shooter, died[0].Killer)
	assert.Equal(t, round, died[0].Source)

	// nothing left to hit
	s.Damagables.Damage(hull, round, 6)
	assert.Equal(t, 1, count(w, "debris"))
}

type halver struct{}

func (halver) ModifyDamage(_, _ ecs.ID, amount float64) float64 { return amount / 2 }

func TestDamageModifierAndHealCap(t *testing.T) {
	w, s, _ := newTestSet(t)
	hull := spawn(t, w, "hull", geom.Vec2{})
	s.SetDamageModifier(halver{})
	s.Damagables.Damage(hull, 0, 10)
	assert.True(t, w.Alive(hull))
	assert.Equal(t, 5.0, s.Damagables.Health(hull))

	s.SetDamageModifier(nil)
	s.Damagables.Damage(hull, 0, -50)
	assert.Equal(t, 10.0, s.Damagables.Health(hull))
}

func TestExplosionExpiresMidSimulate(t *testing.T) {
	w, _, clk := newTestSet(t)
	flare := spawn(t, w, "flare", geom.Vec2{})
	smoke := spawn(t, w, "smoke", geom.Vec2{})

	clk.Advance()
	w.BeginTick()
	w.Simulatables.Run(clk)
	assert.True(t, w.Deleting(flare))
	assert.True(t, w.Alive(smoke))
	w.EndTick()
	assert.False(t, w.Alive(flare))
	assert.Equal(t, 1, w.Simulatables.Len())

	// outside a tick the delete happens inside the run
	for i := 0; i < 3; i++ {
		clk.Advance()
		w.Simulatables.Run(clk)
	}
	assert.False(t, w.Alive(smoke))
	assert.Equal(t, 0, w.Simulatables.Len())
}

func fireTicks(w *world.World, clk *system.Clock, n int) {
	for i := 0; i < n; i++ {
		clk.Advance()
		w.Updatables.Run(clk)
	}
}

func TestWeaponCadence(t *testing.T) {
	w, s, clk := newTestSet(t)
	gun := spawn(t, w, "gun", geom.Vec2{})
	s.Controllers.Put(gun, Controller{Fire: [Channels]float64{1}})

	fireTicks(w, clk, 3)
	assert.Equal(t, 2, count(w, "pellet"))

	tid, _ := w.TemplateID("pellet")
	for id, e := range w.Entities.All() {
		if w.TemplateOf(id) == tid {
			assert.InDelta(t, 100, e.Velocity.Y, 1e-9)
			assert.InDelta(t, 0, e.Velocity.X, 1e-9)
			assert.Equal(t, s.ownerOf(gun), w.Owner(id))
		}
	}

	// releasing the trigger drops the accumulated time
	s.Controllers.Put(gun, Controller{})
	fireTicks(w, clk, 1)
	assert.Equal(t, 0.0, s.Weapons.Find(gun).Timer)
}

func TestWeaponFlashRecordsDoNotAccumulate(t *testing.T) {
	w, s, clk := newTestSet(t, `<template name="flashgun" type="gun"><weapon><flash name="flare"/></weapon></template>`)
	gun := spawn(t, w, "flashgun", geom.Vec2{})
	s.Controllers.Put(gun, Controller{Fire: [Channels]float64{1}})

	// fires on odd ticks; each flare lives one tick
	for i := 0; i < 7; i++ {
		clk.Advance()
		w.Simulatables.Run(clk)
		w.Updatables.Run(clk)
		assert.LessOrEqual(t, s.Links.children.Count(gun), 1, "tick %d", i+1)
		assert.LessOrEqual(t, count(w, "flare"), 1, "tick %d", i+1)
	}
	require.Equal(t, 4, count(w, "pellet"))
	require.Equal(t, 1, count(w, "flare"))

	// a weapon without link templates still takes its flashes down
	w.Delete(gun)
	assert.Zero(t, count(w, "flare"))
	assert.Zero(t, s.Links.children.Count(gun))
}

func TestWeaponFiresSeveralShotsPerTick(t *testing.T) {
	w, s, clk := newTestSet(t)
	gun := spawn(t, w, "minigun", geom.Vec2{})
	s.Controllers.Put(gun, Controller{Fire: [Channels]float64{1}})
	fireTicks(w, clk, 1)
	assert.Equal(t, 3, count(w, "pellet"))
}

func TestWeaponStopsWithoutAmmo(t *testing.T) {
	w, s, clk := newTestSet(t)
	gun := spawn(t, w, "blaster", geom.Vec2{})
	require.Equal(t, gun, s.Weapons.Find(gun).Ammo)
	s.Controllers.Put(gun, Controller{Fire: [Channels]float64{1}})
	fireTicks(w, clk, 4)
	assert.Equal(t, 2, count(w, "pellet"))
	assert.Equal(t, 0.0, s.Resources.Value(gun, key("energy")))
}

func TestWeaponTrackLimit(t *testing.T) {
	w, s, clk := newTestSet(t)
	gun := spawn(t, w, "tracker", geom.Vec2{})
	s.Controllers.Put(gun, Controller{Fire: [Channels]float64{1}})
	fireTicks(w, clk, 2)
	require.Equal(t, 1, count(w, "pellet"))
	assert.Equal(t, 1, s.Weapons.Find(gun).Tracked)

	tid, _ := w.TemplateID("pellet")
	for id := range w.Entities.All() {
		if w.TemplateOf(id) == tid {
			w.Delete(id)
		}
	}
	assert.Equal(t, 0, s.Weapons.Find(gun).Tracked)
	fireTicks(w, clk, 1)
	assert.Equal(t, 1, count(w, "pellet"))
}

func TestWeaponFollowsControllerUpTheChain(t *testing.T) {
	w, s, clk := newTestSet(t)
	pilot := spawn(t, w, "pellet", geom.Vec2{})
	tid, _ := w.TemplateID("gun")
	gun, err := w.Instantiate(world.Spawn{Template: tid, Backlink: pilot})
	require.NoError(t, err)
	s.Controllers.Put(pilot, Controller{Fire: [Channels]float64{1}})

	assert.Equal(t, pilot, s.FindController(gun))
	fireTicks(w, clk, 1)
	assert.Equal(t, 2, count(w, "pellet")) // the pilot and one shot
}

func TestLinkSpawnsAndFollows(t *testing.T) {
	w, s, clk := newTestSet(t)
	carrier := spawn(t, w, "carrier", geom.V(10, 0))
	turret := s.Links.Child(carrier, key("top"))
	require.NotZero(t, turret)
	assert.Equal(t, carrier, w.Backlink(turret))
	assert.Equal(t, carrier, w.Owner(turret))
	assert.Equal(t, geom.V(10, 2), w.Entity(turret).Transform.P)

	w.Entity(carrier).Transform.P = geom.V(20, 0)
	clk.Advance()
	w.Updatables.Run(clk)
	assert.Equal(t, geom.V(20, 2), w.Entity(turret).Transform.P)

	w.Delete(carrier)
	assert.False(t, w.Alive(turret))
	assert.Equal(t, 0, w.Updatables.Len())
}

func TestShipAppliesIntent(t *testing.T) {
	w, s, clk := newTestSet(t)
	ship := spawn(t, w, "scout", geom.Vec2{})
	s.Controllers.Put(ship, Controller{Move: geom.V(0, 1), Turn: -0.5})
	clk.Advance()
	w.Updatables.Run(clk)

	e := w.Entity(ship)
	assert.InDelta(t, 10, e.Velocity.Y, 1e-9)
	assert.InDelta(t, -0.25*3.141592653589793, e.Omega, 1e-9)
}

func TestControllerClamp(t *testing.T) {
	c := Controller{Move: geom.V(3, 4), Turn: -7}
	c.Clamp()
	assert.InDelta(t, 1, c.Move.Length(), 1e-12)
	assert.Equal(t, -1.0, c.Turn)
	assert.False(t, c.Firing(Channels))
}
