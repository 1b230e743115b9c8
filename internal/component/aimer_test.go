package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/geom"
)

func TestLeadTimeStationaryTarget(t *testing.T) {
	p := geom.V(100, 0)
	assert.InDelta(t, 2, LeadTime(p, geom.Vec2{}, 50), 1e-12)
	assert.Equal(t, p, Intercept(p, geom.Vec2{}, 50))
}

func TestLeadTimeDegenerateCases(t *testing.T) {
	// receding at exactly the projectile speed: linear branch, past root
	tm := LeadTime(geom.V(100, 0), geom.V(50, 0), 50)
	assert.Equal(t, 0.0, tm)

	// closing at the projectile speed meets halfway
	assert.InDelta(t, 1, LeadTime(geom.V(100, 0), geom.V(-50, 0), 50), 1e-12)

	// faster than the projectile and running away: no solution
	assert.Equal(t, 0.0, LeadTime(geom.V(100, 0), geom.V(80, 0), 50))

	// crossing target
	p, v := geom.V(0, 100), geom.V(30, 0)
	tm = LeadTime(p, v, 50)
	assert.InDelta(t, 50*tm, p.Add(v.Scale(tm)).Length(), 1e-9)
}

func TestSelectTargetHysteresis(t *testing.T) {
	const locked, near, nearer = ecs.ID(1), ecs.ID(2), ecs.ID(3)

	keep := []candidate{{locked, 100}, {near, 60}}
	assert.Equal(t, locked, selectTarget(keep, locked, 0.5))

	lose := []candidate{{locked, 100}, {nearer, 40}}
	assert.Equal(t, nearer, selectTarget(lose, locked, 0.5))

	assert.Equal(t, near, selectTarget(keep, 0, 0.5))
	assert.Equal(t, ecs.ID(0), selectTarget(nil, locked, 0.5))
}

const arena = `<world>
	<template name="hunter">
		<team name="blue"/>
		<collidable><circle radius="1"/></collidable>
		<aimer range="100"><fire channel="1" range="50" angle="10"/></aimer>
	</template>
	<template name="prey">
		<team name="red"/>
		<collidable><circle radius="1"/></collidable>
		<damagable health="5"/>
	</template>
	<template name="pal" type="prey"><team name="blue"/></template>
	<template name="rock"><collidable><circle radius="1"/></collidable></template>
</world>`

func TestAimerAcquiresEnemyAndFires(t *testing.T) {
	w, s, clk := newTestSet(t, arena)
	hunter := spawn(t, w, "hunter", geom.Vec2{})
	prey := spawn(t, w, "prey", geom.V(0, 20))
	spawn(t, w, "pal", geom.V(0, 5))
	spawn(t, w, "rock", geom.V(0, 10))

	clk.Advance()
	w.Controllers.Run(clk)

	a := s.Aimers.Find(hunter)
	require.NotNil(t, a)
	assert.Equal(t, prey, a.Target)

	c := s.Controllers.Get(hunter)
	assert.InDelta(t, 1, c.Aim.Y, 1e-9)
	assert.InDelta(t, 0, c.Turn, 1e-9)
	assert.True(t, c.Firing(0))
	assert.False(t, c.Firing(1))
}

func TestAimerIgnoresOutOfRangeAndIdles(t *testing.T) {
	w, s, clk := newTestSet(t, arena)
	hunter := spawn(t, w, "hunter", geom.Vec2{})
	spawn(t, w, "prey", geom.V(300, 0))

	clk.Advance()
	w.Controllers.Run(clk)
	assert.Equal(t, ecs.ID(0), s.Aimers.Find(hunter).Target)
	assert.Equal(t, Controller{}, s.Controllers.Get(hunter))
}

func TestAimerDropsDeadTarget(t *testing.T) {
	w, s, clk := newTestSet(t, arena)
	hunter := spawn(t, w, "hunter", geom.Vec2{})
	prey := spawn(t, w, "prey", geom.V(20, 0))

	clk.Advance()
	w.Controllers.Run(clk)
	require.Equal(t, prey, s.Aimers.Find(hunter).Target)
	c := s.Controllers.Get(hunter)
	assert.InDelta(t, 1, c.Aim.X, 1e-9)
	assert.False(t, c.Firing(0)) // facing +Y, target off to the side

	s.Damagables.Kill(prey, hunter)
	clk.Advance()
	w.Controllers.Run(clk)
	assert.Equal(t, ecs.ID(0), s.Aimers.Find(hunter).Target)
}
