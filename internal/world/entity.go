package world

import (
	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/geom"
)

// LifeState tracks an id through Unborn → Activating → Active →
// Deactivating → Freed. Unborn and Freed ids have no entry at all.
type LifeState uint8

const (
	Unborn LifeState = iota
	Activating
	Active
	Deactivating
	Freed
)

func (s LifeState) String() string {
	switch s {
	case Activating:
		return "activating"
	case Active:
		return "active"
	case Deactivating:
		return "deactivating"
	case Freed:
		return "freed"
	}
	return "unborn"
}

// Entity is the pose record every instance carries.
type Entity struct {
	Transform geom.Transform
	Prev      geom.Transform // pose at the start of the current tick
	Velocity  geom.Vec2
	Omega     float64
	Turn      uint32  // turn the entity was created on
	Fraction  float64 // sub-tick offset of the creation time
}

// Step saves the current pose as the interpolation origin.
func (e *Entity) Step() { e.Prev = e.Transform }

// Interpolated returns the pose at fraction f of the way from Prev to Transform.
func (e *Entity) Interpolated(f float64) geom.Transform {
	return e.Prev.Lerp(e.Transform, geom.Clamp(f, 0, 1))
}

// Spawn describes one Instantiate call.
type Spawn struct {
	Template ecs.ID
	Owner    ecs.ID
	Backlink ecs.ID // parent in the attachment forest
	Angle    float64
	Position geom.Vec2
	Velocity geom.Vec2
	Omega    float64
	Fraction float64
}
