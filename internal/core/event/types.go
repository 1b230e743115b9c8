package event

import (
	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/geom"
)

// EntityDied is emitted once when a damagable entity's health runs out.
type EntityDied struct {
	Turn     uint32
	ID       ecs.ID
	Template ecs.ID
	Killer   ecs.ID // owner of the damage source, 0 when unknown
	Source   ecs.ID
	Position geom.Vec2
}

// ResourceEmptied and ResourceFilled fire on threshold crossings.
type ResourceEmptied struct {
	Turn     uint32
	ID       ecs.ID
	Resource ecs.ID
}

type ResourceFilled struct {
	Turn     uint32
	ID       ecs.ID
	Resource ecs.ID
}

// SoundCue marks a hashed cue on an entity for the audio layer.
type SoundCue struct {
	ID  ecs.ID
	Cue uint32
}

// WeaponFired is emitted per shot.
type WeaponFired struct {
	Turn     uint32
	Weapon   ecs.ID
	Ordnance ecs.ID
}
