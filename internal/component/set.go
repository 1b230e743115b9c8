// Package component implements the gameplay facets an entity can carry:
// resources, damagable health, weapons, the aimer controller, bullets,
// explosions, links, ship actuators and teams.
package component

import (
	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/hash"
	"github.com/warp8/engine/internal/physics"
	"github.com/warp8/engine/internal/world"
	"go.uber.org/zap"
)

// DamageModifier adjusts damage before it is applied. The scripting engine
// implements it.
type DamageModifier interface {
	ModifyDamage(target, source ecs.ID, amount float64) float64
}

var (
	cueFire  = hash.Hash("fire")
	cueDeath = hash.Hash("death")
)

// Set holds every component kind of one world.
type Set struct {
	w    *world.World
	phys *physics.Bridge
	log  *zap.Logger

	Controllers *ecs.Store[Controller]

	Resources  *Resources
	Damagables *Damagables
	Ships      *Ships
	Links      *Links
	Weapons    *Weapons
	Aimers     *Aimers
	Bullets    *Bullets
	Explosions *Explosions
}

// RegisterAll creates every component kind and registers it with the world
// in activation order: physics first, then the kinds that others look up
// at activation time, controllers last.
func RegisterAll(w *world.World, phys *physics.Bridge) *Set {
	s := &Set{
		w:           w,
		phys:        phys,
		log:         w.Log().Named("component"),
		Controllers: ecs.NewStore[Controller](w.Registry(), "controller"),
	}
	s.Resources = newResources(s)
	s.Damagables = newDamagables(s)
	s.Ships = newShips(s)
	s.Links = newLinks(s)
	s.Weapons = newWeapons(s)
	s.Aimers = newAimers(s)
	s.Bullets = newBullets(s)
	s.Explosions = newExplosions(s)

	w.RegisterKind(phys.Kind())
	w.RegisterKind(teamKind{w: w})
	w.RegisterKind(s.Resources)
	w.RegisterKind(s.Damagables)
	w.RegisterKind(s.Ships)
	w.RegisterKind(s.Links)
	w.RegisterKind(s.Weapons)
	w.RegisterKind(s.Aimers)
	w.RegisterKind(s.Bullets)
	w.RegisterKind(s.Explosions)

	w.OnDeactivate(s.Weapons.untrack)
	return s
}

// World returns the world the set is bound to.
func (s *Set) World() *world.World { return s.w }

// Physics returns the collidable bridge.
func (s *Set) Physics() *physics.Bridge { return s.phys }

// SetDamageModifier installs m for every later Damage call. nil removes it.
func (s *Set) SetDamageModifier(m DamageModifier) { s.Damagables.modifier = m }

// ownerOf is the entity credited with what id does: its owner, or itself.
func (s *Set) ownerOf(id ecs.ID) ecs.ID {
	if o := s.w.Owner(id); o != 0 {
		return o
	}
	return id
}

func (s *Set) uniform() float64 { return s.w.Rand().Float64()*2 - 1 }
