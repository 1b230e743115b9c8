package component

import (
	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/geom"
)

// Channels is the number of fire channels a controller drives.
const Channels = 4

// Controller is the intent record a controller writes and actuators read.
// Move and Aim are world-space; Turn is a signed rate fraction.
type Controller struct {
	Move geom.Vec2
	Turn float64
	Aim  geom.Vec2
	Fire [Channels]float64
}

// Firing reports whether channel ch is triggered.
func (c *Controller) Firing(ch int) bool {
	return ch >= 0 && ch < Channels && c.Fire[ch] > 0
}

// Clamp keeps the intent within its contract: |Move| <= 1, Turn in [-1, 1].
func (c *Controller) Clamp() {
	c.Move = c.Move.ClampLength(1)
	c.Turn = geom.Clamp(c.Turn, -1, 1)
}

// FindController walks the back-link chain from id to the first entity
// carrying a controller.
func (s *Set) FindController(id ecs.ID) ecs.ID {
	for cur := range s.w.Chain(id) {
		if s.Controllers.Has(cur) {
			return cur
		}
	}
	return 0
}
