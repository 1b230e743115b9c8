package component

import (
	"math"

	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/geom"
)

const leadEpsilon = 1e-9

// LeadTime solves |p + t·v| = s·t for the earliest t >= 0: p is the target
// relative to the shooter, v its relative velocity and s the projectile
// speed. Unreachable targets and past solutions give 0.
func LeadTime(p, v geom.Vec2, s float64) float64 {
	a := v.Dot(v) - s*s
	b := 2 * p.Dot(v)
	c := p.Dot(p)

	if math.Abs(a) < leadEpsilon {
		if math.Abs(b) < leadEpsilon {
			return 0
		}
		return math.Max(-c/b, 0)
	}

	disc := b*b - 4*a*c
	if disc < 0 {
		return 0
	}
	root := math.Sqrt(disc)
	t0 := (-b - root) / (2 * a)
	t1 := (-b + root) / (2 * a)
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	switch {
	case t0 >= 0:
		return t0
	case t1 >= 0:
		return t1
	}
	return 0
}

// Intercept is the relative point a projectile of speed s must be sent to.
func Intercept(p, v geom.Vec2, s float64) geom.Vec2 {
	if s <= 0 {
		return p
	}
	return p.Add(v.Scale(LeadTime(p, v, s)))
}

type candidate struct {
	id    ecs.ID
	score float64
}

// selectTarget picks the lowest score. The current target's score is
// scaled by focus so that a marginally closer newcomer does not steal the
// lock.
func selectTarget(cands []candidate, current ecs.ID, focus float64) ecs.ID {
	best := ecs.ID(0)
	bestScore := math.MaxFloat64
	for _, c := range cands {
		score := c.score
		if c.id == current {
			score *= focus
		}
		if score < bestScore {
			best, bestScore = c.id, score
		}
	}
	return best
}
