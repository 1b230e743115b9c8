package physics

import (
	"github.com/ByteArena/box2d"
	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/geom"
)

// Hit is the closest fixture found along a segment.
type Hit struct {
	ID       ecs.ID
	Point    geom.Vec2
	Normal   geom.Vec2
	Fraction float64
}

// TestSegment casts from start to end and returns the closest fixture that
// is not a sensor, passes filter, and does not belong to exclude.
func (b *Bridge) TestSegment(start, end geom.Vec2, filter Filter, exclude ecs.ID) (Hit, bool) {
	if start == end {
		return Hit{}, false
	}
	var hit Hit
	found := false
	b.b2.RayCast(func(fixture *box2d.B2Fixture, point, normal box2d.B2Vec2, fraction float64) float64 {
		if fixture.IsSensor() {
			return -1
		}
		if !CheckFilter(filter, filterOf(fixture.GetFilterData())) {
			return -1
		}
		id := fixtureID(fixture)
		if id == exclude && exclude != 0 {
			return -1
		}
		hit = Hit{ID: id, Point: fromVec(point), Normal: fromVec(normal), Fraction: fraction}
		found = true
		return fraction
	}, vec(start), vec(end))
	return hit, found
}

// Shape is one fixture reported by Query.
type Shape struct {
	ID     ecs.ID
	Sensor bool
	Filter Filter
}

// Query collects fixtures whose bounding boxes overlap [lower, upper]. At
// most max results are returned; the rest are dropped silently. max <= 0
// uses the bridge's QueryCap.
func (b *Bridge) Query(lower, upper geom.Vec2, max int) []Shape {
	if max <= 0 {
		max = b.QueryCap
	}
	out := make([]Shape, 0, 16)
	aabb := box2d.B2AABB{LowerBound: vec(lower), UpperBound: vec(upper)}
	b.b2.QueryAABB(func(fixture *box2d.B2Fixture) bool {
		out = append(out, Shape{
			ID:     fixtureID(fixture),
			Sensor: fixture.IsSensor(),
			Filter: filterOf(fixture.GetFilterData()),
		})
		return len(out) < max
	}, aabb)
	return out
}

// QueryRadius is Query over the square around center.
func (b *Bridge) QueryRadius(center geom.Vec2, radius float64, max int) []Shape {
	r := geom.V(radius, radius)
	return b.Query(center.Sub(r), center.Add(r), max)
}
