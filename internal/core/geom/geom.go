// Package geom holds the 2D vector and rigid transform types shared by the
// simulation packages. Angles are radians; the local forward axis is +Y.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type Vec2 struct {
	X, Y float64
}

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (a Vec2) Add(b Vec2) Vec2        { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2        { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(s float64) Vec2   { return Vec2{a.X * s, a.Y * s} }
func (a Vec2) Dot(b Vec2) float64     { return a.vec().Dot(b.vec()) }
func (a Vec2) Cross(b Vec2) float64   { return a.X*b.Y - a.Y*b.X }
func (a Vec2) LengthSq() float64      { return a.X*a.X + a.Y*a.Y }
func (a Vec2) Length() float64        { return a.vec().Len() }
func (a Vec2) Neg() Vec2              { return Vec2{-a.X, -a.Y} }
func (a Vec2) Perp() Vec2             { return Vec2{-a.Y, a.X} }
func (a Vec2) IsZero() bool           { return a.X == 0 && a.Y == 0 }

func (a Vec2) vec() mgl64.Vec2 { return mgl64.Vec2{a.X, a.Y} }

func fromVec(v mgl64.Vec2) Vec2 { return Vec2{v[0], v[1]} }

func (a Vec2) Lerp(b Vec2, t float64) Vec2 {
	return Vec2{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

// Normalize returns the unit vector along a, or zero for a zero vector.
func (a Vec2) Normalize() Vec2 {
	if a.IsZero() {
		return Vec2{}
	}
	return fromVec(a.vec().Normalize())
}

// ClampLength limits the magnitude of a to max.
func (a Vec2) ClampLength(max float64) Vec2 {
	l2 := a.LengthSq()
	if l2 > max*max {
		return a.Scale(max / math.Sqrt(l2))
	}
	return a
}

// Rotate turns a counter-clockwise by angle.
func (a Vec2) Rotate(angle float64) Vec2 {
	return fromVec(mgl64.Rotate2D(angle).Mul2x1(a.vec()))
}

// Transform is a rigid 2D pose.
type Transform struct {
	Angle float64
	P     Vec2
}

func NewTransform(angle float64, p Vec2) Transform {
	return Transform{Angle: angle, P: p}
}

// Right is the local +X axis in world space.
func (t Transform) Right() Vec2 {
	s, c := math.Sincos(t.Angle)
	return Vec2{c, s}
}

// Forward is the local +Y axis in world space.
func (t Transform) Forward() Vec2 {
	s, c := math.Sincos(t.Angle)
	return Vec2{-s, c}
}

// Rotate maps a local direction to world space.
func (t Transform) Rotate(v Vec2) Vec2 { return v.Rotate(t.Angle) }

// Unrotate maps a world direction to local space.
func (t Transform) Unrotate(v Vec2) Vec2 { return v.Rotate(-t.Angle) }

// Apply maps a local point to world space.
func (t Transform) Apply(v Vec2) Vec2 { return t.P.Add(t.Rotate(v)) }

// Untransform maps a world point to local space.
func (t Transform) Untransform(v Vec2) Vec2 { return t.Unrotate(v.Sub(t.P)) }

// Mul composes t with a local transform: the result is local expressed in t's parent space.
func (t Transform) Mul(local Transform) Transform {
	return Transform{Angle: t.Angle + local.Angle, P: t.Apply(local.P)}
}

// Lerp interpolates position linearly and angle along the shortest arc.
func (t Transform) Lerp(to Transform, f float64) Transform {
	return Transform{
		Angle: t.Angle + WrapAngle(to.Angle-t.Angle)*f,
		P:     t.P.Lerp(to.P, f),
	}
}

// WrapAngle maps a to (-pi, pi].
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// HeadingOf returns the transform angle whose forward axis points along dir.
func HeadingOf(dir Vec2) float64 {
	return -math.Atan2(dir.X, dir.Y)
}

func Deg2Rad(d float64) float64 { return mgl64.DegToRad(d) }

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
