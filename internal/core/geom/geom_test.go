package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

func TestForwardIsLocalY(t *testing.T) {
	tr := NewTransform(0, V(0, 0))
	assert.InDelta(t, 0, tr.Forward().X, eps)
	assert.InDelta(t, 1, tr.Forward().Y, eps)

	tr.Angle = math.Pi / 2
	f := tr.Forward()
	assert.InDelta(t, -1, f.X, eps)
	assert.InDelta(t, 0, f.Y, eps)
	assert.InDelta(t, tr.Angle, HeadingOf(f), eps)
}

func TestApplyUntransformRoundTrip(t *testing.T) {
	tr := NewTransform(0.7, V(3, -4))
	p := V(1.5, 2)
	back := tr.Untransform(tr.Apply(p))
	assert.InDelta(t, p.X, back.X, eps)
	assert.InDelta(t, p.Y, back.Y, eps)
}

func TestLerpShortestArc(t *testing.T) {
	a := NewTransform(math.Pi-0.1, V(0, 0))
	b := NewTransform(-math.Pi+0.1, V(10, 0))
	m := a.Lerp(b, 0.5)
	assert.InDelta(t, math.Pi, math.Abs(WrapAngle(m.Angle)), 1e-6)
	assert.InDelta(t, 5, m.P.X, eps)
}

func TestClampLength(t *testing.T) {
	v := V(3, 4).ClampLength(1)
	assert.InDelta(t, 1, v.Length(), eps)
	assert.Equal(t, V(0.3, 0.4), V(0.3, 0.4).ClampLength(1))
}

func TestWrapAngle(t *testing.T) {
	assert.InDelta(t, 0, WrapAngle(2*math.Pi), eps)
	assert.InDelta(t, -math.Pi/2, WrapAngle(3*math.Pi/2), eps)
	assert.InDelta(t, math.Pi, WrapAngle(math.Pi), eps)
}

func TestRotateCounterClockwise(t *testing.T) {
	v := V(2, 0).Rotate(math.Pi / 2)
	assert.InDelta(t, 0, v.X, eps)
	assert.InDelta(t, 2, v.Y, eps)

	w := V(1, 1).Rotate(-math.Pi / 4)
	assert.InDelta(t, math.Sqrt2, w.X, eps)
	assert.InDelta(t, 0, w.Y, eps)
	assert.InDelta(t, math.Pi/4, Deg2Rad(45), eps)
	assert.Equal(t, Vec2{}, Vec2{}.Normalize())
	assert.InDelta(t, 1, V(3, 4).Normalize().Length(), eps)
}
