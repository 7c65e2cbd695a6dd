package plane

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestNewPlane(t *testing.T) {
	_, err := New(0, 0, 0, 1)
	test.That(t, err, test.ShouldNotBeNil)

	p, err := New(1, 1, -1, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Equation(), test.ShouldResemble, [4]float64{1, 1, -1, 0})
	test.That(t, p.Normal(), test.ShouldResemble, r3.Vector{X: 1, Y: 1, Z: -1})
	test.That(t, p.Offset(), test.ShouldEqual, 0.0)
	test.That(t, p.Distance(r3.Vector{X: -1, Y: -1, Z: 1}), test.ShouldAlmostEqual, math.Sqrt(3))
}

func TestFromPoints(t *testing.T) {
	// diamond of slope 1 in x and y: x + y - z = 0
	p, err := FromPoints(
		r3.Vector{X: 0, Y: 0, Z: 0},
		r3.Vector{X: 0, Y: 2, Z: 2},
		r3.Vector{X: 2, Y: 0, Z: 2},
	)
	test.That(t, err, test.ShouldBeNil)
	n := p.Normalize()
	s := 1 / math.Sqrt(3)
	eq := n.Equation()
	test.That(t, eq[0], test.ShouldAlmostEqual, s)
	test.That(t, eq[1], test.ShouldAlmostEqual, s)
	test.That(t, eq[2], test.ShouldAlmostEqual, -s)
	test.That(t, eq[3], test.ShouldAlmostEqual, 0)

	// collinear points have no plane
	_, err = FromPoints(
		r3.Vector{X: 0, Y: 0, Z: 0},
		r3.Vector{X: 1, Y: 1, Z: 1},
		r3.Vector{X: 2, Y: 2, Z: 2},
	)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNormalizeCanonicalSign(t *testing.T) {
	a, err := New(0, 0, -2, 4)
	test.That(t, err, test.ShouldBeNil)
	b, err := New(0, 0, 1, -2)
	test.That(t, err, test.ShouldBeNil)
	eqA := a.Normalize().Equation()
	eqB := b.Normalize().Equation()
	for i := range eqA {
		test.That(t, eqA[i], test.ShouldAlmostEqual, eqB[i])
	}
}
