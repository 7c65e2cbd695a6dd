// Package plane provides a 3D plane model and its robust estimation from
// noisy point sets.
package plane

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// collinearEps rejects samples whose cross product is numerically zero.
const collinearEps = 1e-12

// Plane is the locus ax + by + cz + d = 0.
type Plane struct {
	equation [4]float64
}

// New creates a plane from its equation coefficients. The normal (a, b, c)
// must not be the zero vector.
func New(a, b, c, d float64) (Plane, error) {
	if a*a+b*b+c*c < collinearEps*collinearEps {
		return Plane{}, errors.New("plane normal must be non-zero")
	}
	return Plane{[4]float64{a, b, c, d}}, nil
}

// FromPoints computes the plane through three points. Collinear or coincident
// points produce an error.
func FromPoints(p1, p2, p3 r3.Vector) (Plane, error) {
	v1 := p2.Sub(p1)
	v2 := p3.Sub(p1)
	cross := v1.Cross(v2)
	if cross.Norm() < collinearEps {
		return Plane{}, errors.New("points are collinear")
	}
	n := cross.Normalize()
	d := -n.Dot(p1)
	return Plane{[4]float64{n.X, n.Y, n.Z, d}}, nil
}

// Equation returns the coefficients [a, b, c, d].
func (p Plane) Equation() [4]float64 {
	return p.equation
}

// Normal returns the plane normal (a, b, c).
func (p Plane) Normal() r3.Vector {
	return r3.Vector{X: p.equation[0], Y: p.equation[1], Z: p.equation[2]}
}

// Offset returns the d coefficient.
func (p Plane) Offset() float64 {
	return p.equation[3]
}

// Distance returns the absolute distance from the point to the plane.
func (p Plane) Distance(pt r3.Vector) float64 {
	n := p.Normal()
	return math.Abs(n.Dot(pt)+p.equation[3]) / n.Norm()
}

// Normalize scales the equation so that the normal has unit length and the
// first non-zero coefficient is positive, giving every plane one canonical
// representation.
func (p Plane) Normalize() Plane {
	norm := p.Normal().Norm()
	eq := p.equation
	for i := range eq {
		eq[i] /= norm
	}
	for _, c := range eq {
		if c > 0 {
			break
		}
		if c < 0 {
			for i := range eq {
				eq[i] = -eq[i]
			}
			break
		}
	}
	return Plane{eq}
}
