// Package conic provides quadratic plane curves (ellipses, hyperbolas,
// parabolas and their degenerate forms) and their robust estimation from
// noisy point sets.
package conic

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MinPoints is the minimal number of points defining a conic.
const MinPoints = 5

// degenerateEps rejects samples whose design matrix is rank deficient.
const degenerateEps = 1e-12

// Conic is the locus A*x^2 + B*x*y + C*y^2 + D*x + E*y + F = 0. The
// coefficient vector is kept at unit Euclidean norm so that algebraic
// residuals are comparable across conics.
type Conic struct {
	a, b, c, d, e, f float64
}

// New creates a conic from its six coefficients, normalized to unit norm. At
// least one coefficient must be non-zero.
func New(a, b, c, d, e, f float64) (Conic, error) {
	norm := math.Sqrt(a*a + b*b + c*c + d*d + e*e + f*f)
	if norm < degenerateEps {
		return Conic{}, errors.New("conic coefficients must not all be zero")
	}
	return Conic{a / norm, b / norm, c / norm, d / norm, e / norm, f / norm}, nil
}

// Coefficients returns [A, B, C, D, E, F] at unit norm.
func (c Conic) Coefficients() [6]float64 {
	return [6]float64{c.a, c.b, c.c, c.d, c.e, c.f}
}

// Matrix returns the symmetric homogeneous form of the conic, such that
// p^T M p = 0 for homogeneous points p on the locus.
func (c Conic) Matrix() *mat.SymDense {
	m := mat.NewSymDense(3, nil)
	m.SetSym(0, 0, c.a)
	m.SetSym(0, 1, c.b/2)
	m.SetSym(1, 1, c.c)
	m.SetSym(0, 2, c.d/2)
	m.SetSym(1, 2, c.e/2)
	m.SetSym(2, 2, c.f)
	return m
}

// EvaluateAt returns the algebraic residual of the point against the locus.
func (c Conic) EvaluateAt(pt r2.Point) float64 {
	return math.Abs(c.a*pt.X*pt.X + c.b*pt.X*pt.Y + c.c*pt.Y*pt.Y +
		c.d*pt.X + c.e*pt.Y + c.f)
}

// IsLocus reports whether the point lies on the conic within tolerance.
func (c Conic) IsLocus(pt r2.Point, tolerance float64) bool {
	return c.EvaluateAt(pt) <= tolerance
}

// FromPoints computes the conic through five points by solving the nullspace
// of the 5x6 design matrix. Nearly coincident or otherwise rank-deficient
// configurations produce an error.
func FromPoints(pts []r2.Point) (Conic, error) {
	if len(pts) != MinPoints {
		return Conic{}, errors.Errorf("need exactly %d points, got %d", MinPoints, len(pts))
	}
	m := mat.NewDense(MinPoints, 6, nil)
	for i, pt := range pts {
		m.SetRow(i, []float64{pt.X * pt.X, pt.X * pt.Y, pt.Y * pt.Y, pt.X, pt.Y, 1})
	}

	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDFull); !ok {
		return Conic{}, errors.New("svd factorization failed")
	}
	values := svd.Values(nil)
	// rank below 5 means more than one conic fits the sample
	if values[4] < degenerateEps*values[0] {
		return Conic{}, errors.New("degenerate point configuration")
	}
	var v mat.Dense
	svd.VTo(&v)
	null := v.ColView(5)
	return New(null.AtVec(0), null.AtVec(1), null.AtVec(2),
		null.AtVec(3), null.AtVec(4), null.AtVec(5))
}
