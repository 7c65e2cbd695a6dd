// Package transform provides 2D geometric transformations (affine,
// projective) and their robust estimation from point correspondences.
package transform

import (
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"
)

// PointPair2D is one correspondence: a point and its image under the
// transformation being estimated.
type PointPair2D struct {
	From r2.Point
	To   r2.Point
}

// degenerateEps rejects numerically rank-deficient minimal samples.
const degenerateEps = 1e-12

// normalizePoints translates points to their centroid and scales them so the
// average distance from the origin is sqrt(2), as described in Multiple View
// Geometry, Alg 4.2. It returns the transformed points and the 3x3 transform
// applied.
func normalizePoints(pts []r2.Point) ([]r2.Point, *mat.Dense) {
	nPoints := len(pts)
	mu := r2.Point{}
	for _, pt := range pts {
		mu.X += pt.X
		mu.Y += pt.Y
	}
	mu = mu.Mul(1. / float64(nPoints))
	d := 0.0
	for _, pt := range pts {
		x2 := (pt.X - mu.X) * (pt.X - mu.X)
		y2 := (pt.Y - mu.Y) * (pt.Y - mu.Y)
		d += math.Sqrt(x2+y2) / float64(nPoints)
	}
	scale := math.Sqrt(2) / d
	transform := mat.NewDense(3, 3, []float64{
		scale, 0, -scale * mu.X,
		0, scale, -scale * mu.Y,
		0, 0, 1,
	})
	transformed := make([]r2.Point, nPoints)
	for i := range transformed {
		transformed[i] = r2.Point{X: scale * (pts[i].X - mu.X), Y: scale * (pts[i].Y - mu.Y)}
	}
	return transformed, transform
}

// nullspaceVector factorizes the design matrix and returns its last right
// singular vector together with the ratio of the smallest singular value to
// the largest, which callers use to detect rank-deficient samples.
func nullspaceVector(design *mat.Dense) ([]float64, float64, bool) {
	var svd mat.SVD
	if ok := svd.Factorize(design, mat.SVDFull); !ok {
		return nil, 0, false
	}
	_, cols := design.Dims()
	values := svd.Values(nil)
	if len(values) == 0 || values[0] <= 0 {
		return nil, 0, false
	}
	var v mat.Dense
	svd.VTo(&v)
	null := make([]float64, cols)
	for i := range null {
		null[i] = v.At(i, cols-1)
	}
	return null, values[len(values)-1] / values[0], true
}
