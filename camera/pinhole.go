// Package camera provides the pinhole camera model and its robust estimation
// from 3D to 2D point correspondences.
package camera

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MinCorrespondences is the minimal number of 3D to 2D point correspondences
// defining a pinhole camera.
const MinCorrespondences = 6

const degenerateEps = 1e-12

// PointCorrespondence is one piece of estimation evidence: a world point and
// its observed image projection.
type PointCorrespondence struct {
	World r3.Vector
	Image r2.Point
}

// PinholeCamera is the 3x4 projection matrix mapping homogeneous world
// points to homogeneous image points, defined up to scale and kept at unit
// Frobenius norm.
type PinholeCamera struct {
	p [3][4]float64
}

// New creates a camera from a 3x4 coefficient array, normalized to unit
// Frobenius norm. The matrix must be non-zero.
func New(p [3][4]float64) (PinholeCamera, error) {
	norm := 0.0
	for i := range p {
		for j := range p[i] {
			norm += p[i][j] * p[i][j]
		}
	}
	norm = math.Sqrt(norm)
	if norm < degenerateEps {
		return PinholeCamera{}, errors.New("camera matrix must be non-zero")
	}
	for i := range p {
		for j := range p[i] {
			p[i][j] /= norm
		}
	}
	return PinholeCamera{p}, nil
}

// At returns the coefficient at the given row and column.
func (c PinholeCamera) At(row, col int) float64 {
	return c.p[row][col]
}

// Matrix returns the projection matrix as a dense 3x4 matrix.
func (c PinholeCamera) Matrix() *mat.Dense {
	out := mat.NewDense(3, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			out.Set(i, j, c.p[i][j])
		}
	}
	return out
}

// Project maps a world point to image coordinates. Points on the principal
// plane project to infinity and are rejected.
func (c PinholeCamera) Project(pt r3.Vector) (r2.Point, error) {
	x := c.p[0][0]*pt.X + c.p[0][1]*pt.Y + c.p[0][2]*pt.Z + c.p[0][3]
	y := c.p[1][0]*pt.X + c.p[1][1]*pt.Y + c.p[1][2]*pt.Z + c.p[1][3]
	w := c.p[2][0]*pt.X + c.p[2][1]*pt.Y + c.p[2][2]*pt.Z + c.p[2][3]
	if math.Abs(w) < degenerateEps {
		return r2.Point{}, errors.New("point projects to infinity")
	}
	return r2.Point{X: x / w, Y: y / w}, nil
}

// ReprojectionError returns the image distance between the projected world
// point and the observed image point of a correspondence. Points projecting
// to infinity report a large finite error.
func (c PinholeCamera) ReprojectionError(corr PointCorrespondence) float64 {
	projected, err := c.Project(corr.World)
	if err != nil {
		return 1e12
	}
	return projected.Sub(corr.Image).Norm()
}

// FromCorrespondences computes the camera from six 3D to 2D correspondences
// via the DLT: each correspondence contributes two rows to a 12x12 design
// matrix whose nullspace is the flattened projection matrix. Degenerate
// configurations (coplanar or otherwise rank-deficient world points) produce
// an error.
func FromCorrespondences(corrs []PointCorrespondence) (PinholeCamera, error) {
	if len(corrs) != MinCorrespondences {
		return PinholeCamera{}, errors.Errorf("need exactly %d correspondences, got %d",
			MinCorrespondences, len(corrs))
	}
	design := mat.NewDense(2*MinCorrespondences, 12, nil)
	for i, corr := range corrs {
		wx, wy, wz := corr.World.X, corr.World.Y, corr.World.Z
		u, v := corr.Image.X, corr.Image.Y
		design.SetRow(2*i, []float64{
			-wx, -wy, -wz, -1, 0, 0, 0, 0, u * wx, u * wy, u * wz, u,
		})
		design.SetRow(2*i+1, []float64{
			0, 0, 0, 0, -wx, -wy, -wz, -1, v * wx, v * wy, v * wz, v,
		})
	}

	var svd mat.SVD
	if ok := svd.Factorize(design, mat.SVDFull); !ok {
		return PinholeCamera{}, errors.New("svd factorization failed")
	}
	values := svd.Values(nil)
	if values[0] <= 0 || math.IsNaN(values[0]) {
		return PinholeCamera{}, errors.New("degenerate correspondence configuration")
	}
	// a collapsing second-smallest singular value means more than one camera
	// fits the sample
	if values[10]/values[0] < degenerateEps {
		return PinholeCamera{}, errors.New("degenerate correspondence configuration")
	}
	var v mat.Dense
	svd.VTo(&v)
	var p [3][4]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			p[i][j] = v.At(4*i+j, 11)
		}
	}
	return New(p)
}
