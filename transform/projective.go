package transform

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ProjectiveMinPairs is the minimal number of point pairs defining a 2D
// projective transformation (homography).
const ProjectiveMinPairs = 4

// infiniteTransferError stands in for points mapped to infinity so residuals
// stay finite and comparable.
const infiniteTransferError = 1e12

// Projective2D is a homography: a 3x3 matrix acting on homogeneous 2D
// points, defined up to scale. Indices are [row][column].
type Projective2D struct {
	h [3][3]float64
}

// NewProjective2D creates a homography from a 3x3 coefficient array,
// normalized to unit Frobenius norm. The matrix must be non-zero.
func NewProjective2D(h [3][3]float64) (Projective2D, error) {
	norm := 0.0
	for i := range h {
		for j := range h[i] {
			norm += h[i][j] * h[i][j]
		}
	}
	norm = math.Sqrt(norm)
	if norm < degenerateEps {
		return Projective2D{}, errors.New("homography must be non-zero")
	}
	for i := range h {
		for j := range h[i] {
			h[i][j] /= norm
		}
	}
	return Projective2D{h}, nil
}

// At returns the coefficient at the given row and column.
func (p Projective2D) At(row, col int) float64 {
	return p.h[row][col]
}

// Matrix returns the homography as a dense 3x3 matrix.
func (p Projective2D) Matrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		p.h[0][0], p.h[0][1], p.h[0][2],
		p.h[1][0], p.h[1][1], p.h[1][2],
		p.h[2][0], p.h[2][1], p.h[2][2],
	})
}

// Apply transforms a point, performing the perspective division. Points
// mapped to infinity return an error.
func (p Projective2D) Apply(pt r2.Point) (r2.Point, error) {
	x := p.h[0][0]*pt.X + p.h[0][1]*pt.Y + p.h[0][2]
	y := p.h[1][0]*pt.X + p.h[1][1]*pt.Y + p.h[1][2]
	w := p.h[2][0]*pt.X + p.h[2][1]*pt.Y + p.h[2][2]
	if math.Abs(w) < degenerateEps {
		return r2.Point{}, errors.New("point maps to infinity")
	}
	return r2.Point{X: x / w, Y: y / w}, nil
}

// TransferError returns the Euclidean distance between the transformed From
// point and the To point of a correspondence.
func (p Projective2D) TransferError(pair PointPair2D) float64 {
	mapped, err := p.Apply(pair.From)
	if err != nil {
		return infiniteTransferError
	}
	return mapped.Sub(pair.To).Norm()
}

// ProjectiveFromPointPairs computes the homography mapping From to To for
// four correspondences via the normalized DLT: both point sets are
// normalized, an 8x9 design matrix is assembled, its nullspace gives the
// homography of the normalized points, and the normalizations are undone.
// Samples with three collinear points are degenerate and produce an error.
func ProjectiveFromPointPairs(pairs []PointPair2D) (Projective2D, error) {
	if len(pairs) != ProjectiveMinPairs {
		return Projective2D{}, errors.Errorf("need exactly %d point pairs, got %d",
			ProjectiveMinPairs, len(pairs))
	}
	from := make([]r2.Point, len(pairs))
	to := make([]r2.Point, len(pairs))
	for i, pair := range pairs {
		from[i] = pair.From
		to[i] = pair.To
	}
	normFrom, t1 := normalizePoints(from)
	normTo, t2 := normalizePoints(to)

	design := mat.NewDense(2*ProjectiveMinPairs, 9, nil)
	for i := range normFrom {
		x, y := normFrom[i].X, normFrom[i].Y
		u, v := normTo[i].X, normTo[i].Y
		design.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, u * x, u * y, u})
		design.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, v * x, v * y, v})
	}

	null, conditioning, ok := nullspaceVector(design)
	if !ok {
		return Projective2D{}, errors.New("svd factorization failed")
	}
	if math.IsNaN(conditioning) || conditioning < degenerateEps {
		// more than one homography fits: three collinear or coincident points
		return Projective2D{}, errors.New("degenerate point configuration")
	}

	hNorm := mat.NewDense(3, 3, null)
	// H = T2^-1 * Hnorm * T1
	var t2inv mat.Dense
	if err := t2inv.Inverse(t2); err != nil {
		return Projective2D{}, errors.Wrap(err, "normalization transform is singular")
	}
	var h mat.Dense
	h.Mul(&t2inv, hNorm)
	h.Mul(&h, t1)

	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = h.At(i, j)
		}
	}
	return NewProjective2D(out)
}
