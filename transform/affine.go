package transform

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// AffineMinPairs is the minimal number of point pairs defining a 2D affine
// transformation.
const AffineMinPairs = 3

// Affine2D is the transformation
//
//	x' = a11*x + a12*y + tx
//	y' = a21*x + a22*y + ty
type Affine2D struct {
	params [6]float64 // a11, a12, tx, a21, a22, ty
}

// NewAffine2D creates an affine transformation from its six parameters in
// row-major order (a11, a12, tx, a21, a22, ty).
func NewAffine2D(params [6]float64) Affine2D {
	return Affine2D{params}
}

// Params returns the six parameters in row-major order.
func (a Affine2D) Params() [6]float64 {
	return a.params
}

// Apply transforms a point.
func (a Affine2D) Apply(pt r2.Point) r2.Point {
	return r2.Point{
		X: a.params[0]*pt.X + a.params[1]*pt.Y + a.params[2],
		Y: a.params[3]*pt.X + a.params[4]*pt.Y + a.params[5],
	}
}

// Matrix returns the 3x3 homogeneous form with last row (0, 0, 1).
func (a Affine2D) Matrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		a.params[0], a.params[1], a.params[2],
		a.params[3], a.params[4], a.params[5],
		0, 0, 1,
	})
}

// AffineFromPointPairs computes the affine transformation mapping From to To
// exactly for three correspondences. Collinear source points produce an
// error.
func AffineFromPointPairs(pairs []PointPair2D) (Affine2D, error) {
	if len(pairs) != AffineMinPairs {
		return Affine2D{}, errors.Errorf("need exactly %d point pairs, got %d",
			AffineMinPairs, len(pairs))
	}
	// the same 3x3 source matrix constrains both coordinate rows
	src := mat.NewDense(3, 3, nil)
	for i, pair := range pairs {
		src.SetRow(i, []float64{pair.From.X, pair.From.Y, 1})
	}
	// relative conditioning test so small coordinate magnitudes are not
	// mistaken for collinearity
	var svd mat.SVD
	if ok := svd.Factorize(src, mat.SVDNone); !ok {
		return Affine2D{}, errors.New("svd factorization failed")
	}
	values := svd.Values(nil)
	if values[0] <= 0 || values[2]/values[0] < degenerateEps {
		return Affine2D{}, errors.New("source points are collinear")
	}
	bx := mat.NewVecDense(3, []float64{pairs[0].To.X, pairs[1].To.X, pairs[2].To.X})
	by := mat.NewVecDense(3, []float64{pairs[0].To.Y, pairs[1].To.Y, pairs[2].To.Y})

	var rowX, rowY mat.VecDense
	if err := rowX.SolveVec(src, bx); err != nil {
		return Affine2D{}, errors.Wrap(err, "singular source configuration")
	}
	if err := rowY.SolveVec(src, by); err != nil {
		return Affine2D{}, errors.Wrap(err, "singular source configuration")
	}
	return Affine2D{[6]float64{
		rowX.AtVec(0), rowX.AtVec(1), rowX.AtVec(2),
		rowY.AtVec(0), rowY.AtVec(1), rowY.AtVec(2),
	}}, nil
}
