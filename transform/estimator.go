package transform

import (
	"github.com/pkg/errors"

	"github.com/albertoirurueta/irurueta-geometry-sub012/robustest"
)

// affineProblem adapts point-pair correspondences to the robust estimation
// engine for the affine model family.
type affineProblem struct {
	pairs  []PointPair2D
	sample []PointPair2D
}

func (p *affineProblem) MinSampleSize() int { return AffineMinPairs }

func (p *affineProblem) NumSamples() int { return len(p.pairs) }

func (p *affineProblem) Fit(indices []int) ([]Affine2D, error) {
	if p.sample == nil {
		p.sample = make([]PointPair2D, AffineMinPairs)
	}
	for k, i := range indices {
		p.sample[k] = p.pairs[i]
	}
	a, err := AffineFromPointPairs(p.sample)
	if err != nil {
		return nil, nil
	}
	return []Affine2D{a}, nil
}

func (p *affineProblem) Residual(model Affine2D, i int) float64 {
	return model.Apply(p.pairs[i].From).Sub(p.pairs[i].To).Norm()
}

func (p *affineProblem) Params(model Affine2D) []float64 {
	params := model.Params()
	return params[:]
}

func (p *affineProblem) FromParams(params []float64) (Affine2D, error) {
	return NewAffine2D([6]float64{
		params[0], params[1], params[2], params[3], params[4], params[5],
	}), nil
}

// NewAffineEstimator returns a robust affine transformation estimator over
// the given correspondences.
func NewAffineEstimator(pairs []PointPair2D, method robustest.Method) (*robustest.Estimator[Affine2D], error) {
	if len(pairs) < AffineMinPairs {
		return nil, errors.Errorf("need at least %d point pairs to estimate an affine transformation, got %d",
			AffineMinPairs, len(pairs))
	}
	return robustest.New[Affine2D](&affineProblem{pairs: pairs}, method), nil
}

// projectiveProblem adapts point-pair correspondences to the robust
// estimation engine for the homography model family.
type projectiveProblem struct {
	pairs  []PointPair2D
	sample []PointPair2D
}

func (p *projectiveProblem) MinSampleSize() int { return ProjectiveMinPairs }

func (p *projectiveProblem) NumSamples() int { return len(p.pairs) }

func (p *projectiveProblem) Fit(indices []int) ([]Projective2D, error) {
	if p.sample == nil {
		p.sample = make([]PointPair2D, ProjectiveMinPairs)
	}
	for k, i := range indices {
		p.sample[k] = p.pairs[i]
	}
	h, err := ProjectiveFromPointPairs(p.sample)
	if err != nil {
		return nil, nil
	}
	return []Projective2D{h}, nil
}

func (p *projectiveProblem) Residual(model Projective2D, i int) float64 {
	return model.TransferError(p.pairs[i])
}

func (p *projectiveProblem) Params(model Projective2D) []float64 {
	params := make([]float64, 0, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			params = append(params, model.At(i, j))
		}
	}
	return params
}

func (p *projectiveProblem) FromParams(params []float64) (Projective2D, error) {
	var h [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			h[i][j] = params[3*i+j]
		}
	}
	return NewProjective2D(h)
}

// NewProjectiveEstimator returns a robust homography estimator over the
// given correspondences.
func NewProjectiveEstimator(pairs []PointPair2D, method robustest.Method) (*robustest.Estimator[Projective2D], error) {
	if len(pairs) < ProjectiveMinPairs {
		return nil, errors.Errorf("need at least %d point pairs to estimate a homography, got %d",
			ProjectiveMinPairs, len(pairs))
	}
	return robustest.New[Projective2D](&projectiveProblem{pairs: pairs}, method), nil
}
