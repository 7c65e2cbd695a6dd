package camera

import (
	"github.com/pkg/errors"

	"github.com/albertoirurueta/irurueta-geometry-sub012/robustest"
)

// problem adapts 3D to 2D correspondences to the robust estimation engine.
type problem struct {
	corrs  []PointCorrespondence
	sample []PointCorrespondence
}

func (p *problem) MinSampleSize() int { return MinCorrespondences }

func (p *problem) NumSamples() int { return len(p.corrs) }

func (p *problem) Fit(indices []int) ([]PinholeCamera, error) {
	if p.sample == nil {
		p.sample = make([]PointCorrespondence, MinCorrespondences)
	}
	for k, i := range indices {
		p.sample[k] = p.corrs[i]
	}
	c, err := FromCorrespondences(p.sample)
	if err != nil {
		return nil, nil
	}
	return []PinholeCamera{c}, nil
}

func (p *problem) Residual(model PinholeCamera, i int) float64 {
	return model.ReprojectionError(p.corrs[i])
}

func (p *problem) Params(model PinholeCamera) []float64 {
	params := make([]float64, 0, 12)
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			params = append(params, model.At(i, j))
		}
	}
	return params
}

func (p *problem) FromParams(params []float64) (PinholeCamera, error) {
	var m [3][4]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			m[i][j] = params[4*i+j]
		}
	}
	return New(m)
}

// NewEstimator returns a robust pinhole camera estimator over the given
// correspondences.
func NewEstimator(corrs []PointCorrespondence, method robustest.Method) (*robustest.Estimator[PinholeCamera], error) {
	if len(corrs) < MinCorrespondences {
		return nil, errors.Errorf("need at least %d correspondences to estimate a camera, got %d",
			MinCorrespondences, len(corrs))
	}
	return robustest.New[PinholeCamera](&problem{corrs: corrs}, method), nil
}
