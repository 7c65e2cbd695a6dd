package conic

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/albertoirurueta/irurueta-geometry-sub012/robustest"
)

// problem adapts a 2D point set to the robust estimation engine.
type problem struct {
	points []r2.Point
	// scratch buffer for the minimal sample
	sample []r2.Point
}

func (p *problem) MinSampleSize() int { return MinPoints }

func (p *problem) NumSamples() int { return len(p.points) }

func (p *problem) Fit(indices []int) ([]Conic, error) {
	if p.sample == nil {
		p.sample = make([]r2.Point, MinPoints)
	}
	for k, i := range indices {
		p.sample[k] = p.points[i]
	}
	c, err := FromPoints(p.sample)
	if err != nil {
		return nil, nil
	}
	return []Conic{c}, nil
}

func (p *problem) Residual(model Conic, i int) float64 {
	return model.EvaluateAt(p.points[i])
}

func (p *problem) Params(model Conic) []float64 {
	coeffs := model.Coefficients()
	return coeffs[:]
}

func (p *problem) FromParams(params []float64) (Conic, error) {
	return New(params[0], params[1], params[2], params[3], params[4], params[5])
}

// NewEstimator returns a robust conic estimator over the given points.
func NewEstimator(points []r2.Point, method robustest.Method) (*robustest.Estimator[Conic], error) {
	if len(points) < MinPoints {
		return nil, errors.Errorf("need at least %d points to estimate a conic, got %d",
			MinPoints, len(points))
	}
	return robustest.New[Conic](&problem{points: points}, method), nil
}
