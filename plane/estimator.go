package plane

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/albertoirurueta/irurueta-geometry-sub012/robustest"
)

// problem adapts a point set to the robust estimation engine. It references
// the caller's slice without copying; the caller must not mutate it while an
// estimation runs.
type problem struct {
	points []r3.Vector
}

func (p *problem) MinSampleSize() int { return 3 }

func (p *problem) NumSamples() int { return len(p.points) }

func (p *problem) Fit(indices []int) ([]Plane, error) {
	pl, err := FromPoints(p.points[indices[0]], p.points[indices[1]], p.points[indices[2]])
	if err != nil {
		// degenerate sample, redraw
		return nil, nil
	}
	return []Plane{pl}, nil
}

func (p *problem) Residual(model Plane, i int) float64 {
	return model.Distance(p.points[i])
}

func (p *problem) Params(model Plane) []float64 {
	eq := model.Equation()
	return eq[:]
}

func (p *problem) FromParams(params []float64) (Plane, error) {
	pl, err := New(params[0], params[1], params[2], params[3])
	if err != nil {
		return Plane{}, err
	}
	return pl.Normalize(), nil
}

// NewEstimator returns a robust plane estimator over the given points.
func NewEstimator(points []r3.Vector, method robustest.Method) (*robustest.Estimator[Plane], error) {
	if len(points) < 3 {
		return nil, errors.Errorf("need at least 3 points to estimate a plane, got %d", len(points))
	}
	return robustest.New[Plane](&problem{points: points}, method), nil
}
