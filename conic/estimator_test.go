package conic

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"github.com/albertoirurueta/irurueta-geometry-sub012/robustest"
)

func TestEstimatorTooFewPoints(t *testing.T) {
	_, err := NewEstimator(make([]r2.Point, 4), robustest.RANSAC)
	test.That(t, err, test.ShouldNotBeNil)
}

// Points on a circle with a fifth of them perturbed by Gaussian noise: the
// robust fit must recover a conic that keeps every original noise-free point
// on the locus.
func TestRANSACCircle(t *testing.T) {
	const (
		numPoints       = 800
		outlierFraction = 0.2
		radius          = 3.0
	)
	r := rand.New(rand.NewSource(6))
	original := make([]r2.Point, numPoints)
	observed := make([]r2.Point, numPoints)
	for i := range original {
		angle := 2 * math.Pi * float64(i) / numPoints
		original[i] = circlePoint(radius, angle)
		observed[i] = original[i]
		if r.Float64() < outlierFraction {
			observed[i].X += r.NormFloat64()
			observed[i].Y += r.NormFloat64()
		}
	}

	e, err := NewEstimator(observed, robustest.RANSAC)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, e.SetThreshold(1e-7), test.ShouldBeNil)
	test.That(t, e.SetConfidence(0.99), test.ShouldBeNil)
	test.That(t, e.SetMaxIterations(5000), test.ShouldBeNil)

	c, err := e.Estimate()
	test.That(t, err, test.ShouldBeNil)
	for _, pt := range original {
		test.That(t, c.IsLocus(pt, 1e-6), test.ShouldBeTrue)
	}
	test.That(t, e.Inliers().NumInliers(), test.ShouldBeGreaterThan, int(0.7*numPoints))
}

func TestLMedSCircle(t *testing.T) {
	const numPoints = 300
	r := rand.New(rand.NewSource(9))
	pts := make([]r2.Point, numPoints)
	for i := range pts {
		angle := 2 * math.Pi * r.Float64()
		pts[i] = circlePoint(1.5, angle)
		if i%5 == 0 {
			pts[i].X += 1 + r.Float64()
		}
	}
	e, err := NewEstimator(pts, robustest.LMedS)
	test.That(t, err, test.ShouldBeNil)
	c, err := e.Estimate()
	test.That(t, err, test.ShouldBeNil)
	for i, pt := range pts {
		if i%5 != 0 {
			test.That(t, c.IsLocus(pt, 1e-6), test.ShouldBeTrue)
		}
	}
}

func TestMinimalConicSet(t *testing.T) {
	pts := make([]r2.Point, 5)
	for i := range pts {
		pts[i] = circlePoint(1, float64(i))
	}
	e, err := NewEstimator(pts, robustest.RANSAC)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, e.SetThreshold(1e-9), test.ShouldBeNil)
	c, err := e.Estimate()
	test.That(t, err, test.ShouldBeNil)
	coeffs := c.Coefficients()
	s := 1 / math.Sqrt(3)
	test.That(t, math.Abs(coeffs[0]), test.ShouldAlmostEqual, s, 1e-9)
	test.That(t, math.Abs(coeffs[2]), test.ShouldAlmostEqual, s, 1e-9)
	test.That(t, math.Abs(coeffs[1]), test.ShouldAlmostEqual, 0, 1e-9)
}
