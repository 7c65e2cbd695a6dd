package camera

import (
	"math/rand"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/albertoirurueta/irurueta-geometry-sub012/robustest"
)

// testCamera is a simple camera with focal length 500, principal point
// (320, 240), identity rotation and translation (0, 0, 10).
func testCamera(t *testing.T) PinholeCamera {
	t.Helper()
	c, err := New([3][4]float64{
		{500, 0, 320, 3200},
		{0, 500, 240, 2400},
		{0, 0, 1, 10},
	})
	test.That(t, err, test.ShouldBeNil)
	return c
}

func TestNewCamera(t *testing.T) {
	_, err := New([3][4]float64{})
	test.That(t, err, test.ShouldNotBeNil)

	c := testCamera(t)
	m := c.Matrix()
	rows, cols := m.Dims()
	test.That(t, rows, test.ShouldEqual, 3)
	test.That(t, cols, test.ShouldEqual, 4)
}

func TestProject(t *testing.T) {
	c := testCamera(t)
	// a point on the optical axis projects to the principal point
	pt, err := c.Project(r3.Vector{X: 0, Y: 0, Z: 5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pt.X, test.ShouldAlmostEqual, 320)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 240)

	// a point on the principal plane projects to infinity
	_, err = c.Project(r3.Vector{X: 1, Y: 1, Z: -10})
	test.That(t, err, test.ShouldNotBeNil)

	bad := PointCorrespondence{World: r3.Vector{X: 1, Y: 1, Z: -10}, Image: r2.Point{}}
	test.That(t, c.ReprojectionError(bad), test.ShouldEqual, 1e12)
}

func worldPoints(n int, r *rand.Rand) []r3.Vector {
	pts := make([]r3.Vector, n)
	for i := range pts {
		pts[i] = r3.Vector{
			X: 4*r.Float64() - 2,
			Y: 4*r.Float64() - 2,
			Z: 4*r.Float64() - 2,
		}
	}
	return pts
}

func TestFromCorrespondences(t *testing.T) {
	truth := testCamera(t)
	r := rand.New(rand.NewSource(17))
	world := worldPoints(MinCorrespondences, r)
	corrs := make([]PointCorrespondence, len(world))
	for i, w := range world {
		img, err := truth.Project(w)
		test.That(t, err, test.ShouldBeNil)
		corrs[i] = PointCorrespondence{World: w, Image: img}
	}
	got, err := FromCorrespondences(corrs)
	test.That(t, err, test.ShouldBeNil)
	// compare by reprojection of fresh points
	for _, w := range worldPoints(20, r) {
		want, err := truth.Project(w)
		test.That(t, err, test.ShouldBeNil)
		have, err := got.Project(w)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, have.X, test.ShouldAlmostEqual, want.X, 1e-5)
		test.That(t, have.Y, test.ShouldAlmostEqual, want.Y, 1e-5)
	}

	// repeated world points are degenerate
	for i := range corrs {
		corrs[i] = corrs[0]
	}
	_, err = FromCorrespondences(corrs)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = FromCorrespondences(corrs[:3])
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRANSACCamera(t *testing.T) {
	truth := testCamera(t)
	r := rand.New(rand.NewSource(18))
	world := worldPoints(300, r)
	corrs := make([]PointCorrespondence, len(world))
	inlier := make([]bool, len(world))
	for i, w := range world {
		img, err := truth.Project(w)
		test.That(t, err, test.ShouldBeNil)
		inlier[i] = true
		if r.Float64() < 0.2 {
			img.X += 30 + 50*r.Float64()
			img.Y += 30 + 50*r.Float64()
			inlier[i] = false
		}
		corrs[i] = PointCorrespondence{World: w, Image: img}
	}

	e, err := NewEstimator(corrs, robustest.RANSAC)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, e.SetThreshold(1e-4), test.ShouldBeNil)
	got, err := e.Estimate()
	test.That(t, err, test.ShouldBeNil)
	for i, corr := range corrs {
		if inlier[i] {
			test.That(t, got.ReprojectionError(corr), test.ShouldBeLessThan, 1e-4)
		}
	}
	test.That(t, e.Inliers().NumInliers(), test.ShouldBeGreaterThan, 200)
}

func TestPROSACCamera(t *testing.T) {
	truth := testCamera(t)
	r := rand.New(rand.NewSource(19))
	world := worldPoints(200, r)
	corrs := make([]PointCorrespondence, len(world))
	scores := make([]float64, len(world))
	for i, w := range world {
		img, err := truth.Project(w)
		test.That(t, err, test.ShouldBeNil)
		scores[i] = 1
		if i%5 == 0 {
			img.X -= 40
			scores[i] = 1 / (1 + 40.0)
		}
		corrs[i] = PointCorrespondence{World: w, Image: img}
	}

	e, err := NewEstimator(corrs, robustest.PROSAC)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, e.SetThreshold(1e-4), test.ShouldBeNil)
	test.That(t, e.SetQualityScores(scores), test.ShouldBeNil)
	got, err := e.Estimate()
	test.That(t, err, test.ShouldBeNil)
	for i, corr := range corrs {
		if i%5 != 0 {
			test.That(t, got.ReprojectionError(corr), test.ShouldBeLessThan, 1e-4)
		}
	}
}
