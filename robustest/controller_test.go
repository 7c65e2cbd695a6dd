package robustest

import (
	"testing"

	"go.viam.com/test"
)

func TestIterationControllerAdaptiveBound(t *testing.T) {
	c := newIterationController(RANSAC, 0.99, 10000, 3)
	// before any consensus, the bound is the hard cap
	test.That(t, c.requiredIterations(), test.ShouldEqual, 10000)

	// w = 0.5, m = 3: N = ceil(log(0.01)/log(1 - 0.125)) = 35
	c.update(0.5)
	test.That(t, c.requiredIterations(), test.ShouldEqual, 35)

	// better inlier ratio shrinks the bound
	c.update(0.9)
	test.That(t, c.requiredIterations(), test.ShouldBeLessThan, 35)
	test.That(t, c.requiredIterations(), test.ShouldBeGreaterThanOrEqualTo, 1)

	// w = 1 would be a log singularity; clamping keeps a finite bound
	c.update(1.0)
	test.That(t, c.requiredIterations(), test.ShouldEqual, 1)

	// a later, worse ratio never grows the bound back
	c.update(0.2)
	test.That(t, c.requiredIterations(), test.ShouldEqual, 1)
	c.update(0)
	test.That(t, c.requiredIterations(), test.ShouldEqual, 1)
}

func TestIterationControllerConfidenceOne(t *testing.T) {
	// full certainty is only reachable by exhausting the budget
	c := newIterationController(RANSAC, 1.0, 50, 2)
	c.update(0.9)
	test.That(t, c.requiredIterations(), test.ShouldEqual, 50)
}

func TestIterationControllerCapAlwaysReachable(t *testing.T) {
	c := newIterationController(RANSAC, 0.9999, 7, 5)
	c.update(0.01)
	test.That(t, c.requiredIterations(), test.ShouldEqual, 7)
	test.That(t, c.done(5), test.ShouldBeFalse)
	test.That(t, c.done(6), test.ShouldBeTrue)
}

func TestIterationControllerMedianSeed(t *testing.T) {
	// median-based methods start from a conservative default inlier ratio
	// instead of the cap
	for _, method := range []Method{LMedS, PROMedS} {
		c := newIterationController(method, 0.99, 100000, 3)
		// w = 0.5, m = 3: 35 iterations
		test.That(t, c.requiredIterations(), test.ShouldEqual, 35)
		// refined once an initial consensus is found
		c.update(0.8)
		test.That(t, c.requiredIterations(), test.ShouldBeLessThan, 35)
	}
}

func TestNonRandomnessSatisfied(t *testing.T) {
	// a best inlier count equal to the sample size is never enough
	test.That(t, nonRandomnessSatisfied(3, 100, 3), test.ShouldBeFalse)
	// a strong consensus on a sizable prefix is
	test.That(t, nonRandomnessSatisfied(60, 100, 3), test.ShouldBeTrue)
	// the required count grows with the prefix
	test.That(t, nonRandomnessSatisfied(12, 50, 3), test.ShouldBeTrue)
	test.That(t, nonRandomnessSatisfied(12, 500, 3), test.ShouldBeFalse)
}
