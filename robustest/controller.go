package robustest

import (
	"math"

	"github.com/albertoirurueta/irurueta-geometry-sub012/utils"
)

const (
	// maxInlierRatio keeps the adaptive iteration formula away from the
	// log(0) singularity when every correspondence is an inlier.
	maxInlierRatio = 1 - 1e-9
	// lmedsInitialInlierRatio seeds the iteration bound for the median-based
	// methods before any consensus exists; no inlier ratio is observable
	// upfront without a threshold.
	lmedsInitialInlierRatio = 0.5
	// prosacBeta is the assumed probability of a random correspondence
	// supporting an incorrect model, used by the non-randomness test.
	prosacBeta = 0.05
	// prosacNonRandomnessZ is the normal quantile for the non-randomness
	// significance level (roughly 1%).
	prosacNonRandomnessZ = 2.33
)

// iterationController owns the stopping decision: it re-estimates the
// required number of iterations from the best inlier ratio seen so far and a
// target confidence, clipped to [1, maxIterations]. The maximum is always
// reachable, which is what guarantees termination.
type iterationController struct {
	confidence    float64
	maxIterations int
	minSampleSize int
	required      int
}

func newIterationController(method Method, confidence float64, maxIterations, minSampleSize int) *iterationController {
	c := &iterationController{
		confidence:    confidence,
		maxIterations: maxIterations,
		minSampleSize: minSampleSize,
		required:      maxIterations,
	}
	if method == LMedS || method == PROMedS {
		// conservative fixed bound until a first consensus refines it
		c.update(lmedsInitialInlierRatio)
	}
	return c
}

// update recomputes the required iteration count from the current best inlier
// ratio via N = log(1-confidence) / log(1 - w^minSampleSize). The bound only
// ever shrinks: a later best model with fewer mask inliers (possible under
// median scoring) must not reopen a search that a previous bound had closed.
func (c *iterationController) update(inlierRatio float64) {
	if inlierRatio <= 0 {
		return
	}
	if c.confidence >= 1 {
		// certainty is only reachable by exhausting the budget
		return
	}
	w := utils.Clamp(inlierRatio, 0, maxInlierRatio)
	denom := math.Log(1 - math.Pow(w, float64(c.minSampleSize)))
	if denom >= 0 {
		return
	}
	n := math.Ceil(math.Log(1-c.confidence) / denom)
	if math.IsNaN(n) || n >= float64(c.required) {
		return
	}
	if n < 1 {
		n = 1
	}
	c.required = int(n)
}

// requiredIterations returns the current iteration bound.
func (c *iterationController) requiredIterations() int {
	return c.required
}

// done reports whether the loop should stop after completing the iteration
// with the given zero-based index.
func (c *iterationController) done(iteration int) bool {
	return iteration+1 >= c.required || iteration+1 >= c.maxIterations
}

// nonRandomnessSatisfied implements the PROSAC non-randomness test over a
// subset of the correspondences: the inliers counted within that subset must
// exceed the minimal count that random (non-model) support could plausibly
// produce among subsetSize items. The minimal count uses the normal
// approximation of the binomial tail: m + beta*n + z*sqrt(n*beta*(1-beta)).
func nonRandomnessSatisfied(subsetInliers, subsetSize, minSampleSize int) bool {
	n := float64(subsetSize)
	iMin := float64(minSampleSize) +
		math.Ceil(prosacBeta*n+prosacNonRandomnessZ*math.Sqrt(n*prosacBeta*(1-prosacBeta)))
	return float64(subsetInliers) >= iMin
}
