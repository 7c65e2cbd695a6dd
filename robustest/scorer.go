package robustest

import (
	"math"

	"github.com/albertoirurueta/irurueta-geometry-sub012/utils"
)

// lmedsInlierFactor is the multiple of the robust scale used to derive the
// implicit inlier threshold for median-based methods.
const lmedsInlierFactor = 2.5

// scoreResult carries the outcome of evaluating one candidate model against
// the full correspondence set. consensus follows a higher-is-better
// convention across all methods.
type scoreResult struct {
	consensus  float64
	mask       []bool
	numInliers int
	// scale is the effective threshold that decided inlier membership.
	scale float64
}

// scorer evaluates a candidate model against all correspondences.
type scorer[M any] interface {
	// score returns the consensus of the model, or ok=false when the
	// residual computation produced no valid consensus (NaN residuals or an
	// otherwise numerically singular evaluation).
	score(model M, p Problem[M]) (scoreResult, bool)
}

// thresholdScorer counts correspondences whose residual is at or below the
// threshold. Used by RANSAC and PROSAC.
type thresholdScorer[M any] struct {
	threshold float64
}

func (s *thresholdScorer[M]) score(model M, p Problem[M]) (scoreResult, bool) {
	n := p.NumSamples()
	mask := make([]bool, n)
	count := 0
	for i := 0; i < n; i++ {
		r := p.Residual(model, i)
		if math.IsNaN(r) {
			return scoreResult{}, false
		}
		if r <= s.threshold {
			mask[i] = true
			count++
		}
	}
	return scoreResult{
		consensus:  float64(count),
		mask:       mask,
		numInliers: count,
		scale:      s.threshold,
	}, true
}

// msacScorer sums a saturating loss per correspondence: the squared residual
// below the threshold, the squared threshold above it. The consensus is the
// negated sum, which varies more smoothly with the model than a raw inlier
// count and is less sensitive to the threshold choice.
type msacScorer[M any] struct {
	threshold float64
}

func (s *msacScorer[M]) score(model M, p Problem[M]) (scoreResult, bool) {
	n := p.NumSamples()
	t2 := s.threshold * s.threshold
	mask := make([]bool, n)
	count := 0
	loss := 0.0
	for i := 0; i < n; i++ {
		r := p.Residual(model, i)
		if math.IsNaN(r) {
			return scoreResult{}, false
		}
		if r <= s.threshold {
			mask[i] = true
			count++
			loss += r * r
		} else {
			loss += t2
		}
	}
	return scoreResult{
		consensus:  -loss,
		mask:       mask,
		numInliers: count,
		scale:      s.threshold,
	}, true
}

// medianScorer scores by the median of squared residuals over the full set,
// negated to keep the higher-is-better convention. Inlier membership is
// derived post hoc from a robust scale estimate of the residual distribution.
// With weights set (PROMedS), low-quality correspondences contribute less to
// the median.
type medianScorer[M any] struct {
	minSampleSize int
	weights       []float64 // nil for plain LMedS
}

func (s *medianScorer[M]) score(model M, p Problem[M]) (scoreResult, bool) {
	n := p.NumSamples()
	residuals := make([]float64, n)
	squared := make([]float64, n)
	for i := 0; i < n; i++ {
		r := p.Residual(model, i)
		if math.IsNaN(r) {
			return scoreResult{}, false
		}
		residuals[i] = r
		squared[i] = r * r
	}

	var medSq float64
	if s.weights != nil {
		medSq = utils.WeightedMedian(squared, s.weights)
	} else {
		medSq = utils.Median(squared)
	}
	if math.IsNaN(medSq) || math.IsInf(medSq, 0) {
		return scoreResult{}, false
	}

	sigma := utils.RobustStandardDeviation(medSq, n, s.minSampleSize)
	scale := lmedsInlierFactor * sigma
	mask := make([]bool, n)
	count := 0
	for i, r := range residuals {
		if r <= scale {
			mask[i] = true
			count++
		}
	}
	return scoreResult{
		consensus:  -medSq,
		mask:       mask,
		numInliers: count,
		scale:      scale,
	}, true
}

func newScorer[M any](method Method, threshold float64, minSampleSize int, qualityScores []float64) scorer[M] {
	switch method {
	case MSAC:
		return &msacScorer[M]{threshold: threshold}
	case LMedS:
		return &medianScorer[M]{minSampleSize: minSampleSize}
	case PROMedS:
		return &medianScorer[M]{minSampleSize: minSampleSize, weights: qualityScores}
	default:
		return &thresholdScorer[M]{threshold: threshold}
	}
}
