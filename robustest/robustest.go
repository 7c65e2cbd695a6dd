// Package robustest implements robust model estimation over correspondence
// data contaminated by outliers. A generic consensus engine repeatedly draws
// minimal samples, fits candidate models through a pluggable solver, scores
// each candidate against the full data set, and keeps the candidate with the
// best consensus, optionally followed by nonlinear refinement and covariance
// estimation over the inliers.
//
// Concrete geometry packages (plane, conic, transform, camera) plug into the
// engine by implementing Problem and, optionally, Refinable.
package robustest

// Method selects the consensus strategy used by an Estimator.
type Method int

// Supported robust estimation methods.
const (
	// RANSAC counts the correspondences whose residual is at or below the
	// configured threshold.
	RANSAC Method = iota
	// LMedS minimizes the median of squared residuals and needs no threshold.
	LMedS
	// MSAC sums a truncated squared-residual loss, saturating at the
	// squared threshold.
	MSAC
	// PROSAC scores like RANSAC but samples progressively from the
	// highest-quality correspondences first.
	PROSAC
	// PROMedS samples like PROSAC and scores with a quality-weighted
	// median of squared residuals.
	PROMedS
)

func (m Method) String() string {
	switch m {
	case RANSAC:
		return "RANSAC"
	case LMedS:
		return "LMedS"
	case MSAC:
		return "MSAC"
	case PROSAC:
		return "PROSAC"
	case PROMedS:
		return "PROMedS"
	default:
		return "Unknown"
	}
}

// usesThreshold reports whether the method scores against a residual threshold.
func (m Method) usesThreshold() bool {
	switch m {
	case RANSAC, MSAC, PROSAC:
		return true
	default:
		return false
	}
}

// usesQualityScores reports whether the method requires per-correspondence
// quality scores to drive progressive sampling.
func (m Method) usesQualityScores() bool {
	return m == PROSAC || m == PROMedS
}

// Problem is the model-fitting capability each concrete geometry module
// supplies to the engine. The implementation owns the correspondence set; the
// engine only sees it through indices.
type Problem[M any] interface {
	// MinSampleSize returns the number of correspondences needed to compute
	// one candidate model.
	MinSampleSize() int
	// NumSamples returns the size of the correspondence set.
	NumSamples() int
	// Fit computes zero or more candidate models from the correspondences at
	// the given indices. A degenerate sample yields an empty slice or an
	// error; both make the engine redraw.
	Fit(indices []int) ([]M, error)
	// Residual returns the non-negative distance of the correspondence at
	// index i from the given model.
	Residual(model M, i int) float64
}

// Refinable is an optional capability of a Problem that exposes the model as
// a flat parameter vector, enabling the nonlinear refinement and covariance
// stages.
type Refinable[M any] interface {
	// Params flattens a model into an optimization parameter vector.
	Params(model M) []float64
	// FromParams rebuilds a model from a parameter vector, applying any
	// normalization the model family requires.
	FromParams(params []float64) (M, error)
}

// Listener receives synchronous notifications on the estimating goroutine.
// Callbacks may read estimator state; mutating calls and reentrant Estimate
// calls fail with ErrLocked.
type Listener[M any] interface {
	OnEstimateStart(e *Estimator[M])
	OnEstimateEnd(e *Estimator[M])
	OnEstimateNextIteration(e *Estimator[M], iteration int)
	OnEstimateProgressChange(e *Estimator[M], progress float64)
}
