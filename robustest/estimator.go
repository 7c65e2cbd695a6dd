package robustest

import (
	"math/rand"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"

	"github.com/albertoirurueta/irurueta-geometry-sub012/utils"
)

// Configuration defaults shared by all concrete estimators.
const (
	DefaultConfidence    = 0.99
	DefaultMaxIterations = 5000
	DefaultProgressDelta = 0.05
	DefaultThreshold     = 1e-3
	// DefaultSeed makes runs reproducible out of the box; callers wanting
	// different draws set their own seed.
	DefaultSeed = 1

	// maxDegenerateRetries bounds how many fresh samples one iteration slot
	// may draw when the solver keeps reporting degenerate samples.
	maxDegenerateRetries = 100
)

// Estimator runs the robust estimation loop for one model family. It is
// configured through validating setters, locked for the duration of one
// Estimate call, and exposes the winning inliers and covariance afterward.
type Estimator[M any] struct {
	mu     sync.Mutex
	locked bool

	problem        Problem[M]
	method         Method
	threshold      float64
	confidence     float64
	maxIterations  int
	progressDelta  float64
	qualityScores  []float64
	refineResult   bool
	keepCovariance bool
	seed           int64
	listener       Listener[M]
	logger         golog.Logger

	inliers       *InliersData
	covariance    *mat.SymDense
	resultRefined bool
}

// New returns an estimator for the given problem and method with default
// configuration. A nil problem leaves the estimator in the not-ready state
// until SetProblem is called.
func New[M any](problem Problem[M], method Method) *Estimator[M] {
	return &Estimator[M]{
		problem:       problem,
		method:        method,
		threshold:     DefaultThreshold,
		confidence:    DefaultConfidence,
		maxIterations: DefaultMaxIterations,
		progressDelta: DefaultProgressDelta,
		seed:          DefaultSeed,
	}
}

// Method returns the configured consensus method.
func (e *Estimator[M]) Method() Method {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.method
}

// SetMethod changes the consensus method.
func (e *Estimator[M]) SetMethod(method Method) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return ErrLocked
	}
	if method < RANSAC || method > PROMedS {
		return errors.Errorf("unknown method %d", method)
	}
	e.method = method
	return nil
}

// SetProblem replaces the model-fitting collaborator. A nil problem clears it
// and leaves the estimator not ready.
func (e *Estimator[M]) SetProblem(problem Problem[M]) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return ErrLocked
	}
	if problem != nil && e.qualityScores != nil && len(e.qualityScores) != problem.NumSamples() {
		return errors.Errorf("problem has %d correspondences but %d quality scores are set",
			problem.NumSamples(), len(e.qualityScores))
	}
	e.problem = problem
	return nil
}

// SetThreshold sets the residual threshold used by RANSAC, MSAC and PROSAC.
// It must be greater than zero. LMedS and PROMedS ignore it.
func (e *Estimator[M]) SetThreshold(threshold float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return ErrLocked
	}
	if threshold <= 0 {
		return errors.Errorf("threshold must be greater than zero, got %v", threshold)
	}
	e.threshold = threshold
	return nil
}

// SetConfidence sets the target probability of finding an outlier-free
// sample; must be in (0, 1].
func (e *Estimator[M]) SetConfidence(confidence float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return ErrLocked
	}
	if confidence <= 0 || confidence > 1 {
		return errors.Errorf("confidence must be in (0, 1], got %v", confidence)
	}
	e.confidence = confidence
	return nil
}

// SetMaxIterations sets the hard iteration cap; must be at least one.
func (e *Estimator[M]) SetMaxIterations(maxIterations int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return ErrLocked
	}
	if maxIterations < 1 {
		return errors.Errorf("max iterations must be at least 1, got %d", maxIterations)
	}
	e.maxIterations = maxIterations
	return nil
}

// SetProgressDelta sets the minimum progress change between two progress
// notifications; must be in [0, 1].
func (e *Estimator[M]) SetProgressDelta(delta float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return ErrLocked
	}
	if delta < 0 || delta > 1 {
		return errors.Errorf("progress delta must be in [0, 1], got %v", delta)
	}
	e.progressDelta = delta
	return nil
}

// SetQualityScores sets per-correspondence reliability priors; higher means
// more reliable. The length must match the problem's correspondence count.
// Required by PROSAC and PROMedS; nil clears them.
func (e *Estimator[M]) SetQualityScores(scores []float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return ErrLocked
	}
	if scores == nil {
		e.qualityScores = nil
		return nil
	}
	if e.problem != nil && len(scores) != e.problem.NumSamples() {
		return errors.Errorf("expected %d quality scores but got %d",
			e.problem.NumSamples(), len(scores))
	}
	e.qualityScores = make([]float64, len(scores))
	copy(e.qualityScores, scores)
	return nil
}

// SetRefineResult enables nonlinear refinement of the winning model over its
// inliers. Requires the problem to implement Refinable.
func (e *Estimator[M]) SetRefineResult(refine bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return ErrLocked
	}
	e.refineResult = refine
	return nil
}

// SetKeepCovariance enables covariance propagation of the refined parameters.
// Only has an effect when refinement is enabled and succeeds.
func (e *Estimator[M]) SetKeepCovariance(keep bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return ErrLocked
	}
	e.keepCovariance = keep
	return nil
}

// SetSeed sets the random seed for sampling, making runs reproducible.
func (e *Estimator[M]) SetSeed(seed int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return ErrLocked
	}
	e.seed = seed
	return nil
}

// SetListener sets the estimation listener; nil clears it.
func (e *Estimator[M]) SetListener(listener Listener[M]) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return ErrLocked
	}
	e.listener = listener
	return nil
}

// SetLogger sets the logger used for non-fatal events such as refinement
// failures; nil silences them.
func (e *Estimator[M]) SetLogger(logger golog.Logger) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return ErrLocked
	}
	e.logger = logger
	return nil
}

// IsReady reports whether the estimator holds enough consistent data to run.
func (e *Estimator[M]) IsReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.readyLocked()
}

// IsLocked reports whether an estimation run is in progress.
func (e *Estimator[M]) IsLocked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.locked
}

// Inliers returns the inlier data of the last successful run, or nil.
func (e *Estimator[M]) Inliers() *InliersData {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inliers
}

// Covariance returns the parameter covariance of the last successful run, or
// nil when covariance was not kept or refinement did not succeed.
func (e *Estimator[M]) Covariance() *mat.SymDense {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.covariance
}

// IsResultRefined reports whether the last returned model went through a
// successful refinement.
func (e *Estimator[M]) IsResultRefined() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resultRefined
}

// IsCovarianceKept reports whether covariance propagation is enabled.
func (e *Estimator[M]) IsCovarianceKept() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.keepCovariance
}

func (e *Estimator[M]) readyLocked() bool {
	if e.problem == nil {
		return false
	}
	n := e.problem.NumSamples()
	if n < e.problem.MinSampleSize() {
		return false
	}
	if e.qualityScores != nil && len(e.qualityScores) != n {
		return false
	}
	if e.method.usesQualityScores() && e.qualityScores == nil {
		return false
	}
	return true
}

// runConfig is the run-scoped snapshot of the configuration, taken under the
// lock so the loop never reads estimator fields concurrently with accessors.
type runConfig[M any] struct {
	problem        Problem[M]
	method         Method
	threshold      float64
	confidence     float64
	maxIterations  int
	progressDelta  float64
	qualityScores  []float64
	refineResult   bool
	keepCovariance bool
	seed           int64
	listener       Listener[M]
	logger         golog.Logger
}

// Estimate runs the consensus loop and returns the model with the best
// consensus, optionally refined. It fails with ErrNotReady or ErrLocked
// before any sampling happens, and with an error wrapping ErrEstimation when
// no acceptable model is found. The lock is always released before return.
func (e *Estimator[M]) Estimate() (M, error) {
	var zero M
	e.mu.Lock()
	if e.locked {
		e.mu.Unlock()
		return zero, ErrLocked
	}
	if !e.readyLocked() {
		e.mu.Unlock()
		return zero, ErrNotReady
	}
	e.locked = true
	e.inliers = nil
	e.covariance = nil
	e.resultRefined = false
	cfg := runConfig[M]{
		problem:        e.problem,
		method:         e.method,
		threshold:      e.threshold,
		confidence:     e.confidence,
		maxIterations:  e.maxIterations,
		progressDelta:  e.progressDelta,
		qualityScores:  e.qualityScores,
		refineResult:   e.refineResult,
		keepCovariance: e.keepCovariance,
		seed:           e.seed,
		listener:       e.listener,
		logger:         e.logger,
	}
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.locked = false
		e.mu.Unlock()
	}()

	if cfg.listener != nil {
		cfg.listener.OnEstimateStart(e)
	}
	model, inliers, cov, refined, err := e.run(&cfg)
	if err == nil {
		e.mu.Lock()
		e.inliers = inliers
		e.covariance = cov
		e.resultRefined = refined
		e.mu.Unlock()
	}
	if cfg.listener != nil {
		cfg.listener.OnEstimateEnd(e)
	}
	if err != nil {
		return zero, err
	}
	return model, nil
}

func (e *Estimator[M]) run(cfg *runConfig[M]) (M, *InliersData, *mat.SymDense, bool, error) {
	var zero M
	prob := cfg.problem
	minSize := prob.MinSampleSize()
	numSamples := prob.NumSamples()
	sc := newScorer[M](cfg.method, cfg.threshold, minSize, cfg.qualityScores)

	var best M
	var bestScore scoreResult
	hasBest := false

	if numSamples == minSize {
		// the whole set is the one and only possible sample; no searching
		all := make([]int, minSize)
		for i := range all {
			all[i] = i
		}
		models, err := prob.Fit(all)
		if err != nil {
			return zero, nil, nil, false, multierr.Combine(
				errors.Wrap(ErrEstimation, "minimal correspondence set is degenerate"), err)
		}
		if len(models) == 0 {
			return zero, nil, nil, false,
				errors.Wrap(ErrEstimation, "minimal correspondence set is degenerate")
		}
		for _, model := range models {
			res, ok := sc.score(model, prob)
			if !ok {
				continue
			}
			if !hasBest || res.consensus > bestScore.consensus {
				best, bestScore, hasBest = model, res, true
			}
		}
	} else {
		rng := rand.New(rand.NewSource(cfg.seed))
		ctrl := newIterationController(cfg.method, cfg.confidence, cfg.maxIterations, minSize)
		var smp sampler
		var progressive *prosacSampler
		if cfg.method.usesQualityScores() {
			progressive = newProsacSampler(cfg.qualityScores, minSize, cfg.maxIterations)
			smp = progressive
		} else {
			smp = &uniformSampler{numSamples: numSamples, minSampleSize: minSize}
		}

		lastProgress := 0.0
		var sampleErrs error
		for iteration := 0; ; iteration++ {
			var models []M
			found := false
			for retry := 0; retry < maxDegenerateRetries; retry++ {
				indices := smp.nextSample(rng)
				fitted, err := prob.Fit(indices)
				if err != nil {
					sampleErrs = multierr.Append(sampleErrs, err)
					continue
				}
				if len(fitted) == 0 {
					continue
				}
				models = fitted
				found = true
				break
			}
			if !found {
				return zero, nil, nil, false, multierr.Combine(
					errors.Wrapf(ErrEstimation,
						"no non-degenerate sample found within %d retries", maxDegenerateRetries),
					sampleErrs)
			}

			for _, model := range models {
				res, ok := sc.score(model, prob)
				if !ok {
					continue
				}
				// first best wins: only a strictly better consensus replaces
				if !hasBest || res.consensus > bestScore.consensus {
					best, bestScore, hasBest = model, res, true
					ctrl.update(float64(res.numInliers) / float64(numSamples))
				}
			}

			if cfg.listener != nil {
				cfg.listener.OnEstimateNextIteration(e, iteration)
				progress := utils.Clamp(
					float64(iteration+1)/float64(ctrl.requiredIterations()), 0, 1)
				if progress-lastProgress >= cfg.progressDelta {
					lastProgress = progress
					cfg.listener.OnEstimateProgressChange(e, progress)
				}
			}

			// Early termination requires the best support to be non-random
			// both within the current sampling prefix and over the full set;
			// the full-set bound keeps a handful of high-quality decoys from
			// ending the search the adaptive bound would otherwise continue.
			if hasBest && progressive != nil &&
				nonRandomnessSatisfied(progressive.inliersInPrefix(bestScore.mask),
					progressive.prefixSize(), minSize) &&
				nonRandomnessSatisfied(bestScore.numInliers, numSamples, minSize) {
				break
			}
			if ctrl.done(iteration) {
				break
			}
		}
	}

	if !hasBest {
		return zero, nil, nil, false,
			errors.Wrap(ErrEstimation, "no candidate model achieved a valid consensus")
	}

	inliers := &InliersData{
		mask:       bestScore.mask,
		numInliers: bestScore.numInliers,
		threshold:  bestScore.scale,
		consensus:  bestScore.consensus,
	}
	refined := false
	var cov *mat.SymDense
	if cfg.refineResult {
		refModel, refInliers, refCov, err := refineModel(cfg, sc, best, inliers)
		if err != nil {
			if cfg.logger != nil {
				cfg.logger.Debugw("refinement failed, keeping consensus model", "error", err)
			}
		} else {
			best = refModel
			inliers = refInliers
			refined = true
			cov = refCov
		}
	}
	return best, inliers, cov, refined, nil
}
