package robustest

import (
	"math"

	"github.com/go-nlopt/nlopt"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
)

const (
	refineFtol     = 1e-14
	refineXtol     = 1e-12
	refineMaxEvals = 2000
	// refineJump is the forward-difference step for numeric gradients and
	// Jacobians.
	refineJump = 1e-8
	// refineBadCost stands in for an invalid parameter vector; nlopt handles
	// large finite costs better than infinities.
	refineBadCost = 1e30
)

// refineModel re-fits the winning model over its inliers with a nonlinear
// least-squares solve, weighting residuals by quality score when present. The
// refined model is accepted only when its consensus under the same scorer is
// at least that of the consensus model; any failure is reported to the caller
// and treated as non-fatal there.
func refineModel[M any](cfg *runConfig[M], sc scorer[M], best M, inliers *InliersData) (M, *InliersData, *mat.SymDense, error) {
	var zero M
	ref, ok := cfg.problem.(Refinable[M])
	if !ok {
		return zero, nil, nil, errors.New("problem does not expose refinable parameters")
	}
	indices := inliers.inlierIndices()
	if len(indices) < cfg.problem.MinSampleSize() {
		return zero, nil, nil, errors.Errorf(
			"only %d inliers, need at least %d to refine", len(indices), cfg.problem.MinSampleSize())
	}
	weights := make([]float64, len(indices))
	for k, i := range indices {
		if cfg.qualityScores != nil {
			weights[k] = cfg.qualityScores[i]
		} else {
			weights[k] = 1
		}
	}

	params := ref.Params(best)
	dim := len(params)
	if dim == 0 {
		return zero, nil, nil, errors.New("model has no refinable parameters")
	}

	cost := func(p []float64) float64 {
		model, err := ref.FromParams(p)
		if err != nil {
			return refineBadCost
		}
		sum := 0.0
		for k, i := range indices {
			r := cfg.problem.Residual(model, i)
			if math.IsNaN(r) {
				return refineBadCost
			}
			sum += weights[k] * r * r
		}
		return sum
	}

	opt, err := nlopt.NewNLopt(nlopt.LD_SLSQP, uint(dim))
	if err != nil {
		return zero, nil, nil, errors.Wrap(err, "nlopt creation error")
	}
	defer opt.Destroy()

	// Gradient is computed by forward differences inside the objective.
	objective := func(x, gradient []float64) float64 {
		f := cost(x)
		if gradient != nil {
			xs := make([]float64, len(x))
			copy(xs, x)
			for j := range gradient {
				xs[j] += refineJump
				gradient[j] = (cost(xs) - f) / refineJump
				xs[j] = x[j]
			}
		}
		return f
	}

	err = multierr.Combine(
		opt.SetFtolRel(refineFtol),
		opt.SetFtolAbs(refineFtol),
		opt.SetXtolRel(refineXtol),
		opt.SetMinObjective(objective),
		opt.SetMaxEval(refineMaxEvals),
	)
	if err != nil {
		return zero, nil, nil, errors.Wrap(err, "nlopt configuration error")
	}

	solution, _, err := opt.Optimize(params)
	if err != nil {
		return zero, nil, nil, errors.Wrap(err, "nlopt optimization error")
	}
	refModel, err := ref.FromParams(solution)
	if err != nil {
		return zero, nil, nil, errors.Wrap(err, "refined parameters are invalid")
	}

	res, ok := sc.score(refModel, cfg.problem)
	if !ok {
		return zero, nil, nil, errors.New("refined model has no valid consensus")
	}
	if res.consensus < inliers.consensus {
		return zero, nil, nil, errors.Errorf(
			"refined model consensus %v is worse than %v", res.consensus, inliers.consensus)
	}
	refInliers := &InliersData{
		mask:       res.mask,
		numInliers: res.numInliers,
		threshold:  res.scale,
		consensus:  res.consensus,
	}

	var cov *mat.SymDense
	if cfg.keepCovariance {
		cov, err = covarianceFromFit(ref, cfg.problem, solution, indices, weights)
		if err != nil {
			if cfg.logger != nil {
				cfg.logger.Debugw("covariance estimation failed", "error", err)
			}
			cov = nil
		}
	}
	return refModel, refInliers, cov, nil
}

// covarianceFromFit propagates the refined fit's normal-equation covariance
// into parameter space: cov = sigma^2 * (J^T W J)^-1 with J the numeric
// Jacobian of the inlier residuals at the refined parameters and sigma^2 the
// weighted residual variance.
func covarianceFromFit[M any](ref Refinable[M], prob Problem[M], params []float64, indices []int, weights []float64) (*mat.SymDense, error) {
	dim := len(params)
	numInliers := len(indices)
	if numInliers <= dim {
		return nil, errors.Errorf(
			"%d inliers cannot constrain a %d-parameter covariance", numInliers, dim)
	}

	model, err := ref.FromParams(params)
	if err != nil {
		return nil, err
	}
	r0 := make([]float64, numInliers)
	for k, i := range indices {
		r0[k] = prob.Residual(model, i)
	}

	jac := mat.NewDense(numInliers, dim, nil)
	xs := make([]float64, dim)
	copy(xs, params)
	for j := 0; j < dim; j++ {
		xs[j] += refineJump
		mj, err := ref.FromParams(xs)
		if err != nil {
			return nil, errors.Wrap(err, "jacobian evaluation failed")
		}
		for k, i := range indices {
			jac.Set(k, j, (prob.Residual(mj, i)-r0[k])/refineJump)
		}
		xs[j] = params[j]
	}

	// weighted normal matrix J^T W J and weighted residual variance
	weighted := mat.NewDense(numInliers, dim, nil)
	ssr := 0.0
	for k := range indices {
		for j := 0; j < dim; j++ {
			weighted.Set(k, j, weights[k]*jac.At(k, j))
		}
		ssr += weights[k] * r0[k] * r0[k]
	}
	normal := mat.NewDense(dim, dim, nil)
	normal.Mul(jac.T(), weighted)

	var inv mat.Dense
	if err := inv.Inverse(normal); err != nil {
		return nil, errors.Wrap(err, "singular normal matrix")
	}
	sigma2 := ssr / float64(numInliers-dim)
	cov := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			cov.SetSym(i, j, sigma2*0.5*(inv.At(i, j)+inv.At(j, i)))
		}
	}
	return cov, nil
}
