package robustest

import "github.com/pkg/errors"

var (
	// ErrNotReady is returned by Estimate when no correspondence set is
	// present, the set is smaller than the minimal sample size, or the
	// configuration is inconsistent with it.
	ErrNotReady = errors.New("estimator is not ready")
	// ErrLocked is returned by Estimate and every mutator while an
	// estimation run is in progress.
	ErrLocked = errors.New("estimator is locked")
	// ErrEstimation is the base error for a failed run: no non-degenerate
	// sample within the retry budget, no candidate from any sample, or no
	// valid consensus.
	ErrEstimation = errors.New("estimation failed")
)
