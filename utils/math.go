// Package utils contains shared numeric helpers used by the estimation packages.
package utils

import (
	"math"
	"math/rand"
	"sort"
)

// Clamp returns min if value is less than min, max if it is greater than max, or
// the value otherwise.
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// SampleRandomIntRange samples a random integer within a range given by [min, max]
// using the given rand.Rand.
func SampleRandomIntRange(min, max int, r *rand.Rand) int {
	return r.Intn(max-min+1) + min
}

// RandomSampleIndices returns k distinct indices drawn uniformly from [0, n)
// using a partial Fisher-Yates shuffle of a scratch index slice.
func RandomSampleIndices(n, k int, r *rand.Rand) []int {
	if k > n {
		k = n
	}
	scratch := make([]int, n)
	for i := range scratch {
		scratch[i] = i
	}
	for i := 0; i < k; i++ {
		j := SampleRandomIntRange(i, n-1, r)
		scratch[i], scratch[j] = scratch[j], scratch[i]
	}
	return scratch[:k]
}

// Median returns the median of values. It sorts a copy, leaving the input
// untouched. Returns NaN for an empty slice.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return 0.5 * (sorted[n/2-1] + sorted[n/2])
}

// WeightedMedian returns the value at which the cumulative weight reaches half
// of the total weight. Weights must be non-negative and the slices must have
// equal length. Returns NaN for empty input or zero total weight.
func WeightedMedian(values, weights []float64) float64 {
	n := len(values)
	if n == 0 || len(weights) != n {
		return math.NaN()
	}
	type pair struct {
		v, w float64
	}
	pairs := make([]pair, n)
	total := 0.0
	for i := range values {
		pairs[i] = pair{values[i], weights[i]}
		total += weights[i]
	}
	if total <= 0 {
		return math.NaN()
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].v < pairs[j].v })
	half := 0.5 * total
	cum := 0.0
	for _, p := range pairs {
		cum += p.w
		if cum >= half {
			return p.v
		}
	}
	return pairs[n-1].v
}

// RobustStandardDeviation estimates the standard deviation of inlier residuals
// from the median of squared residuals, using the consistency factor 1.4826
// with the small-sample correction 1 + 5/(n - minSampleSize).
func RobustStandardDeviation(medianSquaredResidual float64, numSamples, minSampleSize int) float64 {
	correction := 1.0
	if numSamples > minSampleSize {
		correction = 1.0 + 5.0/float64(numSamples-minSampleSize)
	}
	return 1.4826 * correction * math.Sqrt(medianSquaredResidual)
}
