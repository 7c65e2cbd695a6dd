package robustest

import (
	"math"
	"math/rand"
	"sort"

	"github.com/albertoirurueta/irurueta-geometry-sub012/utils"
)

// sampler produces minimal samples as index sets into the correspondence set.
type sampler interface {
	// nextSample returns minSampleSize distinct indices for the next
	// iteration.
	nextSample(rng *rand.Rand) []int
	// prefixSize returns how many correspondences are currently eligible for
	// sampling. Uniform samplers always report the full set.
	prefixSize() int
}

// uniformSampler draws each sample uniformly at random without replacement,
// with no history dependency. Used by RANSAC, LMedS and MSAC.
type uniformSampler struct {
	numSamples    int
	minSampleSize int
}

func (s *uniformSampler) nextSample(rng *rand.Rand) []int {
	return utils.RandomSampleIndices(s.numSamples, s.minSampleSize, rng)
}

func (s *uniformSampler) prefixSize() int {
	return s.numSamples
}

// prosacSampler implements PROSAC progressive sampling: correspondences are
// sorted once by descending quality and early samples are restricted to a
// growing prefix of the highest-quality items. Within the active prefix the
// newest element (the prefix boundary) is taken deterministically and the
// remaining members are drawn at random from the rest of the prefix. Shared
// by PROSAC and PROMedS, which differ only in scoring.
type prosacSampler struct {
	order         []int // correspondence indices sorted by descending quality
	minSampleSize int

	n       int     // current prefix length
	t       int     // samples drawn so far
	tn      float64 // T_n: expected samples drawn entirely from the top n
	tnPrime int     // T'_n: growth schedule boundary for the current prefix
}

// newProsacSampler builds the progressive sampler. totalBudget is the planned
// number of samples over which the prefix grows toward the full set, normally
// the configured maximum iterations.
func newProsacSampler(qualityScores []float64, minSampleSize, totalBudget int) *prosacSampler {
	n := len(qualityScores)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return qualityScores[order[i]] > qualityScores[order[j]]
	})

	// T_m = budget * C(m,m)/C(n,m) = budget * prod_{i=0..m-1} (m-i)/(n-i)
	tn := float64(totalBudget)
	for i := 0; i < minSampleSize; i++ {
		tn *= float64(minSampleSize-i) / float64(n-i)
	}
	return &prosacSampler{
		order:         order,
		minSampleSize: minSampleSize,
		n:             minSampleSize,
		tn:            tn,
		tnPrime:       1,
	}
}

func (s *prosacSampler) nextSample(rng *rand.Rand) []int {
	s.t++
	for s.t > s.tnPrime && s.n < len(s.order) {
		tnNext := s.tn * float64(s.n+1) / float64(s.n+1-s.minSampleSize)
		s.tnPrime += int(math.Ceil(tnNext - s.tn))
		s.tn = tnNext
		s.n++
	}

	sample := make([]int, 0, s.minSampleSize)
	if s.t > s.tnPrime || s.n == len(s.order) {
		// schedule exhausted for this prefix: draw the whole sample from it
		for _, j := range utils.RandomSampleIndices(s.n, s.minSampleSize, rng) {
			sample = append(sample, s.order[j])
		}
		return sample
	}
	// prefix boundary element is deterministic, the rest is random below it
	for _, j := range utils.RandomSampleIndices(s.n-1, s.minSampleSize-1, rng) {
		sample = append(sample, s.order[j])
	}
	sample = append(sample, s.order[s.n-1])
	return sample
}

func (s *prosacSampler) prefixSize() int {
	return s.n
}

// inliersInPrefix counts the mask's inliers among the current sampling
// prefix, the subset the non-randomness termination test is defined over.
func (s *prosacSampler) inliersInPrefix(mask []bool) int {
	count := 0
	for _, idx := range s.order[:s.n] {
		if mask[idx] {
			count++
		}
	}
	return count
}
