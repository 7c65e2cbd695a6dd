package robustest

import (
	"math/rand"
	"testing"

	"go.viam.com/test"
)

func TestUniformSampler(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	s := &uniformSampler{numSamples: 30, minSampleSize: 4}
	test.That(t, s.prefixSize(), test.ShouldEqual, 30)
	counts := make([]int, 30)
	for i := 0; i < 500; i++ {
		sample := s.nextSample(rng)
		test.That(t, sample, test.ShouldHaveLength, 4)
		seen := map[int]bool{}
		for _, idx := range sample {
			test.That(t, seen[idx], test.ShouldBeFalse)
			seen[idx] = true
			counts[idx]++
		}
	}
	// uniform choice touches the whole set
	for _, c := range counts {
		test.That(t, c, test.ShouldBeGreaterThan, 0)
	}
}

func TestProsacSamplerProgressiveGrowth(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := 50
	scores := make([]float64, n)
	for i := range scores {
		// quality descends with the index, so the sorted order is identity
		scores[i] = float64(n - i)
	}
	s := newProsacSampler(scores, 3, 1000)
	test.That(t, s.prefixSize(), test.ShouldEqual, 3)

	prevPrefix := s.prefixSize()
	maxSeen := 0
	for i := 0; i < 200; i++ {
		sample := s.nextSample(rng)
		test.That(t, sample, test.ShouldHaveLength, 3)
		seen := map[int]bool{}
		for _, idx := range sample {
			test.That(t, seen[idx], test.ShouldBeFalse)
			seen[idx] = true
			// samples stay within the active prefix
			test.That(t, idx, test.ShouldBeLessThan, s.prefixSize())
			if idx > maxSeen {
				maxSeen = idx
			}
		}
		// the prefix grows monotonically
		test.That(t, s.prefixSize(), test.ShouldBeGreaterThanOrEqualTo, prevPrefix)
		prevPrefix = s.prefixSize()
	}
	// early iterations were biased toward high-quality items, but growth
	// eventually exposed lower-quality ones
	test.That(t, maxSeen, test.ShouldBeGreaterThan, 3)
}

func TestProsacSamplerInliersInPrefix(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	// identity sorted order: quality descends with the index
	scores := []float64{9, 8, 7, 6, 5, 4, 3, 2}
	s := newProsacSampler(scores, 2, 100)

	mask := []bool{true, false, true, true, false, true, true, true}
	// initial prefix holds the top two items, only one of which is an inlier
	test.That(t, s.prefixSize(), test.ShouldEqual, 2)
	test.That(t, s.inliersInPrefix(mask), test.ShouldEqual, 1)

	// once the prefix spans the full set the count matches the whole mask
	for i := 0; i < 100; i++ {
		s.nextSample(rng)
	}
	test.That(t, s.prefixSize(), test.ShouldEqual, len(scores))
	test.That(t, s.inliersInPrefix(mask), test.ShouldEqual, 6)
}

func TestProsacSamplerFirstSampleIsTopQuality(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	// quality ascends with index: best items are at the end
	scores := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	s := newProsacSampler(scores, 2, 100)
	sample := s.nextSample(rng)
	test.That(t, sample, test.ShouldHaveLength, 2)
	for _, idx := range sample {
		// the first sample comes from the two highest-quality items
		test.That(t, idx, test.ShouldBeGreaterThanOrEqualTo, 8)
	}
}
