package robustest

// InliersData is the read-only artifact of one completed estimation run:
// which correspondences supported the winning model, the effective threshold
// or robust scale that decided membership, and the consensus achieved.
type InliersData struct {
	mask       []bool
	numInliers int
	threshold  float64
	consensus  float64
}

// IsInlier reports whether the correspondence at index i supported the
// winning model. Out-of-range indices report false.
func (d *InliersData) IsInlier(i int) bool {
	if i < 0 || i >= len(d.mask) {
		return false
	}
	return d.mask[i]
}

// NumInliers returns how many correspondences supported the winning model.
func (d *InliersData) NumInliers() int {
	return d.numInliers
}

// Threshold returns the effective residual threshold used for inlier
// membership. For LMedS and PROMedS this is the robust scale multiple derived
// from the residual distribution rather than a configured value.
func (d *InliersData) Threshold() float64 {
	return d.threshold
}

// Consensus returns the consensus score of the winning model. Higher is
// better across all methods; median-based methods store the negated median.
func (d *InliersData) Consensus() float64 {
	return d.consensus
}

// Mask returns a copy of the per-correspondence inlier membership.
func (d *InliersData) Mask() []bool {
	out := make([]bool, len(d.mask))
	copy(out, d.mask)
	return out
}

func (d *InliersData) inlierIndices() []int {
	out := make([]int, 0, d.numInliers)
	for i, in := range d.mask {
		if in {
			out = append(out, i)
		}
	}
	return out
}
