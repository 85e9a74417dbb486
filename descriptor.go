package dbow

import (
	"math"
	"slices"

	"github.com/hupe1980/dbow/distance"
)

// Descriptor is a fixed-length local feature descriptor.
//
// Real-valued descriptors (SIFT, SURF) are compared with distance.MetricL2.
// Binary descriptors (ORB, BRIEF) are stored one byte per element, each
// element holding an integer in [0, 255], and compared with
// distance.MetricHamming.
type Descriptor []float32

// Clone returns a copy of d.
func (d Descriptor) Clone() Descriptor {
	return slices.Clone(d)
}

// checkDescriptor validates d against the expected length and metric.
func checkDescriptor(d Descriptor, dim int, metric distance.Metric) error {
	if len(d) == 0 {
		return invalidInputf("zero-length descriptor")
	}
	if len(d) != dim {
		return &ErrDimensionMismatch{Expected: dim, Actual: len(d)}
	}
	for _, x := range d {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return invalidInputf("descriptor holds non-finite value %v", x)
		}
		if metric == distance.MetricHamming && (x < 0 || x > 255 || x != float32(math.Trunc(float64(x)))) {
			return invalidInputf("binary descriptor element %v is not a byte", x)
		}
	}
	return nil
}
