// Package distance provides the descriptor metrics used to build and
// descend vocabulary trees.
package distance

import (
	"fmt"

	"github.com/hupe1980/dbow/internal/math32"
)

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	return math32.SquaredL2(a, b)
}

// Hamming calculates the Hamming distance between two byte-packed binary
// descriptors, one byte (0..255) per element.
// Assumes vectors are the same length (caller's responsibility).
func Hamming(a, b []float32) float32 {
	return float32(math32.HammingBytes(a, b))
}

// Metric represents the distance metric used for descriptor comparison.
type Metric int

const (
	// MetricL2 compares real-valued descriptors (SIFT, SURF) by squared
	// Euclidean distance. Cluster centres are arithmetic means.
	MetricL2 Metric = iota
	// MetricHamming compares binary descriptors (ORB, BRIEF) stored one byte
	// per element. Cluster centres are per-bit majority votes.
	MetricHamming
)

// Valid reports whether m is a supported metric.
func (m Metric) Valid() bool {
	return m == MetricL2 || m == MetricHamming
}

func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "L2"
	case MetricHamming:
		return "Hamming"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// ParseMetric parses the String form of a metric (case as printed, or lower case).
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "L2", "l2":
		return MetricL2, nil
	case "Hamming", "hamming":
		return MetricHamming, nil
	default:
		return 0, fmt.Errorf("unknown metric %q", s)
	}
}

// Func is a function type for distance calculation.
type Func func(a, b []float32) float32

// MeanFunc writes the cluster centre of vectors into dst.
// len(vectors) must be > 0 and every vector must have len(dst) elements.
type MeanFunc func(dst []float32, vectors [][]float32)

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricL2:
		return SquaredL2, nil
	case MetricHamming:
		return Hamming, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}

// MeanProvider returns the cluster centre function for the given metric.
func MeanProvider(m Metric) (MeanFunc, error) {
	switch m {
	case MetricL2:
		return Mean, nil
	case MetricHamming:
		return MajorityBits, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}

// Mean writes the arithmetic mean of vectors into dst.
func Mean(dst []float32, vectors [][]float32) {
	acc := make([]float64, len(dst))
	for _, v := range vectors {
		math32.AddTo(acc, v)
	}
	inv := 1 / float64(len(vectors))
	for i := range dst {
		dst[i] = float32(acc[i] * inv)
	}
}

// MajorityBits writes the per-bit majority of byte-packed binary vectors
// into dst. A bit is set when at least half (rounded up) of the vectors
// have it set.
func MajorityBits(dst []float32, vectors [][]float32) {
	n := len(vectors)
	half := n/2 + n%2
	counts := make([]int, len(dst)*8)
	for _, v := range vectors {
		for i, x := range v {
			b := uint8(x)
			for bit := 0; bit < 8; bit++ {
				if b&(1<<bit) != 0 {
					counts[i*8+bit]++
				}
			}
		}
	}
	for i := range dst {
		var b uint8
		for bit := 0; bit < 8; bit++ {
			if counts[i*8+bit] >= half {
				b |= 1 << bit
			}
		}
		dst[i] = float32(b)
	}
}
