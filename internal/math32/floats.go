// Package math32 provides float32 vector kernels used by the distance
// package and the k-means trainer.
// This is an internal package - external users should use the distance package.
package math32

import (
	"math"
	"math/bits"
)

// Dot calculates the dot product of two vectors.
func Dot(a, b []float32) float32 {
	var ret float32
	for i := range a {
		ret += a[i] * b[i]
	}
	return ret
}

// SquaredL2 calculates the squared L2 distance.
// Accumulates in float64 so high-dimensional descriptors do not lose
// precision when distances are compared for nearest-centroid selection.
func SquaredL2(a, b []float32) float32 {
	var distance float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		distance += d * d
	}
	return float32(distance)
}

// HammingBytes counts differing bits between two vectors whose elements
// each carry one byte (0..255) of a packed binary descriptor.
func HammingBytes(a, b []float32) int {
	n := 0
	for i := range a {
		n += bits.OnesCount8(uint8(a[i]) ^ uint8(b[i]))
	}
	return n
}

// ScaleInPlace multiplies all elements of a by scalar.
func ScaleInPlace(a []float32, scalar float32) {
	for i := range a {
		a[i] *= scalar
	}
}

// AddTo accumulates src into dst (dst[i] += src[i]).
func AddTo(dst []float64, src []float32) {
	for i := range src {
		dst[i] += float64(src[i])
	}
}

// Sqrt returns the square root of x.
func Sqrt(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}
