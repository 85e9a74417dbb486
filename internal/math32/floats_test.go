package math32

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDot(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Positive values", []float32{1, 2, 3}, []float32{4, 5, 6}, 32.0},
		{"Negative values", []float32{-1, -2, -3}, []float32{-4, -5, -6}, 32.0},
		{"More than 4", []float32{1, 2, 3, 1, 2, 3}, []float32{4, 5, 6, 4, 5, 6}, 64.0},
		{"Mixed values", []float32{1, -2, 3}, []float32{-4, 5, -6}, -32.0},
		{"Zero values", []float32{0, 0, 0}, []float32{0, 0, 0}, 0.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Dot(tc.a, tc.b))
		})
	}
}

func TestSquaredL2(t *testing.T) {
	assert.Equal(t, float32(27), SquaredL2([]float32{1, 2, 3}, []float32{4, 5, 6}))
	assert.Equal(t, float32(0), SquaredL2([]float32{1, 2}, []float32{1, 2}))
}

func TestHammingBytes(t *testing.T) {
	assert.Equal(t, 0, HammingBytes([]float32{255, 0}, []float32{255, 0}))
	assert.Equal(t, 8, HammingBytes([]float32{255, 0}, []float32{0, 0}))
	assert.Equal(t, 2, HammingBytes([]float32{1, 2}, []float32{0, 0}))
}

func TestScaleAndAdd(t *testing.T) {
	v := []float32{1, 2}
	ScaleInPlace(v, 0.5)
	assert.Equal(t, []float32{0.5, 1}, v)

	acc := make([]float64, 2)
	AddTo(acc, v)
	AddTo(acc, v)
	assert.Equal(t, []float64{1, 2}, acc)
	assert.Equal(t, float32(3), Sqrt(9))
}
