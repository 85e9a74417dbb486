package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider(t *testing.T) {
	l2, err := Provider(MetricL2)
	require.NoError(t, err)
	assert.Equal(t, float32(8), l2([]float32{0, 0}, []float32{2, 2}))

	ham, err := Provider(MetricHamming)
	require.NoError(t, err)
	assert.Equal(t, float32(9), ham([]float32{0xff, 0x01}, []float32{0x00, 0x00}))

	_, err = Provider(Metric(99))
	assert.Error(t, err)
	_, err = MeanProvider(Metric(99))
	assert.Error(t, err)
}

func TestMean(t *testing.T) {
	dst := make([]float32, 2)
	Mean(dst, [][]float32{{0, 2}, {2, 4}, {4, 6}})
	assert.Equal(t, []float32{2, 4}, dst)
}

func TestMajorityBits(t *testing.T) {
	dst := make([]float32, 1)

	MajorityBits(dst, [][]float32{{0b0011}, {0b0001}, {0b0100}})
	assert.Equal(t, float32(0b0001), dst[0])

	// Two vectors: ceil(2/2) = 1 vote is enough.
	MajorityBits(dst, [][]float32{{0b1000}, {0b0001}})
	assert.Equal(t, float32(0b1001), dst[0])
}

func TestMetric_String(t *testing.T) {
	for _, m := range []Metric{MetricL2, MetricHamming} {
		got, err := ParseMetric(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
		assert.True(t, m.Valid())
	}
	assert.False(t, Metric(7).Valid())
	assert.Equal(t, "Unknown(7)", Metric(7).String())
}
