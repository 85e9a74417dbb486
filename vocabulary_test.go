package dbow_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dbow"
	"github.com/hupe1980/dbow/bow"
	"github.com/hupe1980/dbow/distance"
	"github.com/hupe1980/dbow/persistence"
	"github.com/hupe1980/dbow/testutil"
)

func trainingCorpus(seed int64) [][]dbow.Descriptor {
	return testutil.ClusteredCorpus[dbow.Descriptor](testutil.NewRNG(seed), testutil.CorpusConfig{
		Documents:   10,
		PerDocument: 60,
		Dim:         16,
		Clusters:    12,
		Spread:      0.02,
		Topics:      5,
	})
}

func k9l3Config() dbow.VocabularyConfig {
	cfg := dbow.DefaultVocabularyConfig()
	cfg.BranchingFactor = 9
	cfg.DepthLevels = 3
	cfg.Seed = 42
	return cfg
}

func newVocabulary(t *testing.T, cfg dbow.VocabularyConfig, opts ...dbow.Option) (*dbow.Vocabulary, [][]dbow.Descriptor) {
	t.Helper()
	corpus := trainingCorpus(4711)
	voc, err := dbow.Create(context.Background(), corpus, cfg, opts...)
	require.NoError(t, err)
	return voc, corpus
}

func TestCreate_K9L3(t *testing.T) {
	voc, _ := newVocabulary(t, k9l3Config())

	assert.False(t, voc.Empty())
	assert.Greater(t, voc.Size(), 0)
	assert.LessOrEqual(t, voc.Size(), 9*9*9)
	assert.Equal(t, 9, voc.BranchingFactor())
	assert.Equal(t, 3, voc.DepthLevels())
	assert.Equal(t, 3, voc.EffectiveLevels())
	assert.Equal(t, 16, voc.Dimension())
	assert.Equal(t, bow.WeightingTFIDF, voc.Weighting())
	assert.Equal(t, bow.ScoringL1Norm, voc.Scoring())
	assert.Equal(t, distance.MetricL2, voc.Metric())
	assert.Contains(t, voc.String(), "k = 9, L = 3")

	for w := 0; w < voc.Size(); w++ {
		weight := voc.WordWeight(bow.WordID(w))
		assert.GreaterOrEqual(t, weight, 0.0)
		assert.LessOrEqual(t, weight, math.Log(10))
		assert.Len(t, voc.Word(bow.WordID(w)), 16)
	}
}

func TestCreate_EmptyCorpus(t *testing.T) {
	tests := []struct {
		name   string
		corpus [][]dbow.Descriptor
	}{
		{name: "nil", corpus: nil},
		{name: "no documents", corpus: [][]dbow.Descriptor{}},
		{name: "empty documents", corpus: [][]dbow.Descriptor{{}, {}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			voc, err := dbow.Create(context.Background(), tt.corpus, k9l3Config())
			assert.Nil(t, voc)
			assert.ErrorIs(t, err, dbow.ErrInvalidInput)
			assert.ErrorIs(t, err, dbow.ErrEmptyCorpus)
		})
	}
}

func TestCreate_InvalidConfig(t *testing.T) {
	corpus := trainingCorpus(1)

	tests := []struct {
		name   string
		mutate func(*dbow.VocabularyConfig)
		target error
	}{
		{name: "k below 2", mutate: func(c *dbow.VocabularyConfig) { c.BranchingFactor = 1 }, target: dbow.ErrInvalidK},
		{name: "zero levels", mutate: func(c *dbow.VocabularyConfig) { c.DepthLevels = 0 }, target: dbow.ErrInvalidInput},
		{name: "too many words", mutate: func(c *dbow.VocabularyConfig) { c.BranchingFactor, c.DepthLevels = 1000, 4 }, target: dbow.ErrInvalidInput},
		{name: "unknown weighting", mutate: func(c *dbow.VocabularyConfig) { c.Weighting = 99 }, target: dbow.ErrInvalidInput},
		{name: "unknown scoring", mutate: func(c *dbow.VocabularyConfig) { c.Scoring = 99 }, target: dbow.ErrInvalidInput},
		{name: "unknown metric", mutate: func(c *dbow.VocabularyConfig) { c.Metric = 99 }, target: dbow.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := k9l3Config()
			tt.mutate(&cfg)
			_, err := dbow.Create(context.Background(), corpus, cfg)
			assert.ErrorIs(t, err, tt.target)
			assert.ErrorIs(t, err, dbow.ErrInvalidInput)
		})
	}
}

func TestCreate_DimensionMismatch(t *testing.T) {
	corpus := [][]dbow.Descriptor{
		{{1, 2, 3}, {4, 5, 6}},
		{{1, 2}},
	}

	_, err := dbow.Create(context.Background(), corpus, k9l3Config())
	require.Error(t, err)
	assert.ErrorIs(t, err, dbow.ErrDimension)
	assert.NotErrorIs(t, err, dbow.ErrInvalidInput)

	var dimErr *dbow.ErrDimensionMismatch
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Actual)
}

func TestCreate_RejectsNonFinite(t *testing.T) {
	corpus := [][]dbow.Descriptor{{{1, float32(math.NaN())}}}

	_, err := dbow.Create(context.Background(), corpus, k9l3Config())
	assert.ErrorIs(t, err, dbow.ErrInvalidInput)
}

func TestCreate_Deterministic(t *testing.T) {
	corpus := trainingCorpus(7)

	a, err := dbow.Create(context.Background(), corpus, k9l3Config(), dbow.WithCompression(persistence.CompressionNone))
	require.NoError(t, err)
	b, err := dbow.Create(context.Background(), corpus, k9l3Config(), dbow.WithCompression(persistence.CompressionNone))
	require.NoError(t, err)

	da, err := a.MarshalBinary()
	require.NoError(t, err)
	db, err := b.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestCreate_FewerDescriptorsThanBranches(t *testing.T) {
	corpus := [][]dbow.Descriptor{
		{{0, 0}, {10, 10}},
		{{20, 20}},
	}
	cfg := k9l3Config()
	cfg.DepthLevels = 2

	voc, err := dbow.Create(context.Background(), corpus, cfg)
	require.NoError(t, err)

	assert.Equal(t, 3, voc.Size())
	assert.Equal(t, 2, voc.EffectiveLevels())
	assert.Equal(t, 1+3+3, voc.NodeCount())

	// Each word occurs in exactly one of two documents.
	for w := 0; w < voc.Size(); w++ {
		assert.InDelta(t, math.Log(2), voc.WordWeight(bow.WordID(w)), 1e-12)
	}
}

func TestCreate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := dbow.Create(ctx, trainingCorpus(1), k9l3Config())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCreate_RecordsMetrics(t *testing.T) {
	mc := &dbow.BasicMetricsCollector{}

	_, err := dbow.Create(context.Background(), trainingCorpus(1), k9l3Config(), dbow.WithMetricsCollector(mc))
	require.NoError(t, err)
	_, err = dbow.Create(context.Background(), nil, k9l3Config(), dbow.WithMetricsCollector(mc))
	require.Error(t, err)

	stats := mc.GetStats()
	assert.Equal(t, int64(2), stats.CreateCount)
	assert.Equal(t, int64(1), stats.CreateErrors)
}

func TestTransform(t *testing.T) {
	voc, corpus := newVocabulary(t, k9l3Config())

	for _, doc := range corpus {
		v, err := voc.Transform(doc)
		require.NoError(t, err)
		require.NoError(t, v.Validate())
		require.NotEmpty(t, v)
		assert.InDelta(t, 1.0, v.Magnitude(bow.NormL1), 1e-9)
	}
}

func TestTransform_EmptyInput(t *testing.T) {
	voc, _ := newVocabulary(t, k9l3Config())

	v, err := voc.Transform(nil)
	require.NoError(t, err)
	assert.Empty(t, v)
	assert.Equal(t, 0.0, voc.Score(v, v))
}

func TestTransform_AllWordsWeighZero(t *testing.T) {
	corpus := trainingCorpus(4711)[:1]

	for _, s := range []bow.Scoring{
		bow.ScoringL1Norm, bow.ScoringL2Norm, bow.ScoringChiSquare,
		bow.ScoringKL, bow.ScoringBhattacharyya, bow.ScoringCosine,
	} {
		t.Run(s.String(), func(t *testing.T) {
			cfg := k9l3Config()
			cfg.Scoring = s
			voc, err := dbow.Create(context.Background(), corpus, cfg)
			require.NoError(t, err)

			// Every word occurs in the only training document: idf = ln(1/1).
			for w := 0; w < voc.Size(); w++ {
				require.Equal(t, 0.0, voc.WordWeight(bow.WordID(w)))
			}

			v, err := voc.Transform(corpus[0])
			require.NoError(t, err)
			assert.Empty(t, v)

			want := 0.0
			if s == bow.ScoringKL {
				want = 1
			}
			assert.Equal(t, want, voc.Score(v, v))
		})
	}

	cfg := k9l3Config()
	cfg.Weighting = bow.WeightingTF
	voc, err := dbow.Create(context.Background(), corpus, cfg)
	require.NoError(t, err)
	v, err := voc.Transform(corpus[0])
	require.NoError(t, err)
	require.NotEmpty(t, v)
	assert.InDelta(t, 1.0, voc.Score(v, v), 1e-9)
}

func TestTransform_Errors(t *testing.T) {
	voc, _ := newVocabulary(t, k9l3Config())

	_, err := voc.Transform([]dbow.Descriptor{make(dbow.Descriptor, 3)})
	assert.ErrorIs(t, err, dbow.ErrDimension)
	assert.NotErrorIs(t, err, dbow.ErrInvalidInput)

	_, err = voc.Transform([]dbow.Descriptor{{}})
	assert.ErrorIs(t, err, dbow.ErrInvalidInput)
	assert.NotErrorIs(t, err, dbow.ErrDimension)

	var empty dbow.Vocabulary
	_, err = empty.Transform([]dbow.Descriptor{{1}})
	assert.ErrorIs(t, err, dbow.ErrInvalidInput)
}

func TestTransformOne(t *testing.T) {
	voc, corpus := newVocabulary(t, k9l3Config())

	for _, d := range corpus[0][:10] {
		w, weight, err := voc.TransformOne(d)
		require.NoError(t, err)
		assert.Less(t, int(w), voc.Size())
		assert.Equal(t, voc.WordWeight(w), weight)
	}
}

func TestTransformFeatures(t *testing.T) {
	cfg := k9l3Config()
	cfg.Weighting = bow.WeightingTF
	voc, corpus := newVocabulary(t, cfg)

	for _, levelsUp := range []int{0, 1, 2, 3, 10} {
		v, fv, err := voc.TransformFeatures(corpus[0], levelsUp)
		require.NoError(t, err)
		assert.Equal(t, len(corpus[0]), fv.Features(), "every descriptor is recorded once")

		up := min(levelsUp, voc.DepthLevels())
		parents := make(map[bow.NodeID]bool)
		for _, w := range v.Words() {
			p, err := voc.ParentNode(w, up)
			require.NoError(t, err)
			parents[p] = true
		}
		for _, n := range fv.Nodes() {
			assert.True(t, parents[n], "node %d is not an ancestor of a hit word", n)
		}
		if up == voc.DepthLevels() {
			assert.Equal(t, []bow.NodeID{0}, fv.Nodes())
		}
	}
}

func TestScore_Properties(t *testing.T) {
	scorings := []bow.Scoring{
		bow.ScoringL1Norm,
		bow.ScoringL2Norm,
		bow.ScoringChiSquare,
		bow.ScoringKL,
		bow.ScoringBhattacharyya,
		bow.ScoringCosine,
	}
	for _, s := range scorings {
		t.Run(s.String(), func(t *testing.T) {
			cfg := k9l3Config()
			cfg.Scoring = s
			cfg.Weighting = bow.WeightingTF
			voc, corpus := newVocabulary(t, cfg)

			a, err := voc.Transform(corpus[0])
			require.NoError(t, err)
			b, err := voc.Transform(corpus[1])
			require.NoError(t, err)

			assert.InDelta(t, 1.0, voc.Score(a, a), 1e-9)
			assert.InDelta(t, voc.Score(a, b), voc.Score(b, a), 1e-12)
			assert.GreaterOrEqual(t, voc.Score(a, b), 0.0)
			assert.LessOrEqual(t, voc.Score(a, b), 1.0)
		})
	}
}

func TestWeightings(t *testing.T) {
	for _, w := range []bow.Weighting{bow.WeightingTFIDF, bow.WeightingTF, bow.WeightingIDF, bow.WeightingBinary} {
		t.Run(w.String(), func(t *testing.T) {
			cfg := k9l3Config()
			cfg.Weighting = w
			voc, corpus := newVocabulary(t, cfg)

			v, err := voc.Transform(corpus[2])
			require.NoError(t, err)
			require.NoError(t, v.Validate())
			if !w.UsesIDF() {
				for i := 0; i < voc.Size(); i++ {
					assert.Equal(t, 1.0, voc.WordWeight(bow.WordID(i)))
				}
			}
		})
	}
}

func TestHammingVocabulary(t *testing.T) {
	rng := testutil.NewRNG(3)
	var corpus [][]dbow.Descriptor
	for i := 0; i < 5; i++ {
		var doc []dbow.Descriptor
		for _, v := range rng.BinaryVectors(30, 32) {
			doc = append(doc, dbow.Descriptor(v))
		}
		corpus = append(corpus, doc)
	}
	cfg := k9l3Config()
	cfg.BranchingFactor = 4
	cfg.DepthLevels = 2
	cfg.Metric = distance.MetricHamming

	voc, err := dbow.Create(context.Background(), corpus, cfg)
	require.NoError(t, err)
	assert.Equal(t, distance.MetricHamming, voc.Metric())

	for w := 0; w < voc.Size(); w++ {
		for _, x := range voc.Word(bow.WordID(w)) {
			assert.Equal(t, float32(int(x)), x, "binary centroids stay byte valued")
		}
	}

	_, err = voc.Transform(corpus[0])
	require.NoError(t, err)

	bad := make(dbow.Descriptor, 32)
	bad[0] = 0.5
	_, err = voc.Transform([]dbow.Descriptor{bad})
	assert.ErrorIs(t, err, dbow.ErrInvalidInput)
}

func TestWordsFromNode(t *testing.T) {
	voc, _ := newVocabulary(t, k9l3Config())

	words, err := voc.WordsFromNode(0)
	require.NoError(t, err)
	require.Len(t, words, voc.Size())
	for i, w := range words {
		assert.Equal(t, bow.WordID(i), w)
	}

	parent, err := voc.ParentNode(0, 1)
	require.NoError(t, err)
	sub, err := voc.WordsFromNode(parent)
	require.NoError(t, err)
	assert.Contains(t, sub, bow.WordID(0))

	_, err = voc.WordsFromNode(bow.NodeID(voc.NodeCount()))
	assert.ErrorIs(t, err, dbow.ErrInvalidInput)
	_, err = voc.ParentNode(bow.WordID(voc.Size()), 1)
	assert.ErrorIs(t, err, dbow.ErrInvalidInput)
}

func TestStopWords(t *testing.T) {
	voc, corpus := newVocabulary(t, k9l3Config())

	n := voc.StopWords(math.Inf(1))
	assert.Equal(t, voc.Size(), n)

	v, err := voc.Transform(corpus[0])
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestClone(t *testing.T) {
	voc, corpus := newVocabulary(t, k9l3Config())
	c := voc.Clone()

	c.StopWords(math.Inf(1))

	v, err := voc.Transform(corpus[0])
	require.NoError(t, err)
	assert.NotEmpty(t, v, "stop words on a clone must not affect the original")
}
