package dbow

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/hupe1980/dbow/bow"
	"github.com/hupe1980/dbow/distance"
	"github.com/hupe1980/dbow/internal/kmeans"
)

// rootNode is the id of the vocabulary tree root. It carries no descriptor.
const rootNode bow.NodeID = 0

// VocabularyConfig holds the parameters of a vocabulary build.
type VocabularyConfig struct {
	// BranchingFactor (k) is the maximum number of children per node. Must be >= 2.
	BranchingFactor int
	// DepthLevels (L) is the depth of every leaf. Must be >= 1.
	DepthLevels int
	// Weighting selects how word weights are computed.
	Weighting bow.Weighting
	// Scoring selects the similarity function and the vector norm.
	Scoring bow.Scoring
	// Metric selects the descriptor distance.
	Metric distance.Metric
	// Seed makes the k-means++ seeding reproducible.
	Seed uint64
	// MaxIterations bounds Lloyd iterations per node (0 = 100).
	MaxIterations int
}

// DefaultVocabularyConfig returns k = 10, L = 5, TF-IDF weighting, L1
// scoring on real-valued descriptors.
func DefaultVocabularyConfig() VocabularyConfig {
	return VocabularyConfig{
		BranchingFactor: 10,
		DepthLevels:     5,
		Weighting:       bow.WeightingTFIDF,
		Scoring:         bow.ScoringL1Norm,
		Metric:          distance.MetricL2,
		MaxIterations:   kmeans.DefaultMaxIterations,
	}
}

// Validate checks the configuration.
func (c VocabularyConfig) Validate() error {
	if c.BranchingFactor < 2 {
		return fmt.Errorf("%w: got %d", ErrInvalidK, c.BranchingFactor)
	}
	if c.DepthLevels < 1 {
		return invalidInputf("depth levels must be at least 1, got %d", c.DepthLevels)
	}
	if _, ok := maxWords(c.BranchingFactor, c.DepthLevels); !ok {
		return invalidInputf("%d^%d words exceed the word id range", c.BranchingFactor, c.DepthLevels)
	}
	if !c.Weighting.Valid() {
		return invalidInputf("unknown weighting %d", c.Weighting)
	}
	if !c.Scoring.Valid() {
		return invalidInputf("unknown scoring %d", c.Scoring)
	}
	if !c.Metric.Valid() {
		return invalidInputf("unknown metric %d", c.Metric)
	}
	if c.MaxIterations < 0 {
		return invalidInputf("max iterations must not be negative, got %d", c.MaxIterations)
	}
	return nil
}

// maxWords returns k^levels, or false if it does not fit a word id.
func maxWords(k, levels int) (uint64, bool) {
	n := uint64(1)
	for i := 0; i < levels; i++ {
		if uint64(k) > math.MaxUint32/n {
			return 0, false
		}
		n *= uint64(k)
	}
	return n, true
}

type node struct {
	parent     bow.NodeID
	children   []bow.NodeID
	descriptor Descriptor
	leaf       bool
	word       bow.WordID
	weight     float64
}

// Vocabulary is a hierarchical k-means tree over descriptor space whose
// leaves are visual words.
//
// A Vocabulary is immutable once Create or a Load function returns, and is
// then safe for concurrent Transform and Score calls. Load, UnmarshalBinary
// and StopWords modify it and need exclusive access.
//
// The zero value is an empty vocabulary that can be filled with Load.
type Vocabulary struct {
	k         int
	levels    int
	weighting bow.Weighting
	scoring   bow.Scoring
	metric    distance.Metric
	dim       int

	nodes []node
	words []bow.NodeID // word id -> leaf node id

	distFunc distance.Func
	opts     options
}

// Create builds a vocabulary from a training corpus: one descriptor set per
// training document (image).
//
// Descriptors are clustered top-down with k-means++ seeded k-means, down to
// DepthLevels. With IDF-based weighting, word weights are ln(N/n_w), N being
// the number of documents and n_w the number of documents containing word w.
func Create(ctx context.Context, corpus [][]Descriptor, cfg VocabularyConfig, opts ...Option) (*Vocabulary, error) {
	o := applyOptions(opts)
	start := time.Now()

	v, err := create(ctx, corpus, cfg, o)

	elapsed := time.Since(start)
	words := 0
	if v != nil {
		words = v.Size()
	}
	o.metricsCollector.RecordCreate(words, elapsed, err)
	o.logger.LogCreate(ctx, cfg.BranchingFactor, cfg.DepthLevels, words, elapsed, err)
	return v, err
}

func create(ctx context.Context, corpus [][]Descriptor, cfg VocabularyConfig, o options) (*Vocabulary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		vectors [][]float32
		docOf   []int
		dim     int
	)
	for di, doc := range corpus {
		for _, d := range doc {
			if dim == 0 {
				dim = len(d)
			}
			if err := checkDescriptor(d, dim, cfg.Metric); err != nil {
				return nil, fmt.Errorf("document %d: %w", di, err)
			}
			vectors = append(vectors, d)
			docOf = append(docOf, di)
		}
	}
	if len(vectors) == 0 {
		return nil, ErrEmptyCorpus
	}

	distFunc, err := distance.Provider(cfg.Metric)
	if err != nil {
		return nil, invalidInputf("%v", err)
	}

	v := &Vocabulary{
		k:         cfg.BranchingFactor,
		levels:    cfg.DepthLevels,
		weighting: cfg.Weighting,
		scoring:   cfg.Scoring,
		metric:    cfg.Metric,
		dim:       dim,
		nodes:     []node{{parent: rootNode}},
		distFunc:  distFunc,
		opts:      o,
	}

	b := &treeBuilder{
		ctx:     ctx,
		voc:     v,
		vectors: vectors,
		rng:     rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		maxIter: cfg.MaxIterations,
	}
	members := make([]int, len(vectors))
	for i := range members {
		members[i] = i
	}
	if err := b.expand(rootNode, members, 0); err != nil {
		return nil, err
	}

	v.setWeights(vectors, docOf, len(corpus))
	return v, nil
}

type treeBuilder struct {
	ctx     context.Context
	voc     *Vocabulary
	vectors [][]float32
	rng     *rand.Rand
	maxIter int
}

// expand clusters the members of parent into its children and recurses
// until depth L. Words are numbered in the order their leaves are reached.
func (b *treeBuilder) expand(parent bow.NodeID, members []int, depth int) error {
	if err := b.ctx.Err(); err != nil {
		return err
	}
	v := b.voc
	if depth == v.levels {
		v.nodes[parent].leaf = true
		v.nodes[parent].word = bow.WordID(len(v.words))
		v.words = append(v.words, parent)
		return nil
	}

	sub := make([][]float32, len(members))
	for i, m := range members {
		sub[i] = b.vectors[m]
	}
	res, err := kmeans.Cluster(b.ctx, sub, kmeans.Config{
		K:             v.k,
		MaxIterations: b.maxIter,
		Metric:        v.metric,
		Rand:          b.rng,
	})
	if err != nil {
		return err
	}

	first := len(v.nodes)
	for _, c := range res.Centroids {
		id := bow.NodeID(len(v.nodes))
		v.nodes = append(v.nodes, node{parent: parent, descriptor: Descriptor(c)})
		v.nodes[parent].children = append(v.nodes[parent].children, id)
	}

	groups := make([][]int, len(res.Centroids))
	for i, a := range res.Assignments {
		groups[a] = append(groups[a], members[i])
	}
	for c, g := range groups {
		if err := b.expand(bow.NodeID(first+c), g, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// setWeights assigns word weights. docOf maps every training vector to its
// document and is ascending.
func (v *Vocabulary) setWeights(vectors [][]float32, docOf []int, numDocs int) {
	if !v.weighting.UsesIDF() {
		for _, id := range v.words {
			v.nodes[id].weight = 1
		}
		return
	}

	counts := make([]int, len(v.words))
	last := make([]int, len(v.words))
	for i := range last {
		last[i] = -1
	}
	for i, vec := range vectors {
		w, _ := v.descend(vec, -1)
		if last[w] != docOf[i] {
			last[w] = docOf[i]
			counts[w]++
		}
	}
	for w, id := range v.words {
		if counts[w] == 0 {
			v.nodes[id].weight = 0
			continue
		}
		v.nodes[id].weight = math.Log(float64(numDocs) / float64(counts[w]))
	}
}

// descend walks from the root to a leaf, choosing the nearest child at every
// level (lowest index on ties). It also returns the node passed at depth
// targetDepth, or the root when targetDepth is out of range.
func (v *Vocabulary) descend(d []float32, targetDepth int) (bow.WordID, bow.NodeID) {
	id := rootNode
	at := rootNode
	depth := 0
	for !v.nodes[id].leaf {
		children := v.nodes[id].children
		best := children[0]
		bestDist := v.distFunc(d, v.nodes[best].descriptor)
		for _, c := range children[1:] {
			if dist := v.distFunc(d, v.nodes[c].descriptor); dist < bestDist {
				best, bestDist = c, dist
			}
		}
		id = best
		depth++
		if depth == targetDepth {
			at = id
		}
	}
	return v.nodes[id].word, at
}

// Transform converts a descriptor set into a normalized BowVector.
// An empty set yields an empty vector.
func (v *Vocabulary) Transform(descs []Descriptor) (bow.BowVector, error) {
	bv, _, err := v.transform(descs, false, 0)
	return bv, err
}

// TransformFeatures converts a descriptor set into a BowVector and a
// FeatureVector. The FeatureVector groups descriptor indices by the node
// levelsUp levels above the leaves (clamped to [0, DepthLevels]).
func (v *Vocabulary) TransformFeatures(descs []Descriptor, levelsUp int) (bow.BowVector, bow.FeatureVector, error) {
	return v.transform(descs, true, levelsUp)
}

// TransformOne returns the word a single descriptor falls into and the
// word's weight.
func (v *Vocabulary) TransformOne(d Descriptor) (bow.WordID, float64, error) {
	if v.Empty() {
		return 0, 0, invalidInputf("vocabulary is empty")
	}
	if err := checkDescriptor(d, v.dim, v.metric); err != nil {
		return 0, 0, err
	}
	w, _ := v.descend(d, -1)
	return w, v.nodes[v.words[w]].weight, nil
}

func (v *Vocabulary) transform(descs []Descriptor, withFeatures bool, levelsUp int) (bow.BowVector, bow.FeatureVector, error) {
	if v.Empty() {
		return nil, nil, invalidInputf("vocabulary is empty")
	}
	for _, d := range descs {
		if err := checkDescriptor(d, v.dim, v.metric); err != nil {
			return nil, nil, err
		}
	}

	var fv bow.FeatureVector
	targetDepth := -1
	if withFeatures {
		fv = make(bow.FeatureVector)
		targetDepth = v.levels - clamp(levelsUp, 0, v.levels)
	}
	if len(descs) == 0 {
		return bow.BowVector{}, fv, nil
	}

	accumulate := v.weighting.Accumulates()
	acc := make(map[bow.WordID]float64)
	for i, d := range descs {
		w, n := v.descend(d, targetDepth)
		weight := v.nodes[v.words[w]].weight
		if weight <= 0 {
			continue
		}
		if fv != nil {
			fv.Add(n, uint32(i))
		}
		if accumulate {
			acc[w] += weight
		} else if _, ok := acc[w]; !ok {
			acc[w] = weight
		}
	}
	if accumulate {
		nd := float64(len(descs))
		for w := range acc {
			acc[w] /= nd
		}
	}

	bv := bow.FromMap(acc)
	bv.Normalize(v.scoring.Norm())
	return bv, fv, nil
}

// Score returns the similarity of two BowVectors under the vocabulary's
// scoring, in [0, 1].
func (v *Vocabulary) Score(a, b bow.BowVector) float64 {
	return v.scoring.Score(a, b)
}

// Size returns the number of words.
func (v *Vocabulary) Size() int { return len(v.words) }

// Empty reports whether the vocabulary has no words.
func (v *Vocabulary) Empty() bool { return len(v.words) == 0 }

// BranchingFactor returns k.
func (v *Vocabulary) BranchingFactor() int { return v.k }

// DepthLevels returns L.
func (v *Vocabulary) DepthLevels() int { return v.levels }

// Weighting returns the word weighting scheme.
func (v *Vocabulary) Weighting() bow.Weighting { return v.weighting }

// Scoring returns the scoring function used by Score.
func (v *Vocabulary) Scoring() bow.Scoring { return v.scoring }

// Metric returns the descriptor distance metric.
func (v *Vocabulary) Metric() distance.Metric { return v.metric }

// Dimension returns the descriptor length, 0 for an empty vocabulary.
func (v *Vocabulary) Dimension() int { return v.dim }

// NodeCount returns the number of tree nodes including the root.
func (v *Vocabulary) NodeCount() int { return len(v.nodes) }

func (v *Vocabulary) isWord(id bow.WordID) bool { return int(id) < len(v.words) }

func (v *Vocabulary) isNode(id bow.NodeID) bool { return int(id) < len(v.nodes) }

func (v *Vocabulary) leafOf(id bow.WordID) bow.NodeID { return v.words[id] }

// EffectiveLevels returns the depth of the leaves, 0 for an empty vocabulary.
func (v *Vocabulary) EffectiveLevels() int {
	if v.Empty() {
		return 0
	}
	depth := 0
	for id := v.words[0]; id != rootNode; id = v.nodes[id].parent {
		depth++
	}
	return depth
}

// WordWeight returns the weight of word id, 0 if it does not exist.
func (v *Vocabulary) WordWeight(id bow.WordID) float64 {
	if !v.isWord(id) {
		return 0
	}
	return v.nodes[v.leafOf(id)].weight
}

// Word returns a copy of the centroid of word id, nil if it does not exist.
func (v *Vocabulary) Word(id bow.WordID) Descriptor {
	if !v.isWord(id) {
		return nil
	}
	return v.nodes[v.leafOf(id)].descriptor.Clone()
}

// ParentNode returns the ancestor of word id levelsUp levels above its
// leaf, stopping at the root.
func (v *Vocabulary) ParentNode(id bow.WordID, levelsUp int) (bow.NodeID, error) {
	if !v.isWord(id) {
		return 0, invalidInputf("word %d out of range [0, %d)", id, len(v.words))
	}
	n := v.leafOf(id)
	for ; levelsUp > 0 && n != rootNode; levelsUp-- {
		n = v.nodes[n].parent
	}
	return n, nil
}

// WordsFromNode returns the words below node id in tree order.
func (v *Vocabulary) WordsFromNode(id bow.NodeID) ([]bow.WordID, error) {
	if !v.isNode(id) || v.Empty() {
		return nil, invalidInputf("node %d out of range [0, %d)", id, len(v.nodes))
	}
	var out []bow.WordID
	stack := []bow.NodeID{id}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if v.nodes[n].leaf {
			out = append(out, v.nodes[n].word)
			continue
		}
		children := v.nodes[n].children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return out, nil
}

// StopWords sets the weight of every word whose weight is below minWeight
// to 0, so Transform ignores it. It returns the number of such words.
func (v *Vocabulary) StopWords(minWeight float64) int {
	c := 0
	for _, id := range v.words {
		if v.nodes[id].weight < minWeight {
			v.nodes[id].weight = 0
			c++
		}
	}
	return c
}

// Clone returns an independent deep copy of v.
func (v *Vocabulary) Clone() *Vocabulary {
	c := *v
	c.nodes = make([]node, len(v.nodes))
	for i, n := range v.nodes {
		n.children = append([]bow.NodeID(nil), n.children...)
		n.descriptor = n.descriptor.Clone()
		c.nodes[i] = n
	}
	c.words = append([]bow.NodeID(nil), v.words...)
	return &c
}

func (v *Vocabulary) String() string {
	return fmt.Sprintf("Vocabulary: k = %d, L = %d, Weighting = %s, Scoring = %s, Metric = %s, Dimension = %d, Number of words = %d",
		v.k, v.levels, v.weighting, v.scoring, v.metric, v.dim, len(v.words))
}

func clamp(x, lo, hi int) int {
	return max(lo, min(x, hi))
}
