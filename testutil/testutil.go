package testutil

import (
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float32 in a loop).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// UniformVectors generates random vectors with values in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float32()
		}
		vectors[i] = vec
	}

	return vectors
}

// BinaryVectors generates byte-valued vectors (0..255 per element), the
// layout of packed binary descriptors.
func (r *RNG) BinaryVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]float32, num)
	for i := range vectors {
		vec := make([]float32, dimensions)
		for j := range vec {
			vec[j] = float32(r.rand.Intn(256))
		}
		vectors[i] = vec
	}
	return vectors
}

// ClusteredVectors generates vectors clustered around random centroids.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float32) [][]float32 {
	centroids := r.UniformVectors(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]float32, num)
	for i := range vectors {
		c := centroids[r.rand.Intn(clusters)]
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = c[j] + (r.rand.Float32()*2-1)*spread
		}
		vectors[i] = vec
	}
	return vectors
}

// CorpusConfig describes a synthetic training corpus.
type CorpusConfig struct {
	Documents   int     // number of documents (images)
	PerDocument int     // descriptors per document
	Dim         int     // descriptor length
	Clusters    int     // shared cluster centres
	Spread      float32 // half-width of the uniform noise around a centre
	// Topics limits each document to this many of the clusters, chosen at
	// random, so documents differ in which words they contain. 0 means all.
	Topics int
}

// ClusteredCorpus generates one descriptor set per document. Descriptors
// are drawn around centres in [0, 1)^Dim shared by the whole corpus.
func ClusteredCorpus[D ~[]float32](r *RNG, cfg CorpusConfig) [][]D {
	centroids := r.UniformVectors(cfg.Clusters, cfg.Dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	corpus := make([][]D, cfg.Documents)
	for d := range corpus {
		topics := r.rand.Perm(cfg.Clusters)
		if cfg.Topics > 0 && cfg.Topics < len(topics) {
			topics = topics[:cfg.Topics]
		}
		descs := make([]D, cfg.PerDocument)
		for i := range descs {
			c := centroids[topics[r.rand.Intn(len(topics))]]
			vec := make([]float32, cfg.Dim)
			for j := range vec {
				vec[j] = c[j] + (r.rand.Float32()*2-1)*cfg.Spread
			}
			descs[i] = D(vec)
		}
		corpus[d] = descs
	}
	return corpus
}

// Perturb returns a copy of descs with uniform noise of half-width spread
// added to every element.
func Perturb[D ~[]float32](r *RNG, descs []D, spread float32) []D {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]D, len(descs))
	for i, d := range descs {
		vec := make([]float32, len(d))
		for j := range vec {
			vec[j] = d[j] + (r.rand.Float32()*2-1)*spread
		}
		out[i] = D(vec)
	}
	return out
}
