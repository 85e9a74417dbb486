package kmeans

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/hupe1980/dbow/distance"
)

// DefaultMaxIterations bounds Lloyd iterations when Config.MaxIterations is 0.
const DefaultMaxIterations = 100

// Config configures a clustering run.
type Config struct {
	// K is the maximum number of clusters.
	K int
	// MaxIterations bounds Lloyd iterations (0 = DefaultMaxIterations).
	MaxIterations int
	// Metric selects the distance and cluster-centre functions.
	Metric distance.Metric
	// Rand drives k-means++ seeding. Required.
	Rand *rand.Rand
}

// Result holds the clusters found by Cluster.
type Result struct {
	// Centroids are the cluster centres. Every cluster has at least one member.
	Centroids [][]float32
	// Assignments maps each input vector to its centroid index.
	Assignments []int
}

// Members returns the input indices assigned to cluster c, ascending.
func (r *Result) Members(c int) []int {
	var out []int
	for i, a := range r.Assignments {
		if a == c {
			out = append(out, i)
		}
	}
	return out
}

// Cluster partitions vectors into at most cfg.K clusters.
//
// With no more vectors than K every vector becomes its own cluster.
// Otherwise centres are seeded with k-means++ and refined with Lloyd's
// algorithm until assignments are stable or MaxIterations is reached.
// Clusters left empty are dropped. A vector equidistant to several centres
// is assigned to the one with the lowest index.
func Cluster(ctx context.Context, vectors [][]float32, cfg Config) (*Result, error) {
	if len(vectors) == 0 {
		return nil, errors.New("kmeans: no vectors to cluster")
	}
	if cfg.K < 1 {
		return nil, errors.New("kmeans: k must be positive")
	}
	if cfg.Rand == nil {
		return nil, errors.New("kmeans: random source is required")
	}
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	distFunc, err := distance.Provider(cfg.Metric)
	if err != nil {
		return nil, err
	}
	meanFunc, err := distance.MeanProvider(cfg.Metric)
	if err != nil {
		return nil, err
	}

	n := len(vectors)
	if n <= cfg.K {
		res := &Result{
			Centroids:   make([][]float32, n),
			Assignments: make([]int, n),
		}
		for i, v := range vectors {
			res.Centroids[i] = slices.Clone(v)
			res.Assignments[i] = i
		}
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	centroids := seedPlusPlus(vectors, cfg.K, distFunc, cfg.Rand)
	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}

	members := make([][]float32, 0, n)
	converged := false
	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Assignment step
		changed := false
		for i, v := range vectors {
			best := AssignPartition(v, centroids, distFunc)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed {
			converged = true
			break
		}

		// Update step; empty clusters keep their previous centre.
		for c := range centroids {
			members = members[:0]
			for i, a := range assignments {
				if a == c {
					members = append(members, vectors[i])
				}
			}
			if len(members) > 0 {
				meanFunc(centroids[c], members)
			}
		}
	}

	// The last update step moved the centres; members must follow them.
	if !converged {
		for i, v := range vectors {
			assignments[i] = AssignPartition(v, centroids, distFunc)
		}
	}

	return compact(centroids, assignments), nil
}

// AssignPartition returns the index of the centroid closest to vec.
// Ties go to the lowest index.
func AssignPartition(vec []float32, centroids [][]float32, distFunc distance.Func) int {
	best := -1
	minDist := float32(math.MaxFloat32)
	for j, c := range centroids {
		d := distFunc(vec, c)
		if best < 0 || d < minDist {
			minDist = d
			best = j
		}
	}
	return best
}

// seedPlusPlus picks up to k initial centres. The first is uniform; each
// next one is drawn with probability proportional to its distance from the
// closest centre chosen so far. Seeding stops early when every vector
// coincides with a chosen centre.
func seedPlusPlus(vectors [][]float32, k int, distFunc distance.Func, r *rand.Rand) [][]float32 {
	n := len(vectors)
	centroids := make([][]float32, 0, k)
	first := r.IntN(n)
	centroids = append(centroids, slices.Clone(vectors[first]))

	minDist := make([]float64, n)
	for i, v := range vectors {
		minDist[i] = float64(distFunc(v, centroids[0]))
	}

	for len(centroids) < k {
		var sum float64
		for _, d := range minDist {
			sum += d
		}
		if sum <= 0 {
			break
		}

		cut := r.Float64() * sum
		pick := -1
		var acc float64
		for i, d := range minDist {
			if d <= 0 {
				continue
			}
			pick = i
			acc += d
			if acc > cut {
				break
			}
		}

		c := slices.Clone(vectors[pick])
		centroids = append(centroids, c)
		for i, v := range vectors {
			if d := float64(distFunc(v, c)); d < minDist[i] {
				minDist[i] = d
			}
		}
	}
	return centroids
}

// compact removes clusters without members and renumbers assignments.
func compact(centroids [][]float32, assignments []int) *Result {
	counts := make([]int, len(centroids))
	for _, a := range assignments {
		counts[a]++
	}
	remap := make([]int, len(centroids))
	kept := make([][]float32, 0, len(centroids))
	for c, cnt := range counts {
		if cnt == 0 {
			remap[c] = -1
			continue
		}
		remap[c] = len(kept)
		kept = append(kept, centroids[c])
	}
	for i, a := range assignments {
		assignments[i] = remap[a]
	}
	return &Result{Centroids: kept, Assignments: assignments}
}
