package bow

import (
	"fmt"
	"math"
)

// Scoring selects the similarity function used to compare BowVectors.
//
// Every scoring is symmetric, returns a value in [0, 1] and scores a
// vector against itself as 1. Inputs must be normalized with Norm().
type Scoring uint8

const (
	// ScoringL1Norm is 1 - ||v - w||_1 / 2 on L1-normalized vectors.
	ScoringL1Norm Scoring = iota
	// ScoringL2Norm is 1 - sqrt(1 - <v, w>) on L2-normalized vectors.
	ScoringL2Norm
	// ScoringChiSquare is 2 * sum(v*w / (v+w)) on L1-normalized vectors.
	ScoringChiSquare
	// ScoringKL is 1 / (1 + D) where D is the symmetric Kullback-Leibler
	// divergence of the L1-normalized vectors.
	ScoringKL
	// ScoringBhattacharyya is sum(sqrt(v*w)) on L1-normalized vectors.
	ScoringBhattacharyya
	// ScoringCosine is <v, w> on L2-normalized vectors.
	ScoringCosine
)

// logEps stands in for ln(0) when a word is missing from one vector.
var logEps = math.Log(math.Nextafter(1, 2) - 1)

// Valid reports whether s is a known scoring function.
func (s Scoring) Valid() bool { return s <= ScoringCosine }

// Norm returns the normalization the scoring expects.
func (s Scoring) Norm() Norm {
	switch s {
	case ScoringL2Norm, ScoringCosine:
		return NormL2
	default:
		return NormL1
	}
}

// MaxScore returns the score of identical vectors.
func (s Scoring) MaxScore() float64 { return 1 }

// ZeroOnDisjoint reports whether two vectors without common words always
// score exactly 0. Indexes may skip such documents without changing rankings.
func (s Scoring) ZeroOnDisjoint() bool { return s != ScoringKL }

// Score compares two normalized vectors.
func (s Scoring) Score(v, w BowVector) float64 {
	var score float64
	switch s {
	case ScoringL1Norm:
		var sum float64
		mergeCommon(v, w, func(a, b float64) {
			sum += math.Abs(a-b) - (math.Abs(a) + math.Abs(b))
		})
		score = -sum / 2
	case ScoringL2Norm:
		var dot float64
		mergeCommon(v, w, func(a, b float64) { dot += a * b })
		if dot >= 1-1e-12 {
			score = 1
		} else {
			score = 1 - math.Sqrt(1-dot)
		}
	case ScoringChiSquare:
		var sum float64
		mergeCommon(v, w, func(a, b float64) {
			if a+b != 0 {
				sum += a * b / (a + b)
			}
		})
		score = 2 * sum
	case ScoringKL:
		score = 1 / (1 + symmetricKL(v, w))
	case ScoringBhattacharyya:
		var sum float64
		mergeCommon(v, w, func(a, b float64) { sum += math.Sqrt(a * b) })
		score = sum
	case ScoringCosine:
		var dot float64
		mergeCommon(v, w, func(a, b float64) { dot += a * b })
		score = dot
	default:
		return 0
	}
	return clamp01(score)
}

func (s Scoring) String() string {
	switch s {
	case ScoringL1Norm:
		return "l1"
	case ScoringL2Norm:
		return "l2"
	case ScoringChiSquare:
		return "chi-square"
	case ScoringKL:
		return "kl"
	case ScoringBhattacharyya:
		return "bhattacharyya"
	case ScoringCosine:
		return "cosine"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// ParseScoring parses the String form of a scoring.
func ParseScoring(s string) (Scoring, error) {
	switch s {
	case "l1", "L1", "L1_NORM":
		return ScoringL1Norm, nil
	case "l2", "L2", "L2_NORM":
		return ScoringL2Norm, nil
	case "chi-square", "chi2", "CHI_SQUARE":
		return ScoringChiSquare, nil
	case "kl", "KL":
		return ScoringKL, nil
	case "bhattacharyya", "BHATTACHARYYA":
		return ScoringBhattacharyya, nil
	case "cosine", "dot", "DOT_PRODUCT":
		return ScoringCosine, nil
	default:
		return 0, fmt.Errorf("bow: unknown scoring %q", s)
	}
}

// mergeCommon calls fn for every word present in both v and w.
func mergeCommon(v, w BowVector, fn func(a, b float64)) {
	i, j := 0, 0
	for i < len(v) && j < len(w) {
		switch {
		case v[i].Word == w[j].Word:
			fn(v[i].Weight, w[j].Weight)
			i++
			j++
		case v[i].Word < w[j].Word:
			i++
		default:
			j++
		}
	}
}

func symmetricKL(v, w BowVector) float64 {
	term := func(a, b float64) float64 {
		la, lb := logEps, logEps
		if a > 0 {
			la = math.Log(a)
		}
		if b > 0 {
			lb = math.Log(b)
		}
		return (a - b) * (la - lb)
	}

	var d float64
	i, j := 0, 0
	for i < len(v) || j < len(w) {
		switch {
		case j >= len(w) || (i < len(v) && v[i].Word < w[j].Word):
			d += term(v[i].Weight, 0)
			i++
		case i >= len(v) || w[j].Word < v[i].Word:
			d += term(0, w[j].Weight)
			j++
		default:
			d += term(v[i].Weight, w[j].Weight)
			i++
			j++
		}
	}
	return d
}

func clamp01(x float64) float64 {
	switch {
	case x < 0, math.IsNaN(x):
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
