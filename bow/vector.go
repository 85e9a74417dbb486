package bow

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// WordID identifies a leaf (visual word) of a vocabulary tree.
type WordID uint32

// NodeID identifies any node of a vocabulary tree. The root is node 0.
type NodeID uint32

// DocID identifies a document of a database (its insertion index).
type DocID uint32

// Entry is one non-zero component of a BowVector.
type Entry struct {
	Word   WordID
	Weight float64
}

// BowVector is a sparse word histogram sorted by ascending word id.
// Word ids are unique and every weight is positive.
type BowVector []Entry

// FromMap builds a sorted BowVector from a word -> weight map.
// Non-positive weights are dropped.
func FromMap(m map[WordID]float64) BowVector {
	v := make(BowVector, 0, len(m))
	for w, x := range m {
		if x > 0 {
			v = append(v, Entry{Word: w, Weight: x})
		}
	}
	slices.SortFunc(v, func(a, b Entry) int {
		switch {
		case a.Word < b.Word:
			return -1
		case a.Word > b.Word:
			return 1
		default:
			return 0
		}
	})
	return v
}

// Len returns the number of non-zero entries.
func (v BowVector) Len() int { return len(v) }

// Get returns the weight of word w, or 0 if absent.
func (v BowVector) Get(w WordID) float64 {
	i, ok := slices.BinarySearchFunc(v, w, func(e Entry, t WordID) int {
		switch {
		case e.Word < t:
			return -1
		case e.Word > t:
			return 1
		default:
			return 0
		}
	})
	if !ok {
		return 0
	}
	return v[i].Weight
}

// Words returns the word ids of v in ascending order.
func (v BowVector) Words() []WordID {
	out := make([]WordID, len(v))
	for i, e := range v {
		out[i] = e.Word
	}
	return out
}

// Clone returns a deep copy of v.
func (v BowVector) Clone() BowVector {
	if v == nil {
		return nil
	}
	return slices.Clone(v)
}

// Equal reports whether v and o hold the same entries.
func (v BowVector) Equal(o BowVector) bool {
	return slices.Equal(v, o)
}

// Validate checks the sortedness, uniqueness and positivity invariants.
func (v BowVector) Validate() error {
	for i, e := range v {
		if !(e.Weight > 0) || math.IsInf(e.Weight, 0) {
			return fmt.Errorf("bow: invalid weight %v for word %d", e.Weight, e.Word)
		}
		if i > 0 && v[i-1].Word >= e.Word {
			return fmt.Errorf("bow: words not strictly ascending at index %d", i)
		}
	}
	return nil
}

// Norm is the vector norm a scoring function expects its inputs in.
type Norm uint8

const (
	// NormL1 scales a vector so its weights sum to 1.
	NormL1 Norm = iota
	// NormL2 scales a vector to unit Euclidean length.
	NormL2
)

func (n Norm) String() string {
	switch n {
	case NormL1:
		return "L1"
	case NormL2:
		return "L2"
	default:
		return fmt.Sprintf("Unknown(%d)", n)
	}
}

// Magnitude returns the norm of v.
func (v BowVector) Magnitude(n Norm) float64 {
	var sum float64
	if n == NormL2 {
		for _, e := range v {
			sum += e.Weight * e.Weight
		}
		return math.Sqrt(sum)
	}
	for _, e := range v {
		sum += math.Abs(e.Weight)
	}
	return sum
}

// Normalize scales v in place to unit norm.
// A zero vector is left unchanged.
func (v BowVector) Normalize(n Norm) {
	m := v.Magnitude(n)
	if m == 0 {
		return
	}
	inv := 1 / m
	for i := range v {
		v[i].Weight *= inv
	}
}

func (v BowVector) String() string {
	var b strings.Builder
	b.WriteByte('<')
	for i, e := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d: %g", e.Word, e.Weight)
	}
	b.WriteByte('>')
	return b.String()
}
