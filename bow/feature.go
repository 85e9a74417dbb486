package bow

import (
	"maps"
	"slices"
)

// FeatureVector maps a vocabulary node to the indices of the descriptors
// that descended through it. Index lists are in ascending order.
type FeatureVector map[NodeID][]uint32

// Add records descriptor index i under node n.
func (fv FeatureVector) Add(n NodeID, i uint32) {
	fv[n] = append(fv[n], i)
}

// Nodes returns the node ids present in fv in ascending order.
func (fv FeatureVector) Nodes() []NodeID {
	return slices.Sorted(maps.Keys(fv))
}

// Features returns the number of descriptor indices stored in fv.
func (fv FeatureVector) Features() int {
	n := 0
	for _, idx := range fv {
		n += len(idx)
	}
	return n
}

// Clone returns a deep copy of fv.
func (fv FeatureVector) Clone() FeatureVector {
	if fv == nil {
		return nil
	}
	out := make(FeatureVector, len(fv))
	for n, idx := range fv {
		out[n] = slices.Clone(idx)
	}
	return out
}

// Equal reports whether fv and o hold the same entries.
func (fv FeatureVector) Equal(o FeatureVector) bool {
	return maps.EqualFunc(fv, o, slices.Equal[[]uint32])
}
