package bow

import "fmt"

// Weighting selects how word occurrences become BowVector weights.
type Weighting uint8

const (
	// WeightingTFIDF weights each hit by the word's inverse document frequency.
	WeightingTFIDF Weighting = iota
	// WeightingTF counts hits (term frequency).
	WeightingTF
	// WeightingIDF records the word's inverse document frequency once.
	WeightingIDF
	// WeightingBinary records presence only.
	WeightingBinary
)

// Valid reports whether w is a known weighting scheme.
func (w Weighting) Valid() bool { return w <= WeightingBinary }

// UsesIDF reports whether word weights come from corpus statistics.
func (w Weighting) UsesIDF() bool { return w == WeightingTFIDF || w == WeightingIDF }

// Accumulates reports whether repeated hits of a word add up (TF, TF-IDF)
// rather than being recorded once (IDF, binary).
func (w Weighting) Accumulates() bool { return w == WeightingTFIDF || w == WeightingTF }

func (w Weighting) String() string {
	switch w {
	case WeightingTFIDF:
		return "tf-idf"
	case WeightingTF:
		return "tf"
	case WeightingIDF:
		return "idf"
	case WeightingBinary:
		return "binary"
	default:
		return fmt.Sprintf("Unknown(%d)", w)
	}
}

// ParseWeighting parses the String form of a weighting.
func ParseWeighting(s string) (Weighting, error) {
	switch s {
	case "tf-idf", "tfidf", "TF_IDF":
		return WeightingTFIDF, nil
	case "tf", "TF":
		return WeightingTF, nil
	case "idf", "IDF":
		return WeightingIDF, nil
	case "binary", "BINARY":
		return WeightingBinary, nil
	default:
		return 0, fmt.Errorf("bow: unknown weighting %q", s)
	}
}
