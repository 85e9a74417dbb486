// Package bow defines the sparse bag-of-words representation shared by the
// vocabulary and the database.
//
// A [BowVector] maps visual word ids to non-negative weights and is kept
// sorted by word id so two vectors can be compared with a single merge pass.
// A [FeatureVector] records, per vocabulary node, which descriptors of an
// image descended through that node (the "direct index").
//
// # Weighting and Scoring
//
// [Weighting] selects how word occurrences turn into weights (TF, IDF,
// TF-IDF, binary). [Scoring] selects the similarity function and, with it,
// the norm the vectors are normalized to before comparison:
//
//	v.Normalize(bow.ScoringL1Norm.Norm())
//	s := bow.ScoringL1Norm.Score(v, w) // in [0, 1], 1 for identical vectors
//
// Both are small closed enumerations; the scoring functions are pure and
// visit only the non-zero entries of the two vectors.
package bow
