// Package testutil provides testing utilities for dbow.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded random source and generators for synthetic
// descriptor corpora whose documents draw descriptors from a shared set of
// well separated clusters, so a trained vocabulary has a known structure.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vec := make([]float32, 128)
//	rng.FillUniform(vec) // uniform [0, 1)
//
// # Synthetic Corpora
//
//	corpus := testutil.ClusteredCorpus[dbow.Descriptor](rng, testutil.CorpusConfig{
//		Documents: 10, PerDocument: 50, Dim: 32, Clusters: 9, Spread: 0.05,
//	})
package testutil
