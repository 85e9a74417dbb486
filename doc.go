// Package dbow provides a hierarchical bag-of-visual-words vocabulary and an
// image database for Go.
//
// A Vocabulary is a k-ary tree of descriptor cluster centres trained offline
// with k-means. Descending a descriptor from the root to a leaf maps it to a
// visual word; a set of descriptors becomes a sparse weighted histogram, the
// BowVector. A Database stores BowVectors of documents (images) and returns
// the documents most similar to a query.
//
// # Quick Start
//
//	cfg := dbow.DefaultVocabularyConfig()
//	cfg.BranchingFactor, cfg.DepthLevels = 9, 3
//	voc, _ := dbow.Create(ctx, corpus, cfg)   // corpus: one []Descriptor per image
//	_ = voc.SaveFile("voc.dbow")
//
//	db, _ := dbow.NewDatabase(voc)
//	for _, descs := range corpus {
//	    db.Add(descs)
//	}
//	results, _ := db.Query(queryDescs, 4)
//	for _, r := range results {
//	    fmt.Println(r.ID, r.Score)
//	}
//
// # Weighting and Scoring
//
// Word weights follow the configured bow.Weighting (TF-IDF, TF, IDF or
// binary). BowVectors are normalized for the configured bow.Scoring (L1, L2,
// chi-square, KL, Bhattacharyya or cosine); every scoring returns values in
// [0, 1] with identical vectors scoring 1.
//
// # Direct Index
//
// With WithDirectIndex(levelsUp) a Database also keeps, per document, the
// descriptors grouped by the tree node levelsUp levels above the leaves
// (bow.FeatureVector), for geometric verification by callers.
//
// # Persistence
//
// Vocabularies and databases are stored as a 32-byte header followed by a
// compressed (zstd by default; none, LZ4 and gzip also available) payload
// with a CRC32 checksum. Save/Load work on io.Writer/io.Reader, SaveFile /
// LoadVocabularyFile on local paths (written atomically) and SaveTo /
// LoadVocabularyFrom on any blobstore.Store (local, memory, S3, MinIO).
package dbow
