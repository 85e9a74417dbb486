package config

const (
	defaultBranchingFactor = 9
	defaultDepthLevels     = 3
	defaultWeighting       = "tf-idf"
	defaultScoring         = "l1"
	defaultMetric          = "l2"

	defaultTopK  = 4
	defaultCodec = "go-json"

	defaultStep         = 8
	defaultPatchSize    = 16
	defaultContrast     = 0.04
	defaultMaxImageSide = 640

	defaultCompression = "zstd"
	defaultLogFormat   = "text"
)

// NewDefaultConfig returns a Config with the defaults of the demo: a k = 9,
// L = 3 TF-IDF vocabulary scored with L1, top 4 query results.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Vocabulary: VocabularyConfig{
			BranchingFactor: defaultBranchingFactor,
			DepthLevels:     defaultDepthLevels,
			Weighting:       defaultWeighting,
			Scoring:         defaultScoring,
			Metric:          defaultMetric,
		},
		Query: QueryConfig{
			TopK:  defaultTopK,
			Codec: defaultCodec,
		},
		Extract: ExtractConfig{
			Step:              defaultStep,
			PatchSize:         defaultPatchSize,
			ContrastThreshold: defaultContrast,
			MaxImageSide:      defaultMaxImageSide,
		},
		Storage: StorageConfig{
			Compression: defaultCompression,
		},
		Log: LogConfig{
			Format: defaultLogFormat,
		},
	}
}
