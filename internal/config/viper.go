package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads configFile (or dbow.toml
// in the working directory when configFile is empty) and binds environment
// variables with the DBOW_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindFlags)
//  2. Environment variables (DBOW_VOCABULARY_K, DBOW_QUERY_TOP_K, etc.)
//  3. config file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configFile string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("dbow")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine, defaults will apply.
		if configFile != "" || !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("DBOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// Load decodes the effective configuration.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	// Vocabulary
	v.SetDefault("vocabulary.k", d.Vocabulary.BranchingFactor)
	v.SetDefault("vocabulary.levels", d.Vocabulary.DepthLevels)
	v.SetDefault("vocabulary.weighting", d.Vocabulary.Weighting)
	v.SetDefault("vocabulary.scoring", d.Vocabulary.Scoring)
	v.SetDefault("vocabulary.metric", d.Vocabulary.Metric)
	v.SetDefault("vocabulary.seed", d.Vocabulary.Seed)

	// Database
	v.SetDefault("database.direct_index", d.Database.DirectIndex)
	v.SetDefault("database.direct_levels", d.Database.DirectLevels)

	// Query
	v.SetDefault("query.top_k", d.Query.TopK)
	v.SetDefault("query.codec", d.Query.Codec)

	// Extraction
	v.SetDefault("extract.step", d.Extract.Step)
	v.SetDefault("extract.patch_size", d.Extract.PatchSize)
	v.SetDefault("extract.max_features", d.Extract.MaxFeatures)
	v.SetDefault("extract.contrast", d.Extract.ContrastThreshold)
	v.SetDefault("extract.max_side", d.Extract.MaxImageSide)
	v.SetDefault("extract.concurrency", d.Extract.Concurrency)

	// Storage
	v.SetDefault("storage.compression", d.Storage.Compression)

	// Logging
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.debug", d.Log.Debug)
}
