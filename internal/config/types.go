// Package config loads the dbow CLI configuration with viper.
package config

import (
	"fmt"

	"github.com/hupe1980/dbow"
	"github.com/hupe1980/dbow/bow"
	"github.com/hupe1980/dbow/codec"
	"github.com/hupe1980/dbow/distance"
	"github.com/hupe1980/dbow/feature"
	"github.com/hupe1980/dbow/persistence"
)

// Config is the CLI configuration. The TOML layout uses one section per
// concern.
type Config struct {
	Vocabulary VocabularyConfig `mapstructure:"vocabulary"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Query      QueryConfig      `mapstructure:"query"`
	Extract    ExtractConfig    `mapstructure:"extract"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Log        LogConfig        `mapstructure:"log"`
}

// VocabularyConfig holds vocabulary build parameters.
type VocabularyConfig struct {
	BranchingFactor int    `mapstructure:"k"`
	DepthLevels     int    `mapstructure:"levels"`
	Weighting       string `mapstructure:"weighting"`
	Scoring         string `mapstructure:"scoring"`
	Metric          string `mapstructure:"metric"`
	Seed            uint64 `mapstructure:"seed"`
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	DirectIndex  bool `mapstructure:"direct_index"`
	DirectLevels int  `mapstructure:"direct_levels"`
}

// QueryConfig holds query settings.
type QueryConfig struct {
	TopK  int    `mapstructure:"top_k"`
	Codec string `mapstructure:"codec"`
}

// ExtractConfig holds descriptor extraction settings.
type ExtractConfig struct {
	Step              int     `mapstructure:"step"`
	PatchSize         int     `mapstructure:"patch_size"`
	MaxFeatures       int     `mapstructure:"max_features"`
	ContrastThreshold float64 `mapstructure:"contrast"`
	MaxImageSide      int     `mapstructure:"max_side"`
	Concurrency       int     `mapstructure:"concurrency"`
}

// StorageConfig holds artifact storage settings.
type StorageConfig struct {
	Compression string `mapstructure:"compression"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Format string `mapstructure:"format"`
	Debug  bool   `mapstructure:"debug"`
}

// VocabularyOptions converts the vocabulary section into build parameters.
func (c *Config) VocabularyOptions() (dbow.VocabularyConfig, error) {
	w, err := bow.ParseWeighting(c.Vocabulary.Weighting)
	if err != nil {
		return dbow.VocabularyConfig{}, err
	}
	s, err := bow.ParseScoring(c.Vocabulary.Scoring)
	if err != nil {
		return dbow.VocabularyConfig{}, err
	}
	m, err := distance.ParseMetric(c.Vocabulary.Metric)
	if err != nil {
		return dbow.VocabularyConfig{}, err
	}
	cfg := dbow.DefaultVocabularyConfig()
	cfg.BranchingFactor = c.Vocabulary.BranchingFactor
	cfg.DepthLevels = c.Vocabulary.DepthLevels
	cfg.Weighting = w
	cfg.Scoring = s
	cfg.Metric = m
	cfg.Seed = c.Vocabulary.Seed
	return cfg, cfg.Validate()
}

// Extractor returns the dense extractor described by the extract section.
func (c *Config) Extractor() (*feature.DenseExtractor, error) {
	ex := &feature.DenseExtractor{
		Step:              c.Extract.Step,
		PatchSize:         c.Extract.PatchSize,
		MaxFeatures:       c.Extract.MaxFeatures,
		ContrastThreshold: c.Extract.ContrastThreshold,
		MaxImageSide:      c.Extract.MaxImageSide,
	}
	return ex, ex.Validate()
}

// Compression parses the storage compression.
func (c *Config) Compression() (persistence.Compression, error) {
	return persistence.ParseCompression(c.Storage.Compression)
}

// Codec resolves the output codec of the query section.
func (c *Config) Codec() (codec.Codec, error) {
	cd, ok := codec.ByName(c.Query.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (want one of %v)", c.Query.Codec, codec.Names())
	}
	return cd, nil
}

// Options returns the library options shared by every command.
func (c *Config) Options(logger *dbow.Logger) ([]dbow.Option, error) {
	comp, err := c.Compression()
	if err != nil {
		return nil, err
	}
	opts := []dbow.Option{
		dbow.WithLogger(logger),
		dbow.WithCompression(comp),
		dbow.WithConcurrency(c.Extract.Concurrency),
	}
	if c.Database.DirectIndex {
		opts = append(opts, dbow.WithDirectIndex(c.Database.DirectLevels))
	}
	return opts, nil
}
