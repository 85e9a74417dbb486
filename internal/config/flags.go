package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// defaults and descriptions inline, so the same logical flag stays
// identical on every command that has it.
type Flag struct {
	// Name is the long flag name (e.g. "top-k").
	Name string

	// Shorthand is the one-letter short flag (e.g. "k"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "query.top_k").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// Flag registry keys.
const (
	FlagBranching    = "branching"
	FlagLevels       = "levels"
	FlagWeighting    = "weighting"
	FlagScoring      = "scoring"
	FlagMetric       = "metric"
	FlagSeed         = "seed"
	FlagDirectIndex  = "direct-index"
	FlagDirectLevels = "direct-levels"
	FlagTopK         = "top-k"
	FlagCodec        = "codec"
	FlagStep         = "step"
	FlagPatchSize    = "patch-size"
	FlagMaxFeatures  = "max-features"
	FlagMaxSide      = "max-side"
	FlagConcurrency  = "concurrency"
	FlagCompression  = "compression"
	FlagLogFormat    = "log-format"
	FlagDebug        = "debug"
)

// Flags is the registry of all CLI flags.
var Flags = map[string]Flag{
	FlagBranching:    {Name: "branching", ViperKey: "vocabulary.k", Description: "Vocabulary branching factor k"},
	FlagLevels:       {Name: "levels", Shorthand: "L", ViperKey: "vocabulary.levels", Description: "Vocabulary depth levels L"},
	FlagWeighting:    {Name: "weighting", ViperKey: "vocabulary.weighting", Description: "Word weighting (tf-idf, tf, idf, binary)"},
	FlagScoring:      {Name: "scoring", ViperKey: "vocabulary.scoring", Description: "Scoring (l1, l2, chi-square, kl, bhattacharyya, cosine)"},
	FlagMetric:       {Name: "metric", ViperKey: "vocabulary.metric", Description: "Descriptor metric (l2, hamming)"},
	FlagSeed:         {Name: "seed", ViperKey: "vocabulary.seed", Description: "Seed for k-means++ initialisation"},
	FlagDirectIndex:  {Name: "direct-index", ViperKey: "database.direct_index", Description: "Store per-node descriptor indices in the database"},
	FlagDirectLevels: {Name: "direct-levels", ViperKey: "database.direct_levels", Description: "Direct index levels up from the leaves"},
	FlagTopK:         {Name: "top-k", Shorthand: "k", ViperKey: "query.top_k", Description: "Number of query results"},
	FlagCodec:        {Name: "codec", ViperKey: "query.codec", Description: "JSON codec for --json output (go-json, json)"},
	FlagStep:         {Name: "step", ViperKey: "extract.step", Description: "Dense grid step in pixels"},
	FlagPatchSize:    {Name: "patch-size", ViperKey: "extract.patch_size", Description: "Patch side in pixels (multiple of 4)"},
	FlagMaxFeatures:  {Name: "max-features", ViperKey: "extract.max_features", Description: "Maximum descriptors per image (0 = unlimited)"},
	FlagMaxSide:      {Name: "max-side", ViperKey: "extract.max_side", Description: "Downscale images to this longer side (0 = keep)"},
	FlagConcurrency:  {Name: "concurrency", ViperKey: "extract.concurrency", Description: "Parallel workers (0 = GOMAXPROCS)"},
	FlagCompression:  {Name: "compression", ViperKey: "storage.compression", Description: "Artifact compression (none, lz4, zstd, gzip)"},
	FlagLogFormat:    {Name: "log-format", ViperKey: "log.format", Description: "Log format (text, json)"},
	FlagDebug:        {Name: "debug", Shorthand: "d", ViperKey: "log.debug", Description: "Enable debug logging"},
}

// AddFlags registers the flags named by registryKeys on cmd. Defaults come
// from NewDefaultConfig(). Persistent flags are registered when persistent
// is true.
func AddFlags(cmd *cobra.Command, persistent bool, registryKeys ...string) {
	d := viper.New()
	setViperDefaults(d)

	fs := cmd.Flags()
	if persistent {
		fs = cmd.PersistentFlags()
	}
	for _, key := range registryKeys {
		def, ok := Flags[key]
		if !ok {
			continue
		}
		switch val := d.Get(def.ViperKey).(type) {
		case bool:
			fs.BoolP(def.Name, def.Shorthand, val, def.Description)
		case int:
			fs.IntP(def.Name, def.Shorthand, val, def.Description)
		case uint64:
			fs.Uint64P(def.Name, def.Shorthand, val, def.Description)
		case float64:
			fs.Float64P(def.Name, def.Shorthand, val, def.Description)
		default:
			fs.StringP(def.Name, def.Shorthand, d.GetString(def.ViperKey), def.Description)
		}
	}
}

// BindFlags binds already-registered flags to viper. Call this in PreRunE
// after InitViper to connect flags to the viper precedence chain
// (flag > env > config file > default).
func BindFlags(v *viper.Viper, cmd *cobra.Command, registryKeys ...string) {
	for _, key := range registryKeys {
		def, ok := Flags[key]
		if !ok {
			continue
		}
		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}
		_ = v.BindPFlag(def.ViperKey, f)
	}
}
