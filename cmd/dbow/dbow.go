// Package dbowcmder
package dbowcmder

import (
	"github.com/spf13/cobra"

	democmder "github.com/hupe1980/dbow/cmd/dbow/demo"
	indexcmder "github.com/hupe1980/dbow/cmd/dbow/index"
	infocmder "github.com/hupe1980/dbow/cmd/dbow/info"
	querycmder "github.com/hupe1980/dbow/cmd/dbow/query"
	traincmder "github.com/hupe1980/dbow/cmd/dbow/train"
	"github.com/hupe1980/dbow/internal/config"
)

const dbowLongDesc string = `dbow builds visual vocabularies and image databases for place recognition.

Typical workflow:
  dbow train <dataset-dir> <store>       Build a vocabulary from images
  dbow index <dataset-dir> <store>       Add images to a database
  dbow query <store> <image>...          Find the most similar images
  dbow info <store>                      Describe stored artifacts
  dbow demo <dataset-dir> <query-dir> <store>
                                         Run the whole pipeline

<store> is a directory, s3://bucket/prefix or minio://host/bucket/prefix.
Settings are read from dbow.toml, DBOW_* environment variables and flags.`

const dbowShortDesc string = "dbow - bag of words image retrieval"

func NewDbowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dbow",
		Short: dbowShortDesc,
		Long:  dbowLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().String("config", "", "Config file (default ./dbow.toml)")
	config.AddFlags(cmd, true, config.FlagDebug, config.FlagLogFormat)

	// Add subcommands
	cmd.AddCommand(democmder.NewDemoCmd())
	cmd.AddCommand(traincmder.NewTrainCmd())
	cmd.AddCommand(indexcmder.NewIndexCmd())
	cmd.AddCommand(querycmder.NewQueryCmd())
	cmd.AddCommand(infocmder.NewInfoCmd())

	return cmd
}
