// Package traincmder provides the train command.
package traincmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/dbow/internal/cli"
	"github.com/hupe1980/dbow/internal/config"
)

type trainCommander struct {
	datasetDir string
	output     string

	env *cli.Env
}

const trainLongDesc string = `Build a vocabulary from the images of a directory.

Every image in <dataset-dir> contributes its descriptors to the k-means
training set. The vocabulary is saved as voc.dbow in <output>.

Example:
  dbow train ./images ./out --branching 10 --levels 5
  dbow train ./images minio://localhost:9000/models/dbow --weighting idf`

const trainShortDesc string = "Build a vocabulary"

var trainFlags = []string{
	config.FlagBranching,
	config.FlagLevels,
	config.FlagWeighting,
	config.FlagScoring,
	config.FlagMetric,
	config.FlagSeed,
	config.FlagStep,
	config.FlagPatchSize,
	config.FlagMaxFeatures,
	config.FlagMaxSide,
	config.FlagConcurrency,
	config.FlagCompression,
}

func NewTrainCmd() *cobra.Command {
	cmder := &trainCommander{}

	cmd := &cobra.Command{
		Use:   "train <dataset-dir> <output>",
		Short: trainShortDesc,
		Long:  trainLongDesc,
		Args:  cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cli.Setup(cmd, trainFlags...)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.env = env
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.datasetDir, cmder.output = args[0], args[1]
			return cmder.run(cmd.Context())
		},
	}

	config.AddFlags(cmd, false, trainFlags...)

	return cmd
}

func (c *trainCommander) run(ctx context.Context) error {
	names, err := cli.ListImages(c.datasetDir)
	if err != nil {
		return err
	}
	store, err := cli.OpenStore(ctx, c.output)
	if err != nil {
		return err
	}

	corpus, err := cli.Extract(ctx, c.env, "dataset", names)
	if err != nil {
		return err
	}
	voc, err := cli.Train(ctx, c.env, corpus)
	if err != nil {
		return err
	}
	if err := voc.SaveTo(ctx, store, cli.VocabularyBlob); err != nil {
		return err
	}

	c.env.Printf("%s\n", voc)
	return nil
}
