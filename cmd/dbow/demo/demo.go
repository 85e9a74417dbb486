// Package democmder provides the demo command, which runs the whole
// vocabulary and database pipeline on two image directories.
package democmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/dbow"
	"github.com/hupe1980/dbow/blobstore"
	"github.com/hupe1980/dbow/bow"
	"github.com/hupe1980/dbow/internal/cli"
	"github.com/hupe1980/dbow/internal/config"
)

type demoCommander struct {
	datasetDir string
	queryDir   string
	output     string

	env *cli.Env
}

const demoLongDesc string = `Run the complete pipeline on two image directories.

The demo extracts features from every dataset and query image, builds a
vocabulary, matches the dataset images against each other, saves and
reloads the vocabulary, indexes the dataset images in a database, queries
it with every query image, and finally saves and reloads the database.

Artifacts (voc.dbow, db.dbow, images.json) are written to <output>.

Example:
  dbow demo ./images/dataset ./images/queries ./out
  dbow demo ./dataset ./queries s3://my-bucket/dbow --top-k 8`

const demoShortDesc string = "Run the vocabulary and database demo"

var demoFlags = []string{
	config.FlagBranching,
	config.FlagLevels,
	config.FlagWeighting,
	config.FlagScoring,
	config.FlagSeed,
	config.FlagDirectIndex,
	config.FlagDirectLevels,
	config.FlagTopK,
	config.FlagStep,
	config.FlagPatchSize,
	config.FlagMaxFeatures,
	config.FlagMaxSide,
	config.FlagConcurrency,
	config.FlagCompression,
}

func NewDemoCmd() *cobra.Command {
	cmder := &demoCommander{}

	cmd := &cobra.Command{
		Use:   "demo <dataset-dir> <query-dir> <output>",
		Short: demoShortDesc,
		Long:  demoLongDesc,
		Args:  cobra.ExactArgs(3),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cli.Setup(cmd, demoFlags...)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.env = env
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.datasetDir, cmder.queryDir, cmder.output = args[0], args[1], args[2]
			return cmder.run(cmd.Context())
		},
	}

	config.AddFlags(cmd, false, demoFlags...)

	return cmd
}

func (c *demoCommander) run(ctx context.Context) error {
	datasetNames, err := cli.ListImages(c.datasetDir)
	if err != nil {
		return err
	}
	queryNames, err := cli.ListImages(c.queryDir)
	if err != nil {
		return err
	}
	store, err := cli.OpenStore(ctx, c.output)
	if err != nil {
		return err
	}

	c.printImages("Dataset images:", datasetNames)
	c.printImages("Query images:", queryNames)

	c.env.Println("Extracting features...")
	dataset, err := cli.Extract(ctx, c.env, "dataset", datasetNames)
	if err != nil {
		return err
	}
	queries, err := cli.Extract(ctx, c.env, "query", queryNames)
	if err != nil {
		return err
	}
	c.env.Println()

	voc, err := c.vocabulary(ctx, store, dataset)
	if err != nil {
		return err
	}

	return c.database(ctx, store, voc, dataset, datasetNames, queries, queryNames)
}

func (c *demoCommander) printImages(title string, names []string) {
	c.env.Println(title)
	for i, n := range names {
		c.env.Printf("image %d = %s\n", i, n)
	}
	c.env.Println()
}

// vocabulary trains, scores the dataset against itself, then saves and
// reloads the vocabulary.
func (c *demoCommander) vocabulary(ctx context.Context, store blobstore.Store, dataset [][]dbow.Descriptor) (*dbow.Vocabulary, error) {
	vc := c.env.Config.Vocabulary
	c.env.Printf("Creating a %d^%d vocabulary...\n", vc.BranchingFactor, vc.DepthLevels)
	voc, err := cli.Train(ctx, c.env, dataset)
	if err != nil {
		return nil, err
	}
	c.env.Println("... done!")
	c.env.Printf("Vocabulary information:\n%s\n\n", voc)

	c.env.Println("Matching images against themselves (0 low, 1 high):")
	vectors := make([]bow.BowVector, len(dataset))
	for i, descs := range dataset {
		v, err := voc.Transform(descs)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	for i := range vectors {
		for j := range vectors {
			c.env.Printf("Image %d vs Image %d: %g\n", i, j, voc.Score(vectors[i], vectors[j]))
		}
	}

	c.env.Println("\nSaving vocabulary...")
	if err := voc.SaveTo(ctx, store, cli.VocabularyBlob); err != nil {
		return nil, err
	}
	c.env.Println("Done")

	opts, err := c.env.Options()
	if err != nil {
		return nil, err
	}
	return dbow.LoadVocabularyFrom(ctx, store, cli.VocabularyBlob, opts...)
}

// database indexes the dataset, queries it and round-trips it through the
// store.
func (c *demoCommander) database(ctx context.Context, store blobstore.Store, voc *dbow.Vocabulary,
	dataset [][]dbow.Descriptor, datasetNames []string, queries [][]dbow.Descriptor, queryNames []string) error {
	c.env.Println("Creating a database...")
	db, err := cli.Index(ctx, c.env, voc, dataset)
	if err != nil {
		return err
	}
	manifest := &cli.Manifest{Images: datasetNames}
	c.env.Println("... done!")
	c.env.Printf("Database information:\n%s\n\n", db)

	topK := c.env.Config.Query.TopK
	c.env.Println("Querying the database:")
	for i, descs := range queries {
		res, err := db.Query(descs, topK)
		if err != nil {
			return err
		}
		c.env.PrintReport(i, cli.NewQueryReport(queryNames[i], res, manifest))
	}
	c.env.Println()

	c.env.Println("Saving database...")
	if err := db.SaveTo(ctx, store, cli.DatabaseBlob); err != nil {
		return err
	}
	if err := cli.SaveManifest(ctx, store, manifest); err != nil {
		return err
	}
	c.env.Println("... done!")

	c.env.Println("Retrieving database once again...")
	opts, err := c.env.Options()
	if err != nil {
		return err
	}
	again, err := dbow.LoadDatabaseFrom(ctx, store, cli.DatabaseBlob, opts...)
	if err != nil {
		return err
	}
	c.env.Printf("... done! This is:\n%s\n", again)
	return nil
}
