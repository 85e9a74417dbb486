// Package indexcmder provides the index command.
package indexcmder

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/dbow"
	"github.com/hupe1980/dbow/blobstore"
	"github.com/hupe1980/dbow/internal/cli"
	"github.com/hupe1980/dbow/internal/config"
)

type indexCommander struct {
	datasetDir string
	location   string

	env *cli.Env
}

const indexLongDesc string = `Add the images of a directory to a database.

The vocabulary voc.dbow is read from <store>. The images of <dataset-dir>
are appended to db.dbow in file name order, creating the database when it
does not exist yet. images.json records which image each entry came from.

Example:
  dbow index ./images ./out
  dbow index ./more-images ./out --direct-index --direct-levels 2`

const indexShortDesc string = "Add images to a database"

var indexFlags = []string{
	config.FlagDirectIndex,
	config.FlagDirectLevels,
	config.FlagStep,
	config.FlagPatchSize,
	config.FlagMaxFeatures,
	config.FlagMaxSide,
	config.FlagConcurrency,
	config.FlagCompression,
}

func NewIndexCmd() *cobra.Command {
	cmder := &indexCommander{}

	cmd := &cobra.Command{
		Use:   "index <dataset-dir> <store>",
		Short: indexShortDesc,
		Long:  indexLongDesc,
		Args:  cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cli.Setup(cmd, indexFlags...)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.env = env
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.datasetDir, cmder.location = args[0], args[1]
			return cmder.run(cmd.Context())
		},
	}

	config.AddFlags(cmd, false, indexFlags...)

	return cmd
}

func (c *indexCommander) run(ctx context.Context) error {
	names, err := cli.ListImages(c.datasetDir)
	if err != nil {
		return err
	}
	store, err := cli.OpenStore(ctx, c.location)
	if err != nil {
		return err
	}
	opts, err := c.env.Options()
	if err != nil {
		return err
	}

	db, manifest, err := c.open(ctx, store, opts)
	if err != nil {
		return err
	}

	images, err := cli.Extract(ctx, c.env, "dataset", names)
	if err != nil {
		return err
	}
	if _, err := db.AddBatch(ctx, images); err != nil {
		return err
	}
	manifest.Images = append(manifest.Images, names...)

	if err := db.SaveTo(ctx, store, cli.DatabaseBlob); err != nil {
		return err
	}
	if err := cli.SaveManifest(ctx, store, manifest); err != nil {
		return err
	}

	c.env.Printf("%s\n", db)
	return nil
}

// open loads the existing database of store, or creates an empty one over
// the stored vocabulary.
func (c *indexCommander) open(ctx context.Context, store blobstore.Store, opts []dbow.Option) (*dbow.Database, *cli.Manifest, error) {
	db, err := dbow.LoadDatabaseFrom(ctx, store, cli.DatabaseBlob, opts...)
	switch {
	case err == nil:
		manifest, err := cli.LoadManifest(ctx, store)
		if err != nil {
			return nil, nil, err
		}
		if len(manifest.Images) != db.Size() {
			c.env.Logger.Warn("image manifest does not match database", "images", len(manifest.Images), "entries", db.Size())
		}
		return db, manifest, nil
	case !errors.Is(err, blobstore.ErrNotFound):
		return nil, nil, err
	}

	voc, err := dbow.LoadVocabularyFrom(ctx, store, cli.VocabularyBlob, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("loading vocabulary: %w", err)
	}
	db, err = dbow.NewDatabase(voc, opts...)
	if err != nil {
		return nil, nil, err
	}
	return db, &cli.Manifest{}, nil
}
