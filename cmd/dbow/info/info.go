// Package infocmder provides the info command.
package infocmder

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/dbow"
	"github.com/hupe1980/dbow/blobstore"
	"github.com/hupe1980/dbow/internal/cli"
)

type infoCommander struct {
	location string

	env *cli.Env
}

const infoShortDesc string = "Describe the vocabulary and database of a store"

func NewInfoCmd() *cobra.Command {
	cmder := &infoCommander{}

	cmd := &cobra.Command{
		Use:   "info <store>",
		Short: infoShortDesc,
		Long:  infoShortDesc + ".\n\nMissing artifacts are reported and skipped.",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cli.Setup(cmd)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.env = env
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.location = args[0]
			return cmder.run(cmd.Context())
		},
	}

	return cmd
}

func (c *infoCommander) run(ctx context.Context) error {
	store, err := cli.OpenStore(ctx, c.location)
	if err != nil {
		return err
	}
	opts := []dbow.Option{dbow.WithLogger(c.env.Logger)}

	found := false
	voc, err := dbow.LoadVocabularyFrom(ctx, store, cli.VocabularyBlob, opts...)
	switch {
	case err == nil:
		found = true
		c.env.Printf("%s: %s\n", cli.VocabularyBlob, voc)
	case errors.Is(err, blobstore.ErrNotFound):
		c.env.Printf("%s: not found\n", cli.VocabularyBlob)
	default:
		return err
	}

	db, err := dbow.LoadDatabaseFrom(ctx, store, cli.DatabaseBlob, opts...)
	switch {
	case err == nil:
		found = true
		c.env.Printf("%s: %s\n", cli.DatabaseBlob, db)
		manifest, err := cli.LoadManifest(ctx, store)
		if err != nil {
			return err
		}
		c.env.Printf("%s: %d images\n", cli.ManifestBlob, len(manifest.Images))
	case errors.Is(err, blobstore.ErrNotFound):
		c.env.Printf("%s: not found\n", cli.DatabaseBlob)
	default:
		return err
	}

	if !found {
		return fmt.Errorf("no dbow artifacts in %s", c.location)
	}
	return nil
}
