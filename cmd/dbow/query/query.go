// Package querycmder provides the query command.
package querycmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/dbow"
	"github.com/hupe1980/dbow/internal/cli"
	"github.com/hupe1980/dbow/internal/config"
)

type queryCommander struct {
	location string
	images   []string
	json     bool

	env *cli.Env
}

const queryLongDesc string = `Find the database entries most similar to each query image.

The database db.dbow and its image manifest are read from <store>. Results
are printed best first. Use --json to print one JSON object per query
image instead.

Example:
  dbow query ./out query1.png query2.png
  dbow query s3://my-bucket/dbow query.png --top-k 10 --json`

const queryShortDesc string = "Query a database with images"

var queryFlags = []string{
	config.FlagTopK,
	config.FlagCodec,
	config.FlagStep,
	config.FlagPatchSize,
	config.FlagMaxFeatures,
	config.FlagMaxSide,
	config.FlagConcurrency,
}

func NewQueryCmd() *cobra.Command {
	cmder := &queryCommander{}

	cmd := &cobra.Command{
		Use:   "query <store> <image>...",
		Short: queryShortDesc,
		Long:  queryLongDesc,
		Args:  cobra.MinimumNArgs(2),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cli.Setup(cmd, queryFlags...)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.env = env
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.location, cmder.images = args[0], args[1:]
			return cmder.run(cmd.Context())
		},
	}

	config.AddFlags(cmd, false, queryFlags...)
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print results as JSON lines")

	return cmd
}

func (c *queryCommander) run(ctx context.Context) error {
	store, err := cli.OpenStore(ctx, c.location)
	if err != nil {
		return err
	}
	opts, err := c.env.Options()
	if err != nil {
		return err
	}
	db, err := dbow.LoadDatabaseFrom(ctx, store, cli.DatabaseBlob, opts...)
	if err != nil {
		return err
	}
	manifest, err := cli.LoadManifest(ctx, store)
	if err != nil {
		return err
	}

	queries, err := cli.Extract(ctx, c.env, "query", c.images)
	if err != nil {
		return err
	}

	for i, descs := range queries {
		res, err := db.Query(descs, c.env.Config.Query.TopK)
		if err != nil {
			return err
		}
		report := cli.NewQueryReport(c.images[i], res, manifest)
		if c.json {
			if err := c.env.WriteReport(report); err != nil {
				return err
			}
			continue
		}
		c.env.PrintReport(i, report)
	}
	return nil
}
