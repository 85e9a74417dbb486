package cli

import (
	"context"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/dbow"
	"github.com/hupe1980/dbow/feature"
)

// progressExtractor logs extraction progress at most once per interval.
type progressExtractor struct {
	feature.Extractor

	logger *dbow.Logger
	set    string
	total  int
	done   atomic.Int64
	every  rate.Sometimes
}

func (p *progressExtractor) Extract(img image.Image) ([]dbow.Descriptor, error) {
	descs, err := p.Extractor.Extract(img)
	n := p.done.Add(1)
	p.every.Do(func() {
		p.logger.Info("extracting features", "set", p.set, "done", n, "total", p.total)
	})
	return descs, err
}

// ListImages lists the images of dir and fails when there are none.
func ListImages(dir string) ([]string, error) {
	paths, err := feature.ListImages(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images in %s", dir)
	}
	return paths, nil
}

// Extract extracts the descriptors of every image in paths with the
// configured extractor. set names the image set in progress logs.
func Extract(ctx context.Context, env *Env, set string, paths []string) ([][]dbow.Descriptor, error) {
	ex, err := env.Config.Extractor()
	if err != nil {
		return nil, err
	}
	p := &progressExtractor{
		Extractor: ex,
		logger:    env.Logger,
		set:       set,
		total:     len(paths),
		every:     rate.Sometimes{First: 1, Interval: time.Second},
	}

	start := time.Now()
	descs, err := feature.ExtractAll(ctx, paths, p, env.Config.Extract.Concurrency)
	if err != nil {
		return nil, err
	}

	var n int
	for _, d := range descs {
		n += len(d)
	}
	env.Logger.Debug("features extracted", "set", set, "images", len(paths), "descriptors", n, "elapsed", time.Since(start))
	return descs, nil
}
