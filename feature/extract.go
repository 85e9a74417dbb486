package feature

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/dbow"
)

// ExtractFile loads the image at path and extracts its descriptors.
func ExtractFile(path string, ex Extractor) ([]dbow.Descriptor, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	descs, err := ex.Extract(img)
	if err != nil {
		return nil, fmt.Errorf("feature: %s: %w", path, err)
	}
	return descs, nil
}

// ExtractAll extracts the descriptors of every image in paths with at most
// concurrency goroutines (values below 1 select GOMAXPROCS). The result is
// in input order. The first failure cancels the remaining work.
func ExtractAll(ctx context.Context, paths []string, ex Extractor, concurrency int) ([][]dbow.Descriptor, error) {
	if concurrency < 1 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	out := make([][]dbow.Descriptor, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			descs, err := ExtractFile(p, ex)
			if err != nil {
				return err
			}
			out[i] = descs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
