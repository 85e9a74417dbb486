// Package resolver opens a blobstore.Store from a location string.
package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hupe1980/dbow/blobstore"
	minioblob "github.com/hupe1980/dbow/blobstore/minio"
	s3blob "github.com/hupe1980/dbow/blobstore/s3"
)

// FromURL returns the store addressed by location:
//
//	/some/dir, file:///some/dir    local directory
//	s3://bucket/prefix             Amazon S3, default AWS credential chain
//	minio://host:port/bucket/prefix  MinIO, credentials from MINIO_* env
//	memory://                      process-local memory store
func FromURL(ctx context.Context, location string) (blobstore.Store, error) {
	if !strings.Contains(location, "://") {
		return blobstore.NewLocalStore(location), nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("resolver: invalid location %q: %w", location, err)
	}

	switch u.Scheme {
	case "file":
		return blobstore.NewLocalStore(u.Path), nil
	case "memory", "mem":
		return blobstore.NewMemoryStore(), nil
	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("resolver: missing bucket in %q", location)
		}
		opts := []func(*s3blob.Options){s3blob.WithPrefix(strings.Trim(u.Path, "/"))}
		if region := u.Query().Get("region"); region != "" {
			opts = append(opts, s3blob.WithRegion(region))
		}
		return s3blob.New(ctx, u.Host, opts...)
	case "minio":
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if u.Host == "" || bucket == "" {
			return nil, fmt.Errorf("resolver: expected minio://host/bucket[/prefix], got %q", location)
		}
		client, err := minioblob.NewClient(u.Host)
		if err != nil {
			return nil, err
		}
		return minioblob.NewStore(client, bucket, prefix), nil
	default:
		return nil, fmt.Errorf("resolver: unsupported scheme %q", u.Scheme)
	}
}
