// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", s3.WithPrefix("dbow/run1"))
//	if err != nil { ... }
//	err = voc.SaveTo(ctx, store, "voc.dbow")
//
// Uploads go through the SDK upload manager, so large databases are sent as
// concurrent multipart uploads. Listing follows pagination.
package s3
