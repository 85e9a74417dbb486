// Package blobstore provides storage backends for vocabulary and database
// artifacts.
//
// Store is the interface for writing and reading whole named blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local directory, reads through a read-only memory mapping
//   - MemoryStore: in-process map, for tests
//   - s3.Store: Amazon S3 (package blobstore/s3)
//   - minio.Store: MinIO and other S3-compatible servers (package blobstore/minio)
//
// Package blobstore/resolver opens any of these from a URL.
//
// # Custom Implementations
//
//	type Store interface {
//	    Put(ctx, name, data) error          // atomic write
//	    Get(ctx, name) ([]byte, error)      // ErrNotFound if missing
//	    List(ctx, prefix) ([]string, error) // sorted
//	    Delete(ctx, name) error             // idempotent
//	}
package blobstore
