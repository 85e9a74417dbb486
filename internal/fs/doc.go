// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: Represents an open file with read/write/sync capabilities
//   - [FileSystem]: Abstracts filesystem operations (open, remove, rename, etc.)
//
// # Implementations
//
//   - [LocalFS]: Production implementation using standard os package
//   - [FaultyFS]: Test utility for fault injection (simulate I/O errors)
//
// Tests inject [FaultyFS] to check that a failed save leaves the previous
// artifact untouched:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("voc.dbow", fs.Fault{FailAfterBytes: 16})
//
// This package intentionally does NOT include context.Context parameters.
// Local file operations are non-interruptible at the syscall level; remote
// storage goes through blobstore, which is context-aware.
package fs
