// Package persistence provides the binary container used for vocabulary and
// database files.
//
// # File Layout
//
//	┌───────────────────────────── 32-byte header ─────────────────────────────┐
//	│ magic "DBOW" │ version │ kind │ compression │ pad │ payload size │ stored size │ crc32 │
//	└──────────────────────────────────────────────────────────────────────────┘
//	│ stored bytes (payload, compressed with the header's compression)          │
//
// The checksum covers the uncompressed payload, so both a damaged
// compressed stream and a damaged payload are detected on Open.
//
// # Payload Encoding
//
// Payloads are written with [Encoder] (little-endian fixed-width numbers,
// uvarints for counts and ids) and read back with [Decoder], whose sticky
// error turns any truncation into a single [ErrTruncated].
//
// # Compression
//
// [CompressionZSTD] (default), [CompressionGzip], [CompressionLZ4] or
// [CompressionNone]. A payload that does not shrink is stored uncompressed.
package persistence
