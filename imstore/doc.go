// Package imstore persists raw image matrices next to the relational
// metadata. Matrices are serialized with gonum's binary format, compressed
// with zstd and written to a Blobs backend under "<image id>.mat.zst".
//
// The local filesystem backend lives in this package; an S3-compatible
// backend is provided by imstore/minio.
package imstore
