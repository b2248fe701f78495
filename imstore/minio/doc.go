// Package minio implements imstore.Blobs on MinIO and other S3-compatible
// object stores.
package minio
