package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/viant/voctree/imstore"
)

// Options configure a client created by Dial.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool
}

// Dial creates a MinIO client with static credentials.
func Dial(opts Options) (*minio.Client, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("imstore/minio: dial %s: %w", opts.Endpoint, err)
	}
	return client, nil
}

// Store implements imstore.Blobs in one bucket.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// New creates a blob backend. prefix is prepended to every key
// (e.g. "images/").
func New(client *minio.Client, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// EnsureBucket creates the bucket when it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("imstore/minio: bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("imstore/minio: make bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Put uploads a blob. Object writes are atomic on S3-compatible stores.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/zstd"})
	if err != nil {
		return fmt.Errorf("imstore/minio: put %s: %w", name, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrap("get", name, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.wrap("get", name, err)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("imstore/minio: delete %s: %w", name, err)
	}
	return nil
}

// Path returns the object URL of name.
func (s *Store) Path(name string) string {
	u := *s.client.EndpointURL()
	u.Path = path.Join("/", s.bucket, s.key(name))
	return u.String()
}

func (s *Store) wrap(op, name string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("imstore/minio: %s: %w", name, imstore.ErrNotFound)
	}
	return fmt.Errorf("imstore/minio: %s %s: %w", op, name, err)
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

var _ imstore.Blobs = (*Store)(nil)
