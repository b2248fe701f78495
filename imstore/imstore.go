package imstore

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/viant/voctree/model"
)

const matrixSuffix = ".mat.zst"

// Store keeps image matrices in a Blobs backend.
type Store struct {
	blobs Blobs
}

// New creates a Store over blobs.
func New(blobs Blobs) *Store {
	return &Store{blobs: blobs}
}

// Key returns the blob name of an image matrix.
func Key(id model.ImageID) string { return id.String() + matrixSuffix }

// StoreMatrix persists im.Mat under the image id.
func (s *Store) StoreMatrix(ctx context.Context, im model.Image) error {
	if im.Mat == nil {
		return fmt.Errorf("imstore: image %s has no matrix", im.ID)
	}
	data, err := encodeMatrix(im.Mat)
	if err != nil {
		return err
	}
	return s.blobs.Put(ctx, Key(im.ID), data)
}

// GetMatrix loads the matrix of an image.
func (s *Store) GetMatrix(ctx context.Context, id model.ImageID) (*mat.Dense, error) {
	data, err := s.blobs.Get(ctx, Key(id))
	if err != nil {
		return nil, err
	}
	return decodeMatrix(data)
}

// LoadMatrix returns a copy of im carrying its stored matrix.
func (s *Store) LoadMatrix(ctx context.Context, im model.Image) (model.Image, error) {
	m, err := s.GetMatrix(ctx, im.ID)
	if err != nil {
		return model.Image{}, err
	}
	return im.WithMat(m), nil
}

// DeleteMatrix removes the matrix of an image if present.
func (s *Store) DeleteMatrix(ctx context.Context, id model.ImageID) error {
	return s.blobs.Delete(ctx, Key(id))
}

// GetPath reports where the matrix of an image is stored.
func (s *Store) GetPath(id model.ImageID) string { return s.blobs.Path(Key(id)) }
