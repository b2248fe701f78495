package voctree

import (
	"context"

	"github.com/viant/voctree/model"
)

// FeatureExtractor turns a stored image into feature vectors. Dim is stable
// across calls.
type FeatureExtractor interface {
	Features(ctx context.Context, im model.Image) ([]model.Feature, error)
	Dim() int
}

// Cluster is one group produced by a Clusterer: its center and the indexes of
// the input vectors assigned to it.
type Cluster struct {
	Centroid []float32
	Members  []int
}

// Clusterer partitions vectors into at most k groups. Fewer groups are
// allowed when the input has fewer distinct points. Every input index must
// belong to exactly one group.
type Clusterer interface {
	Cluster(ctx context.Context, vecs [][]float32, k int) ([]Cluster, error)
}

// MatrixLoader attaches the raw matrix to an image before extraction.
type MatrixLoader interface {
	LoadMatrix(ctx context.Context, im model.Image) (model.Image, error)
}
