package semsearch

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/viant/voctree/model"
)

// Querier ranks documents for a query document; *voctree.VocabularyTree
// implements it.
type Querier interface {
	Query(ctx context.Context, doc model.Document, n int) ([]model.DocumentID, error)
}

// ImageStore keeps raw image matrices.
type ImageStore interface {
	StoreMatrix(ctx context.Context, im model.Image) error
	GetMatrix(ctx context.Context, id model.ImageID) (*mat.Dense, error)
	GetPath(id model.ImageID) string
}

// CaptionExtractor turns caption text into vectors.
type CaptionExtractor interface {
	Extract(ctx context.Context, caption string) ([][]float32, error)
}

// ImageExtractor turns an image matrix into vectors.
type ImageExtractor interface {
	Extract(ctx context.Context, m *mat.Dense) ([][]float32, error)
}
