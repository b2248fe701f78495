package voctree

import (
	"context"
	"log/slog"

	"github.com/viant/voctree/model"
	"github.com/viant/voctree/store"
)

// VocabularyTree trains and queries one persisted tree.
type VocabularyTree struct {
	store     store.Store
	extractor FeatureExtractor
	clusterer Clusterer
	loader    MatrixLoader
	cfg       Config
	logger    *slog.Logger
}

// Option configures a VocabularyTree.
type Option func(*VocabularyTree)

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(v *VocabularyTree) { v.cfg = cfg }
}

// WithMatrixLoader loads image matrices before feature extraction. Trees over
// caption text do not need one.
func WithMatrixLoader(loader MatrixLoader) Option {
	return func(v *VocabularyTree) { v.loader = loader }
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(v *VocabularyTree) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// New creates a VocabularyTree persisted in s.
func New(s store.Store, extractor FeatureExtractor, clusterer Clusterer, opts ...Option) *VocabularyTree {
	v := &VocabularyTree{
		store:     s,
		extractor: extractor,
		clusterer: clusterer,
		cfg:       DefaultConfig(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Config returns the tree configuration.
func (v *VocabularyTree) Config() Config { return v.cfg }

// Dim returns the dimension of the vectors the tree indexes.
func (v *VocabularyTree) Dim() int { return v.extractor.Dim() }

// FindImage returns the stored metadata of an image or store.ErrNotFound.
func (v *VocabularyTree) FindImage(ctx context.Context, id model.ImageID) (model.Image, error) {
	var im model.Image
	err := v.store.Atomically(ctx, func(ctx context.Context, tx store.TxStore) error {
		var err error
		im, err = tx.FindImageMetadata(ctx, id)
		return err
	})
	return im, err
}
