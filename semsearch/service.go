package semsearch

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/viant/voctree/model"
	"github.com/viant/voctree/sampling"
	"github.com/viant/voctree/store"
	"github.com/viant/voctree/voctree"
)

// DefaultNearestCaptions is how many caption matches seed an image query.
const DefaultNearestCaptions = 5

// Service composes caption and image tree queries.
type Service struct {
	captions         Querier
	images           Querier
	imStore          ImageStore
	store            store.Store
	captionExtractor CaptionExtractor
	imageExtractor   ImageExtractor
	nearest          int
	logger           *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Service.
type Option func(*Service)

// WithRand sets the random source used to sample image features. The
// Service serializes access to it.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithNearestCaptions sets how many caption matches seed QueryAllIms.
func WithNearestCaptions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.nearest = n
		}
	}
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Service. captions and images are the caption and image
// trees; st holds image metadata.
func New(captions, images Querier, imStore ImageStore, st store.Store,
	captionExtractor CaptionExtractor, imageExtractor ImageExtractor, opts ...Option) *Service {
	s := &Service{
		captions:         captions,
		images:           images,
		imStore:          imStore,
		store:            st,
		captionExtractor: captionExtractor,
		imageExtractor:   imageExtractor,
		nearest:          DefaultNearestCaptions,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// SeedImage stores the matrix of im and then its metadata. Metadata is only
// written once the matrix exists, so any image found through the store can
// be loaded.
func (s *Service) SeedImage(ctx context.Context, im model.Image) error {
	if err := s.imStore.StoreMatrix(ctx, im); err != nil {
		return fmt.Errorf("semsearch: store matrix of image %s: %w", im.ID, err)
	}
	return s.store.Atomically(ctx, func(ctx context.Context, tx store.TxStore) error {
		return tx.StoreImageMetadata(ctx, im)
	})
}

// QueryLabeledIms returns up to n images whose captions match caption.
func (s *Service) QueryLabeledIms(ctx context.Context, caption string, n int) ([]model.ImageID, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n must be positive, got %d", voctree.ErrInvalidArgument, n)
	}
	vecs, err := s.captionExtractor.Extract(ctx, caption)
	if err != nil {
		return nil, fmt.Errorf("semsearch: extract caption features: %w", err)
	}
	return s.captions.Query(ctx, model.NewDocument(vecs), n)
}

// QueryAllIms returns up to n images similar to the images whose captions
// best match caption, captioned or not.
func (s *Service) QueryAllIms(ctx context.Context, caption string, n int) ([]model.ImageID, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n must be positive, got %d", voctree.ErrInvalidArgument, n)
	}
	candidates, err := s.QueryLabeledIms(ctx, caption, s.nearest)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	doc, err := s.composeDocument(ctx, candidates)
	if err != nil {
		return nil, err
	}
	if len(doc.Vectors) == 0 {
		return nil, nil
	}
	return s.images.Query(ctx, doc, n)
}

// composeDocument samples RetainedCount vectors of every candidate, then
// samples the union down to its mean contribution per candidate.
func (s *Service) composeDocument(ctx context.Context, candidates []model.ImageID) (model.Document, error) {
	var pool [][]float32
	for i, id := range candidates {
		m, err := s.imStore.GetMatrix(ctx, id)
		if err != nil {
			return model.Document{}, fmt.Errorf("semsearch: load matrix of image %s: %w", id, err)
		}
		vecs, err := s.imageExtractor.Extract(ctx, m)
		if err != nil {
			return model.Document{}, fmt.Errorf("semsearch: extract features of image %s: %w", id, err)
		}
		kept, err := s.sample(vecs, RetainedCount(len(vecs), i))
		if err != nil {
			return model.Document{}, err
		}
		pool = append(pool, kept...)
	}

	final, err := s.sample(pool, len(pool)/len(candidates))
	if err != nil {
		return model.Document{}, err
	}
	s.logger.Debug("composed image query",
		slog.Int("candidates", len(candidates)),
		slog.Int("retained", len(pool)),
		slog.Int("vectors", len(final)))
	return model.NewDocument(final), nil
}

func (s *Service) sample(vecs [][]float32, k int) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sampling.Sample(s.rng, vecs, k)
}

// RetainedCount is the number of features kept from the candidate at the
// zero-based rank: floor(count / log2(rank+2)). A candidate without features
// keeps none.
func RetainedCount(count, rank int) int {
	if count <= 0 || rank < 0 {
		return 0
	}
	return int(math.Floor(float64(count) / math.Log2(float64(rank+2))))
}

// GetImPath reports where the matrix of an image is stored.
func (s *Service) GetImPath(id model.ImageID) string {
	return s.imStore.GetPath(id)
}

// GetImMetadata returns the stored metadata of an image or store.ErrNotFound.
func (s *Service) GetImMetadata(ctx context.Context, id model.ImageID) (model.Image, error) {
	var im model.Image
	err := s.store.Atomically(ctx, func(ctx context.Context, tx store.TxStore) error {
		var err error
		im, err = tx.FindImageMetadata(ctx, id)
		return err
	})
	return im, err
}
