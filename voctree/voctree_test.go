package voctree_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/voctree/internal/kmeans"
	"github.com/viant/voctree/model"
	"github.com/viant/voctree/store"
	"github.com/viant/voctree/store/memstore"
	"github.com/viant/voctree/voctree"
)

// tableExtractor serves fixed vectors per image id.
type tableExtractor struct {
	dim  int
	vecs map[model.ImageID][][]float32
}

func (e *tableExtractor) Dim() int { return e.dim }

func (e *tableExtractor) Features(_ context.Context, im model.Image) ([]model.Feature, error) {
	var out []model.Feature
	for _, v := range e.vecs[im.ID] {
		out = append(out, model.Feature{Vec: v, DocID: im.ID})
	}
	return out, nil
}

// failingStore fails the n-th StoreNode call of every transaction.
type failingStore struct {
	store.Store
	failAt int
}

type failingTx struct {
	store.TxStore
	failAt int
	calls  int
}

func (s *failingStore) Atomically(ctx context.Context, fn func(ctx context.Context, tx store.TxStore) error) error {
	return s.Store.Atomically(ctx, func(ctx context.Context, tx store.TxStore) error {
		return fn(ctx, &failingTx{TxStore: tx, failAt: s.failAt})
	})
}

func (t *failingTx) StoreNode(ctx context.Context, node *model.Node) error {
	t.calls++
	if t.calls == t.failAt {
		return store.Fail("store node", errors.New("disk full"))
	}
	return t.TxStore.StoreNode(ctx, node)
}

type countingLoader struct{ calls atomic.Int32 }

func (l *countingLoader) LoadMatrix(_ context.Context, im model.Image) (model.Image, error) {
	l.calls.Add(1)
	return im, nil
}

func seedImages(t *testing.T, s store.Store, ext *tableExtractor, vecs ...[]float32) []model.ImageID {
	t.Helper()
	ids := make([]model.ImageID, len(vecs))
	err := s.Atomically(context.Background(), func(ctx context.Context, tx store.TxStore) error {
		for i, v := range vecs {
			ids[i] = model.NewID()
			ext.vecs[ids[i]] = [][]float32{v}
			if err := tx.StoreImageMetadata(ctx, model.Image{ID: ids[i], Dataset: "test"}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return ids
}

func smallConfig() voctree.Config {
	cfg := voctree.DefaultConfig()
	cfg.Branching = 2
	cfg.Levels = 2
	cfg.SampleSize = 1000
	return cfg
}

func twoClusterCorpus(t *testing.T) (*memstore.Store, *tableExtractor, []model.ImageID, []model.ImageID) {
	s := memstore.New()
	ext := &tableExtractor{dim: 2, vecs: map[model.ImageID][][]float32{}}
	a := seedImages(t, s, ext, []float32{0, 0}, []float32{0, 1}, []float32{1, 0}, []float32{1, 1})
	b := seedImages(t, s, ext, []float32{20, 20}, []float32{20, 21}, []float32{21, 20}, []float32{21, 21})
	return s, ext, a, b
}

func TestVocabularyTree_EmptyIndex(t *testing.T) {
	v := voctree.New(memstore.New(), &tableExtractor{dim: 2}, kmeans.New())
	got, err := v.Query(context.Background(), model.NewDocument([][]float32{{1, 2}}), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVocabularyTree_EndToEnd(t *testing.T) {
	s, ext, clusterA, clusterB := twoClusterCorpus(t)
	loader := &countingLoader{}
	v := voctree.New(s, ext, kmeans.New(), voctree.WithConfig(smallConfig()), voctree.WithMatrixLoader(loader))
	require.NoError(t, v.Train(context.Background()))
	assert.EqualValues(t, 8, loader.calls.Load())

	got, err := v.Query(context.Background(), model.NewDocument([][]float32{{0.4, 0.6}}), 10)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, id := range got {
		assert.Contains(t, clusterA, id)
		assert.NotContains(t, clusterB, id)
	}

	got, err = v.Query(context.Background(), model.NewDocument([][]float32{{20.5, 20.5}, {19, 22}}), 10)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, id := range got {
		assert.Contains(t, clusterB, id)
	}
}

func TestVocabularyTree_QueryDeterministic(t *testing.T) {
	s, ext, _, _ := twoClusterCorpus(t)
	v := voctree.New(s, ext, kmeans.New(), voctree.WithConfig(smallConfig()))
	require.NoError(t, v.Train(context.Background()))

	doc := model.NewDocument([][]float32{{0.5, 0.5}, {20, 20}, {1, 1}})
	first, err := v.Query(context.Background(), doc, 3)
	require.NoError(t, err)
	second, err := v.Query(context.Background(), doc, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.LessOrEqual(t, len(first), 3)
}

func TestVocabularyTree_VotesAndTies(t *testing.T) {
	s := memstore.New()
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	c := uuid.MustParse("00000000-0000-0000-0000-00000000000c")
	leaf := &model.Node{ID: model.NewID(), Depth: 1, Vec: []float32{0},
		Features: []model.Feature{
			{Vec: []float32{0}, DocID: c},
			{Vec: []float32{0}, DocID: b},
			{Vec: []float32{0}, DocID: a},
			{Vec: []float32{0}, DocID: b},
			{Vec: []float32{0}, DocID: a},
		}}
	other := &model.Node{ID: model.NewID(), Depth: 1, Vec: []float32{100},
		Features: []model.Feature{{Vec: []float32{100}, DocID: model.NewID()}}}
	root := &model.Node{ID: model.NewID(), Depth: 0, Vec: []float32{0}, Children: []model.NodeID{leaf.ID, other.ID}}
	require.NoError(t, s.Atomically(context.Background(), func(ctx context.Context, tx store.TxStore) error {
		for _, n := range []*model.Node{root, leaf, other} {
			if err := tx.StoreNode(ctx, n); err != nil {
				return err
			}
		}
		return nil
	}))

	v := voctree.New(s, &tableExtractor{dim: 1}, kmeans.New())
	// Two query vectors reach the same leaf, which still votes once.
	got, err := v.Query(context.Background(), model.NewDocument([][]float32{{1}, {2}}), 10)
	require.NoError(t, err)
	assert.Equal(t, []model.DocumentID{a, b, c}, got)

	got, err = v.Query(context.Background(), model.NewDocument([][]float32{{1}}), 2)
	require.NoError(t, err)
	assert.Equal(t, []model.DocumentID{a, b}, got)
}

func TestVocabularyTree_MissingChild(t *testing.T) {
	s := memstore.New()
	root := &model.Node{ID: model.NewID(), Vec: []float32{0}, Children: []model.NodeID{model.NewID()}}
	require.NoError(t, s.Atomically(context.Background(), func(ctx context.Context, tx store.TxStore) error {
		return tx.StoreNode(ctx, root)
	}))
	v := voctree.New(s, &tableExtractor{dim: 1}, kmeans.New())
	_, err := v.Query(context.Background(), model.NewDocument([][]float32{{1}}), 1)
	assert.ErrorIs(t, err, voctree.ErrInconsistent)
}

func TestVocabularyTree_QueryArguments(t *testing.T) {
	v := voctree.New(memstore.New(), &tableExtractor{dim: 2}, kmeans.New())
	_, err := v.Query(context.Background(), model.NewDocument([][]float32{{1, 2}}), 0)
	assert.ErrorIs(t, err, voctree.ErrInvalidArgument)

	_, err = v.Query(context.Background(), model.NewDocument([][]float32{{1, 2, 3}}), 1)
	assert.ErrorIs(t, err, voctree.ErrValidation)

	got, err := v.Query(context.Background(), model.NewDocument(nil), 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVocabularyTree_AtomicReplace(t *testing.T) {
	s, ext, _, _ := twoClusterCorpus(t)
	v := voctree.New(s, ext, kmeans.New(), voctree.WithConfig(smallConfig()))
	require.NoError(t, v.Train(context.Background()))

	doc := model.NewDocument([][]float32{{0.2, 0.9}, {21, 21}})
	before, err := v.Query(context.Background(), doc, 10)
	require.NoError(t, err)

	seedImages(t, s, ext, []float32{5, 5}, []float32{6, 6})
	broken := voctree.New(&failingStore{Store: s, failAt: 3}, ext, kmeans.New(), voctree.WithConfig(smallConfig()))
	err = broken.Train(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrFailure)

	after, err := v.Query(context.Background(), doc, 10)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestVocabularyTree_FailedFirstBuildLeavesEmptyIndex(t *testing.T) {
	s, ext, _, _ := twoClusterCorpus(t)
	broken := voctree.New(&failingStore{Store: s, failAt: 1}, ext, kmeans.New(), voctree.WithConfig(smallConfig()))
	require.Error(t, broken.Train(context.Background()))

	got, err := voctree.New(s, ext, kmeans.New()).Query(context.Background(), model.NewDocument([][]float32{{0, 0}}), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVocabularyTree_TrainErrors(t *testing.T) {
	ctx := context.Background()
	t.Run("empty corpus", func(t *testing.T) {
		v := voctree.New(memstore.New(), &tableExtractor{dim: 2}, kmeans.New())
		assert.ErrorIs(t, v.Train(ctx), voctree.ErrInsufficientData)
	})
	t.Run("no features", func(t *testing.T) {
		s := memstore.New()
		ext := &tableExtractor{dim: 2, vecs: map[model.ImageID][][]float32{}}
		seedImages(t, s, ext, []float32{1, 1})
		ext.vecs = map[model.ImageID][][]float32{}
		v := voctree.New(s, ext, kmeans.New())
		assert.ErrorIs(t, v.Train(ctx), voctree.ErrInsufficientData)
	})
	t.Run("dimension mismatch", func(t *testing.T) {
		s := memstore.New()
		ext := &tableExtractor{dim: 2, vecs: map[model.ImageID][][]float32{}}
		seedImages(t, s, ext, []float32{1, 1}, []float32{1, 2, 3})
		v := voctree.New(s, ext, kmeans.New(), voctree.WithConfig(smallConfig()))
		assert.ErrorIs(t, v.Train(ctx), voctree.ErrValidation)
	})
	t.Run("invalid config", func(t *testing.T) {
		cfg := voctree.DefaultConfig()
		cfg.Branching = 0
		v := voctree.New(memstore.New(), &tableExtractor{dim: 2}, kmeans.New(), voctree.WithConfig(cfg))
		assert.ErrorIs(t, v.Train(ctx), voctree.ErrInvalidArgument)
	})
}

func TestVocabularyTree_FindImage(t *testing.T) {
	s := memstore.New()
	ext := &tableExtractor{dim: 2, vecs: map[model.ImageID][][]float32{}}
	ids := seedImages(t, s, ext, []float32{1, 1})
	v := voctree.New(s, ext, kmeans.New())

	im, err := v.FindImage(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, "test", im.Dataset)

	_, err = v.FindImage(context.Background(), model.NewID())
	assert.ErrorIs(t, err, store.ErrNotFound)
}
