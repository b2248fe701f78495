package semsearch

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/viant/voctree/model"
	"github.com/viant/voctree/store"
	"github.com/viant/voctree/store/memstore"
	"github.com/viant/voctree/voctree"
)

type recordingQuerier struct {
	result []model.DocumentID
	docs   []model.Document
	ns     []int
}

func (q *recordingQuerier) Query(_ context.Context, doc model.Document, n int) ([]model.DocumentID, error) {
	q.docs = append(q.docs, doc)
	q.ns = append(q.ns, n)
	if len(q.result) > n {
		return q.result[:n], nil
	}
	return q.result, nil
}

// countImStore serves 1x1 matrices holding the number of features the image
// yields under countExtractor.
type countImStore struct {
	counts map[model.ImageID]int
	stored []model.ImageID
	err    error
}

func (s *countImStore) StoreMatrix(_ context.Context, im model.Image) error {
	if s.err != nil {
		return s.err
	}
	s.stored = append(s.stored, im.ID)
	return nil
}

func (s *countImStore) GetMatrix(_ context.Context, id model.ImageID) (*mat.Dense, error) {
	count, ok := s.counts[id]
	if !ok {
		return nil, errors.New("no matrix")
	}
	return mat.NewDense(1, 1, []float64{float64(count)}), nil
}

func (s *countImStore) GetPath(id model.ImageID) string { return "/images/" + id.String() }

type countExtractor struct{}

func (countExtractor) Extract(_ context.Context, m *mat.Dense) ([][]float32, error) {
	n := int(m.At(0, 0))
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}

type wordExtractor struct{}

func (wordExtractor) Extract(_ context.Context, caption string) ([][]float32, error) {
	return [][]float32{{float32(len(caption))}}, nil
}

type fixture struct {
	captions *recordingQuerier
	images   *recordingQuerier
	imStore  *countImStore
	store    *memstore.Store
	service  *Service
}

func newFixture(counts []int, seed uint64) *fixture {
	f := &fixture{
		captions: &recordingQuerier{},
		images:   &recordingQuerier{result: []model.DocumentID{model.NewID(), model.NewID()}},
		imStore:  &countImStore{counts: map[model.ImageID]int{}},
		store:    memstore.New(),
	}
	for _, c := range counts {
		id := model.NewID()
		f.captions.result = append(f.captions.result, id)
		f.imStore.counts[id] = c
	}
	f.service = New(f.captions, f.images, f.imStore, f.store, wordExtractor{}, countExtractor{},
		WithRand(rand.New(rand.NewPCG(seed, seed))))
	return f
}

func TestRetainedCount(t *testing.T) {
	counts := []int{100, 80, 60, 40, 20}
	want := []int{100, 50, 30, 17, 7}
	for i, c := range counts {
		assert.Equal(t, want[i], RetainedCount(c, i), "rank %d", i)
	}
	assert.Equal(t, 0, RetainedCount(0, 0))
	assert.Equal(t, 0, RetainedCount(0, 4))
}

func TestService_QueryAllIms_Weighting(t *testing.T) {
	f := newFixture([]int{100, 80, 60, 40, 20}, 1)
	got, err := f.service.QueryAllIms(context.Background(), "a dog", 2)
	require.NoError(t, err)
	assert.Equal(t, f.images.result, got)

	require.Len(t, f.captions.ns, 1)
	assert.Equal(t, DefaultNearestCaptions, f.captions.ns[0])
	require.Len(t, f.images.docs, 1)
	assert.Len(t, f.images.docs[0].Vectors, 40)
	assert.Equal(t, []int{2}, f.images.ns)
}

func TestService_QueryAllIms_Reproducible(t *testing.T) {
	a := newFixture([]int{30, 30, 30}, 42)
	b := newFixture([]int{30, 30, 30}, 42)
	_, err := a.service.QueryAllIms(context.Background(), "boat", 1)
	require.NoError(t, err)
	_, err = b.service.QueryAllIms(context.Background(), "boat", 1)
	require.NoError(t, err)
	assert.Equal(t, a.images.docs[0].Vectors, b.images.docs[0].Vectors)
}

func TestService_QueryAllIms_Degenerate(t *testing.T) {
	t.Run("no candidates", func(t *testing.T) {
		f := newFixture(nil, 1)
		got, err := f.service.QueryAllIms(context.Background(), "nothing", 3)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Empty(t, f.images.docs)
	})
	t.Run("no features", func(t *testing.T) {
		f := newFixture([]int{0, 0, 0}, 1)
		got, err := f.service.QueryAllIms(context.Background(), "blank", 3)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Empty(t, f.images.docs)
	})
	t.Run("featureless candidate", func(t *testing.T) {
		f := newFixture([]int{0, 10}, 1)
		_, err := f.service.QueryAllIms(context.Background(), "partial", 3)
		require.NoError(t, err)
		require.Len(t, f.images.docs, 1)
		// floor(10/log2(3)) = 6 retained, 6/2 = 3 sampled.
		assert.Len(t, f.images.docs[0].Vectors, 3)
	})
}

func TestService_QueryArguments(t *testing.T) {
	f := newFixture([]int{1}, 1)
	_, err := f.service.QueryAllIms(context.Background(), "x", 0)
	assert.ErrorIs(t, err, voctree.ErrInvalidArgument)
	_, err = f.service.QueryLabeledIms(context.Background(), "x", -1)
	assert.ErrorIs(t, err, voctree.ErrInvalidArgument)
}

func TestService_QueryLabeledIms(t *testing.T) {
	f := newFixture([]int{1, 2, 3}, 1)
	got, err := f.service.QueryLabeledIms(context.Background(), "abc", 2)
	require.NoError(t, err)
	assert.Equal(t, f.captions.result[:2], got)
	require.Len(t, f.captions.docs, 1)
	assert.Equal(t, [][]float32{{3}}, f.captions.docs[0].Vectors)
}

func TestService_SeedImage(t *testing.T) {
	f := newFixture(nil, 1)
	im := model.Image{ID: model.NewID(), Dataset: "coco", Captions: "a cat", Mat: mat.NewDense(1, 1, []float64{1})}
	require.NoError(t, f.service.SeedImage(context.Background(), im))
	assert.Equal(t, []model.ImageID{im.ID}, f.imStore.stored)

	got, err := f.service.GetImMetadata(context.Background(), im.ID)
	require.NoError(t, err)
	assert.Equal(t, "a cat", got.Captions)
	assert.Equal(t, "/images/"+im.ID.String(), f.service.GetImPath(im.ID))
}

func TestService_SeedImageWithoutMatrixStoresNoMetadata(t *testing.T) {
	f := newFixture(nil, 1)
	f.imStore.err = errors.New("disk full")
	im := model.Image{ID: model.NewID()}
	require.Error(t, f.service.SeedImage(context.Background(), im))

	_, err := f.service.GetImMetadata(context.Background(), im.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
