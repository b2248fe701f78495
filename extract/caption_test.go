package extract

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viterin/vek/vek32"

	"github.com/viant/voctree/model"
)

func TestTokenize(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want []string
	}{
		{name: "punctuation", in: "A dog, running!", want: []string{"a", "dog", "running"}},
		{name: "compatibility forms", in: "ＣＡＴ on mat", want: []string{"cat", "on", "mat"}},
		{name: "numbers", in: "2 birds", want: []string{"2", "birds"}},
		{name: "empty", in: "  ...  ", want: nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Tokenize(tc.in))
		})
	}
}

func TestCaption_Deterministic(t *testing.T) {
	ctx := context.Background()
	c := NewCaption(16)
	assert.Equal(t, 16, c.Dim())

	a, err := c.Extract(ctx, "a dog and a cat")
	require.NoError(t, err)
	require.Len(t, a, 5)
	assert.Equal(t, a[0], a[3], "same token, same vector")
	assert.NotEqual(t, a[1], a[4])

	b, err := NewCaption(16).Extract(ctx, "A DOG")
	require.NoError(t, err)
	assert.Equal(t, a[:2], b)

	for _, v := range a {
		require.Len(t, v, 16)
		assert.InDelta(t, 1.0, math.Sqrt(float64(vek32.Dot(v, v))), 1e-5)
	}
}

func TestCaption_Features(t *testing.T) {
	im := model.Image{ID: model.NewID(), Captions: "red boat"}
	features, err := NewCaption(0).Features(context.Background(), im)
	require.NoError(t, err)
	require.Len(t, features, 2)
	for _, f := range features {
		assert.Equal(t, im.ID, f.DocID)
		assert.Len(t, f.Vec, DefaultCaptionDim)
	}
}
