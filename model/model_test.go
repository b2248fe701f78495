package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestCompareIDs_MatchesStringOrder(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	b := uuid.MustParse("00000000-0000-0000-0000-0000000000b2")
	assert.Equal(t, -1, CompareIDs(a, b))
	assert.Equal(t, 1, CompareIDs(b, a))
	assert.Equal(t, 0, CompareIDs(a, a))
	assert.Less(t, a.String(), b.String())
}

func TestImage_WithMat(t *testing.T) {
	im := Image{ID: NewID(), Dataset: "coco", Captions: "a cat"}
	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	loaded := im.WithMat(m)
	assert.Nil(t, im.Mat)
	assert.Same(t, m, loaded.Mat)
	assert.Equal(t, im.ID, loaded.ID)
}

func TestNode_IsLeaf(t *testing.T) {
	leaf := &Node{ID: NewID(), Depth: 2}
	inner := &Node{ID: NewID(), Children: []NodeID{NewID()}}
	assert.True(t, leaf.IsLeaf())
	assert.False(t, inner.IsLeaf())
}
