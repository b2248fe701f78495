package voctree

import (
	"context"
	"fmt"

	"github.com/viant/voctree/model"
)

// Tree is an in-memory generation: an arena of nodes indexed by id.
type Tree struct {
	Root  model.NodeID
	Nodes map[model.NodeID]*model.Node
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.Nodes) }

// BFS returns the nodes in breadth-first order starting at the root; children
// are visited in their stored order.
func (t *Tree) BFS() []*model.Node {
	root, ok := t.Nodes[t.Root]
	if !ok {
		return nil
	}
	out := make([]*model.Node, 0, len(t.Nodes))
	out = append(out, root)
	for i := 0; i < len(out); i++ {
		for _, id := range out[i].Children {
			if child, ok := t.Nodes[id]; ok {
				out = append(out, child)
			}
		}
	}
	return out
}

// Leaves returns the leaves in breadth-first order.
func (t *Tree) Leaves() []*model.Node {
	var out []*model.Node
	for _, n := range t.BFS() {
		if n.IsLeaf() {
			out = append(out, n)
		}
	}
	return out
}

type builder struct {
	clusterer Clusterer
	branching int
	levels    int
	dim       int
	nodes     map[model.NodeID]*model.Node
}

// Build partitions pool into a tree. The root sits at depth 0 with a zero
// centroid; each internal node clusters its features into at most Branching
// groups and gets one child per non-empty group; nodes at depth Levels are
// leaves holding their features.
func (v *VocabularyTree) Build(ctx context.Context, pool []model.Feature) (*Tree, error) {
	if err := v.cfg.Validate(); err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("voctree: empty feature pool: %w", ErrInsufficientData)
	}
	dim := v.extractor.Dim()
	for i, f := range pool {
		if len(f.Vec) != dim {
			return nil, fmt.Errorf("%w: feature %d has dim %d, want %d", ErrValidation, i, len(f.Vec), dim)
		}
	}
	b := &builder{
		clusterer: v.clusterer,
		branching: v.cfg.Branching,
		levels:    v.cfg.Levels,
		dim:       dim,
		nodes:     make(map[model.NodeID]*model.Node),
	}
	root, err := b.grow(ctx, 0, make([]float32, dim), pool)
	if err != nil {
		return nil, err
	}
	return &Tree{Root: root, Nodes: b.nodes}, nil
}

func (b *builder) grow(ctx context.Context, depth int, centroid []float32, features []model.Feature) (model.NodeID, error) {
	node := &model.Node{ID: model.NewID(), Depth: depth, Vec: centroid}
	if depth == b.levels {
		node.Features = features
		b.nodes[node.ID] = node
		return node.ID, nil
	}
	if err := ctx.Err(); err != nil {
		return model.NodeID{}, err
	}

	vecs := make([][]float32, len(features))
	for i, f := range features {
		vecs[i] = f.Vec
	}
	groups, err := b.clusterer.Cluster(ctx, vecs, b.branching)
	if err != nil {
		return model.NodeID{}, fmt.Errorf("voctree: cluster %d features at depth %d: %w", len(features), depth, err)
	}

	assigned := make([]bool, len(features))
	children := make([]model.NodeID, 0, len(groups))
	for _, g := range groups {
		if len(g.Members) == 0 {
			continue
		}
		if len(g.Centroid) != b.dim {
			return model.NodeID{}, fmt.Errorf("%w: centroid has dim %d, want %d", ErrValidation, len(g.Centroid), b.dim)
		}
		subset := make([]model.Feature, len(g.Members))
		for i, m := range g.Members {
			if m < 0 || m >= len(features) || assigned[m] {
				return model.NodeID{}, fmt.Errorf("voctree: clusterer assigned member %d of %d twice or out of range", m, len(features))
			}
			assigned[m] = true
			subset[i] = features[m]
		}
		child, err := b.grow(ctx, depth+1, append([]float32(nil), g.Centroid...), subset)
		if err != nil {
			return model.NodeID{}, err
		}
		children = append(children, child)
	}
	for i, ok := range assigned {
		if !ok {
			return model.NodeID{}, fmt.Errorf("voctree: clusterer dropped member %d of %d at depth %d", i, len(features), depth)
		}
	}
	node.Children = children
	b.nodes[node.ID] = node
	return node.ID, nil
}
