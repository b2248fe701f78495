package voctree

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/viant/voctree/model"
	"github.com/viant/voctree/store"
	"github.com/viant/voctree/vector"
)

type routed struct {
	node *model.Node
	vecs [][]float32
}

// Query returns up to n document ids ranked by the number of leaf features
// they own in the leaves the document's vectors route to. Ties are broken by
// ascending id. An untrained tree yields an empty result.
func (v *VocabularyTree) Query(ctx context.Context, doc model.Document, n int) ([]model.DocumentID, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n must be positive, got %d", ErrInvalidArgument, n)
	}
	dim := v.extractor.Dim()
	for i, vec := range doc.Vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("%w: query vector %d has dim %d, want %d", ErrValidation, i, len(vec), dim)
		}
	}
	if len(doc.Vectors) == 0 {
		return nil, nil
	}

	votes := make(map[model.DocumentID]int)
	err := v.store.Atomically(ctx, func(ctx context.Context, tx store.TxStore) error {
		root, err := tx.FindRoot(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return descend(ctx, tx, root, doc.Vectors, votes)
	})
	if err != nil {
		return nil, fmt.Errorf("voctree: query: %w", err)
	}
	return rank(votes, n), nil
}

func descend(ctx context.Context, tx store.TxStore, root *model.Node, vecs [][]float32, votes map[model.DocumentID]int) error {
	frontier := []routed{{node: root, vecs: vecs}}
	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		var next []routed
		for _, r := range frontier {
			if r.node.IsLeaf() {
				for _, f := range r.node.Features {
					votes[f.DocID]++
				}
				continue
			}
			children := make([]*model.Node, len(r.node.Children))
			centroids := make([][]float32, len(r.node.Children))
			for i, id := range r.node.Children {
				child, err := tx.FindNode(ctx, id)
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("%w: node %s references missing child %s", ErrInconsistent, r.node.ID, id)
				}
				if err != nil {
					return err
				}
				children[i], centroids[i] = child, child.Vec
			}
			assigned := make([][][]float32, len(children))
			for _, vec := range r.vecs {
				i, err := vector.Nearest(vec, centroids)
				if err != nil {
					return fmt.Errorf("%w: %v", ErrValidation, err)
				}
				assigned[i] = append(assigned[i], vec)
			}
			for i, child := range children {
				if len(assigned[i]) > 0 {
					next = append(next, routed{node: child, vecs: assigned[i]})
				}
			}
		}
		frontier = next
	}
	return nil
}

func rank(votes map[model.DocumentID]int, n int) []model.DocumentID {
	ids := make([]model.DocumentID, 0, len(votes))
	for id := range votes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if votes[ids[i]] != votes[ids[j]] {
			return votes[ids[i]] > votes[ids[j]]
		}
		return model.CompareIDs(ids[i], ids[j]) < 0
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}
