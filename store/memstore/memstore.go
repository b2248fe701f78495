package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/viant/voctree/model"
	"github.com/viant/voctree/store"
)

// ErrConflict reports a write transaction whose snapshot went stale.
var ErrConflict = errors.New("memstore: write conflict")

type snapshot struct {
	nodes  map[model.NodeID]*model.Node
	root   *model.Node
	images map[model.ImageID]model.Image
}

// Store is an in-memory store.Store.
type Store struct {
	writer  sync.Mutex
	current atomic.Pointer[snapshot]
}

// New returns an empty store.
func New() *Store {
	s := &Store{}
	s.current.Store(&snapshot{
		nodes:  map[model.NodeID]*model.Node{},
		images: map[model.ImageID]model.Image{},
	})
	return s
}

// Atomically runs fn against a transaction over the latest committed
// snapshot and publishes its writes only if fn succeeds.
func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context, tx store.TxStore) error) error {
	if err := ctx.Err(); err != nil {
		return store.Fail("begin", err)
	}
	t := &tx{owner: s, base: s.current.Load()}
	defer t.release()
	if err := fn(ctx, t); err != nil {
		return err
	}
	if t.err != nil {
		return t.err
	}
	if err := ctx.Err(); err != nil {
		return store.Fail("commit", err)
	}
	if t.locked {
		s.current.Store(t.merge())
	}
	return nil
}

type tx struct {
	owner  *Store
	base   *snapshot
	locked bool
	err    error

	removed bool
	nodes   map[model.NodeID]*model.Node
	root    *model.Node
	images  map[model.ImageID]model.Image
}

func (t *tx) acquire(op string) error {
	if t.locked {
		return t.err
	}
	t.owner.writer.Lock()
	t.locked = true
	if t.owner.current.Load() != t.base {
		t.err = store.Fail(op, ErrConflict)
	}
	return t.err
}

func (t *tx) release() {
	if t.locked {
		t.locked = false
		t.owner.writer.Unlock()
	}
}

func (t *tx) merge() *snapshot {
	next := &snapshot{nodes: t.base.nodes, root: t.base.root, images: t.base.images}
	if t.removed || len(t.nodes) > 0 {
		nodes := make(map[model.NodeID]*model.Node, len(t.nodes))
		if !t.removed {
			for id, n := range t.base.nodes {
				nodes[id] = n
			}
		}
		for id, n := range t.nodes {
			nodes[id] = n
		}
		next.nodes = nodes
		next.root = t.currentRoot()
	}
	if len(t.images) > 0 {
		images := make(map[model.ImageID]model.Image, len(t.base.images)+len(t.images))
		for id, im := range t.base.images {
			images[id] = im
		}
		for id, im := range t.images {
			images[id] = im
		}
		next.images = images
	}
	return next
}

func (t *tx) currentRoot() *model.Node {
	if t.root != nil {
		return t.root
	}
	if t.removed {
		return nil
	}
	return t.base.root
}

func (t *tx) RemoveAllNodes(ctx context.Context) error {
	if err := t.acquire("remove all nodes"); err != nil {
		return err
	}
	t.removed = true
	t.nodes = nil
	t.root = nil
	return nil
}

func (t *tx) StoreNode(ctx context.Context, node *model.Node) error {
	if node == nil {
		return store.Fail("store node", fmt.Errorf("nil node"))
	}
	if err := t.acquire("store node"); err != nil {
		return err
	}
	if t.nodes == nil {
		t.nodes = map[model.NodeID]*model.Node{}
	}
	if _, ok := t.nodes[node.ID]; ok {
		return store.Fail("store node", fmt.Errorf("duplicate node %s", node.ID))
	}
	n := cloneNode(node)
	t.nodes[n.ID] = n
	if n.Depth == 0 {
		t.root = n
	}
	return nil
}

func (t *tx) FindNode(ctx context.Context, id model.NodeID) (*model.Node, error) {
	if n, ok := t.nodes[id]; ok {
		return cloneNode(n), nil
	}
	if !t.removed {
		if n, ok := t.base.nodes[id]; ok {
			return cloneNode(n), nil
		}
	}
	return nil, fmt.Errorf("memstore: node %s: %w", id, store.ErrNotFound)
}

func (t *tx) FindRoot(ctx context.Context) (*model.Node, error) {
	if root := t.currentRoot(); root != nil {
		return cloneNode(root), nil
	}
	return nil, fmt.Errorf("memstore: root: %w", store.ErrNotFound)
}

func (t *tx) StoreImageMetadata(ctx context.Context, im model.Image) error {
	if err := t.acquire("store image metadata"); err != nil {
		return err
	}
	if t.images == nil {
		t.images = map[model.ImageID]model.Image{}
	}
	im.Mat = nil
	t.images[im.ID] = im
	return nil
}

func (t *tx) FindImageMetadata(ctx context.Context, id model.ImageID) (model.Image, error) {
	if im, ok := t.images[id]; ok {
		return im, nil
	}
	if im, ok := t.base.images[id]; ok {
		return im, nil
	}
	return model.Image{}, fmt.Errorf("memstore: image %s: %w", id, store.ErrNotFound)
}

func (t *tx) LoadTrainingImages(ctx context.Context) ([]model.Image, error) {
	out := make([]model.Image, 0, len(t.base.images)+len(t.images))
	for id, im := range t.base.images {
		if _, ok := t.images[id]; ok {
			continue
		}
		out = append(out, im)
	}
	for _, im := range t.images {
		out = append(out, im)
	}
	sort.Slice(out, func(i, j int) bool { return model.CompareIDs(out[i].ID, out[j].ID) < 0 })
	return out, nil
}

func cloneNode(n *model.Node) *model.Node {
	c := &model.Node{
		ID:       n.ID,
		Depth:    n.Depth,
		Vec:      append([]float32(nil), n.Vec...),
		Children: append([]model.NodeID(nil), n.Children...),
	}
	if len(n.Features) > 0 {
		c.Features = make([]model.Feature, len(n.Features))
		for i, f := range n.Features {
			c.Features[i] = model.Feature{Vec: append([]float32(nil), f.Vec...), DocID: f.DocID}
		}
	}
	return c
}

var _ store.Store = (*Store)(nil)
