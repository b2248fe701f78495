package store

import (
	"context"

	"github.com/viant/voctree/model"
)

// TxStore is the transaction-scoped handle passed to Atomically callbacks.
type TxStore interface {
	// RemoveAllNodes deletes every node of the current generation.
	RemoveAllNodes(ctx context.Context) error

	// StoreNode writes a node of the generation being built.
	StoreNode(ctx context.Context, node *model.Node) error

	// FindNode returns the node with the given id or ErrNotFound.
	FindNode(ctx context.Context, id model.NodeID) (*model.Node, error)

	// FindRoot returns the depth-0 node of the current generation or
	// ErrNotFound when no tree has been committed.
	FindRoot(ctx context.Context) (*model.Node, error)

	// StoreImageMetadata inserts or replaces image metadata.
	StoreImageMetadata(ctx context.Context, im model.Image) error

	// FindImageMetadata returns the metadata of an image or ErrNotFound.
	FindImageMetadata(ctx context.Context, id model.ImageID) (model.Image, error)

	// LoadTrainingImages returns the metadata of every image eligible for
	// training, ordered by id.
	LoadTrainingImages(ctx context.Context) ([]model.Image, error)
}

// Store runs callbacks atomically. Every operation issued through the TxStore
// commits together, or none does when fn returns an error or panics.
type Store interface {
	Atomically(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error
}
