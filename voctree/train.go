package voctree

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/viant/voctree/model"
	"github.com/viant/voctree/sampling"
	"github.com/viant/voctree/store"
)

// seedStream decorrelates the two PCG state words derived from Config.Seed.
const seedStream = 0x9e3779b97f4a7c15

// Train builds a new generation from a sample of the stored images and
// replaces the persisted tree with it in one transaction. Nothing is written
// until the whole tree is built, so a failed or canceled run leaves the
// previous generation untouched.
func (v *VocabularyTree) Train(ctx context.Context) error {
	if err := v.cfg.Validate(); err != nil {
		return err
	}
	started := time.Now()

	var images []model.Image
	err := v.store.Atomically(ctx, func(ctx context.Context, tx store.TxStore) error {
		var err error
		images, err = tx.LoadTrainingImages(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("voctree: load training images: %w", err)
	}

	size, err := sampling.SampleSizeWithLogger(v.logger, v.cfg.SampleSize, len(images))
	if err != nil {
		return fmt.Errorf("voctree: train on %d images: %w", len(images), err)
	}
	rng := rand.New(rand.NewPCG(v.cfg.Seed, v.cfg.Seed^seedStream))
	sample, err := sampling.Sample(rng, images, size)
	if err != nil {
		return fmt.Errorf("voctree: sample corpus: %w", err)
	}

	pool, err := v.extractAll(ctx, sample)
	if err != nil {
		return err
	}
	v.logger.Info("extracted training features",
		slog.Int("images", len(sample)),
		slog.Int("features", len(pool)))

	tree, err := v.Build(ctx, pool)
	if err != nil {
		return err
	}
	if err := v.replace(ctx, tree); err != nil {
		return err
	}
	v.logger.Info("trained vocabulary tree",
		slog.Int("nodes", tree.Len()),
		slog.Int("branching", v.cfg.Branching),
		slog.Int("levels", v.cfg.Levels),
		slog.Duration("elapsed", time.Since(started)))
	return nil
}

// extractAll extracts the features of every image with bounded parallelism
// and concatenates them in sample order.
func (v *VocabularyTree) extractAll(ctx context.Context, images []model.Image) ([]model.Feature, error) {
	dim := v.extractor.Dim()
	results := make([][]model.Feature, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.cfg.Parallelism)
	for i, im := range images {
		g.Go(func() error {
			if v.loader != nil {
				loaded, err := v.loader.LoadMatrix(gctx, im)
				if err != nil {
					return fmt.Errorf("voctree: load matrix of image %s: %w", im.ID, err)
				}
				im = loaded
			}
			features, err := v.extractor.Features(gctx, im)
			if err != nil {
				return fmt.Errorf("voctree: extract features of image %s: %w", im.ID, err)
			}
			for _, f := range features {
				if len(f.Vec) != dim {
					return fmt.Errorf("%w: image %s produced dim %d, want %d", ErrValidation, im.ID, len(f.Vec), dim)
				}
			}
			results[i] = features
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, r := range results {
		total += len(r)
	}
	if total == 0 {
		return nil, fmt.Errorf("voctree: no features extracted from %d images: %w", len(images), ErrInsufficientData)
	}
	pool := make([]model.Feature, 0, total)
	for _, r := range results {
		pool = append(pool, r...)
	}
	return pool, nil
}

// replace swaps the stored generation for tree atomically.
func (v *VocabularyTree) replace(ctx context.Context, tree *Tree) error {
	err := v.store.Atomically(ctx, func(ctx context.Context, tx store.TxStore) error {
		if err := tx.RemoveAllNodes(ctx); err != nil {
			return err
		}
		for _, node := range tree.BFS() {
			if err := tx.StoreNode(ctx, node); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("voctree: replace tree: %w", err)
	}
	return nil
}
