package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/viant/voctree/config"
	"github.com/viant/voctree/engine"
	"github.com/viant/voctree/extract"
	"github.com/viant/voctree/imstore"
	"github.com/viant/voctree/imstore/minio"
	"github.com/viant/voctree/internal/kmeans"
	"github.com/viant/voctree/semsearch"
	"github.com/viant/voctree/store/sqlstore"
	"github.com/viant/voctree/voctree"
)

const (
	captionPrefix = "caption"
	imagePrefix   = "image"
)

// app wires the configured stores, trees and search service.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *sql.DB
	captions *voctree.VocabularyTree
	images   *voctree.VocabularyTree
	service  *semsearch.Service
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, err := config.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}
	db, err := engine.OpenFile(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Store.Path, err)
	}
	a := &app{cfg: cfg, logger: logger, db: db}
	if err := a.wire(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	captionStore, err := sqlstore.New(ctx, a.db, captionPrefix)
	if err != nil {
		return err
	}
	imageStore, err := sqlstore.New(ctx, a.db, imagePrefix)
	if err != nil {
		return err
	}
	blobs, err := a.blobs(ctx)
	if err != nil {
		return err
	}
	ims := imstore.New(blobs)

	captionExtractor := extract.NewCaption(a.cfg.Captions.Dim)
	patchExtractor := extract.NewPatches(a.cfg.Patches.Size, a.cfg.Patches.Stride)
	clusterer := kmeans.New(kmeans.WithSeed(a.cfg.Tree.Seed))

	a.captions = voctree.New(captionStore, captionExtractor, clusterer,
		voctree.WithConfig(a.cfg.Tree),
		voctree.WithLogger(a.logger.With(slog.String("tree", captionPrefix))))
	a.images = voctree.New(imageStore, patchExtractor, clusterer,
		voctree.WithConfig(a.cfg.Tree),
		voctree.WithMatrixLoader(ims),
		voctree.WithLogger(a.logger.With(slog.String("tree", imagePrefix))))
	a.service = semsearch.New(a.captions, a.images, ims, captionStore, captionExtractor, patchExtractor,
		semsearch.WithNearestCaptions(a.cfg.Query.NearestCaptions),
		semsearch.WithLogger(a.logger))
	return nil
}

func (a *app) blobs(ctx context.Context) (imstore.Blobs, error) {
	if a.cfg.Images.Backend != "minio" {
		return imstore.NewLocal(a.cfg.Images.Root), nil
	}
	mc := a.cfg.Images.MinIO
	client, err := minio.Dial(minio.Options{
		Endpoint:  mc.Endpoint,
		AccessKey: mc.AccessKey,
		SecretKey: mc.SecretKey,
		Secure:    mc.Secure,
	})
	if err != nil {
		return nil, err
	}
	blobs := minio.New(client, mc.Bucket, mc.Prefix)
	if err := blobs.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return blobs, nil
}

func (a *app) Close() error { return a.db.Close() }

// withApp loads the configuration named by --config and runs fn against a
// freshly wired app.
func withApp(ctx context.Context, fn func(a *app) error) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
