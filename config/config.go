package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/viant/voctree/extract"
	"github.com/viant/voctree/semsearch"
	"github.com/viant/voctree/voctree"
)

const envPrefix = "VOCTREE_"

type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Images   ImagesConfig   `yaml:"images"`
	Tree     voctree.Config `yaml:"tree"`
	Captions CaptionsConfig `yaml:"captions"`
	Patches  PatchesConfig  `yaml:"patches"`
	Query    QueryConfig    `yaml:"query"`
	Log      LogConfig      `yaml:"log"`
}

type StoreConfig struct {
	// Path is the SQLite database file shared by both trees.
	Path string `yaml:"path"`
}

type ImagesConfig struct {
	// Backend is "local" or "minio".
	Backend string      `yaml:"backend"`
	Root    string      `yaml:"root"`
	MinIO   MinIOConfig `yaml:"minio"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Secure    bool   `yaml:"secure"`
}

type CaptionsConfig struct {
	Dim int `yaml:"dim"`
}

type PatchesConfig struct {
	Size   int `yaml:"size"`
	Stride int `yaml:"stride"`
}

type QueryConfig struct {
	NearestCaptions int `yaml:"nearest_captions"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{Path: "voctree.sqlite"},
		Images: ImagesConfig{
			Backend: "local",
			Root:    "images",
			MinIO: MinIOConfig{
				Bucket: "voctree",
				Prefix: "images/",
			},
		},
		Tree:     voctree.DefaultConfig(),
		Captions: CaptionsConfig{Dim: extract.DefaultCaptionDim},
		Patches:  PatchesConfig{Size: extract.DefaultPatchSize, Stride: extract.DefaultPatchSize},
		Query:    QueryConfig{NearestCaptions: semsearch.DefaultNearestCaptions},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is not empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := applyEnvironment(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("config: store.path is required")
	}
	switch c.Images.Backend {
	case "local":
		if c.Images.Root == "" {
			return fmt.Errorf("config: images.root is required for the local backend")
		}
	case "minio":
		if c.Images.MinIO.Endpoint == "" || c.Images.MinIO.Bucket == "" {
			return fmt.Errorf("config: images.minio.endpoint and images.minio.bucket are required")
		}
	default:
		return fmt.Errorf("config: unknown images.backend %q", c.Images.Backend)
	}
	if err := c.Tree.Validate(); err != nil {
		return fmt.Errorf("config: tree: %w", err)
	}
	if c.Captions.Dim <= 0 || c.Patches.Size <= 0 || c.Patches.Stride <= 0 {
		return fmt.Errorf("config: captions.dim, patches.size and patches.stride must be positive")
	}
	return nil
}

func applyEnvironment(cfg *Config) error {
	strs := map[string]*string{
		"STORE_PATH":       &cfg.Store.Path,
		"IMAGES_BACKEND":   &cfg.Images.Backend,
		"IMAGES_ROOT":      &cfg.Images.Root,
		"MINIO_ENDPOINT":   &cfg.Images.MinIO.Endpoint,
		"MINIO_ACCESS_KEY": &cfg.Images.MinIO.AccessKey,
		"MINIO_SECRET_KEY": &cfg.Images.MinIO.SecretKey,
		"MINIO_BUCKET":     &cfg.Images.MinIO.Bucket,
		"MINIO_PREFIX":     &cfg.Images.MinIO.Prefix,
		"LOG_LEVEL":        &cfg.Log.Level,
		"LOG_FORMAT":       &cfg.Log.Format,
	}
	for name, dst := range strs {
		if v := os.Getenv(envPrefix + name); v != "" {
			*dst = v
		}
	}
	ints := map[string]*int{
		"TREE_BRANCHING":   &cfg.Tree.Branching,
		"TREE_LEVELS":      &cfg.Tree.Levels,
		"TREE_SAMPLE_SIZE": &cfg.Tree.SampleSize,
		"TREE_PARALLELISM": &cfg.Tree.Parallelism,
		"CAPTIONS_DIM":     &cfg.Captions.Dim,
		"PATCHES_SIZE":     &cfg.Patches.Size,
		"PATCHES_STRIDE":   &cfg.Patches.Stride,
		"NEAREST_CAPTIONS": &cfg.Query.NearestCaptions,
	}
	for name, dst := range ints {
		v := os.Getenv(envPrefix + name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", envPrefix, name, err)
		}
		*dst = n
	}
	if v := os.Getenv(envPrefix + "TREE_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: %sTREE_SEED: %w", envPrefix, err)
		}
		cfg.Tree.Seed = seed
	}
	if v := os.Getenv(envPrefix + "MINIO_SECURE"); v != "" {
		cfg.Images.MinIO.Secure = strings.EqualFold(v, "true")
	}
	return nil
}
