package voctree

import "fmt"

const (
	DefaultBranching   = 10
	DefaultLevels      = 6
	DefaultSeed        = 1
	DefaultParallelism = 4
)

// Config controls tree shape and training.
type Config struct {
	// Branching is the maximum number of children per internal node.
	Branching int `yaml:"branching"`
	// Levels is the depth of the leaves.
	Levels int `yaml:"levels"`
	// SampleSize is the requested number of training images. Requests below
	// 1% of the corpus are raised to the 1% floor.
	SampleSize int `yaml:"sample_size"`
	// Seed makes corpus sampling reproducible.
	Seed uint64 `yaml:"seed"`
	// Parallelism bounds concurrent feature extraction.
	Parallelism int `yaml:"parallelism"`
}

// DefaultConfig returns B=10, L=6.
func DefaultConfig() Config {
	return Config{
		Branching:   DefaultBranching,
		Levels:      DefaultLevels,
		Seed:        DefaultSeed,
		Parallelism: DefaultParallelism,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.Branching < 1:
		return fmt.Errorf("%w: branching %d", ErrInvalidArgument, c.Branching)
	case c.Levels < 1:
		return fmt.Errorf("%w: levels %d", ErrInvalidArgument, c.Levels)
	case c.Parallelism < 1:
		return fmt.Errorf("%w: parallelism %d", ErrInvalidArgument, c.Parallelism)
	case c.SampleSize < 0:
		return fmt.Errorf("%w: sample size %d", ErrInvalidArgument, c.SampleSize)
	}
	return nil
}
