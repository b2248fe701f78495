package sampling

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
)

var (
	// ErrInsufficientData reports an empty population.
	ErrInsufficientData = errors.New("sampling: insufficient data")
	// ErrSampling reports a sample size outside [0, population].
	ErrSampling = errors.New("sampling: invalid sample size")
)

// minFraction is the smallest share of the population a training sample may
// cover.
const minFraction = 0.01

// SampleSize applies the training-corpus policy to a requested size for a
// population of count items:
//   - requested > count is clamped to count
//   - requested below 1% of count is raised to ceil(count/100)+1, capped at count
//   - otherwise requested is used unchanged
func SampleSize(requested, count int) (int, error) {
	return sampleSize(slog.Default(), requested, count)
}

// SampleSizeWithLogger is SampleSize reporting clamps through logger.
func SampleSizeWithLogger(logger *slog.Logger, requested, count int) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return sampleSize(logger, requested, count)
}

func sampleSize(logger *slog.Logger, requested, count int) (int, error) {
	if count <= 0 {
		return 0, ErrInsufficientData
	}
	if requested < 0 {
		return 0, fmt.Errorf("%w: requested %d", ErrSampling, requested)
	}
	if requested > count {
		logger.Warn("sample size exceeds population, using full population",
			slog.Int("requested", requested),
			slog.Int("population", count))
		return count, nil
	}
	if float64(requested)/float64(count) < minFraction {
		size := (count+99)/100 + 1
		if size > count {
			size = count
		}
		logger.Warn("sample size below 1% of population, raising",
			slog.Int("requested", requested),
			slog.Int("population", count),
			slog.Int("size", size))
		return size, nil
	}
	return requested, nil
}

// Sample draws k distinct items uniformly at random from items. The input is
// not modified. For a fixed rng seed the result is deterministic.
func Sample[T any](rng *rand.Rand, items []T, k int) ([]T, error) {
	if k < 0 || k > len(items) {
		return nil, fmt.Errorf("%w: %d of %d", ErrSampling, k, len(items))
	}
	if k == 0 {
		return nil, nil
	}
	pool := append([]T(nil), items...)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k:k], nil
}
