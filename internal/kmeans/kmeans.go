package kmeans

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/viterin/vek/vek32"

	"github.com/viant/voctree/vector"
	"github.com/viant/voctree/voctree"
)

// DefaultMaxIter bounds the number of Lloyd iterations.
const DefaultMaxIter = 50

// KMeans clusters vectors with Euclidean distance.
type KMeans struct {
	seed    uint64
	maxIter int
}

// Option configures KMeans.
type Option func(*KMeans)

// WithSeed sets the seed every clustering run derives its random source from.
func WithSeed(seed uint64) Option {
	return func(k *KMeans) { k.seed = seed }
}

// WithMaxIter sets the iteration bound; non-positive values keep the default.
func WithMaxIter(n int) Option {
	return func(k *KMeans) {
		if n > 0 {
			k.maxIter = n
		}
	}
}

// New creates a KMeans clusterer.
func New(opts ...Option) *KMeans {
	k := &KMeans{seed: 1, maxIter: DefaultMaxIter}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Cluster partitions vecs into at most k non-empty groups. When vecs holds
// fewer than k distinct points, fewer groups are returned. Identical inputs
// always produce identical groups.
func (km *KMeans) Cluster(ctx context.Context, vecs [][]float32, k int) ([]voctree.Cluster, error) {
	if k <= 0 {
		return nil, fmt.Errorf("kmeans: k must be positive, got %d", k)
	}
	if len(vecs) == 0 {
		return nil, nil
	}
	dim := len(vecs[0])
	for i, v := range vecs {
		if len(v) != dim {
			return nil, fmt.Errorf("kmeans: vector %d has dim %d, want %d", i, len(v), dim)
		}
	}

	rng := rand.New(rand.NewPCG(km.seed, uint64(len(vecs))<<32|uint64(k)))
	centroids := seedCentroids(rng, vecs, k)

	assignments := make([]int, len(vecs))
	for i := range assignments {
		assignments[i] = -1
	}
	for iter := 0; iter < km.maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		changed, err := assign(vecs, centroids, assignments)
		if err != nil {
			return nil, err
		}
		if !changed {
			break
		}
		update(vecs, centroids, assignments)
	}

	members := make([][]int, len(centroids))
	for i, c := range assignments {
		members[c] = append(members[c], i)
	}
	out := make([]voctree.Cluster, 0, len(centroids))
	for j, m := range members {
		if len(m) == 0 {
			continue
		}
		out = append(out, voctree.Cluster{Centroid: centroids[j], Members: m})
	}
	return out, nil
}

// seedCentroids picks up to k initial centroids with k-means++: each next
// centroid is drawn with probability proportional to its squared distance to
// the nearest chosen one. It stops early once every point coincides with a
// chosen centroid.
func seedCentroids(rng *rand.Rand, vecs [][]float32, k int) [][]float32 {
	first := vecs[rng.IntN(len(vecs))]
	centroids := [][]float32{append([]float32(nil), first...)}
	weights := make([]float64, len(vecs))
	for i, v := range vecs {
		weights[i] = sqDist(v, first)
	}
	for len(centroids) < k {
		var total float64
		for _, w := range weights {
			total += w
		}
		if total == 0 {
			break
		}
		r := rng.Float64() * total
		pick := len(vecs) - 1
		for i, w := range weights {
			if r < w {
				pick = i
				break
			}
			r -= w
		}
		// Floating point drift may land the fallback on a zero-weight point.
		for weights[pick] == 0 {
			pick--
		}
		c := append([]float32(nil), vecs[pick]...)
		centroids = append(centroids, c)
		for i, v := range vecs {
			if d := sqDist(v, c); d < weights[i] {
				weights[i] = d
			}
		}
	}
	return centroids
}

func assign(vecs, centroids [][]float32, assignments []int) (bool, error) {
	changed := false
	for i, v := range vecs {
		j, err := vector.Nearest(v, centroids)
		if err != nil {
			return false, err
		}
		if assignments[i] != j {
			assignments[i] = j
			changed = true
		}
	}
	return changed, nil
}

// update moves every centroid to the mean of its members; centroids without
// members keep their position.
func update(vecs, centroids [][]float32, assignments []int) {
	dim := len(centroids[0])
	sums := make([][]float32, len(centroids))
	counts := make([]int, len(centroids))
	for i, c := range assignments {
		if sums[c] == nil {
			sums[c] = make([]float32, dim)
		}
		vek32.Add_Inplace(sums[c], vecs[i])
		counts[c]++
	}
	for j := range centroids {
		if counts[j] == 0 {
			continue
		}
		vek32.MulNumber_Inplace(sums[j], 1/float32(counts[j]))
		centroids[j] = sums[j]
	}
}

func sqDist(a, b []float32) float64 {
	d := float64(vek32.Distance(a, b))
	return d * d
}
