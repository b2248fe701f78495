package vector

import (
	"fmt"

	"github.com/viant/vec/search"
)

// L2Distance computes the Euclidean (L2) distance between two vectors. It
// returns an error if the vectors have different lengths.
func L2Distance(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector: L2 distance dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, nil
	}
	return search.Float32s(a).EuclideanDistance(b), nil
}

// Nearest returns the index of the centroid closest to vec by Euclidean
// distance. The first centroid wins ties. It returns -1 when centroids is
// empty.
func Nearest(vec []float32, centroids [][]float32) (int, error) {
	best := -1
	var bestDist float32
	for i, c := range centroids {
		d, err := L2Distance(vec, c)
		if err != nil {
			return -1, err
		}
		if best == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}
