package extract

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// normalize scales v to unit length in place. A zero vector is left as is.
func normalize(v []float32) {
	n := float32(math.Sqrt(float64(vek32.Dot(v, v))))
	if n == 0 {
		return
	}
	vek32.MulNumber_Inplace(v, 1/n)
}
