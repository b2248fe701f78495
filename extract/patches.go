package extract

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/viant/voctree/model"
	"github.com/viant/voctree/voctree"
)

// DefaultPatchSize is the window side used when Patches.Size is unset.
const DefaultPatchSize = 8

// Patches emits one vector per Size x Size window of an image matrix, read
// row-major and scaled to unit length. Windows advance by Stride in both
// directions; a zero Stride equals Size. Images smaller than one window
// yield no vectors.
type Patches struct {
	Size   int
	Stride int
}

// NewPatches returns a Patches extractor; non-positive values select the
// defaults.
func NewPatches(size, stride int) *Patches {
	p := &Patches{Size: size, Stride: stride}
	if p.Size <= 0 {
		p.Size = DefaultPatchSize
	}
	if p.Stride <= 0 {
		p.Stride = p.Size
	}
	return p
}

func (p *Patches) window() (size, stride int) {
	size, stride = p.Size, p.Stride
	if size <= 0 {
		size = DefaultPatchSize
	}
	if stride <= 0 {
		stride = size
	}
	return size, stride
}

// Dim returns the size of produced vectors.
func (p *Patches) Dim() int {
	size, _ := p.window()
	return size * size
}

// Extract returns the patch vectors of m in raster order.
func (p *Patches) Extract(ctx context.Context, m *mat.Dense) ([][]float32, error) {
	if m == nil {
		return nil, fmt.Errorf("extract: nil image matrix: %w", voctree.ErrValidation)
	}
	size, stride := p.window()
	rows, cols := m.Dims()
	var out [][]float32
	for i := 0; i+size <= rows; i += stride {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := 0; j+size <= cols; j += stride {
			v := make([]float32, 0, size*size)
			for r := i; r < i+size; r++ {
				for c := j; c < j+size; c++ {
					v = append(v, float32(m.At(r, c)))
				}
			}
			normalize(v)
			out = append(out, v)
		}
	}
	return out, nil
}

// Features extracts the patch vectors of an image, tagged with its id.
func (p *Patches) Features(ctx context.Context, im model.Image) ([]model.Feature, error) {
	if im.Mat == nil {
		return nil, fmt.Errorf("extract: image %s has no matrix: %w", im.ID, voctree.ErrValidation)
	}
	vecs, err := p.Extract(ctx, im.Mat)
	if err != nil {
		return nil, err
	}
	out := make([]model.Feature, len(vecs))
	for i, v := range vecs {
		out[i] = model.Feature{Vec: v, DocID: im.ID}
	}
	return out, nil
}
