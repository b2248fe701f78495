package extract

import (
	"context"
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/clipperhouse/uax29/v2/words"
	"golang.org/x/text/unicode/norm"

	"github.com/viant/voctree/model"
)

// DefaultCaptionDim is the embedding size of caption vectors.
const DefaultCaptionDim = 384

// Caption projects every word of a caption to a pseudo-random unit vector
// seeded by the hash of the normalized word.
type Caption struct {
	dims int
}

// NewCaption returns a Caption extractor of dim components; dim <= 0 selects
// DefaultCaptionDim.
func NewCaption(dim int) *Caption {
	if dim <= 0 {
		dim = DefaultCaptionDim
	}
	return &Caption{dims: dim}
}

func (c *Caption) dim() int {
	if c.dims <= 0 {
		return DefaultCaptionDim
	}
	return c.dims
}

// Dim returns the size of produced vectors.
func (c *Caption) Dim() int { return c.dim() }

// Extract returns one vector per word token of caption, in order.
func (c *Caption) Extract(ctx context.Context, caption string) ([][]float32, error) {
	tokens := Tokenize(caption)
	out := make([][]float32, 0, len(tokens))
	for _, tok := range tokens {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, c.embed(tok))
	}
	return out, nil
}

// Features extracts the caption vectors of an image, tagged with its id.
func (c *Caption) Features(ctx context.Context, im model.Image) ([]model.Feature, error) {
	vecs, err := c.Extract(ctx, im.Captions)
	if err != nil {
		return nil, err
	}
	out := make([]model.Feature, len(vecs))
	for i, v := range vecs {
		out[i] = model.Feature{Vec: v, DocID: im.ID}
	}
	return out, nil
}

func (c *Caption) embed(token string) []float32 {
	h := xxhash.Sum64String(token)
	rng := rand.New(rand.NewPCG(h, h^0x9e3779b97f4a7c15))
	v := make([]float32, c.dim())
	for i := range v {
		v[i] = float32(rng.NormFloat64())
	}
	normalize(v)
	return v
}

// Tokenize normalizes s (NFKC, lower case) and splits it into UAX#29 words,
// dropping whitespace and punctuation segments.
func Tokenize(s string) []string {
	s = strings.ToLower(norm.NFKC.String(s))
	toks := words.FromString(s)
	var out []string
	for toks.Next() {
		if tok := toks.Value(); isWord(tok) {
			out = append(out, tok)
		}
	}
	return out
}

func isWord(tok string) bool {
	for _, r := range tok {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
