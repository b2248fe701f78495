package main

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"
)

// decodeImage reads a PNG or JPEG image into a grayscale matrix with values
// in [0, 1], one row per pixel row.
func decodeImage(r io.Reader) (*mat.Dense, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("decode image: empty image")
	}
	m := mat.NewDense(b.Dy(), b.Dx(), nil)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			m.Set(y-b.Min.Y, x-b.Min.X, float64(g.Y)/255)
		}
	}
	return m, nil
}

func readImage(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := decodeImage(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
