package vision

import (
	"fmt"
	"image"
	"math"
	"rpsvision/internal/tensor"

	"golang.org/x/image/draw"
)

// GrayImage paints a [h, w, 1] tensor with values in [0, 1] as an 8-bit
// grayscale image. Values outside the range are clamped.
func GrayImage(t *tensor.Tensor) (*image.Gray, error) {
	if t.Rank() != 3 || t.Dim(2) != 1 {
		return nil, fmt.Errorf("expected [h, w, 1] tensor, got %v", t.Shape())
	}
	h, w := t.Dim(0), t.Dim(1)
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range t.Data() {
		img.Pix[i] = uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return img, nil
}

// Upscale enlarges img by an integer factor with nearest-neighbour sampling
// so individual input pixels stay visible.
func Upscale(img image.Image, factor int) *image.Gray {
	if factor < 1 {
		factor = 1
	}
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
