package vision

import (
	"fmt"
	"image"
)

// Frame is a single captured color image stored as interleaved RGB bytes.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewFrame allocates a black frame of the given size.
func NewFrame(width, height int) Frame {
	return Frame{Width: width, Height: height, Pix: make([]uint8, width*height*3)}
}

// Empty reports whether the frame carries no pixels.
func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0 || len(f.Pix) < f.Width*f.Height*3
}

// RGB returns the color components at (x, y).
func (f Frame) RGB(x, y int) (r, g, b uint8) {
	i := (y*f.Width + x) * 3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Set writes the color components at (x, y).
func (f Frame) Set(x, y int, r, g, b uint8) {
	i := (y*f.Width + x) * 3
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = r, g, b
}

// FrameFromImage converts any image.Image into a Frame, dropping alpha.
func FrameFromImage(img image.Image) (Frame, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return Frame{}, fmt.Errorf("empty image")
	}
	frame := NewFrame(bounds.Dx(), bounds.Dy())
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			frame.Set(x, y, uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}
	return frame, nil
}
