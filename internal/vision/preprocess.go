package vision

import (
	"math"
	"rpsvision/internal/tensor"
)

const (
	// ImageWidth is the width of every normalized tensor.
	ImageWidth = 64
	// ImageHeight is the height of every normalized tensor.
	ImageHeight = 64
	// ImageSize is the number of values in a flattened normalized tensor.
	ImageSize = ImageWidth * ImageHeight
)

// ToTensor converts a frame into a [64, 64, 1] grayscale tensor.
//
// Grayscale is the plain mean of the three channels. The result is resized
// with bilinear interpolation and aligned corners, so the four corner pixels
// of the input land exactly on the four corners of the output. Values stay in
// the 0-255 pixel range.
func ToTensor(frame Frame) *tensor.Tensor {
	return tensor.Tidy(func(s *tensor.Scope) *tensor.Tensor {
		gray := s.Track(grayscale(frame))
		return s.Track(resizeBilinear(gray, frame.Width, frame.Height, ImageWidth, ImageHeight))
	})
}

// grayscale averages the color channels into a [height, width, 1] tensor.
func grayscale(frame Frame) *tensor.Tensor {
	out := make([]float64, frame.Width*frame.Height)
	for i := range out {
		p := frame.Pix[i*3 : i*3+3]
		out[i] = (float64(p[0]) + float64(p[1]) + float64(p[2])) / 3
	}
	return tensor.New([]int{frame.Height, frame.Width, 1}, out)
}

// resizeBilinear samples src (inH x inW, one channel) onto an outH x outW grid
// with align-corners scaling.
func resizeBilinear(src *tensor.Tensor, inW, inH, outW, outH int) *tensor.Tensor {
	in := src.Data()
	out := make([]float64, outW*outH)
	for y := 0; y < outH; y++ {
		srcY := alignedCoord(y, inH, outH)
		y0 := int(math.Floor(srcY))
		y1 := min(y0+1, inH-1)
		dy := srcY - float64(y0)
		for x := 0; x < outW; x++ {
			srcX := alignedCoord(x, inW, outW)
			x0 := int(math.Floor(srcX))
			x1 := min(x0+1, inW-1)
			dx := srcX - float64(x0)

			top := in[y0*inW+x0] + (in[y0*inW+x1]-in[y0*inW+x0])*dx
			bottom := in[y1*inW+x0] + (in[y1*inW+x1]-in[y1*inW+x0])*dx
			out[y*outW+x] = top + (bottom-top)*dy
		}
	}
	return tensor.New([]int{outH, outW, 1}, out)
}

// alignedCoord maps output index i onto the input axis so that the first and
// last samples of both axes coincide.
func alignedCoord(i, in, out int) float64 {
	if out <= 1 {
		return 0
	}
	return float64(i*(in-1)) / float64(out-1)
}
