package opencv

import (
	"fmt"
	"image"
	"rpsvision/internal/vision"

	"gocv.io/x/gocv"
)

// FrameFromMat copies a BGR gocv.Mat into an RGB vision.Frame.
func FrameFromMat(mat gocv.Mat) (vision.Frame, error) {
	if mat.Empty() {
		return vision.Frame{}, fmt.Errorf("mat is empty")
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	if err := gocv.CvtColor(mat, &rgb, gocv.ColorBGRToRGB); err != nil {
		return vision.Frame{}, fmt.Errorf("failed to convert BGR to RGB: %w", err)
	}

	frame := vision.Frame{Width: rgb.Cols(), Height: rgb.Rows()}
	frame.Pix = append([]uint8(nil), rgb.ToBytes()...)
	if frame.Empty() {
		return vision.Frame{}, fmt.Errorf("unexpected mat layout %dx%d with %d bytes", frame.Width, frame.Height, len(frame.Pix))
	}
	return frame, nil
}

// DecodeFrame decodes an encoded image (typically a camera JPEG) into a Frame.
func DecodeFrame(data []byte) (vision.Frame, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return vision.Frame{}, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return vision.Frame{}, fmt.Errorf("decoded image is empty")
	}
	return FrameFromMat(mat)
}

// EncodePNG encodes a grayscale image, used for the feedback view.
func EncodePNG(img *image.Gray) ([]byte, error) {
	mat, err := gocv.ImageGrayToMatGray(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}

// Codec decodes camera images and encodes feedback images with OpenCV.
type Codec struct{}

func (Codec) Decode(data []byte) (vision.Frame, error) {
	return DecodeFrame(data)
}

func (Codec) EncodePNG(img *image.Gray) ([]byte, error) {
	return EncodePNG(img)
}
