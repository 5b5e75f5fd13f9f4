package opencv

import (
	"context"
	"fmt"
	"rpsvision/internal/camera"
	"rpsvision/internal/logger"
	"time"

	"gocv.io/x/gocv"
)

// ReadDevice captures frames from a local video device until ctx is done.
// Each frame is JPEG encoded and passed to handle like a UDP camera image.
func ReadDevice(ctx context.Context, device int, logger *logger.Logger, handle camera.ImageHandler) error {
	webcam, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return fmt.Errorf("failed to open video device %d: %w", device, err)
	}
	defer webcam.Close()

	name := fmt.Sprintf("device_%d", device)
	mat := gocv.NewMat()
	defer mat.Close()

	logger.Info("Reading frames from video device %d", device)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if ok := webcam.Read(&mat); !ok || mat.Empty() {
			logger.Warning("No frame from video device %d", device)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
		if err != nil {
			logger.Error("Failed to encode frame from device %d: %v", device, err)
			continue
		}
		image := append([]byte(nil), buf.GetBytes()...)
		buf.Close()

		handle(image, name)
	}
}
