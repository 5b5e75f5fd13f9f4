package ai

import (
	"context"
	"fmt"
	"image"
	"os"
	"rpsvision/internal/classifier"
	"rpsvision/internal/tensor"
	"sync"

	"gocv.io/x/gocv"
)

// DNN is a classifier.Classifier that runs an exported network (ONNX, TensorFlow, ...) through OpenCV's dnn
// module. The network must take a single-channel 64x64 image and end in a
// 3-way softmax.
type DNN struct {
	mu         sync.Mutex
	net        gocv.Net
	inputScale float64
}

// NewDNN loads the network at modelPath. configPath may be empty for
// self-describing formats such as ONNX.
func NewDNN(modelPath, configPath string, inputScale float64) (*DNN, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
	}

	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network %s", modelPath)
	}
	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	if inputScale <= 0 {
		inputScale = 1
	}
	return &DNN{net: net, inputScale: inputScale}, nil
}

// Predict feeds each sample through the network one at a time.
func (d *DNN) Predict(ctx context.Context, batch *tensor.Tensor) (*tensor.Tensor, error) {
	if batch.Rank() != 4 || batch.Dim(3) != 1 {
		return nil, fmt.Errorf("expected [N, h, w, 1] batch, got %v", batch.Shape())
	}
	n, h, w := batch.Dim(0), batch.Dim(1), batch.Dim(2)

	d.mu.Lock()
	defer d.mu.Unlock()

	data := batch.Data()
	out := make([]float64, 0, n*classifier.NumClasses)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		probs, err := d.forward(data[i*h*w:(i+1)*h*w], h, w)
		if err != nil {
			return nil, err
		}
		out = append(out, probs...)
	}
	return tensor.New([]int{n, classifier.NumClasses}, out), nil
}

func (d *DNN) forward(sample []float64, h, w int) ([]float64, error) {
	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV32F)
	defer mat.Close()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mat.SetFloatAt(y, x, float32(sample[y*w+x]))
		}
	}

	blob := gocv.BlobFromImage(mat, d.inputScale, image.Pt(w, h), gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	if output.Total() < classifier.NumClasses {
		return nil, fmt.Errorf("network produced %d outputs, want %d", output.Total(), classifier.NumClasses)
	}
	flat := output.Reshape(1, 1)
	defer flat.Close()

	probs := make([]float64, classifier.NumClasses)
	for c := 0; c < classifier.NumClasses; c++ {
		probs[c] = float64(flat.GetFloatAt(0, c))
	}
	return probs, nil
}

// Close releases the underlying network.
func (d *DNN) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
