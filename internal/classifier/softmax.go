package classifier

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"rpsvision/internal/tensor"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// pixelScale maps raw 0-255 intensities into the unit range before the
// linear layer.
const pixelScale = 1.0 / 255

// Softmax is a linear classifier with softmax cross-entropy, trained by
// plain SGD. It is the default model when no network file is configured.
type Softmax struct {
	mu         sync.RWMutex
	inputSize  int
	numClasses int
	weights    []float64
	bias       []float64
	lr         float64
	epochs     int
}

// NewSoftmax constructs the model with small random weights.
func NewSoftmax(inputSize int, lr float64, epochs int, seed int64) *Softmax {
	if inputSize <= 0 {
		inputSize = 64 * 64
	}
	if lr <= 0 {
		lr = 0.01
	}
	if epochs <= 0 {
		epochs = 1
	}
	rng := rand.New(rand.NewSource(seed))
	weights := make([]float64, NumClasses*inputSize)
	for i := range weights {
		weights[i] = (rng.Float64()*2 - 1) * 0.01
	}
	return &Softmax{
		inputSize:  inputSize,
		numClasses: NumClasses,
		weights:    weights,
		bias:       make([]float64, NumClasses),
		lr:         lr,
		epochs:     epochs,
	}
}

// Predict returns class probabilities for each sample in batch.
func (m *Softmax) Predict(ctx context.Context, batch *tensor.Tensor) (*tensor.Tensor, error) {
	n, err := m.batchSize(batch)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	data := batch.Data()
	out := make([]float64, 0, n*m.numClasses)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, m.forward(data[i*m.inputSize:(i+1)*m.inputSize])...)
	}
	return tensor.New([]int{n, m.numClasses}, out), nil
}

// Fit runs the configured number of SGD epochs over images and labels.
func (m *Softmax) Fit(ctx context.Context, images, labels *tensor.Tensor) error {
	n, err := m.batchSize(images)
	if err != nil {
		return err
	}
	if labels.Rank() != 2 || labels.Dim(0) != n || labels.Dim(1) != m.numClasses {
		return fmt.Errorf("labels shape %v does not match %d samples", labels.Shape(), n)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	data := images.Data()
	targets := labels.Data()
	for epoch := 0; epoch < m.epochs; epoch++ {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			m.step(data[i*m.inputSize:(i+1)*m.inputSize], targets[i*m.numClasses:(i+1)*m.numClasses])
		}
	}
	return nil
}

// Loss returns the mean cross-entropy of the model on images and labels.
func (m *Softmax) Loss(images, labels *tensor.Tensor) (float64, error) {
	n, err := m.batchSize(images)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	data := images.Data()
	targets := labels.Data()
	total := 0.0
	for i := 0; i < n; i++ {
		probs := m.forward(data[i*m.inputSize : (i+1)*m.inputSize])
		target := targets[i*m.numClasses : (i+1)*m.numClasses]
		total += -math.Log(math.Max(probs[floats.MaxIdx(target)], 1e-9))
	}
	return total / float64(n), nil
}

func (m *Softmax) batchSize(batch *tensor.Tensor) (int, error) {
	if batch.Rank() == 0 {
		return 0, fmt.Errorf("scalar batch")
	}
	n := batch.Dim(0)
	if n == 0 {
		return 0, nil
	}
	if batch.Len()/n != m.inputSize {
		return 0, fmt.Errorf("batch shape %v does not match input size %d", batch.Shape(), m.inputSize)
	}
	return n, nil
}

func (m *Softmax) forward(input []float64) []float64 {
	logits := make([]float64, m.numClasses)
	for c := 0; c < m.numClasses; c++ {
		w := m.weights[c*m.inputSize : (c+1)*m.inputSize]
		logits[c] = m.bias[c] + floats.Dot(w, input)*pixelScale
	}
	return softmax(logits)
}

func (m *Softmax) step(input, target []float64) {
	probs := m.forward(input)
	for c := 0; c < m.numClasses; c++ {
		grad := probs[c] - target[c]
		m.bias[c] -= m.lr * grad
		w := m.weights[c*m.inputSize : (c+1)*m.inputSize]
		floats.AddScaled(w, -m.lr*grad*pixelScale, input)
	}
}

func softmax(logits []float64) []float64 {
	maxLogit := floats.Max(logits)
	out := make([]float64, len(logits))
	for i, v := range logits {
		out[i] = math.Exp(v - maxLogit)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
