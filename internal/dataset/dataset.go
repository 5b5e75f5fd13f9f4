package dataset

import (
	"errors"
	"fmt"
	"math/rand"
	"rpsvision/internal/classifier"
	"rpsvision/internal/tensor"
	"rpsvision/internal/vision"
	"sync"
)

// ErrEmptySplit is returned when a batch is requested from a split with no examples.
var ErrEmptySplit = errors.New("dataset: split has no examples")

// Batch pairs N flattened images ([N, 4096]) with N one-hot labels ([N, 3]).
// Row i of Images belongs to row i of Labels.
type Batch struct {
	Images *tensor.Tensor
	Labels *tensor.Tensor
}

// Size returns the number of examples in the batch.
func (b Batch) Size() int {
	if b.Images == nil {
		return 0
	}
	return b.Images.Dim(0)
}

// Release frees both tensors.
func (b Batch) Release() {
	b.Images.Release()
	b.Labels.Release()
}

// Dataset hands out held-out test batches.
type Dataset interface {
	NextTestBatch(n int) (Batch, error)
}

// TrainSource hands out training batches.
type TrainSource interface {
	NextTrainBatch(n int) (Batch, error)
}

// Example is one normalized, flattened image with its class.
type Example struct {
	Pixels []float64
	Class  classifier.Class
}

// Memory keeps every example in memory, split once into shuffled train and
// test partitions. Batches walk each partition cyclically.
type Memory struct {
	mu        sync.Mutex
	examples  []Example
	train     []int
	test      []int
	trainNext int
	testNext  int
}

// NewMemory shuffles examples with seed and reserves testFraction of them
// for evaluation.
func NewMemory(examples []Example, testFraction float64, seed int64) (*Memory, error) {
	for i, ex := range examples {
		if len(ex.Pixels) != vision.ImageSize {
			return nil, fmt.Errorf("example %d has %d pixels, want %d", i, len(ex.Pixels), vision.ImageSize)
		}
		if ex.Class < 0 || int(ex.Class) >= classifier.NumClasses {
			return nil, fmt.Errorf("example %d has invalid class %d", i, ex.Class)
		}
	}
	if testFraction < 0 || testFraction > 1 {
		return nil, fmt.Errorf("test fraction must be within [0,1] (got %f)", testFraction)
	}

	order := rand.New(rand.NewSource(seed)).Perm(len(examples))
	numTest := int(float64(len(examples)) * testFraction)
	return &Memory{
		examples: examples,
		test:     order[:numTest],
		train:    order[numTest:],
	}, nil
}

// NextTestBatch returns the next n test examples, wrapping around the split.
func (m *Memory) NextTestBatch(n int) (Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextBatch(m.test, &m.testNext, n)
}

// NextTrainBatch returns the next n training examples, wrapping around the split.
func (m *Memory) NextTrainBatch(n int) (Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextBatch(m.train, &m.trainNext, n)
}

// Counts returns the number of train and test examples.
func (m *Memory) Counts() (train, test int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.train), len(m.test)
}

func (m *Memory) nextBatch(split []int, cursor *int, n int) (Batch, error) {
	if n <= 0 {
		return Batch{}, fmt.Errorf("batch size must be > 0 (got %d)", n)
	}
	if len(split) == 0 {
		return Batch{}, ErrEmptySplit
	}
	images := make([]float64, 0, n*vision.ImageSize)
	labels := make([]float64, 0, n*classifier.NumClasses)
	for i := 0; i < n; i++ {
		ex := m.examples[split[*cursor]]
		*cursor = (*cursor + 1) % len(split)
		images = append(images, ex.Pixels...)
		labels = append(labels, ex.Class.OneHot()...)
	}
	return Batch{
		Images: tensor.New([]int{n, vision.ImageSize}, images),
		Labels: tensor.New([]int{n, classifier.NumClasses}, labels),
	}, nil
}
