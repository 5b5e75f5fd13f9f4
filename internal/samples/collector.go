package samples

import (
	"context"
	"fmt"
	"rpsvision/internal/classifier"
	"rpsvision/internal/tensor"
	"rpsvision/internal/vision"
	"sync"
)

// FrameSource yields the most recently captured frame, if any.
type FrameSource interface {
	Current() (vision.Frame, bool)
}

// Counts reports how many buffered samples carry each class.
type Counts struct {
	Total    int            `json:"total"`
	PerClass map[string]int `json:"perClass"`
}

// Collector buffers user-labelled frames until they are handed to a
// classifier for incremental training. Images and labels are both appended
// at the back, so index i of one always matches index i of the other.
type Collector struct {
	source FrameSource

	mu     sync.Mutex
	images [][]float64
	labels [][]float64
}

func NewCollector(source FrameSource) *Collector {
	return &Collector{source: source}
}

// AddSample normalizes the current frame and stores it with label.
// Without a live frame it does nothing and returns false.
func (c *Collector) AddSample(label classifier.Class) bool {
	frame, ok := c.source.Current()
	if !ok || frame.Empty() {
		return false
	}

	normalized := vision.ToTensor(frame)
	pixels := normalized.Values()
	normalized.Release()

	c.mu.Lock()
	c.images = append(c.images, pixels)
	c.labels = append(c.labels, label.OneHot())
	c.mu.Unlock()
	return true
}

// Len returns the number of buffered samples.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

func (c *Collector) Counts() Counts {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts := Counts{Total: len(c.labels), PerClass: make(map[string]int, classifier.NumClasses)}
	for _, name := range classifier.ClassNames {
		counts.PerClass[name] = 0
	}
	for _, label := range c.labels {
		counts.PerClass[classifier.ClassNames[indexOf(label)]]++
	}
	return counts
}

// TrainAndReset fits model on every buffered sample and empties the buffer.
// An empty buffer skips the fit. When the fit fails the samples are kept so
// the caller can retry.
func (c *Collector) TrainAndReset(ctx context.Context, model classifier.Trainable) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.images)
	if n == 0 {
		c.reset()
		return 0, nil
	}

	images := tensor.Stack(c.images, vision.ImageHeight, vision.ImageWidth, 1)
	defer images.Release()
	labels := tensor.Stack(c.labels, classifier.NumClasses)
	defer labels.Release()

	if err := model.Fit(ctx, images, labels); err != nil {
		return 0, fmt.Errorf("failed to fit %d samples: %w", n, err)
	}
	c.reset()
	return n, nil
}

// reset drops the buffer's backing storage. Callers hold c.mu.
func (c *Collector) reset() {
	c.images = nil
	c.labels = nil
}

func indexOf(oneHot []float64) int {
	for i, v := range oneHot {
		if v == 1 {
			return i
		}
	}
	return 0
}
