package classifier

import (
	"context"
	"fmt"
	"rpsvision/internal/tensor"
	"strings"
)

// Class identifies one of the three hand gestures.
type Class int

const (
	Rock Class = iota
	Paper
	Scissors
)

// NumClasses is the width of every prediction and one-hot label.
const NumClasses = 3

// ClassNames lists the display names in class index order.
var ClassNames = [NumClasses]string{"Rock", "Paper", "Scissors"}

func (c Class) String() string {
	if c < 0 || int(c) >= NumClasses {
		return fmt.Sprintf("Class(%d)", int(c))
	}
	return ClassNames[c]
}

// OneHot returns the label vector for c.
func (c Class) OneHot() []float64 {
	v := make([]float64, NumClasses)
	v[c] = 1
	return v
}

// ParseClass accepts a class name in any letter case.
func ParseClass(name string) (Class, error) {
	for i, n := range ClassNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return Class(i), nil
		}
	}
	return 0, fmt.Errorf("unknown class %q", name)
}

// Classifier maps a batch of [N, 64, 64, 1] images to [N, 3] class probabilities.
// The returned tensor belongs to the caller.
type Classifier interface {
	Predict(ctx context.Context, batch *tensor.Tensor) (*tensor.Tensor, error)
}

// Trainable is a Classifier that can be incrementally fitted on labelled
// images ([N, 64, 64, 1]) and one-hot labels ([N, 3]).
type Trainable interface {
	Classifier
	Fit(ctx context.Context, images, labels *tensor.Tensor) error
}
