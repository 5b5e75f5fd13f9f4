package evaluation

import (
	"context"
	"fmt"
	"rpsvision/internal/classifier"
	"rpsvision/internal/dataset"
	"rpsvision/internal/tensor"
	"rpsvision/internal/vision"
)

// DefaultTestSize is the number of held-out examples evaluated per run.
const DefaultTestSize = 420

// Evaluate pulls testSize examples from ds, classifies them with clf and
// reduces both predictions and one-hot labels to class indices.
// The caller owns both returned tensors and must release them.
func Evaluate(ctx context.Context, clf classifier.Classifier, ds dataset.Dataset, testSize int) (preds, labels *tensor.Tensor, err error) {
	if testSize <= 0 {
		testSize = DefaultTestSize
	}

	batch, err := ds.NextTestBatch(testSize)
	if err != nil {
		return nil, nil, fmt.Errorf("next test batch: %w", err)
	}
	defer batch.Release()

	scores, err := func() (*tensor.Tensor, error) {
		inputs := batch.Images.Reshape(testSize, vision.ImageHeight, vision.ImageWidth, 1)
		defer inputs.Release()
		return clf.Predict(ctx, inputs)
	}()
	if err != nil {
		return nil, nil, fmt.Errorf("classifier predict: %w", err)
	}
	defer scores.Release()

	return tensor.ArgMax(scores), tensor.ArgMax(batch.Labels), nil
}
