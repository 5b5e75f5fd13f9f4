package predictor

import (
	"context"
	"fmt"
	"rpsvision/internal/classifier"
	"rpsvision/internal/tensor"
	"rpsvision/internal/vision"
	"strings"
)

// ClassProbability is the score the classifier gave one class.
type ClassProbability struct {
	ClassName   string  `json:"className"`
	Probability float64 `json:"probability"`
}

// Result holds one entry per class in Rock, Paper, Scissors order.
type Result []ClassProbability

// Best returns the entry with the highest probability, first one on ties.
func (r Result) Best() ClassProbability {
	best := r[0]
	for _, p := range r[1:] {
		if p.Probability > best.Probability {
			best = p
		}
	}
	return best
}

// RenderTarget paints a [64, 64, 1] tensor whose values lie in [0, 1].
type RenderTarget interface {
	Render(t *tensor.Tensor) error
}

// Options tune a single prediction.
type Options struct {
	// Feedback, when set, receives the normalized input for display.
	Feedback RenderTarget
}

// Predict normalizes frame, runs it through clf as a one-element batch and
// returns the per-class probabilities. No tensor outlives the call.
func Predict(ctx context.Context, clf classifier.Classifier, frame vision.Frame, opts Options) (Result, error) {
	resized := vision.ToTensor(frame)
	defer resized.Release()

	logits, err := func() (*tensor.Tensor, error) {
		batched := resized.Reshape(1, vision.ImageHeight, vision.ImageWidth, 1)
		defer batched.Release()
		return clf.Predict(ctx, batched)
	}()
	if err != nil {
		return nil, fmt.Errorf("classifier predict: %w", err)
	}
	values := logits.Values()
	logits.Release()

	if len(values) < classifier.NumClasses {
		return nil, fmt.Errorf("classifier returned %d values, want %d", len(values), classifier.NumClasses)
	}

	var renderErr error
	if opts.Feedback != nil {
		scaled := tensor.Scale(resized, 1.0/255)
		renderErr = opts.Feedback.Render(scaled)
		scaled.Release()
	}

	result := make(Result, classifier.NumClasses)
	for i, name := range classifier.ClassNames {
		result[i] = ClassProbability{ClassName: name, Probability: values[i]}
	}
	if renderErr != nil {
		return result, &RenderError{Err: renderErr}
	}
	return result, nil
}

// RenderError reports a feedback rendering failure. The prediction returned
// alongside it is still valid.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return "render feedback: " + e.Err.Error()
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Message formats a result as the live status line, e.g.
// " Rock: %12.50, Paper: %80.00, Scissors: %7.50".
func Message(r Result) string {
	parts := make([]string, len(r))
	for i, p := range r {
		parts[i] = fmt.Sprintf(" %s: %%%.2f", p.ClassName, p.Probability*100)
	}
	return strings.Join(parts, ",")
}
