package evaluation

import (
	"context"
	"rpsvision/internal/classifier"
	"rpsvision/internal/dataset"
)

// Report is what the metrics surface shows after an evaluation run.
type Report struct {
	Title      string          `json:"title"`
	TestSize   int             `json:"testSize"`
	ClassNames []string        `json:"classNames"`
	Accuracy   []ClassAccuracy `json:"accuracy"`
	Overall    float64         `json:"overall"`
	Confusion  ConfusionMatrix `json:"confusion"`
}

// NewReport derives both metrics from aligned predicted and true labels.
func NewReport(title string, preds, labels []int) (Report, error) {
	accuracy, err := PerClassAccuracy(preds, labels)
	if err != nil {
		return Report{}, err
	}
	confusion, err := Confusion(preds, labels)
	if err != nil {
		return Report{}, err
	}

	correct := 0
	for i := range labels {
		if preds[i] == labels[i] {
			correct++
		}
	}
	overall := 0.0
	if len(labels) > 0 {
		overall = float64(correct) / float64(len(labels))
	}

	return Report{
		Title:      title,
		TestSize:   len(labels),
		ClassNames: classifier.ClassNames[:],
		Accuracy:   accuracy,
		Overall:    overall,
		Confusion:  confusion,
	}, nil
}

// Run evaluates clf on testSize examples of ds and builds a Report.
func Run(ctx context.Context, clf classifier.Classifier, ds dataset.Dataset, testSize int, title string) (Report, error) {
	preds, labels, err := Evaluate(ctx, clf, ds, testSize)
	if err != nil {
		return Report{}, err
	}
	defer preds.Release()
	defer labels.Release()

	return NewReport(title, preds.Ints(), labels.Ints())
}
