package evaluation

import (
	"context"
	"reflect"
	"rpsvision/internal/classifier"
	"rpsvision/internal/dataset"
	"rpsvision/internal/tensor"
	"rpsvision/internal/vision"
	"testing"
)

// scriptedClassifier returns fixed score rows regardless of the input.
type scriptedClassifier struct {
	rows      [][]float64
	lastShape []int
}

func (s *scriptedClassifier) Predict(ctx context.Context, batch *tensor.Tensor) (*tensor.Tensor, error) {
	s.lastShape = batch.Shape()
	return tensor.Stack(s.rows[:batch.Dim(0)], classifier.NumClasses), nil
}

type fakeDataset struct {
	classes []classifier.Class
	asked   int
}

func (f *fakeDataset) NextTestBatch(n int) (dataset.Batch, error) {
	f.asked = n
	labels := make([][]float64, n)
	for i := range labels {
		labels[i] = f.classes[i].OneHot()
	}
	return dataset.Batch{
		Images: tensor.Zeros(n, vision.ImageSize),
		Labels: tensor.Stack(labels, classifier.NumClasses),
	}, nil
}

func TestEvaluateReducesToIndices(t *testing.T) {
	ds := &fakeDataset{classes: []classifier.Class{classifier.Rock, classifier.Paper, classifier.Scissors, classifier.Paper}}
	clf := &scriptedClassifier{rows: [][]float64{
		{0.8, 0.1, 0.1},
		{0.4, 0.4, 0.2}, // tie resolves to Rock
		{0.1, 0.2, 0.7},
		{0.2, 0.5, 0.3},
	}}
	before := tensor.Live()

	preds, labels, err := Evaluate(context.Background(), clf, ds, 4)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ds.asked != 4 {
		t.Fatalf("expected a batch of 4, asked for %d", ds.asked)
	}
	if !reflect.DeepEqual(clf.lastShape, []int{4, 64, 64, 1}) {
		t.Fatalf("unexpected input shape %v", clf.lastShape)
	}
	if got := preds.Ints(); !reflect.DeepEqual(got, []int{0, 0, 2, 1}) {
		t.Fatalf("unexpected predictions %v", got)
	}
	if got := labels.Ints(); !reflect.DeepEqual(got, []int{0, 1, 2, 1}) {
		t.Fatalf("unexpected labels %v", got)
	}
	if tensor.Live() != before+2 {
		t.Fatalf("expected only the two returned tensors alive, got %d", tensor.Live()-before)
	}
	preds.Release()
	labels.Release()
	if tensor.Live() != before {
		t.Fatalf("leaked %d tensors", tensor.Live()-before)
	}
}

func TestRunBuildsReport(t *testing.T) {
	ds := &fakeDataset{classes: []classifier.Class{classifier.Rock, classifier.Rock, classifier.Scissors}}
	clf := &scriptedClassifier{rows: [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}}
	before := tensor.Live()

	report, err := Run(context.Background(), clf, ds, 3, "Trained Accuracy")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if tensor.Live() != before {
		t.Fatalf("leaked %d tensors", tensor.Live()-before)
	}
	if report.Accuracy[classifier.Rock].Accuracy != 0.5 {
		t.Fatalf("expected rock accuracy 0.5, got %f", report.Accuracy[classifier.Rock].Accuracy)
	}
	if report.Confusion[classifier.Rock][classifier.Paper] != 1 {
		t.Fatalf("expected one rock predicted as paper, got %v", report.Confusion)
	}
	if report.Confusion.Total() != 3 {
		t.Fatalf("expected 3 counted examples, got %d", report.Confusion.Total())
	}
}
