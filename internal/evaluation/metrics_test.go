package evaluation

import (
	"math"
	"rpsvision/internal/classifier"
	"testing"
)

const (
	rock     = int(classifier.Rock)
	paper    = int(classifier.Paper)
	scissors = int(classifier.Scissors)
)

func TestSixExampleReport(t *testing.T) {
	labels := []int{rock, rock, paper, paper, scissors, scissors}
	preds := []int{rock, paper, paper, paper, scissors, rock}

	m, err := Confusion(preds, labels)
	if err != nil {
		t.Fatalf("Confusion: %v", err)
	}
	want := ConfusionMatrix{
		{1, 1, 0},
		{0, 2, 0},
		{1, 0, 1},
	}
	if m != want {
		t.Fatalf("expected %v, got %v", want, m)
	}

	acc, err := PerClassAccuracy(preds, labels)
	if err != nil {
		t.Fatalf("PerClassAccuracy: %v", err)
	}
	wantAcc := []float64{0.5, 1.0, 0.5}
	for i, a := range acc {
		if math.Abs(a.Accuracy-wantAcc[i]) > 1e-12 {
			t.Errorf("%s: expected %.2f, got %.2f", a.ClassName, wantAcc[i], a.Accuracy)
		}
		if a.Count != 2 {
			t.Errorf("%s: expected 2 examples, got %d", a.ClassName, a.Count)
		}
	}
}

func TestPerClassAccuracyMissingClassIsZero(t *testing.T) {
	labels := []int{rock, rock, scissors}
	preds := []int{rock, rock, scissors}

	acc, err := PerClassAccuracy(preds, labels)
	if err != nil {
		t.Fatalf("PerClassAccuracy: %v", err)
	}
	if acc[rock].Accuracy != 1 || acc[scissors].Accuracy != 1 {
		t.Fatalf("expected perfect accuracy, got %v", acc)
	}
	if math.IsNaN(acc[paper].Accuracy) || acc[paper].Accuracy != 0 {
		t.Fatalf("expected 0 for class without examples, got %v", acc[paper].Accuracy)
	}
}

func TestConfusionSumsAndIdempotence(t *testing.T) {
	labels := []int{0, 1, 2, 2, 1, 0, 0, 2, 1, 1}
	preds := []int{2, 1, 0, 2, 1, 1, 0, 2, 0, 1}

	first, err := Confusion(preds, labels)
	if err != nil {
		t.Fatalf("Confusion: %v", err)
	}
	second, err := Confusion(preds, labels)
	if err != nil {
		t.Fatalf("Confusion: %v", err)
	}
	if first != second {
		t.Fatalf("confusion matrix not deterministic: %v vs %v", first, second)
	}

	if first.Total() != len(labels) {
		t.Fatalf("expected total %d, got %d", len(labels), first.Total())
	}
	counts := make([]int, classifier.NumClasses)
	for _, l := range labels {
		counts[l]++
	}
	for c := range counts {
		if got := first.RowSum(classifier.Class(c)); got != counts[c] {
			t.Errorf("row %d: expected %d, got %d", c, counts[c], got)
		}
		for _, v := range first[c] {
			if v < 0 {
				t.Errorf("negative count in row %d", c)
			}
		}
	}
}

func TestMetricsRejectMisalignedInput(t *testing.T) {
	if _, err := Confusion([]int{0}, []int{0, 1}); err == nil {
		t.Error("expected length mismatch error")
	}
	if _, err := PerClassAccuracy([]int{3}, []int{0}); err == nil {
		t.Error("expected out-of-range error")
	}
}

func TestNewReportOverall(t *testing.T) {
	report, err := NewReport("Trained", []int{0, 1, 2, 0}, []int{0, 1, 1, 0})
	if err != nil {
		t.Fatalf("NewReport: %v", err)
	}
	if report.Overall != 0.75 {
		t.Fatalf("expected overall 0.75, got %f", report.Overall)
	}
	if report.TestSize != 4 || len(report.ClassNames) != 3 {
		t.Fatalf("unexpected report %+v", report)
	}
}
