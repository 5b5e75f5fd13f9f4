package evaluation

import (
	"fmt"
	"rpsvision/internal/classifier"
)

// ConfusionMatrix counts examples by [true class][predicted class].
type ConfusionMatrix [classifier.NumClasses][classifier.NumClasses]int

// Total returns the number of counted examples.
func (m ConfusionMatrix) Total() int {
	total := 0
	for _, row := range m {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// RowSum returns the number of examples whose true class is c.
func (m ConfusionMatrix) RowSum(c classifier.Class) int {
	sum := 0
	for _, v := range m[c] {
		sum += v
	}
	return sum
}

// ClassAccuracy is the share of correctly predicted examples of one class.
type ClassAccuracy struct {
	ClassName string  `json:"className"`
	Accuracy  float64 `json:"accuracy"`
	Count     int     `json:"count"`
}

// Confusion builds the confusion matrix for aligned predicted and true labels.
func Confusion(preds, labels []int) (ConfusionMatrix, error) {
	var m ConfusionMatrix
	if err := checkAligned(preds, labels); err != nil {
		return m, err
	}
	for i, truth := range labels {
		m[truth][preds[i]]++
	}
	return m, nil
}

// PerClassAccuracy returns, for each class in index order, the fraction of its
// examples that were predicted correctly. Classes without examples report 0.
func PerClassAccuracy(preds, labels []int) ([]ClassAccuracy, error) {
	if err := checkAligned(preds, labels); err != nil {
		return nil, err
	}
	var correct, total [classifier.NumClasses]int
	for i, truth := range labels {
		total[truth]++
		if preds[i] == truth {
			correct[truth]++
		}
	}

	out := make([]ClassAccuracy, classifier.NumClasses)
	for c := range out {
		out[c] = ClassAccuracy{ClassName: classifier.ClassNames[c], Count: total[c]}
		if total[c] > 0 {
			out[c].Accuracy = float64(correct[c]) / float64(total[c])
		}
	}
	return out, nil
}

func checkAligned(preds, labels []int) error {
	if len(preds) != len(labels) {
		return fmt.Errorf("predictions (%d) and labels (%d) differ in length", len(preds), len(labels))
	}
	for i := range labels {
		if labels[i] < 0 || labels[i] >= classifier.NumClasses {
			return fmt.Errorf("label %d out of range: %d", i, labels[i])
		}
		if preds[i] < 0 || preds[i] >= classifier.NumClasses {
			return fmt.Errorf("prediction %d out of range: %d", i, preds[i])
		}
	}
	return nil
}
