package service

import (
	"encoding/base64"
	"fmt"
	"rpsvision/internal/classifier"
	"rpsvision/internal/dto"
	"rpsvision/internal/tensor"
	"rpsvision/internal/vision"
)

// DefaultExampleCount is how many dataset examples the UI shows at once.
const DefaultExampleCount = 42

// Examples renders the next n test examples as PNGs with their labels.
func (m *Manager) Examples(n int) ([]dto.ExampleImage, error) {
	batch, err := m.session.TestExamples(n)
	if err != nil {
		return nil, err
	}
	defer batch.Release()

	classes := tensor.ArgMax(batch.Labels)
	defer classes.Release()

	examples := make([]dto.ExampleImage, 0, batch.Size())
	for i, class := range classes.Ints() {
		data, err := m.renderExample(tensor.Row(batch.Images, i))
		if err != nil {
			return nil, fmt.Errorf("render example %d: %w", i, err)
		}
		examples = append(examples, dto.ExampleImage{
			Label: classifier.Class(class).String(),
			Image: base64.StdEncoding.EncodeToString(data),
		})
	}
	return examples, nil
}

func (m *Manager) renderExample(pixels []float64) ([]byte, error) {
	normalized := tensor.Tidy(func(s *tensor.Scope) *tensor.Tensor {
		raw := s.Track(tensor.New([]int{vision.ImageHeight, vision.ImageWidth, 1}, pixels))
		return tensor.Scale(raw, 1.0/255)
	})
	defer normalized.Release()

	img, err := vision.GrayImage(normalized)
	if err != nil {
		return nil, err
	}
	return m.codec.EncodePNG(img)
}
