package service

import (
	"context"
	"errors"
	"fmt"
	"rpsvision/internal/classifier"
	"rpsvision/internal/dataset"
	"rpsvision/internal/evaluation"
	"rpsvision/internal/predictor"
	"rpsvision/internal/samples"
	"rpsvision/internal/vision"
	"sync"
)

// Precondition errors. They describe a state the user can fix (load a model,
// connect a camera) rather than a fault.
var (
	ErrNoClassifier = errors.New("no classifier loaded")
	ErrNoDataset    = errors.New("no dataset loaded")
	ErrNoFrame      = errors.New("no camera frame available")
	ErrNotTrainable = errors.New("classifier does not support training")
)

// Dataset serves both evaluation and training batches.
type Dataset interface {
	dataset.Dataset
	dataset.TrainSource
}

// Session holds the current classifier and dataset. Every operation reads
// them through the session instead of package state.
type Session struct {
	mu         sync.RWMutex
	classifier classifier.Classifier
	dataset    Dataset
	batchSize  int
}

// NewSession creates a session. trainBatchSize bounds each dataset fit.
func NewSession(trainBatchSize int) *Session {
	return &Session{batchSize: trainBatchSize}
}

func (s *Session) SetClassifier(c classifier.Classifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classifier = c
}

func (s *Session) Classifier() classifier.Classifier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.classifier
}

func (s *Session) SetDataset(ds Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = ds
}

// Ready reports whether a classifier is loaded.
func (s *Session) Ready() bool {
	return s.Classifier() != nil
}

// Trainable reports whether the current classifier can be fitted.
func (s *Session) Trainable() bool {
	_, ok := s.Classifier().(classifier.Trainable)
	return ok
}

// Predict classifies one frame with the current classifier.
func (s *Session) Predict(ctx context.Context, frame vision.Frame, opts predictor.Options) (predictor.Result, error) {
	clf := s.Classifier()
	if clf == nil {
		return nil, ErrNoClassifier
	}
	if frame.Empty() {
		return nil, ErrNoFrame
	}
	return predictor.Predict(ctx, clf, frame, opts)
}

// Evaluate scores the current classifier on testSize held-out examples.
func (s *Session) Evaluate(ctx context.Context, testSize int, title string) (evaluation.Report, error) {
	s.mu.RLock()
	clf, ds := s.classifier, s.dataset
	s.mu.RUnlock()

	if clf == nil {
		return evaluation.Report{}, ErrNoClassifier
	}
	if ds == nil {
		return evaluation.Report{}, ErrNoDataset
	}
	return evaluation.Run(ctx, clf, ds, testSize, title)
}

// Train fits the current classifier on one training batch per epoch.
func (s *Session) Train(ctx context.Context, epochs int) error {
	s.mu.RLock()
	clf, ds, batchSize := s.classifier, s.dataset, s.batchSize
	s.mu.RUnlock()

	model, err := trainable(clf)
	if err != nil {
		return err
	}
	if ds == nil {
		return ErrNoDataset
	}

	for epoch := 0; epoch < epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fitBatch(ctx, model, ds, batchSize); err != nil {
			return fmt.Errorf("epoch %d: %w", epoch+1, err)
		}
	}
	return nil
}

// TrainSamples fits the current classifier on everything collected so far
// and empties the collector. It returns the number of samples used.
func (s *Session) TrainSamples(ctx context.Context, collector *samples.Collector) (int, error) {
	model, err := trainable(s.Classifier())
	if err != nil {
		return 0, err
	}
	return collector.TrainAndReset(ctx, model)
}

func fitBatch(ctx context.Context, model classifier.Trainable, ds Dataset, batchSize int) error {
	batch, err := ds.NextTrainBatch(batchSize)
	if err != nil {
		return err
	}
	defer batch.Release()

	images := batch.Images.Reshape(batch.Size(), vision.ImageHeight, vision.ImageWidth, 1)
	defer images.Release()
	return model.Fit(ctx, images, batch.Labels)
}

func trainable(clf classifier.Classifier) (classifier.Trainable, error) {
	if clf == nil {
		return nil, ErrNoClassifier
	}
	model, ok := clf.(classifier.Trainable)
	if !ok {
		return nil, ErrNotTrainable
	}
	return model, nil
}

// TestExamples returns the next n held-out examples. The caller releases the batch.
func (s *Session) TestExamples(n int) (dataset.Batch, error) {
	s.mu.RLock()
	ds := s.dataset
	s.mu.RUnlock()

	if ds == nil {
		return dataset.Batch{}, ErrNoDataset
	}
	return ds.NextTestBatch(n)
}
