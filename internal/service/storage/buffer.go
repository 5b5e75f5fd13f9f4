package storage

import (
	"context"
	"rpsvision/internal/config"
	"rpsvision/internal/logger"
	"rpsvision/internal/models"
	"rpsvision/internal/predictor"
	"rpsvision/internal/repository"
	"sync"
	"time"
)

// BufferService collects live predictions in memory and periodically
// flushes them to the prediction repository.
type BufferService struct {
	predictions   []models.Prediction
	bufferCount   map[string]int
	limit         int
	flushInterval time.Duration
	mu            sync.Mutex
	logger        *logger.Logger
	repo          repository.PredictionRepository
}

// NewBufferService creates a BufferService writing to repo.
func NewBufferService(config *config.Config, logger *logger.Logger, repo repository.PredictionRepository) *BufferService {
	limit := config.ResultBufferLimit
	if limit <= 0 {
		limit = 50
	}
	interval := config.ResultFlushInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &BufferService{
		predictions:   make([]models.Prediction, 0),
		bufferCount:   make(map[string]int),
		limit:         limit,
		flushInterval: interval,
		logger:        logger,
		repo:          repo,
	}
}

// Run flushes on every tick until ctx is done, then flushes once more.
func (s *BufferService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Flush()
			return
		case <-ticker.C:
			s.Flush()
		}
	}
}

// AddPrediction buffers the best class of result for camera. Each camera
// contributes at most limit predictions between flushes.
func (s *BufferService) AddPrediction(camera string, result predictor.Result, message string) {
	if len(result) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bufferCount[camera] >= s.limit {
		return
	}
	best := result.Best()
	s.predictions = append(s.predictions, models.Prediction{
		Camera:      camera,
		Label:       best.ClassName,
		Probability: best.Probability,
		Message:     message,
		Timestamp:   time.Now(),
	})
	s.bufferCount[camera]++
}

// Pending returns the number of buffered predictions.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.predictions)
}

// Flush writes buffered predictions and resets the per-camera counters.
// On a write error the buffer is kept for the next attempt.
func (s *BufferService) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.predictions) == 0 {
		return
	}

	if err := s.repo.InsertBatch(s.predictions); err != nil {
		s.logger.Error("Error saving predictions to database: %v", err)
		return
	}

	s.logger.Info("Flushed %d predictions to database", len(s.predictions))
	s.predictions = s.predictions[:0] // Clear buffer
	s.bufferCount = make(map[string]int)
}
