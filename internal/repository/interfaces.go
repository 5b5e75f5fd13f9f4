package repository

import "rpsvision/internal/models"

// EvaluationRepository defines the interface for evaluation run operations.
type EvaluationRepository interface {
	// Create operations
	Insert(run *models.EvaluationRun) (int64, error)

	// Read operations
	GetByID(id int64) (*models.EvaluationRun, error)
	GetAll(limit int) ([]models.EvaluationRun, error)

	// Delete operations
	DeleteAll() error
}

// PredictionRepository defines the interface for live prediction history.
type PredictionRepository interface {
	// Create operations
	InsertBatch(predictions []models.Prediction) error

	// Read operations
	GetAll(filter *models.PredictionFilter) ([]models.Prediction, error)
	CountByLabel() ([]models.LabelCount, error)

	// Delete operations
	DeleteAll() error
}
