package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"rpsvision/internal/models"
)

// EvaluationRepository implements repository.EvaluationRepository for SQLite.
type EvaluationRepository struct {
	db *DB
}

// NewEvaluationRepository creates a new SQLite evaluation repository.
func NewEvaluationRepository(db *DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Insert stores an evaluation run. The confusion matrix is kept as JSON.
func (r *EvaluationRepository) Insert(run *models.EvaluationRun) (int64, error) {
	confusion, err := json.Marshal(run.Confusion)
	if err != nil {
		return 0, fmt.Errorf("failed to encode confusion matrix: %w", err)
	}

	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO evaluations (title, test_size, overall, rock_accuracy, paper_accuracy, scissors_accuracy, confusion, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.Title, run.TestSize, run.Overall, run.RockAccuracy, run.PaperAccuracy, run.ScissorsAccuracy, string(confusion), run.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert evaluation: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves a run, or nil when it does not exist.
func (r *EvaluationRepository) GetByID(id int64) (*models.EvaluationRun, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`
		SELECT id, title, test_size, overall, rock_accuracy, paper_accuracy, scissors_accuracy, confusion, created_at
		FROM evaluations WHERE id = ?
	`, id)

	run, err := scanEvaluation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	return run, nil
}

// GetAll returns the most recent runs first. limit <= 0 returns every run.
func (r *EvaluationRepository) GetAll(limit int) ([]models.EvaluationRun, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `
		SELECT id, title, test_size, overall, rock_accuracy, paper_accuracy, scissors_accuracy, confusion, created_at
		FROM evaluations ORDER BY created_at DESC, id DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	var runs []models.EvaluationRun
	for rows.Next() {
		run, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// DeleteAll removes every evaluation run.
func (r *EvaluationRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM evaluations`); err != nil {
		return fmt.Errorf("failed to delete evaluations: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEvaluation(s scanner) (*models.EvaluationRun, error) {
	var run models.EvaluationRun
	var confusion string
	if err := s.Scan(&run.ID, &run.Title, &run.TestSize, &run.Overall, &run.RockAccuracy, &run.PaperAccuracy, &run.ScissorsAccuracy, &confusion, &run.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(confusion), &run.Confusion); err != nil {
		return nil, fmt.Errorf("failed to decode confusion matrix: %w", err)
	}
	return &run, nil
}
