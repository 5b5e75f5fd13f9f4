package sqlite

import (
	"fmt"
	"rpsvision/internal/models"
	"strings"
)

// PredictionRepository implements repository.PredictionRepository for SQLite.
type PredictionRepository struct {
	db *DB
}

// NewPredictionRepository creates a new SQLite prediction repository.
func NewPredictionRepository(db *DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// InsertBatch adds multiple predictions in a single transaction.
func (r *PredictionRepository) InsertBatch(predictions []models.Prediction) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO predictions (camera, label, probability, message, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range predictions {
		if _, err := stmt.Exec(p.Camera, p.Label, p.Probability, p.Message, p.Timestamp); err != nil {
			return fmt.Errorf("failed to insert prediction: %w", err)
		}
	}

	return tx.Commit()
}

// GetAll retrieves predictions matching filter, newest first.
func (r *PredictionRepository) GetAll(filter *models.PredictionFilter) ([]models.Prediction, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT id, camera, label, probability, message, timestamp FROM predictions`
	var conditions []string
	var args []interface{}

	if filter != nil {
		if filter.Camera != "" {
			conditions = append(conditions, "camera = ?")
			args = append(args, filter.Camera)
		}
		if filter.Label != "" {
			conditions = append(conditions, "label = ?")
			args = append(args, filter.Label)
		}
		if !filter.Since.IsZero() {
			conditions = append(conditions, "timestamp >= ?")
			args = append(args, filter.Since)
		}
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []models.Prediction
	for rows.Next() {
		var p models.Prediction
		if err := rows.Scan(&p.ID, &p.Camera, &p.Label, &p.Probability, &p.Message, &p.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}

	return predictions, rows.Err()
}

// CountByLabel returns how often each label was predicted.
func (r *PredictionRepository) CountByLabel() ([]models.LabelCount, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT label, COUNT(*) FROM predictions GROUP BY label ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("failed to count predictions: %w", err)
	}
	defer rows.Close()

	var counts []models.LabelCount
	for rows.Next() {
		var c models.LabelCount
		if err := rows.Scan(&c.Label, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan label count: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// DeleteAll removes the whole prediction history.
func (r *PredictionRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM predictions`); err != nil {
		return fmt.Errorf("failed to delete predictions: %w", err)
	}
	return nil
}
