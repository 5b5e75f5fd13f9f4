package models

import "time"

// Prediction is one live detection result.
type Prediction struct {
	ID          int64     `json:"id"`
	Camera      string    `json:"camera"`
	Label       string    `json:"label"`
	Probability float64   `json:"probability"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

// PredictionFilter narrows prediction history queries.
type PredictionFilter struct {
	Camera string
	Label  string
	Since  time.Time
	Limit  int
}

// LabelCount aggregates predictions per label.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}
