package models

import "time"

// EvaluationRun is one persisted accuracy report.
type EvaluationRun struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	TestSize         int       `json:"test_size"`
	Overall          float64   `json:"overall"`
	RockAccuracy     float64   `json:"rock_accuracy"`
	PaperAccuracy    float64   `json:"paper_accuracy"`
	ScissorsAccuracy float64   `json:"scissors_accuracy"`
	Confusion        [3][3]int `json:"confusion"`
	CreatedAt        time.Time `json:"created_at"`
}
