package dto

import "rpsvision/internal/predictor"

// PredictionResponse is returned by /api/predict.
type PredictionResponse struct {
	Result  predictor.Result `json:"result"`
	Best    string           `json:"best"`
	Message string           `json:"message"`
}
