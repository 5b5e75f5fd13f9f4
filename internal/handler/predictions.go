package handler

import (
	"net/http"
	"rpsvision/internal/logger"
	"rpsvision/internal/models"
	"rpsvision/internal/repository"
)

// PredictionsHandler returns stored live predictions filtered by camera,
// label and start date.
func PredictionsHandler(repo repository.PredictionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := &models.PredictionFilter{
			Camera: q.Get("camera"),
			Label:  q.Get("label"),
			Since:  parseDate(q.Get("since")),
			Limit:  atoiDefault(q.Get("limit"), 50),
		}

		predictions, err := repo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying predictions from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if predictions == nil {
			predictions = []models.Prediction{}
		}
		writeJSON(w, logger, http.StatusOK, predictions)
	}
}

// PredictionStatsHandler returns how often each class was predicted live.
func PredictionStatsHandler(repo repository.PredictionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := repo.CountByLabel()
		if err != nil {
			logger.Error("Error counting predictions: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, http.StatusOK, counts)
	}
}

// ClearPredictionsHandler deletes the prediction history.
func ClearPredictionsHandler(repo repository.PredictionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		if err := repo.DeleteAll(); err != nil {
			logger.Error("Error clearing predictions: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		logger.Info("Prediction history cleared")
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "cleared"})
	}
}
