package handler

import (
	"io"
	"net/http"
	"rpsvision/internal/dto"
	"rpsvision/internal/logger"
	"rpsvision/internal/predictor"
	"rpsvision/internal/service"
)

// PredictHandler classifies the uploaded image, or the latest camera frame
// when the body is empty.
func PredictHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, MaxUploadSize))
		if err != nil {
			http.Error(w, "Error reading body", http.StatusBadRequest)
			return
		}

		result, err := manager.PredictImage(r.Context(), body)
		if err != nil {
			writeServiceError(w, logger, "prediction", err)
			return
		}
		writeJSON(w, logger, http.StatusOK, dto.PredictionResponse{
			Result:  result,
			Best:    result.Best().ClassName,
			Message: predictor.Message(result),
		})
	}
}
