package handler

import (
	"net/http"
	"rpsvision/internal/config"
	"rpsvision/internal/dto"
	"rpsvision/internal/logger"
	"rpsvision/internal/service"
)

// TrainHandler fits the classifier on ?epochs= dataset batches.
func TrainHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		epochs, ok := boundedInt(w, r.URL.Query().Get("epochs"), 1, cfg.MaxTrainEpochs, "epochs")
		if !ok {
			return
		}

		if err := manager.Train(r.Context(), epochs); err != nil {
			writeServiceError(w, logger, "training", err)
			return
		}
		writeJSON(w, logger, http.StatusOK, dto.TrainingResult{Epochs: epochs})
	}
}
