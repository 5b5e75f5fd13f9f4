package handler

import (
	"net/http"
	"rpsvision/internal/classifier"
	"rpsvision/internal/dto"
	"rpsvision/internal/logger"
	"rpsvision/internal/service"
)

// SamplesHandler handles GET (buffer counts) and POST ?label= (add the
// latest frame as a sample) on /api/samples.
func SamplesHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, logger, http.StatusOK, manager.GetCollector().Counts())

		case http.MethodPost:
			label, err := classifier.ParseClass(r.URL.Query().Get("label"))
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if !manager.AddSample(label) {
				writeServiceError(w, logger, "sample capture", service.ErrNoFrame)
				return
			}
			writeJSON(w, logger, http.StatusOK, manager.GetCollector().Counts())

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// TrainSamplesHandler fine-tunes the classifier on the collected samples.
func TrainSamplesHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		n, err := manager.TrainSamples(r.Context())
		if err != nil {
			writeServiceError(w, logger, "sample training", err)
			return
		}
		writeJSON(w, logger, http.StatusOK, dto.TrainingResult{Samples: n})
	}
}
