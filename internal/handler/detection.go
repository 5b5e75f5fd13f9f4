package handler

import (
	"net/http"
	"rpsvision/internal/detection"
	"rpsvision/internal/logger"
	"rpsvision/internal/service"
)

// StartDetectionHandler switches live detection on. Without a classifier
// the loop stays stopped and 409 is returned.
func StartDetectionHandler(loop *detection.Loop, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		if !loop.Start() {
			writeServiceError(w, logger, "detection start", service.ErrNoClassifier)
			return
		}
		writeJSON(w, logger, http.StatusOK, loop.Status())
	}
}

// StopDetectionHandler switches live detection off.
func StopDetectionHandler(loop *detection.Loop, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		loop.Stop()
		writeJSON(w, logger, http.StatusOK, loop.Status())
	}
}

// DetectionStatusHandler reports the loop state and last status message.
func DetectionStatusHandler(loop *detection.Loop, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, loop.Status())
	}
}
