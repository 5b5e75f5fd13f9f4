package handler

import (
	"net/http"
	"rpsvision/internal/logger"
	"rpsvision/internal/service"
)

const maxExamples = 420

// ExamplesHandler returns ?n= held-out dataset images as base64 PNGs with labels.
func ExamplesHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}
		n, ok := boundedInt(w, r.URL.Query().Get("n"), service.DefaultExampleCount, maxExamples, "n")
		if !ok {
			return
		}

		examples, err := manager.Examples(n)
		if err != nil {
			writeServiceError(w, logger, "loading examples", err)
			return
		}
		writeJSON(w, logger, http.StatusOK, examples)
	}
}
