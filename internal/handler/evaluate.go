package handler

import (
	"net/http"
	"rpsvision/internal/config"
	"rpsvision/internal/logger"
	"rpsvision/internal/repository"
	"rpsvision/internal/service"
)

// EvaluateHandler runs an evaluation on ?size= held-out examples and stores it
// under ?title=.
func EvaluateHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		size, ok := boundedInt(w, q.Get("size"), cfg.TestBatchSize, cfg.MaxEvaluationSize, "size")
		if !ok {
			return
		}

		report, err := manager.Evaluate(r.Context(), size, q.Get("title"))
		if err != nil {
			writeServiceError(w, logger, "evaluation", err)
			return
		}
		writeJSON(w, logger, http.StatusOK, report)
	}
}

// EvaluationsHandler lists stored evaluation runs, newest first.
func EvaluationsHandler(repo repository.EvaluationRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := atoiDefault(r.URL.Query().Get("limit"), 20)

		runs, err := repo.GetAll(limit)
		if err != nil {
			logger.Error("Error querying evaluations from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, http.StatusOK, runs)
	}
}
