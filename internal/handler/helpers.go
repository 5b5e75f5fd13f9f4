package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"rpsvision/internal/logger"
	"rpsvision/internal/service"
	"strconv"
	"time"
)

// writeJSON encodes data as the JSON response body.
func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// writeServiceError maps session precondition errors to 409 and everything
// else to 500.
func writeServiceError(w http.ResponseWriter, logger *logger.Logger, action string, err error) {
	switch {
	case errors.Is(err, service.ErrNoClassifier),
		errors.Is(err, service.ErrNoDataset),
		errors.Is(err, service.ErrNoFrame),
		errors.Is(err, service.ErrNotTrainable):
		logger.Warning("Rejected %s: %v", action, err)
		writeJSON(w, logger, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		logger.Error("Error during %s: %v", action, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// requireMethod rejects requests with any other method.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// atoiDefault converts s to a positive int, falling back to def.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// boundedInt reads a positive int like atoiDefault and rejects values above
// max with 400. It reports false when the response has been written.
func boundedInt(w http.ResponseWriter, raw string, def, max int, name string) (int, bool) {
	v := atoiDefault(raw, def)
	if v > max {
		http.Error(w, fmt.Sprintf("%s must be at most %d", name, max), http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

// parseDate parses a date string in the format "2006-01-02" (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
