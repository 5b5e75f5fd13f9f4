package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"rpsvision/internal/config"
	"rpsvision/internal/detection"
	"rpsvision/internal/handler"
	"rpsvision/internal/logger"
	"rpsvision/internal/middleware"
	"rpsvision/internal/repository"
	"rpsvision/internal/service"
	"rpsvision/internal/service/websocket"
)

// Dependencies are the services the HTTP surface needs.
type Dependencies struct {
	Manager     *service.Manager
	Loop        *detection.Loop
	Hub         *websocket.HubService
	Evaluations repository.EvaluationRepository
	Predictions repository.PredictionRepository
}

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join("static", filepath.Clean(path)+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(deps Dependencies, cfg *config.Config, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// Camera ingest
	mux.HandleFunc("/camera/upload", handler.UploadCameraImageHandler(deps.Manager, log))

	// Live view and detection
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(deps.Hub, log))
	mux.HandleFunc("/api/detect/start", handler.StartDetectionHandler(deps.Loop, log))
	mux.HandleFunc("/api/detect/stop", handler.StopDetectionHandler(deps.Loop, log))
	mux.HandleFunc("/api/detect/status", handler.DetectionStatusHandler(deps.Loop, log))
	mux.HandleFunc("/api/predict", handler.PredictHandler(deps.Manager, log))

	// Evaluation and training
	mux.HandleFunc("/api/evaluate", handler.EvaluateHandler(deps.Manager, cfg, log))
	mux.HandleFunc("/api/examples", handler.ExamplesHandler(deps.Manager, log))
	mux.HandleFunc("/api/evaluations", handler.EvaluationsHandler(deps.Evaluations, log))
	mux.HandleFunc("/api/train", handler.TrainHandler(deps.Manager, cfg, log))
	mux.HandleFunc("/api/samples", handler.SamplesHandler(deps.Manager, log))
	mux.HandleFunc("/api/samples/train", handler.TrainSamplesHandler(deps.Manager, log))

	// Prediction history
	mux.HandleFunc("/api/predictions", handler.PredictionsHandler(deps.Predictions, log))
	mux.HandleFunc("/api/predictions/stats", handler.PredictionStatsHandler(deps.Predictions, log))
	mux.HandleFunc("/api/predictions/clear", handler.ClearPredictionsHandler(deps.Predictions, log))

	// Log endpoints
	for _, name := range []string{logger.InfoFile, logger.WarningFile, logger.ErrorFile} {
		level := name[:len(name)-len(filepath.Ext(name))]
		mux.HandleFunc("/logs/"+level, handler.ShowLogsHandler(log, name))
		mux.HandleFunc("/logs/"+level+"/clear", handler.ClearLogsHandler(log, name))
	}

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, log))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Automatic HTML handler mapping for example: /settings -> /static/settings.html
	mux.HandleFunc("/", dynamicHTMLHandler)

	// Apply middleware
	return middleware.AuthMiddleware(mux)
}
