package handler

import (
	"io"
	"net/http"
	"rpsvision/internal/logger"
	"rpsvision/internal/service"
)

// MaxUploadSize bounds a single uploaded camera image.
const MaxUploadSize = 8 << 20

// UploadCameraImageHandler accepts one JPEG per request from cameras that
// push over HTTP instead of UDP.
func UploadCameraImageHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		camera := r.URL.Query().Get("camera")
		if camera == "" {
			camera = "upload_" + r.RemoteAddr
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, MaxUploadSize))
		if err != nil {
			logger.Error("Error reading body from camera %s: %v", camera, err)
			http.Error(w, "Error reading body", http.StatusBadRequest)
			return
		}
		if len(body) == 0 {
			http.Error(w, "Empty image", http.StatusBadRequest)
			return
		}

		manager.HandleCameraImage(body, camera)
		w.Write([]byte("OK"))
	}
}
