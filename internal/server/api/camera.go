package api

import (
	"net/http"

	"github.com/charmbracelet/log"
)

// CameraController starts and stops the camera pipeline.
type CameraController interface {
	Running() bool
	ToggleCamera() (bool, error)
}

type cameraResponse struct {
	Active bool `json:"active"`
}

// CameraHandler serves GET and POST /api/camera. POST toggles the camera.
type CameraHandler struct {
	camera CameraController
}

// NewCameraHandler creates a CameraHandler. A nil controller answers 404.
func NewCameraHandler(c CameraController) *CameraHandler {
	return &CameraHandler{camera: c}
}

// ServeHTTP implements the http.Handler interface.
func (h *CameraHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.camera == nil {
		writeError(w, http.StatusNotFound, "No camera pipeline")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, cameraResponse{Active: h.camera.Running()})
	case http.MethodPost:
		active, err := h.camera.ToggleCamera()
		if err != nil {
			log.Error("toggling camera", "err", err)
			writeError(w, http.StatusServiceUnavailable, "Failed to toggle camera")
			return
		}
		writeJSON(w, http.StatusOK, cameraResponse{Active: active})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
