package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kozaktomas/facefit/internal/analysis"
	"github.com/kozaktomas/facefit/internal/camera"
	"github.com/kozaktomas/facefit/internal/metrics"
)

// CameraHandler drives the server-side network camera.
type CameraHandler struct {
	device  camera.Device
	analyze *AnalyzeHandler
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCameraHandler creates a new camera handler. A nil device disables every
// camera route.
func NewCameraHandler(device camera.Device, analyze *AnalyzeHandler, m *metrics.Metrics, logger *zap.Logger) *CameraHandler {
	return &CameraHandler{
		device:  device,
		analyze: analyze,
		metrics: m,
		logger:  logger,
	}
}

// Start opens the camera and shows its live preview. Failures leave the
// analysis state untouched.
func (h *CameraHandler) Start(w http.ResponseWriter, r *http.Request) {
	session := mustGetSession(w, r)
	if session == nil {
		return
	}
	if h.device == nil {
		respondError(w, http.StatusNotFound, "camera not configured")
		return
	}
	if _, loading := session.Machine.State().(analysis.Loading); loading {
		respondNotice(w, r, session, http.StatusConflict, NoticeBusy)
		return
	}

	cam := camera.NewSession(h.device)
	err := cam.Start(r.Context())
	h.metrics.RecordCamera("start", err)
	if err != nil {
		h.logger.Warn("failed to start camera", zap.String("session", session.ID), zap.Error(err))
		status := http.StatusServiceUnavailable
		if errors.Is(err, camera.ErrPermissionDenied) {
			status = http.StatusForbidden
		}
		respondNotice(w, r, session, status, camera.NoticeUnavailable)
		return
	}

	if err := session.Tracker.EnterCamera(cam); err != nil {
		h.logger.Warn("failed to release previous camera", zap.Error(err))
	}

	if wantsJSON(r) {
		respondJSON(w, http.StatusOK, map[string]any{"view": session.Tracker.View(), "tracks": cam.ActiveTracks()})
		return
	}
	redirectHome(w, r)
}

// Preview serves the current camera frame as JPEG.
func (h *CameraHandler) Preview(w http.ResponseWriter, r *http.Request) {
	session := mustGetSession(w, r)
	if session == nil {
		return
	}
	cam, ok := session.Tracker.Camera()
	if !ok {
		respondError(w, http.StatusNotFound, "camera not started")
		return
	}

	data, err := cam.Preview(r.Context())
	if err != nil {
		if errors.Is(err, camera.ErrNoStream) {
			respondError(w, http.StatusNotFound, "camera not started")
			return
		}
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Capture takes one still, stops the camera and submits the still for
// analysis like an uploaded file.
func (h *CameraHandler) Capture(w http.ResponseWriter, r *http.Request) {
	session := mustGetSession(w, r)
	if session == nil {
		return
	}
	cam, ok := session.Tracker.Camera()
	if !ok {
		respondNotice(w, r, session, http.StatusConflict, "The camera is not running.")
		return
	}
	if _, loading := session.Machine.State().(analysis.Loading); loading {
		respondNotice(w, r, session, http.StatusConflict, NoticeBusy)
		return
	}

	img, err := cam.Capture(r.Context())
	h.metrics.RecordCamera("capture", err)
	if err != nil {
		h.logger.Warn("failed to capture frame", zap.String("session", session.ID), zap.Error(err))
		if err := session.Tracker.EnterUpload(); err != nil {
			h.logger.Warn("failed to release camera", zap.Error(err))
		}
		respondNotice(w, r, session, http.StatusServiceUnavailable, camera.NoticeUnavailable)
		return
	}

	h.analyze.submit(w, r, session, img)
}

// Cancel stops the camera and returns to the upload prompt.
func (h *CameraHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	session := mustGetSession(w, r)
	if session == nil {
		return
	}

	err := session.Tracker.EnterUpload()
	h.metrics.RecordCamera("cancel", err)
	if err != nil {
		h.logger.Warn("failed to release camera", zap.Error(err))
	}

	if wantsJSON(r) {
		respondJSON(w, http.StatusOK, map[string]any{"view": session.Tracker.View()})
		return
	}
	redirectHome(w, r)
}
