package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kozaktomas/facefit/internal/acquisition"
	"github.com/kozaktomas/facefit/internal/analysis"
	"github.com/kozaktomas/facefit/internal/presentation"
)

// PageHandler serves the page and the session state it is rendered from.
type PageHandler struct {
	renderer     *presentation.Renderer
	serverCamera bool
	shutdown     <-chan struct{}
	logger       *zap.Logger
}

// NewPageHandler creates a new page handler. serverCamera enables the
// network camera controls. Event streams end when shutdown is closed.
func NewPageHandler(renderer *presentation.Renderer, serverCamera bool, shutdown <-chan struct{}, logger *zap.Logger) *PageHandler {
	return &PageHandler{
		renderer:     renderer,
		serverCamera: serverCamera,
		shutdown:     shutdown,
		logger:       logger,
	}
}

// stateResponse is the JSON form of a session's state.
type stateResponse struct {
	analysis.Snapshot
	View    acquisition.View `json:"view"`
	Preview string           `json:"preview,omitempty"`
}

// Index renders the page for the session's current state.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	session := mustGetSession(w, r)
	if session == nil {
		return
	}

	snap := session.Machine.Snapshot()
	data := presentation.PageData{
		Phase:        string(snap.Phase),
		View:         string(session.Tracker.View()),
		Loading:      snap.IsLoading,
		Error:        snap.Error,
		Notice:       session.TakeNotice(),
		Preview:      session.Tracker.Preview(),
		ServerCamera: h.serverCamera,
		Result:       presentation.BuildResultView(snap.Result),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.renderer.RenderPage(w, data); err != nil {
		h.logger.Error("failed to render page", zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

// State returns the session's state as JSON.
func (h *PageHandler) State(w http.ResponseWriter, r *http.Request) {
	session := mustGetSession(w, r)
	if session == nil {
		return
	}

	respondJSON(w, http.StatusOK, stateResponse{
		Snapshot: session.Machine.Snapshot(),
		View:     session.Tracker.View(),
		Preview:  session.Tracker.Preview(),
	})
}

// StartOver discards the result or error and returns to the upload prompt.
func (h *PageHandler) StartOver(w http.ResponseWriter, r *http.Request) {
	session := mustGetSession(w, r)
	if session == nil {
		return
	}

	if err := session.Machine.StartOver(); err != nil {
		if errors.Is(err, analysis.ErrBusy) {
			respondNotice(w, r, session, http.StatusConflict, NoticeBusy)
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := session.Tracker.EnterUpload(); err != nil {
		h.logger.Warn("failed to release camera", zap.Error(err))
	}

	if wantsJSON(r) {
		respondJSON(w, http.StatusOK, session.Machine.Snapshot())
		return
	}
	redirectHome(w, r)
}

// Events streams the session's state snapshots, starting with the current one.
func (h *PageHandler) Events(w http.ResponseWriter, r *http.Request) {
	session := mustGetSession(w, r)
	if session == nil {
		return
	}

	flusher, ok := setupSSEConnection(w)
	if !ok {
		return
	}

	events, unsubscribe := session.Machine.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.shutdown:
			return
		case snap, ok := <-events:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, "state", snap)
		}
	}
}
