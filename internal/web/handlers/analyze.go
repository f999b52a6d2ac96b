package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kozaktomas/facefit/internal/acquisition"
	"github.com/kozaktomas/facefit/internal/analysis"
	"github.com/kozaktomas/facefit/internal/constants"
	"github.com/kozaktomas/facefit/internal/faceapi"
	"github.com/kozaktomas/facefit/internal/logging"
	"github.com/kozaktomas/facefit/internal/metrics"
	"github.com/kozaktomas/facefit/internal/web/middleware"
)

// NoticeBusy is shown when a photo is submitted while one is being analyzed.
const NoticeBusy = "An analysis is already in progress. Please wait for it to finish."

// Analyzer sends one image to the analysis service.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, img *acquisition.Image) (*faceapi.AnalysisResult, error)
}

// AnalyzeHandler accepts photos and runs their analysis in the background.
type AnalyzeHandler struct {
	client  Analyzer
	metrics *metrics.Metrics
	logger  *zap.Logger

	inflight sync.WaitGroup
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(client Analyzer, m *metrics.Metrics, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		client:  client,
		metrics: m,
		logger:  logger,
	}
}

// Analyze handles a multipart upload with the photo under the "image" field.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	session := mustGetSession(w, r)
	if session == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondNotice(w, r, session, http.StatusRequestEntityTooLarge, "The photo is too large.")
			return
		}
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	source := acquisition.ParseSource(r.FormValue("source"))
	files := r.MultipartForm.File[constants.ImageFieldName]
	if len(files) == 0 {
		respondNotice(w, r, session, http.StatusBadRequest, acquisition.NoticeNotImage)
		return
	}

	img, err := acquisition.FromMultipart(files[0], source)
	if err == nil {
		err = acquisition.Validate(img)
	}
	if err != nil {
		h.metrics.RejectAnalysis(string(source))
		switch {
		case errors.Is(err, acquisition.ErrTooLarge):
			respondNotice(w, r, session, http.StatusRequestEntityTooLarge, "The photo is too large.")
		case errors.Is(err, acquisition.ErrNotImage), errors.Is(err, acquisition.ErrEmpty):
			respondNotice(w, r, session, http.StatusUnsupportedMediaType, acquisition.NoticeNotImage)
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	h.submit(w, r, session, img)
}

// submit starts the analysis of a validated image and answers the request.
func (h *AnalyzeHandler) submit(w http.ResponseWriter, r *http.Request, session *middleware.Session, img *acquisition.Image) {
	if _, err := h.Start(r.Context(), session, img); err != nil {
		if errors.Is(err, analysis.ErrBusy) {
			h.metrics.RejectAnalysis(string(img.Source))
			respondNotice(w, r, session, http.StatusConflict, NoticeBusy)
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if wantsJSON(r) {
		respondJSON(w, http.StatusAccepted, session.Machine.Snapshot())
		return
	}
	redirectHome(w, r)
}

// Start moves the session to Loading and launches the preview decode and the
// analysis call in parallel. A session already Loading is left untouched and
// ErrBusy is returned without contacting the service.
func (h *AnalyzeHandler) Start(ctx context.Context, session *middleware.Session, img *acquisition.Image) (analysis.Ticket, error) {
	ticket, err := session.Machine.Begin()
	if err != nil {
		return 0, err
	}

	requestID := chiMiddleware.GetReqID(ctx)
	log := logging.WithOperation(h.logger, "analyze", requestID).With(
		zap.String("session", session.ID),
		zap.String("source", string(img.Source)),
		zap.String("file", sanitizeForLog(img.Name)),
	)

	token, err := session.Tracker.BeginPreview()
	if err != nil {
		log.Warn("failed to release camera", zap.Error(err))
	}

	// The call outlives the request: closing the tab does not cancel it
	detached := context.WithoutCancel(ctx)

	go func() {
		for res := range acquisition.PreviewAsync(detached, img) {
			if res.Err != nil {
				log.Debug("preview decode failed", zap.Error(res.Err))
				continue
			}
			session.Tracker.SetPreview(token, res.DataURL)
		}
	}()

	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		h.run(detached, log, session, ticket, img, requestID)
	}()

	return ticket, nil
}

func (h *AnalyzeHandler) run(ctx context.Context, log *zap.Logger, session *middleware.Session, ticket analysis.Ticket, img *acquisition.Image, requestID string) {
	start := time.Now()
	h.metrics.StartAnalysis()
	result, err := h.client.AnalyzeImage(ctx, img)
	h.metrics.FinishAnalysis(string(img.Source), time.Since(start), err)

	if err != nil {
		log.Warn("analysis failed",
			zap.Error(logging.NewOperationError("analyze", requestID, err)),
			zap.Int("status", faceapi.StatusCode(err)),
			zap.Bool("timeout", faceapi.IsTimeout(err)),
			zap.Duration("duration", time.Since(start)),
		)
		err = session.Machine.Fail(ticket, err)
	} else {
		log.Info("analysis succeeded",
			zap.String("face_shape", result.FaceShape),
			zap.Int("recommendations", len(result.Recommendations)),
			zap.Duration("duration", time.Since(start)),
		)
		err = session.Machine.Succeed(ticket, result)
	}

	if err != nil {
		log.Debug("dropped completion", zap.Error(err))
	}
}

// Wait blocks until every in-flight analysis has completed.
func (h *AnalyzeHandler) Wait() {
	h.inflight.Wait()
}
