package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/facefit/internal/camera"
	"github.com/kozaktomas/facefit/internal/faceapi"
	"github.com/kozaktomas/facefit/internal/metrics"
	"github.com/kozaktomas/facefit/internal/presentation"
	"github.com/kozaktomas/facefit/internal/web/middleware"
)

const ovalResponse = `{
  "success": true,
  "face_shape": "oval",
  "landmarks_detected": 68,
  "recommendations": [
    {"style": "rectangular", "name": "Bold Rectangle", "description": "Straight lines", "reason": "Adds structure", "confidence": 0.85}
  ]
}`

// newTestSession creates a fresh idle session
func newTestSession(t *testing.T) *middleware.Session {
	t.Helper()
	sm := middleware.NewSessionManager("test-secret", 100, 100)
	t.Cleanup(sm.Stop)
	return sm.CreateSession()
}

// withSession attaches session to the request context
func withSession(r *http.Request, session *middleware.Session) *http.Request {
	return r.WithContext(middleware.SetSessionInContext(r.Context(), session))
}

// testPNG returns a small encoded PNG
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// uploadRequest builds a multipart POST /analyze request
func uploadRequest(t *testing.T, filename, contentType string, data []byte, source string) *http.Request {
	t.Helper()
	return uploadRequestField(t, "image", filename, contentType, data, source)
}

func uploadRequestField(t *testing.T, field, filename, contentType string, data []byte, source string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create part: %v", err)
	}
	part.Write(data)
	if source != "" {
		writer.WriteField("source", source)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// setupMockAnalysisService creates a mock analysis service counting /analyze calls
func setupMockAnalysisService(t *testing.T, analyze http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		analyze(w, r)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","message":"FaceFit backend is running"}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &calls
}

func respondOval(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(ovalResponse))
}

// newTestClient creates an analysis client for the mock service
func newTestClient(t *testing.T, url string, timeout time.Duration) *faceapi.Client {
	t.Helper()
	c, err := faceapi.NewClient(url, timeout)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func newTestAnalyzeHandler(t *testing.T, client Analyzer) *AnalyzeHandler {
	t.Helper()
	return NewAnalyzeHandler(client, metrics.New(), zap.NewNop())
}

func newTestPageHandler(t *testing.T) *PageHandler {
	t.Helper()
	return newTestPageHandlerWithShutdown(t, nil)
}

func newTestPageHandlerWithShutdown(t *testing.T, shutdown <-chan struct{}) *PageHandler {
	t.Helper()
	renderer, err := presentation.NewRenderer()
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}
	return NewPageHandler(renderer, true, shutdown, zap.NewNop())
}

// fakeStream is an in-memory camera stream
type fakeStream struct {
	tracks []*camera.Track
	frame  image.Image
}

func (s *fakeStream) Tracks() []*camera.Track { return s.tracks }

func (s *fakeStream) Frame(ctx context.Context) (image.Image, error) {
	if camera.CountActive(s.tracks) == 0 {
		return nil, camera.ErrNoStream
	}
	return s.frame, nil
}

func (s *fakeStream) Stop() {
	for _, t := range s.tracks {
		t.Stop()
	}
}

// fakeDevice opens fakeStreams, or fails with err
type fakeDevice struct {
	err     error
	streams []*fakeStream
}

func (d *fakeDevice) Open(ctx context.Context) (camera.Stream, error) {
	if d.err != nil {
		return nil, d.err
	}
	s := &fakeStream{
		tracks: []*camera.Track{camera.NewTrack("video", "test")},
		frame:  image.NewRGBA(image.Rect(0, 0, 64, 48)),
	}
	d.streams = append(d.streams, s)
	return s, nil
}
