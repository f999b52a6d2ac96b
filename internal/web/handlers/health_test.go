package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestHealthCheck(t *testing.T) {
	recorder := httptest.NewRecorder()
	HealthCheck(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if recorder.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", recorder.Code)
	}
}

func TestBackendHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		server, _ := setupMockAnalysisService(t, respondOval)
		h := NewBackendHealthHandler(newTestClient(t, server.URL, time.Second), zap.NewNop())

		recorder := httptest.NewRecorder()
		h.Get(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/backend/health", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		var body map[string]string
		json.Unmarshal(recorder.Body.Bytes(), &body)
		if body["status"] != "healthy" {
			t.Errorf("expected status healthy, got %q", body["status"])
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()
		h := NewBackendHealthHandler(newTestClient(t, url, time.Second), zap.NewNop())

		recorder := httptest.NewRecorder()
		h.Get(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/backend/health", nil))

		if recorder.Code != http.StatusBadGateway {
			t.Errorf("expected status 502, got %d", recorder.Code)
		}
	})
}
