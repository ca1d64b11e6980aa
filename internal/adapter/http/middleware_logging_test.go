package adapthttp

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wellness/internal/logger"
)

func TestLoggingMiddleware(t *testing.T) {
	s := &Server{}
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("OK"))
	})

	handler := s.loggingMiddleware(nextHandler)

	var buf bytes.Buffer
	prev := logger.SetOutput(&buf)
	defer logger.SetOutput(prev)

	req := httptest.NewRequest("GET", "/test-path", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status %d, got %d", http.StatusTeapot, w.Code)
	}

	logOutput := buf.String()
	if !strings.Contains(logOutput, "GET") || !strings.Contains(logOutput, "/test-path") || !strings.Contains(logOutput, "418") {
		t.Errorf("Log output missing expected fields. Got: %s", logOutput)
	}
}

func TestLoggingMiddleware_ImplicitOK(t *testing.T) {
	s := &Server{}
	handler := s.loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("body only"))
	}))

	var buf bytes.Buffer
	prev := logger.SetOutput(&buf)
	defer logger.SetOutput(prev)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/sync/flush", nil))

	if !strings.Contains(buf.String(), "200") {
		t.Errorf("expected implicit 200 in log, got %s", buf.String())
	}
}
