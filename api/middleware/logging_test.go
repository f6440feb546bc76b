package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/logger"
)

func TestLoggingRecordsResponseStatus(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: &buf})

	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status to pass through, got %d", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Fatalf("expected body to pass through, got %q", rec.Body.String())
	}

	logs := buf.String()
	if !strings.Contains(logs, "request.complete") {
		t.Fatalf("expected completion log, got %s", logs)
	}
	if !strings.Contains(logs, `"status":418`) {
		t.Fatalf("expected recorded status 418, got %s", logs)
	}
}

func TestLoggingDefaultsToOKWhenHandlerWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: &buf})

	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if !strings.Contains(buf.String(), `"status":200`) {
		t.Fatalf("expected implicit 200 in log, got %s", buf.String())
	}
}
