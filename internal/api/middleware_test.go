package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// --- Middleware Tests ---

func newLoggedRouter(buf *bytes.Buffer) chi.Router {
	logger := slog.New(slog.NewJSONHandler(buf, nil))

	r := chi.NewRouter()
	r.Use(
		chimiddleware.RequestID,
		Logging(logger),
		Metrics(),
		chimiddleware.Recoverer,
	)
	return r
}

func lastLogEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	if err := json.Unmarshal(lines[len(lines)-1], &entry); err != nil {
		t.Fatalf("decode log entry: %v", err)
	}
	return entry
}

func TestMiddleware_PanicRecovered(t *testing.T) {
	var buf bytes.Buffer
	r := newLoggedRouter(&buf)
	r.Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	entry := lastLogEntry(t, &buf)
	if entry["status"] != float64(http.StatusInternalServerError) {
		t.Errorf("expected logged status 500, got %v", entry["status"])
	}
	if entry["request_id"] != "req-42" {
		t.Errorf("expected request_id req-42, got %v", entry["request_id"])
	}
}

func TestMiddleware_DefaultStatusAndGeneratedRequestID(t *testing.T) {
	var buf bytes.Buffer
	r := newLoggedRouter(&buf)
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))

	entry := lastLogEntry(t, &buf)
	if entry["status"] != float64(http.StatusOK) {
		t.Errorf("expected logged status 200, got %v", entry["status"])
	}
	if entry["bytes"] != float64(2) {
		t.Errorf("expected 2 bytes, got %v", entry["bytes"])
	}
	if id, _ := entry["request_id"].(string); id == "" {
		t.Error("request_id should be generated")
	}
}
