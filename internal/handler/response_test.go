package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// failingWriter は書き込みが常に失敗するResponseWriter。
type failingWriter struct {
	*httptest.ResponseRecorder
}

func (f failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestWriteBody_SetsHeadersAndBody(t *testing.T) {
	rec := httptest.NewRecorder()

	writeBody(rec, http.StatusOK, "text/csv; charset=utf-8", []byte("Id,Name\n"))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Body.String() != "Id,Name\n" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestWriteBody_LogsWriteFailure(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	w := failingWriter{httptest.NewRecorder()}
	writeBody(w, http.StatusOK, "text/plain; charset=utf-8", []byte("report"))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(buf.String(), "failed to write response body") {
		t.Errorf("write failure should be logged, got %s", buf.String())
	}
}
