package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allowed origin gets read-only headers", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/opportunities", nil)
		req.Header.Set("Origin", "https://dash.example.com")

		CORS([]string{"https://dash.example.com"})(next).ServeHTTP(rec, req)

		assert.Equal(t, "https://dash.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unlisted origin gets no headers", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		req.Header.Set("Origin", "https://evil.example.com")

		CORS([]string{"https://dash.example.com"})(next).ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("empty list allows any origin", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "https://anywhere.example.com")

		CORS(nil)(next).ServeHTTP(rec, req)

		assert.Equal(t, "https://anywhere.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short-circuits with 204", func(t *testing.T) {
		t.Parallel()

		reached := false
		probe := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			reached = true
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/api/opportunities", nil)
		req.Header.Set("Origin", "https://dash.example.com")

		CORS(nil)(probe).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.False(t, reached)
	})
}

func TestLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"no scan results yet"}`))
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/opportunities", nil)

	Logging(logger)(next).ServeHTTP(rec, req)

	var line struct {
		Msg       string `json:"msg"`
		Component string `json:"component"`
		Method    string `json:"method"`
		Path      string `json:"path"`
		Status    int    `json:"status"`
		Bytes     int    `json:"bytes"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	assert.Equal(t, "request", line.Msg)
	assert.Equal(t, "http", line.Component)
	assert.Equal(t, http.MethodGet, line.Method)
	assert.Equal(t, "/api/opportunities", line.Path)
	assert.Equal(t, http.StatusNotFound, line.Status)
	assert.Equal(t, len(`{"error":"no scan results yet"}`), line.Bytes)
}

func TestLoggingDefaultStatus(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	Logging(logger)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	var line struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, http.StatusOK, line.Status)
}
