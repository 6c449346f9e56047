package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsdash/internal/shared/testutil"
)

func postClientLog(t *testing.T, h *ClientLogHandler, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/client-log", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestClientLogHandler_Handle(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewClientLogHandler(logger)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "valid log entry",
			body:           `{"level":"info","message":"chart rendered","data":{"component":"overview"}}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing level",
			body:           `{"message":"no level"}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "empty body",
			body:           "",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:           "invalid JSON",
			body:           "invalid json",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:           "missing message",
			body:           `{"level":"info"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postClientLog(t, handler, []byte(tt.body))
			require.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())

			env := decodeEnvelope(t, rec)
			assert.Equal(t, tt.expectedStatus == http.StatusOK, env.Success)
			assert.Equal(t, tt.expectedCode, env.Code)
		})
	}
}

func TestClientLogHandler_LogLevels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"fatal", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			handler := NewClientLogHandler(logger)

			body, err := json.Marshal(map[string]interface{}{
				"level":   tt.level,
				"message": "message at " + tt.level,
				"source":  "dashboard",
			})
			require.NoError(t, err)

			rec := postClientLog(t, handler, body)
			assert.Equal(t, http.StatusOK, rec.Code)
			testutil.AssertLogContains(t, logs, tt.want, "message at "+tt.level)
			testutil.AssertLogAttr(t, logs, "client_source", "dashboard")
		})
	}
}

func TestClientLogHandler_LargePayload(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewClientLogHandler(logger)

	body := `{"message":"big","data":{"blob":"` + strings.Repeat("x", maxClientLogBytes) + `"}}`
	rec := postClientLog(t, handler, []byte(body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, logs.ContainsMessage("big"))
}
