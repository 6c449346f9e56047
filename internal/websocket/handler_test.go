package websocket

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsdash/internal/config"
	"opsdash/internal/services"
	"opsdash/internal/shared/testutil"
	"opsdash/pkg/contracts/events"
)

func newTestServer(t *testing.T, hub *Hub, allowedOrigins []string) string {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	srv := httptest.NewServer(NewHandler(hub, config.WebSocketConfig{ReadBufferSize: 1024, WriteBufferSize: 1024}, allowedOrigins, logger))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readMessage(t *testing.T, conn *websocket.Conn) decodedMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg decodedMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHandler_StreamsReloads(t *testing.T) {
	hub, _ := newTestHub(t, nil)
	url := newTestServer(t, hub, nil)

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	welcome := readMessage(t, conn)
	assert.Equal(t, events.MessageTypeConnection, welcome.Type)
	assert.NotEmpty(t, welcome.TraceID)

	hub.OnReload(context.Background(), services.LoadStatus{Loaded: true, LoadID: "load-2"})

	msg := readMessage(t, conn)
	assert.Equal(t, events.MessageTypeDatasetsReloaded, msg.Type)
	assert.Contains(t, string(msg.Data), `"loadId":"load-2"`)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_OriginCheck(t *testing.T) {
	hub, _ := newTestHub(t, nil)
	url := newTestServer(t, hub, []string{"https://dash.example.com"})

	t.Run("allowed origin", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://dash.example.com"}})
		require.NoError(t, err)
		conn.Close()
	})

	t.Run("no origin", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		conn.Close()
	})

	t.Run("foreign origin", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example.com"}})
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.NotNil(t, resp)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), "WEBSOCKET_UPGRADE_FAILED")
	})
}

func TestHandler_PlainHTTPIsRejected(t *testing.T) {
	hub, _ := newTestHub(t, nil)
	logger, logs := testutil.NewTestLogger(t)
	h := NewHandler(hub, config.WebSocketConfig{}, nil, logger)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.True(t, logs.ContainsMessage("WebSocket upgrade failed"))
	assert.Zero(t, hub.ClientCount())
}
