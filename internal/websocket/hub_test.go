package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/goleak"

	"opsdash/internal/config"
	"opsdash/internal/services"
	"opsdash/internal/shared/testutil"
	"opsdash/pkg/contracts/events"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type decodedMessage struct {
	Type    events.MessageType `json:"type"`
	TraceID string             `json:"trace_id"`
	Data    json.RawMessage    `json:"data"`
}

func newTestHub(t *testing.T, metrics *Metrics) (*Hub, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)
	hub := NewHub(config.WebSocketConfig{}, logger, metrics)
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub, logs
}

// connect registers a client on a mock connection and runs its pumps
func connect(t *testing.T, hub *Hub, traceID string) (*Client, *MockConnection) {
	t.Helper()
	conn := NewMockConnection()
	client := NewClient(hub, conn, "127.0.0.1:50000", traceID)
	require.NoError(t, hub.Register(client))
	go client.WritePump()
	go client.ReadPump()
	return client, conn
}

func waitForMessages(t *testing.T, conn *MockConnection, n int) []decodedMessage {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(conn.Messages(websocket.TextMessage)) >= n
	}, 2*time.Second, 10*time.Millisecond)

	var out []decodedMessage
	for _, raw := range conn.Messages(websocket.TextMessage) {
		var msg decodedMessage
		require.NoError(t, json.Unmarshal(raw.Data, &msg))
		out = append(out, msg)
	}
	return out
}

func TestHub_RegisterSendsWelcome(t *testing.T) {
	hub, logs := newTestHub(t, nil)
	client, conn := connect(t, hub, "trace-welcome")

	msgs := waitForMessages(t, conn, 1)
	assert.Equal(t, events.MessageTypeConnection, msgs[0].Type)
	assert.Equal(t, "trace-welcome", msgs[0].TraceID)

	var data events.ConnectionData
	require.NoError(t, json.Unmarshal(msgs[0].Data, &data))
	assert.Equal(t, "connected", data.Status)
	assert.Equal(t, client.ID(), data.ClientID)

	assert.Equal(t, 1, hub.ClientCount())
	assert.True(t, logs.ContainsMessage("Client registered"))
}

func TestHub_OnReloadBroadcastsToAllClients(t *testing.T) {
	hub, _ := newTestHub(t, nil)
	_, first := connect(t, hub, "")
	_, second := connect(t, hub, "")

	hub.OnReload(context.Background(), services.LoadStatus{Loaded: true, LoadID: "load-1", TotalRecords: 20})

	for _, conn := range []*MockConnection{first, second} {
		msgs := waitForMessages(t, conn, 2)
		assert.Equal(t, events.MessageTypeDatasetsReloaded, msgs[1].Type)

		var status services.LoadStatus
		require.NoError(t, json.Unmarshal(msgs[1].Data, &status))
		assert.Equal(t, "load-1", status.LoadID)
		assert.Equal(t, 20, status.TotalRecords)
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub, logs := newTestHub(t, nil)
	_, conn := connect(t, hub, "")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return logs.ContainsMessage("Client unregistered") }, time.Second, 5*time.Millisecond)
}

func TestHub_SlowConsumerIsDropped(t *testing.T) {
	hub, logs := newTestHub(t, nil)

	// no pumps: nothing drains the send buffer
	client := NewClient(hub, NewMockConnection(), "127.0.0.1:50001", "")
	require.NoError(t, hub.Register(client))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	for len(client.send) < cap(client.send) {
		client.send <- []byte(`{}`)
	}

	hub.Broadcast(context.Background(), events.NewMessage(events.MessageTypeDatasetsReloaded, nil))

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, logs.ContainsMessage("Client send buffer full, disconnecting"))
}

func TestHub_StopClosesClients(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(config.WebSocketConfig{}, logger, nil)
	hub.Start()
	hub.Start()

	_, conn := connect(t, hub, "")
	waitForMessages(t, conn, 1)

	hub.Stop()
	hub.Stop()

	require.Eventually(t, conn.IsClosed, time.Second, 5*time.Millisecond)
	assert.NotEmpty(t, conn.Messages(websocket.CloseMessage))
	assert.Zero(t, hub.ClientCount())

	assert.ErrorIs(t, hub.Register(NewClient(hub, NewMockConnection(), "", "")), ErrHubStopped)
	// must not block
	hub.Broadcast(context.Background(), events.NewMessage(events.MessageTypeDatasetsReloaded, nil))
}

func TestHub_PingTiming(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	hub := NewHub(config.WebSocketConfig{PingPeriod: 5 * time.Second, PongWait: 10 * time.Second}, logger, nil)
	assert.Equal(t, 5*time.Second, hub.pingPeriod)
	assert.Equal(t, 10*time.Second, hub.pongWait)

	// ping period must stay below the pong wait
	hub = NewHub(config.WebSocketConfig{PingPeriod: 20 * time.Second, PongWait: 10 * time.Second}, logger, nil)
	assert.Equal(t, 9*time.Second, hub.pingPeriod)

	hub = NewHub(config.WebSocketConfig{}, logger, nil)
	assert.Equal(t, config.WebSocketPongWait, hub.pongWait)
}

func TestHub_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	hub, _ := newTestHub(t, metrics)
	_, conn := connect(t, hub, "")
	hub.OnReload(context.Background(), services.LoadStatus{Loaded: true})
	waitForMessages(t, conn, 2)

	// instruments are updated right after the write
	var rm metricdata.ResourceMetrics
	require.Eventually(t, func() bool {
		rm = metricdata.ResourceMetrics{}
		if err := reader.Collect(context.Background(), &rm); err != nil {
			return false
		}
		return sumInt64(rm, "websocket_messages_sent_total") == 2 &&
			sumInt64(rm, "websocket_broadcasts_total") == 1
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, int64(1), sumInt64(rm, "websocket_connections_total"))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordConnection(ctx)
		m.RecordDisconnection(ctx, time.Second, "closed")
		m.RecordMessageSent(ctx, 10)
		m.RecordDropped(ctx, "test")
		m.RecordBroadcast(ctx, "test", 1)
	})
}

func sumInt64(rm metricdata.ResourceMetrics, name string) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}
