package websocket

import (
	"errors"
	"sync"
	"time"
)

var errMockClosed = errors.New("connection closed")

// MockMessage is a frame written to a MockConnection
type MockMessage struct {
	Type int
	Data []byte
}

// MockConnection is an in-memory Connection. ReadMessage blocks until a
// message is queued with AddReadMessage or the connection is closed.
type MockConnection struct {
	mu       sync.Mutex
	written  []MockMessage
	incoming chan []byte
	closed   chan struct{}
	once     sync.Once

	// WriteErr, when set, is returned by every WriteMessage call
	WriteErr error
}

// NewMockConnection creates a new mock connection
func NewMockConnection() *MockConnection {
	return &MockConnection{
		incoming: make(chan []byte, 16),
		closed:   make(chan struct{}),
	}
}

// WriteMessage implements Connection.WriteMessage
func (m *MockConnection) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.closed:
		return errMockClosed
	default:
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.written = append(m.written, MockMessage{Type: messageType, Data: data})
	return nil
}

// ReadMessage implements Connection.ReadMessage
func (m *MockConnection) ReadMessage() (int, []byte, error) {
	select {
	case data := <-m.incoming:
		return 1, data, nil
	case <-m.closed:
		return 0, nil, errMockClosed
	}
}

// Close implements Connection.Close
func (m *MockConnection) Close() error {
	m.once.Do(func() { close(m.closed) })
	return nil
}

func (m *MockConnection) SetReadDeadline(time.Time) error { return nil }
func (m *MockConnection) SetWriteDeadline(time.Time) error { return nil }
func (m *MockConnection) SetReadLimit(int64) {}
func (m *MockConnection) SetPongHandler(func(string) error) {}

// AddReadMessage queues a message for ReadMessage
func (m *MockConnection) AddReadMessage(data []byte) {
	m.incoming <- data
}

// IsClosed reports whether Close was called
func (m *MockConnection) IsClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

// Messages returns the frames of messageType written so far
func (m *MockConnection) Messages(messageType int) []MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []MockMessage
	for _, msg := range m.written {
		if msg.Type == messageType {
			out = append(out, msg)
		}
	}
	return out
}
