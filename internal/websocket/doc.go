// Package websocket pushes server events to dashboard clients.
//
// A single Hub goroutine owns the client set. Each Client runs a read pump
// that only keeps the connection alive and a write pump that drains the
// client's send buffer. Messages are events.WebSocketMessage values encoded
// as JSON text frames. Clients whose buffer is full when a broadcast arrives
// are disconnected rather than slowing the hub down.
package websocket
