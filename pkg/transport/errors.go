package transport

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by WebSocketError through errors.Is.
var (
	// ErrConnection indicates the handshake or socket configuration failed
	ErrConnection = errors.New("failed to connect websocket")

	// ErrSend indicates a frame could not be transmitted
	ErrSend = errors.New("websocket send error")

	// ErrReceive indicates a frame could not be read
	ErrReceive = errors.New("websocket receive error")

	// ErrNotConnected indicates the manager holds no live socket
	ErrNotConnected = errors.New("websocket is not connected")

	// ErrCannotReconnect indicates no connection was ever established
	ErrCannotReconnect = errors.New("websocket cannot reconnect")

	// ErrSerialization indicates a message could not be encoded or decoded
	ErrSerialization = errors.New("serialization error")
)

// Socket-level conditions reported by Socket implementations.
var (
	// ErrWouldBlock is returned by a non-blocking read with nothing queued
	ErrWouldBlock = errors.New("operation would block")

	// ErrConnectionClosed is returned once the close handshake has completed
	ErrConnectionClosed = errors.New("connection closed")

	// ErrAlreadyClosed is returned when reading from a socket that has been torn down
	ErrAlreadyClosed = errors.New("connection already closed")
)

var errNeverOpened = errors.New("the websocket was never opened so it cannot be reconnected")

// ErrorKind categorizes websocket errors.
type ErrorKind string

const (
	// KindConnection indicates handshake or mode configuration failures
	KindConnection ErrorKind = "connection"

	// KindSend indicates frame transmission failures
	KindSend ErrorKind = "send"

	// KindReceive indicates frame reception failures
	KindReceive ErrorKind = "receive"

	// KindNotConnected indicates an operation without a live socket
	KindNotConnected ErrorKind = "not_connected"

	// KindCannotReconnect indicates a reconnect without a recorded endpoint
	KindCannotReconnect ErrorKind = "cannot_reconnect"

	// KindSerialization indicates payload encode/decode failures
	KindSerialization ErrorKind = "serialization"
)

var kindSentinels = map[ErrorKind]error{
	KindConnection:      ErrConnection,
	KindSend:            ErrSend,
	KindReceive:         ErrReceive,
	KindNotConnected:    ErrNotConnected,
	KindCannotReconnect: ErrCannotReconnect,
	KindSerialization:   ErrSerialization,
}

// WebSocketError is returned by every WebSocket operation.
type WebSocketError struct {
	// Kind categorizes the error
	Kind ErrorKind

	// Op is the manager operation that failed (e.g. "send", "connect")
	Op string

	// Err is the underlying transport or codec error, if any
	Err error
}

func newError(kind ErrorKind, op string, err error) *WebSocketError {
	return &WebSocketError{Kind: kind, Op: op, Err: err}
}

// Error implements the error interface.
func (e *WebSocketError) Error() string {
	msg := string(e.Kind)
	if sentinel, ok := kindSentinels[e.Kind]; ok {
		msg = sentinel.Error()
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
}

// Unwrap returns the underlying error.
func (e *WebSocketError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *WebSocketError) Is(target error) bool {
	if target == nil {
		return false
	}
	return kindSentinels[e.Kind] == target
}
