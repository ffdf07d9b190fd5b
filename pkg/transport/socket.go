package transport

import (
	"context"
	"net/http"
)

// FrameKind identifies the type of a frame read from a Socket.
type FrameKind int

const (
	FrameText FrameKind = iota + 1
	FrameBinary
	FramePing
	FramePong
	FrameClose
	FrameOther
)

// String returns the frame kind name used in logs and metric labels.
func (k FrameKind) String() string {
	switch k {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	case FramePing:
		return "ping"
	case FramePong:
		return "pong"
	case FrameClose:
		return "close"
	default:
		return "other"
	}
}

// Frame is a single unit read from a Socket.
type Frame struct {
	Kind    FrameKind
	Payload []byte
}

// Socket is one live, exclusively-owned transport connection.
//
// Implementations are used from a single goroutine at a time.
type Socket interface {
	// ID identifies the socket in logs
	ID() string

	// SetBlocking switches reads between blocking and non-blocking mode
	SetBlocking(blocking bool) error

	// WriteText sends payload as a single text frame without waiting for the peer
	WriteText(payload []byte) error

	// ReadFrame returns the next frame. In non-blocking mode it returns
	// ErrWouldBlock when nothing is available and ignores ctx. After the close
	// handshake completes it returns ErrConnectionClosed, then ErrAlreadyClosed.
	ReadFrame(ctx context.Context) (Frame, error)

	// Close starts the close handshake without waiting for the reply. Repeated
	// calls return nil.
	Close() error

	// Release drops the underlying connection immediately.
	Release() error
}

// Dialer opens Sockets.
type Dialer interface {
	// Dial performs the opening handshake against url, sending header with
	// the upgrade request.
	Dial(ctx context.Context, url string, header http.Header) (Socket, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, url string, header http.Header) (Socket, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, url string, header http.Header) (Socket, error) {
	return f(ctx, url, header)
}
