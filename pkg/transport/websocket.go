package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/burn-central/go-sdk/pkg/encoding"
)

const (
	// DefaultReconnectDelay is how long Send waits before reconnecting after a failed write
	DefaultReconnectDelay = 1000 * time.Millisecond

	// DefaultSendRetries is how many reconnect-and-resend rounds Send performs
	DefaultSendRetries = 1

	// DefaultAuthHeader carries the session token on the opening handshake
	DefaultAuthHeader = "Cookie"
)

// State is the connection state of a WebSocket.
type State int

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnected:
		return "Connected"
	default:
		return "Unknown"
	}
}

type endpoint struct {
	url   string
	token string
}

// WebSocket manages a single experiment-run connection.
//
// A WebSocket holds at most one live Socket. The URL and token passed to the
// last successful Connect are kept so Reconnect can recreate an equivalent
// connection, even after the socket itself has been dropped.
//
// WebSocket is not safe for concurrent use.
type WebSocket struct {
	dialer         Dialer
	codec          encoding.Codec
	log            logrus.FieldLogger
	metrics        *Metrics
	reconnectDelay time.Duration
	sendRetries    int
	authHeader     string

	socket   Socket    // nil while disconnected
	endpoint *endpoint // nil until the first successful Connect
}

// NewWebSocket creates a disconnected WebSocket.
func NewWebSocket(opts ...Option) *WebSocket {
	w := &WebSocket{
		codec:          encoding.NewJSON(),
		log:            logrus.StandardLogger(),
		reconnectDelay: DefaultReconnectDelay,
		sendRetries:    DefaultSendRetries,
		authHeader:     DefaultAuthHeader,
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.dialer == nil {
		d := NewGorillaDialer()
		d.Logger = w.log
		w.dialer = d
	}

	return w
}

// State reports whether a socket is currently held.
func (w *WebSocket) State() State {
	if w.socket == nil {
		return StateDisconnected
	}
	return StateConnected
}

// IsConnected reports whether a socket is currently held.
func (w *WebSocket) IsConnected() bool {
	return w.socket != nil
}

// URL returns the URL recorded by the last successful Connect.
func (w *WebSocket) URL() string {
	if w.endpoint == nil {
		return ""
	}
	return w.endpoint.url
}

// Connect opens a socket to url, sending token in the auth header, and makes
// it the active socket. Any previously held socket is released first. The
// recorded URL and token change only when Connect succeeds.
func (w *WebSocket) Connect(ctx context.Context, url, token string) error {
	w.releaseSocket()

	socket, err := w.open(ctx, "connect", url, token)
	if err != nil {
		return err
	}

	w.socket = socket
	w.endpoint = &endpoint{url: url, token: token}
	return nil
}

// Reconnect drops the current socket, if any, and connects again with the URL
// and token recorded by the last successful Connect.
func (w *WebSocket) Reconnect(ctx context.Context) error {
	if w.endpoint == nil {
		return newError(KindCannotReconnect, "reconnect", errNeverOpened)
	}
	ep := *w.endpoint

	w.releaseSocket()

	socket, err := w.open(ctx, "reconnect", ep.url, ep.token)
	w.metrics.observeReconnect(err)
	if err != nil {
		return err
	}

	w.socket = socket
	return nil
}

func (w *WebSocket) open(ctx context.Context, op, url, token string) (Socket, error) {
	header := http.Header{}
	if token != "" {
		header.Set(w.authHeader, token)
	}

	socket, err := w.dialer.Dial(ctx, url, header)
	if err != nil {
		w.metrics.observeConnect(err)
		return nil, newError(KindConnection, op, err)
	}

	if err := socket.SetBlocking(false); err != nil {
		_ = socket.Release()
		err = fmt.Errorf("failed to set non-blocking mode: %w", err)
		w.metrics.observeConnect(err)
		return nil, newError(KindConnection, op, err)
	}

	w.metrics.observeConnect(nil)
	w.log.WithFields(logrus.Fields{
		"url":     url,
		"conn_id": socket.ID(),
	}).Debug("websocket connected")
	return socket, nil
}

// Send encodes message as a text frame and writes it without blocking on the
// peer. If the write fails, Send waits the reconnect delay, reconnects and
// writes the frame again; with the default settings this happens once. A
// failed reconnect is returned as is.
func (w *WebSocket) Send(ctx context.Context, message any) error {
	socket, err := w.active("send")
	if err != nil {
		return err
	}

	payload, err := w.codec.Encode(message)
	if err != nil {
		return newError(KindSerialization, "send", err)
	}

	err = w.attemptSend(socket, payload)
	for retry := 0; err != nil && retry < w.sendRetries; retry++ {
		w.log.WithError(err).WithField("url", w.URL()).Debug("websocket send failed, attempting to reconnect")

		if sleepErr := sleep(ctx, w.reconnectDelay); sleepErr != nil {
			return newError(KindSend, "send", sleepErr)
		}
		if reconnectErr := w.Reconnect(ctx); reconnectErr != nil {
			return reconnectErr
		}
		err = w.attemptSend(w.socket, payload)
	}
	return err
}

func (w *WebSocket) attemptSend(socket Socket, payload []byte) error {
	err := socket.WriteText(payload)
	w.metrics.observeSend(err)
	if err != nil {
		return newError(KindSend, "send", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive performs one non-blocking read. It decodes a text frame into v and
// reports true. It reports false with a nil error when nothing is queued or
// the frame is not a text frame. Receive never reconnects.
func (w *WebSocket) Receive(v any) (bool, error) {
	socket, err := w.active("receive")
	if err != nil {
		return false, err
	}

	frame, err := socket.ReadFrame(context.Background())
	if err != nil {
		if errors.Is(err, ErrWouldBlock) {
			return false, nil
		}
		return false, newError(KindReceive, "receive", err)
	}
	w.metrics.observeFrame(frame.Kind)

	switch frame.Kind {
	case FrameText:
		if err := w.codec.Decode(frame.Payload, v); err != nil {
			return false, newError(KindSerialization, "receive", err)
		}
		return true, nil
	case FrameBinary:
		w.log.WithField("bytes", len(frame.Payload)).Warn("received unexpected binary message")
	case FramePing, FramePong, FrameClose:
	default:
		w.log.WithField("kind", frame.Kind.String()).Warn("received unexpected frame message")
	}
	return false, nil
}

// ReceiveAs performs one non-blocking read and decodes a text frame into a
// new T. It returns nil, nil when no message is available.
func ReceiveAs[T any](w *WebSocket) (*T, error) {
	var v T
	ok, err := w.Receive(&v)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

// Close starts the close handshake without waiting for the peer. The socket
// stays held until Release or the next Connect. Repeated calls are safe.
func (w *WebSocket) Close() error {
	socket, err := w.active("close")
	if err != nil {
		return err
	}
	if err := socket.Close(); err != nil {
		return newError(KindSend, "close", err)
	}
	return nil
}

// WaitUntilClosed switches the socket to blocking mode and reads until the
// connection is closed. Frames read meanwhile are discarded. A read failure
// other than the connection being closed is returned.
func (w *WebSocket) WaitUntilClosed(ctx context.Context) error {
	socket, err := w.active("wait")
	if err != nil {
		return err
	}

	if err := socket.SetBlocking(true); err != nil {
		return newError(KindConnection, "wait", fmt.Errorf("failed to set blocking mode: %w", err))
	}
	defer func() {
		_ = socket.SetBlocking(false)
	}()

	logger := w.log.WithField("conn_id", socket.ID())
	for {
		frame, err := socket.ReadFrame(ctx)
		switch {
		case err == nil:
			w.metrics.observeFrame(frame.Kind)
		case errors.Is(err, ErrConnectionClosed), errors.Is(err, ErrAlreadyClosed):
			logger.Debug("websocket connection closed")
			return nil
		default:
			logger.WithError(err).Error("websocket read error while waiting until closed")
			return newError(KindSend, "wait", err)
		}
	}
}

// Release closes the connection on a best-effort basis and drops the socket.
// Errors are discarded. Use it with defer right after creating the WebSocket.
func (w *WebSocket) Release() {
	if w.socket == nil {
		return
	}
	_ = w.Close()
	w.releaseSocket()
}

func (w *WebSocket) releaseSocket() {
	if w.socket == nil {
		return
	}
	if err := w.socket.Release(); err != nil {
		w.log.WithError(err).WithField("conn_id", w.socket.ID()).Debug("websocket release failed")
	}
	w.socket = nil
}

func (w *WebSocket) active(op string) (Socket, error) {
	if w.socket == nil {
		return nil, newError(KindNotConnected, op, nil)
	}
	return w.socket, nil
}
