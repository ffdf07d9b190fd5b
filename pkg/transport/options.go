package transport

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/burn-central/go-sdk/pkg/encoding"
)

// Option configures a WebSocket.
type Option func(*WebSocket)

// WithDialer sets the Dialer used to open sockets.
func WithDialer(d Dialer) Option {
	return func(w *WebSocket) {
		w.dialer = d
	}
}

// WithCodec sets the codec used for text frame payloads.
func WithCodec(c encoding.Codec) Option {
	return func(w *WebSocket) {
		w.codec = c
	}
}

// WithLogger sets the logger. A nil logger keeps the current one.
func WithLogger(l logrus.FieldLogger) Option {
	return func(w *WebSocket) {
		if l != nil {
			w.log = l
		}
	}
}

// WithMetrics records manager activity in m.
func WithMetrics(m *Metrics) Option {
	return func(w *WebSocket) {
		w.metrics = m
	}
}

// WithReconnectDelay overrides DefaultReconnectDelay.
func WithReconnectDelay(d time.Duration) Option {
	return func(w *WebSocket) {
		w.reconnectDelay = d
	}
}

// WithSendRetries overrides DefaultSendRetries. Negative values are treated as zero.
func WithSendRetries(n int) Option {
	return func(w *WebSocket) {
		if n < 0 {
			n = 0
		}
		w.sendRetries = n
	}
}

// WithAuthHeader sets the handshake header that carries the auth token.
func WithAuthHeader(name string) Option {
	return func(w *WebSocket) {
		w.authHeader = name
	}
}
