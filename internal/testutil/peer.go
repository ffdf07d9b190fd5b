package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// DefaultWait bounds the Wait helpers.
const DefaultWait = 5 * time.Second

// Handshake is a recorded opening handshake.
type Handshake struct {
	Path   string
	Header http.Header
}

// PeerOption configures a Peer.
type PeerOption func(*Peer)

// WithEcho makes the peer write every data frame back to the sender.
func WithEcho() PeerOption {
	return func(p *Peer) {
		p.echo = true
	}
}

// WithOnConnect runs fn on every new connection before the read loop starts.
func WithOnConnect(fn func(conn *websocket.Conn)) PeerOption {
	return func(p *Peer) {
		p.onConnect = fn
	}
}

// WithRequiredHeader rejects handshakes whose header name does not equal value.
func WithRequiredHeader(name, value string) PeerOption {
	return func(p *Peer) {
		p.requiredHeader = name
		p.requiredValue = value
	}
}

// Peer is an in-process WebSocket server.
type Peer struct {
	server   *httptest.Server
	upgrader websocket.Upgrader

	echo           bool
	onConnect      func(conn *websocket.Conn)
	requiredHeader string
	requiredValue  string

	mu         sync.Mutex
	conns      []*websocket.Conn
	handshakes []Handshake
	messages   []string
	active     int
	closed     int
}

// NewPeer starts a Peer that is shut down when the test ends.
func NewPeer(t testing.TB, opts ...PeerOption) *Peer {
	t.Helper()

	p := &Peer{}
	for _, opt := range opts {
		opt(p)
	}

	p.server = httptest.NewServer(http.HandlerFunc(p.handle))
	t.Cleanup(p.Close)
	return p
}

// BaseURL returns the peer's http:// URL.
func (p *Peer) BaseURL() string {
	return p.server.URL
}

// URL returns a ws:// URL served by the peer.
func (p *Peer) URL() string {
	return "ws" + strings.TrimPrefix(p.server.URL, "http") + "/ws"
}

func (p *Peer) handle(w http.ResponseWriter, r *http.Request) {
	if p.requiredHeader != "" && r.Header.Get(p.requiredHeader) != p.requiredValue {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	p.mu.Lock()
	p.conns = append(p.conns, conn)
	p.handshakes = append(p.handshakes, Handshake{Path: r.URL.Path, Header: r.Header.Clone()})
	p.active++
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.active--
		p.mu.Unlock()
	}()

	if p.onConnect != nil {
		p.onConnect(conn)
	}

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				p.mu.Lock()
				p.closed++
				p.mu.Unlock()
			}
			return
		}

		if messageType == websocket.TextMessage {
			p.mu.Lock()
			p.messages = append(p.messages, string(data))
			p.mu.Unlock()
		}

		if p.echo {
			if err := conn.WriteMessage(messageType, data); err != nil {
				return
			}
		}
	}
}

// Handshakes returns the handshakes accepted so far.
func (p *Peer) Handshakes() []Handshake {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Handshake(nil), p.handshakes...)
}

// Messages returns the text messages received so far, across connections.
func (p *Peer) Messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.messages...)
}

// ActiveConnections returns the number of connections still being served.
func (p *Peer) ActiveConnections() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// ClosedConnections returns the number of connections that ended with a
// normal close handshake.
func (p *Peer) ClosedConnections() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// WaitForHandshakes blocks until at least n handshakes were accepted.
func (p *Peer) WaitForHandshakes(t testing.TB, n int) []Handshake {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(p.Handshakes()) >= n
	}, DefaultWait, 5*time.Millisecond, "peer did not see %d handshakes", n)
	return p.Handshakes()
}

// WaitForMessages blocks until at least n text messages were received.
func (p *Peer) WaitForMessages(t testing.TB, n int) []string {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(p.Messages()) >= n
	}, DefaultWait, 5*time.Millisecond, "peer did not receive %d messages", n)
	return p.Messages()
}

// DropAll closes every connection's TCP stream without a close handshake.
func (p *Peer) DropAll() {
	p.mu.Lock()
	conns := append([]*websocket.Conn(nil), p.conns...)
	p.mu.Unlock()

	for _, conn := range conns {
		_ = conn.UnderlyingConn().Close()
	}
}

// Close drops all connections and stops the server.
func (p *Peer) Close() {
	p.DropAll()
	p.server.Close()
}
