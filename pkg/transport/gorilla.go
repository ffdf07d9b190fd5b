package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultHandshakeTimeout bounds the opening handshake
	DefaultHandshakeTimeout = 10 * time.Second

	// DefaultWriteTimeout bounds a single frame write
	DefaultWriteTimeout = 5 * time.Second

	frameQueueSize = 64
)

// GorillaDialer opens Sockets with github.com/gorilla/websocket.
type GorillaDialer struct {
	// HandshakeTimeout bounds the opening handshake. Zero uses DefaultHandshakeTimeout.
	HandshakeTimeout time.Duration

	// WriteTimeout bounds frame and control writes. Zero uses DefaultWriteTimeout.
	WriteTimeout time.Duration

	// TLSClientConfig is used for wss:// URLs
	TLSClientConfig *tls.Config

	// Logger receives socket-level diagnostics
	Logger logrus.FieldLogger
}

// NewGorillaDialer creates a dialer with default timeouts.
func NewGorillaDialer() *GorillaDialer {
	return &GorillaDialer{
		HandshakeTimeout: DefaultHandshakeTimeout,
		WriteTimeout:     DefaultWriteTimeout,
	}
}

// Dial performs the opening handshake and starts the socket's frame reader.
func (d *GorillaDialer) Dial(ctx context.Context, url string, header http.Header) (Socket, error) {
	handshakeTimeout := d.HandshakeTimeout
	if handshakeTimeout <= 0 {
		handshakeTimeout = DefaultHandshakeTimeout
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
		TLSClientConfig:  d.TLSClientConfig,
	}

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("handshake with %s failed (status %d): %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	logger := d.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	writeTimeout := d.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}

	s := newGorillaSocket(conn, writeTimeout, logger)
	go s.readLoop()
	return s, nil
}

type readResult struct {
	frame Frame
	err   error
}

// gorillaSocket emulates non-blocking reads over a gorilla connection. A
// reader goroutine owns conn's read side and queues frames; ReadFrame only
// ever consumes the queue.
type gorillaSocket struct {
	id           string
	conn         *websocket.Conn
	writeTimeout time.Duration
	log          logrus.FieldLogger

	frames chan readResult
	done   chan struct{} // closed when readLoop exits
	quit   chan struct{} // closed by Release

	releaseOnce sync.Once
	blocking    bool
	closeSent   bool
}

func newGorillaSocket(conn *websocket.Conn, writeTimeout time.Duration, logger logrus.FieldLogger) *gorillaSocket {
	id := uuid.NewString()
	s := &gorillaSocket{
		id:           id,
		conn:         conn,
		writeTimeout: writeTimeout,
		log:          logger.WithField("conn_id", id),
		frames:       make(chan readResult, frameQueueSize),
		done:         make(chan struct{}),
		quit:         make(chan struct{}),
	}

	conn.SetPingHandler(func(appData string) error {
		s.push(readResult{frame: Frame{Kind: FramePing, Payload: []byte(appData)}})
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(s.writeTimeout))
		if err == nil || errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil
		}
		return err
	})
	conn.SetPongHandler(func(appData string) error {
		s.push(readResult{frame: Frame{Kind: FramePong, Payload: []byte(appData)}})
		return nil
	})

	return s
}

func (s *gorillaSocket) ID() string {
	return s.id
}

func (s *gorillaSocket) readLoop() {
	defer close(s.done)
	defer close(s.frames)
	defer s.conn.Close()

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code != websocket.CloseAbnormalClosure {
				s.log.WithField("code", closeErr.Code).Debug("peer completed close handshake")
				if s.push(readResult{frame: Frame{Kind: FrameClose, Payload: []byte(closeErr.Text)}}) {
					s.push(readResult{err: ErrConnectionClosed})
				}
				return
			}
			s.push(readResult{err: err})
			return
		}

		kind := FrameOther
		switch messageType {
		case websocket.TextMessage:
			kind = FrameText
		case websocket.BinaryMessage:
			kind = FrameBinary
		}
		if !s.push(readResult{frame: Frame{Kind: kind, Payload: data}}) {
			return
		}
	}
}

func (s *gorillaSocket) push(r readResult) bool {
	select {
	case s.frames <- r:
		return true
	case <-s.quit:
		return false
	}
}

func (s *gorillaSocket) released() bool {
	select {
	case <-s.quit:
		return true
	default:
		return false
	}
}

func (s *gorillaSocket) SetBlocking(blocking bool) error {
	if s.released() {
		return ErrAlreadyClosed
	}
	s.blocking = blocking
	return nil
}

func (s *gorillaSocket) WriteText(payload []byte) error {
	if s.released() {
		return ErrAlreadyClosed
	}
	select {
	case <-s.done:
		return ErrConnectionClosed
	default:
	}

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *gorillaSocket) ReadFrame(ctx context.Context) (Frame, error) {
	if s.released() {
		return Frame{}, ErrAlreadyClosed
	}

	if !s.blocking {
		select {
		case r, ok := <-s.frames:
			return unpack(r, ok)
		default:
			return Frame{}, ErrWouldBlock
		}
	}

	select {
	case r, ok := <-s.frames:
		return unpack(r, ok)
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

func unpack(r readResult, ok bool) (Frame, error) {
	if !ok {
		return Frame{}, ErrAlreadyClosed
	}
	return r.frame, r.err
}

func (s *gorillaSocket) Close() error {
	if s.closeSent {
		return nil
	}
	if s.released() {
		return ErrAlreadyClosed
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	err := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.writeTimeout))
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return err
	}
	s.closeSent = true
	return nil
}

func (s *gorillaSocket) Release() error {
	err := ErrAlreadyClosed
	s.releaseOnce.Do(func() {
		close(s.quit)
		err = s.conn.Close()
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
	})
	return err
}
