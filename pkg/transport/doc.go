// Package transport provides the real-time connection used to stream
// experiment-run events between the SDK and the Burn Central service.
//
// The central type is WebSocket, a connection manager that owns at most one
// live Socket at a time. It offers non-blocking polling for both directions,
// a bounded recovery policy for failed sends, and an explicit blocking drain
// that waits for the close handshake to complete:
//
//   - Send encodes a message as a single JSON text frame. If the frame cannot
//     be written, the manager waits DefaultReconnectDelay, reconnects once with
//     the URL and token from the last Connect, and retries the send once.
//   - Receive performs one non-blocking read. It reports (false, nil) when no
//     text frame is available; control and binary frames are never surfaced.
//   - Close starts the close handshake without waiting for it.
//   - WaitUntilClosed blocks until the peer completes the handshake.
//
// The manager is not safe for concurrent use. Callers that share one between
// goroutines must serialize access themselves.
//
// Sockets are produced by a Dialer. The default GorillaDialer is backed by
// github.com/gorilla/websocket; tests and alternative transports can supply
// their own implementation with WithDialer.
//
// Example usage:
//
//	import "github.com/burn-central/go-sdk/pkg/transport"
//
//	ws := transport.NewWebSocket()
//	defer ws.Release()
//
//	if err := ws.Connect(ctx, "wss://example.com/projects/o/p/experiments/1/ws", cookie); err != nil {
//		log.Fatal(err)
//	}
//
//	if err := ws.Send(ctx, map[string]int{"seq": 1}); err != nil {
//		log.Fatal(err)
//	}
//
//	msg, err := transport.ReceiveAs[map[string]any](ws)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if msg != nil {
//		fmt.Println(*msg)
//	}
//
//	_ = ws.Close()
//	_ = ws.WaitUntilClosed(ctx)
package transport
