// Package testutil provides shared helpers for SDK tests.
//
// Peer is an in-process WebSocket endpoint built on httptest and
// gorilla/websocket. It records handshakes and text messages, can echo frames
// back, run a script right after the upgrade, reject handshakes that lack an
// expected credential, and drop every connection without a close handshake.
package testutil
