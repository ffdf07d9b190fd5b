package transport

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWebSocketError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *WebSocketError
		want string
	}{
		{
			name: "without cause",
			err:  newError(KindNotConnected, "send", nil),
			want: "send: websocket is not connected",
		},
		{
			name: "with cause",
			err:  newError(KindConnection, "connect", errors.New("403 forbidden")),
			want: "connect: failed to connect websocket: 403 forbidden",
		},
		{
			name: "unknown kind",
			err:  &WebSocketError{Kind: "mystery", Op: "wait"},
			want: "wait: mystery",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWebSocketError_Is(t *testing.T) {
	kinds := map[ErrorKind]error{
		KindConnection:      ErrConnection,
		KindSend:            ErrSend,
		KindReceive:         ErrReceive,
		KindNotConnected:    ErrNotConnected,
		KindCannotReconnect: ErrCannotReconnect,
		KindSerialization:   ErrSerialization,
	}

	for kind, sentinel := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", newError(kind, "op", nil))
			assert.ErrorIs(t, err, sentinel)

			for otherKind, other := range kinds {
				if otherKind != kind {
					assert.NotErrorIs(t, err, other)
				}
			}
		})
	}

	assert.False(t, newError(KindSend, "send", nil).Is(nil))
}

func TestWebSocketError_Unwrap(t *testing.T) {
	cause := errors.New("broken pipe")
	err := newError(KindSend, "send", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, cause)

	var wsErr *WebSocketError
	assert.ErrorAs(t, fmt.Errorf("outer: %w", err), &wsErr)
	assert.Equal(t, KindSend, wsErr.Kind)
}

func TestFrameKind_String(t *testing.T) {
	assert.Equal(t, "text", FrameText.String())
	assert.Equal(t, "binary", FrameBinary.String())
	assert.Equal(t, "ping", FramePing.String())
	assert.Equal(t, "pong", FramePong.String())
	assert.Equal(t, "close", FrameClose.String())
	assert.Equal(t, "other", FrameOther.String())
	assert.Equal(t, "other", FrameKind(0).String())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Disconnected", StateDisconnected.String())
	assert.Equal(t, "Connected", StateConnected.String())
	assert.Equal(t, "Unknown", State(7).String())
}
