package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burn-central/go-sdk/internal/testutil"
	"github.com/burn-central/go-sdk/pkg/core"
	"github.com/burn-central/go-sdk/pkg/transport"
)

// runApp runs the CLI with stdin as input and returns stdout and stderr.
func runApp(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	app := App()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &out
	app.ErrWriter = &errOut

	err := app.Run(append([]string{"burn-central-cli"}, args...))
	return out.String(), errOut.String(), err
}

func TestURLCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr error
	}{
		{
			name: "https endpoint",
			args: []string{"--endpoint", "https://central.example.com/api/", "url", "--owner", "tracel", "--project", "mnist", "--experiment", "3"},
			want: "wss://central.example.com/api/v1/projects/tracel/mnist/experiments/3/ws\n",
		},
		{
			name: "default endpoint",
			args: []string{"url", "--owner", "tracel", "-p", "mnist", "-x", "1"},
			want: "ws://localhost:9001/v1/projects/tracel/mnist/experiments/1/ws\n",
		},
		{
			name:    "invalid experiment number",
			args:    []string{"url", "--owner", "tracel", "-p", "mnist", "-x", "0"},
			wantErr: core.ErrInvalidRef,
		},
		{
			name:    "invalid endpoint",
			args:    []string{"--endpoint", "ftp://files.example.com", "url", "--owner", "o", "-p", "p", "-x", "1"},
			wantErr: core.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runApp(t, "", tt.args...)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestURLCommand_MissingFlags(t *testing.T) {
	_, _, err := runApp(t, "", "url", "--owner", "tracel")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Required flag")
}

func TestApp_ConfigSources(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("endpoint: https://file.example.com\n"), 0o600))

	t.Run("file", func(t *testing.T) {
		out, _, err := runApp(t, "", "--config", configPath, "url", "--owner", "o", "-p", "p", "-x", "2")
		require.NoError(t, err)
		assert.Equal(t, "wss://file.example.com/v1/projects/o/p/experiments/2/ws\n", out)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("BURN_CENTRAL_ENDPOINT", "http://env.example.com")
		out, _, err := runApp(t, "", "--config", configPath, "url", "--owner", "o", "-p", "p", "-x", "2")
		require.NoError(t, err)
		assert.Equal(t, "ws://env.example.com/v1/projects/o/p/experiments/2/ws\n", out)
	})

	t.Run("flag over env", func(t *testing.T) {
		t.Setenv("BURN_CENTRAL_ENDPOINT", "http://env.example.com")
		out, _, err := runApp(t, "", "--config", configPath, "--endpoint", "https://flag.example.com",
			"url", "--owner", "o", "-p", "p", "-x", "2")
		require.NoError(t, err)
		assert.Equal(t, "wss://flag.example.com/v1/projects/o/p/experiments/2/ws\n", out)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := runApp(t, "", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "url", "--owner", "o", "-p", "p", "-x", "2")
		assert.Error(t, err)
	})
}

func TestApp_InvalidLogSettings(t *testing.T) {
	_, _, err := runApp(t, "", "--log-level", "loud", "url", "--owner", "o", "-p", "p", "-x", "1")
	assert.Error(t, err)

	_, _, err = runApp(t, "", "--log-format", "xml", "url", "--owner", "o", "-p", "p", "-x", "1")
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Endpoint: DefaultEndpoint,
			Stream: StreamConfig{
				ReconnectDelay: time.Second,
				SendRetries:    1,
				AuthHeader:     "Cookie",
			},
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty endpoint", mutate: func(c *Config) { c.Endpoint = "" }, wantField: "endpoint"},
		{name: "negative delay", mutate: func(c *Config) { c.Stream.ReconnectDelay = -time.Second }, wantField: "stream.reconnect_delay"},
		{name: "negative retries", mutate: func(c *Config) { c.Stream.SendRetries = -1 }, wantField: "stream.send_retries"},
		{name: "empty auth header", mutate: func(c *Config) { c.Stream.AuthHeader = "" }, wantField: "stream.auth_header"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var configErr *core.ConfigError
			require.ErrorAs(t, err, &configErr)
			assert.Equal(t, tt.wantField, configErr.Field)
		})
	}
}

func streamArgs(peer *testutil.Peer, extra ...string) []string {
	args := []string{
		"--endpoint", peer.BaseURL(),
		"--session-cookie", "session=abc",
		"--log-level", "error",
		"stream", "--owner", "tracel", "-p", "mnist", "-x", "3",
		"--poll-interval", "5ms",
		"--linger", "200ms",
		"--close-timeout", "2s",
	}
	return append(args, extra...)
}

func TestStreamCommand_Echo(t *testing.T) {
	peer := testutil.NewPeer(t, testutil.WithEcho(), testutil.WithRequiredHeader("Cookie", "session=abc"))

	out, _, err := runApp(t, "{\"seq\":1}\n\n{\"seq\": 2}\n", streamArgs(peer)...)
	require.NoError(t, err)

	assert.Equal(t, []string{`{"seq":1}`, `{"seq":2}`}, peer.Messages())
	assert.Equal(t, "{\"seq\":1}\n{\"seq\":2}\n", out)

	handshakes := peer.Handshakes()
	require.Len(t, handshakes, 1)
	assert.Equal(t, "/v1/projects/tracel/mnist/experiments/3/ws", handshakes[0].Path)

	require.Eventually(t, func() bool { return peer.ClosedConnections() == 1 },
		testutil.DefaultWait, 10*time.Millisecond)
}

func TestStreamCommand_InputFile(t *testing.T) {
	peer := testutil.NewPeer(t, testutil.WithRequiredHeader("Cookie", "session=abc"))

	input := filepath.Join(t.TempDir(), "events.ndjson")
	require.NoError(t, os.WriteFile(input, []byte("{\"event\":\"started\"}\n{\"event\":\"done\"}\n"), 0o600))

	out, _, err := runApp(t, "", streamArgs(peer, "--input", input)...)
	require.NoError(t, err)

	assert.Empty(t, out)
	assert.Equal(t, []string{`{"event":"started"}`, `{"event":"done"}`}, peer.Messages())
}

func TestStreamCommand_ServerClosesFirst(t *testing.T) {
	peer := testutil.NewPeer(t,
		testutil.WithRequiredHeader("Cookie", "session=abc"),
		testutil.WithOnConnect(func(conn *websocket.Conn) {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"seq":1}`))
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"),
				time.Now().Add(time.Second))
		}))

	args := []string{
		"--endpoint", peer.BaseURL(),
		"--session-cookie", "session=abc",
		"--log-level", "error",
		"stream", "--owner", "tracel", "-p", "mnist", "-x", "3",
		"--poll-interval", "5ms",
		"--linger", "5s",
	}

	start := time.Now()
	out, _, err := runApp(t, "", args...)
	require.NoError(t, err)
	assert.Equal(t, "{\"seq\":1}\n", out)
	assert.True(t, time.Since(start) < 5*time.Second, "stream should end when the server closes it")
}

func TestEndOfStream(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	receiveErr := fmt.Errorf("wrapped: %w", transport.ErrConnectionClosed)
	assert.NoError(t, endOfStream(receiveErr, logger))
	assert.NoError(t, endOfStream(transport.ErrAlreadyClosed, logger))

	other := errors.New("boom")
	assert.Equal(t, other, endOfStream(other, logger))
}

func TestStreamCommand_Errors(t *testing.T) {
	t.Run("invalid json line", func(t *testing.T) {
		peer := testutil.NewPeer(t, testutil.WithRequiredHeader("Cookie", "session=abc"))

		_, _, err := runApp(t, "{\"seq\":1}\nnot json\n", streamArgs(peer)...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "input line 2: invalid JSON")
	})

	t.Run("rejected handshake", func(t *testing.T) {
		peer := testutil.NewPeer(t, testutil.WithRequiredHeader("Cookie", "session=other"))

		_, _, err := runApp(t, "{}\n", streamArgs(peer)...)
		require.Error(t, err)
		assert.True(t, errors.Is(err, transport.ErrConnection), "got %v", err)
		assert.Empty(t, peer.Messages())
	})

	t.Run("missing input file", func(t *testing.T) {
		peer := testutil.NewPeer(t)

		_, _, err := runApp(t, "", streamArgs(peer, "--input", filepath.Join(t.TempDir(), "missing"))...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "open input")
	})

	t.Run("non-positive poll interval", func(t *testing.T) {
		peer := testutil.NewPeer(t)

		_, _, err := runApp(t, "", streamArgs(peer, "--poll-interval", "0s")...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "poll-interval")
	})
}

func TestReadMessages(t *testing.T) {
	t.Run("skips blank lines", func(t *testing.T) {
		messages := make(chan json.RawMessage, 4)
		err := readMessages(context.Background(), strings.NewReader("{\"a\":1}\n  \n[1,2]\n"), messages)
		require.NoError(t, err)
		close(messages)

		var got []string
		for msg := range messages {
			got = append(got, string(msg))
		}
		assert.Equal(t, []string{`{"a":1}`, `[1,2]`}, got)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		messages := make(chan json.RawMessage)
		err := readMessages(ctx, strings.NewReader("{\"a\":1}\n{\"a\":2}\n"), messages)
		assert.NoError(t, err)
	})
}
