package command

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/burn-central/go-sdk/internal/logging"
	"github.com/burn-central/go-sdk/pkg/core"
	"github.com/burn-central/go-sdk/pkg/transport"
)

// DefaultEndpoint is the API base URL of a local Burn Central server.
const DefaultEndpoint = "http://localhost:9001"

// Config is the merged CLI configuration.
type Config struct {
	Endpoint      string       `koanf:"endpoint"`
	SessionCookie string       `koanf:"session_cookie"`
	Stream        StreamConfig `koanf:"stream"`
	Log           LogConfig    `koanf:"log"`
}

// StreamConfig tunes experiment run streams.
type StreamConfig struct {
	ReconnectDelay   time.Duration `koanf:"reconnect_delay"`
	SendRetries      int           `koanf:"send_retries"`
	HandshakeTimeout time.Duration `koanf:"handshake_timeout"`
	WriteTimeout     time.Duration `koanf:"write_timeout"`
	AuthHeader       string        `koanf:"auth_header"`
}

// LogConfig selects the logger level and format.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DefaultConfigMap returns the configuration defaults keyed by dotted path.
func DefaultConfigMap() map[string]any {
	return map[string]any{
		"endpoint":                 DefaultEndpoint,
		"stream.reconnect_delay":   transport.DefaultReconnectDelay.String(),
		"stream.send_retries":      transport.DefaultSendRetries,
		"stream.handshake_timeout": transport.DefaultHandshakeTimeout.String(),
		"stream.write_timeout":     transport.DefaultWriteTimeout.String(),
		"stream.auth_header":       transport.DefaultAuthHeader,
		"log.level":                "info",
		"log.format":               logging.FormatText,
	}
}

// Validate checks values the loader cannot type-check.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return &core.ConfigError{Field: "endpoint", Value: c.Endpoint, Err: errors.New("must not be empty")}
	}
	if c.Stream.ReconnectDelay < 0 {
		return &core.ConfigError{Field: "stream.reconnect_delay", Value: c.Stream.ReconnectDelay, Err: errors.New("must not be negative")}
	}
	if c.Stream.SendRetries < 0 {
		return &core.ConfigError{Field: "stream.send_retries", Value: c.Stream.SendRetries, Err: errors.New("must not be negative")}
	}
	if c.Stream.AuthHeader == "" {
		return &core.ConfigError{Field: "stream.auth_header", Value: c.Stream.AuthHeader, Err: errors.New("must not be empty")}
	}
	return nil
}

// streamOptions turns the stream section into transport options.
func (c *Config) streamOptions(logger logrus.FieldLogger, metrics *transport.Metrics) []transport.Option {
	return []transport.Option{
		transport.WithDialer(&transport.GorillaDialer{
			HandshakeTimeout: c.Stream.HandshakeTimeout,
			WriteTimeout:     c.Stream.WriteTimeout,
			Logger:           logger,
		}),
		transport.WithReconnectDelay(c.Stream.ReconnectDelay),
		transport.WithSendRetries(c.Stream.SendRetries),
		transport.WithAuthHeader(c.Stream.AuthHeader),
		transport.WithMetrics(metrics),
	}
}
