package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/burn-central/go-sdk/pkg/core"
	"github.com/burn-central/go-sdk/pkg/transport"
)

// Client represents a session with a Burn Central server.
type Client struct {
	// baseURL is the base URL of the Burn Central API
	baseURL *url.URL

	// sessionCookie is sent on the WebSocket handshake
	sessionCookie string

	logger        logrus.FieldLogger
	streamOptions []transport.Option
}

// Config contains configuration options for the client.
type Config struct {
	// BaseURL is the base URL of the Burn Central API (http or https)
	BaseURL string

	// SessionCookie is the opaque session credential obtained at login.
	// It may be empty for anonymous access.
	SessionCookie string

	// Logger is passed to the run streams opened by the client
	Logger logrus.FieldLogger

	// StreamOptions are applied to every run stream before per-call options
	StreamOptions []transport.Option
}

// New creates a new client with the specified configuration.
func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, &core.ConfigError{
			Field: "BaseURL",
			Value: config.BaseURL,
			Err:   errors.New("base URL cannot be empty"),
		}
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, &core.ConfigError{
			Field: "BaseURL",
			Value: config.BaseURL,
			Err:   fmt.Errorf("invalid base URL: %w", err),
		}
	}

	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, &core.ConfigError{
			Field: "BaseURL",
			Value: config.BaseURL,
			Err:   fmt.Errorf("unsupported scheme %q, expected http or https", baseURL.Scheme),
		}
	}

	if baseURL.Host == "" {
		return nil, &core.ConfigError{
			Field: "BaseURL",
			Value: config.BaseURL,
			Err:   errors.New("base URL must include a host"),
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		baseURL:       baseURL,
		sessionCookie: config.SessionCookie,
		logger:        logger,
		streamOptions: config.StreamOptions,
	}, nil
}

// BaseURL returns a copy of the configured base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// ExperimentRunURL returns the WebSocket URL of an experiment's run stream.
// The scheme is ws for http base URLs and wss for https.
func (c *Client) ExperimentRunURL(ref core.ExperimentRef) (string, error) {
	if err := ref.Validate(); err != nil {
		return "", err
	}

	u := *c.baseURL
	u.Path = path.Join("/", c.baseURL.Path,
		"v1", "projects", ref.Owner, ref.Project,
		"experiments", strconv.Itoa(ref.Number), "ws")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""

	if c.baseURL.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}

	return u.String(), nil
}

// OpenExperimentRun connects a run stream for ref using the session cookie.
// The caller owns the returned WebSocket and should defer its Release.
func (c *Client) OpenExperimentRun(ctx context.Context, ref core.ExperimentRef, opts ...transport.Option) (*transport.WebSocket, error) {
	runURL, err := c.ExperimentRunURL(ref)
	if err != nil {
		return nil, err
	}

	options := make([]transport.Option, 0, len(c.streamOptions)+len(opts)+1)
	options = append(options, transport.WithLogger(c.logger))
	options = append(options, c.streamOptions...)
	options = append(options, opts...)

	ws := transport.NewWebSocket(options...)
	if err := ws.Connect(ctx, runURL, c.sessionCookie); err != nil {
		return nil, err
	}

	c.logger.WithField("experiment", ref.String()).Debug("experiment run stream opened")
	return ws, nil
}
