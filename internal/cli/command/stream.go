package command

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/burn-central/go-sdk/pkg/transport"
)

const (
	// DefaultPollInterval is how often the stream is polled for incoming messages.
	DefaultPollInterval = 50 * time.Millisecond

	// DefaultLinger keeps polling after the input ends so late replies are printed.
	DefaultLinger = 500 * time.Millisecond

	// DefaultCloseTimeout bounds the close handshake drain.
	DefaultCloseTimeout = 10 * time.Second

	maxLineSize = 1 << 20
)

// StreamCommand returns the stream command.
func StreamCommand() *cli.Command {
	flags := refFlags()
	flags = append(flags,
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "File of newline-delimited JSON messages to send (- for stdin)",
			Value:   "-",
		},
		&cli.DurationFlag{
			Name:  "poll-interval",
			Usage: "Interval between receive polls",
			Value: DefaultPollInterval,
		},
		&cli.DurationFlag{
			Name:  "linger",
			Usage: "Time to keep receiving after the input ends",
			Value: DefaultLinger,
		},
		&cli.DurationFlag{
			Name:  "close-timeout",
			Usage: "Maximum time to wait for the close handshake",
			Value: DefaultCloseTimeout,
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Serve Prometheus metrics on this address while streaming (e.g., :9102)",
		},
	)

	return &cli.Command{
		Name:  "stream",
		Usage: "Send messages to an experiment run and print the messages it receives",
		Description: "Each input line is a JSON message sent as one text frame. Received text\n" +
			"messages are printed one per line. At end of input the stream is closed\n" +
			"and drained. The command also ends when the server closes the stream.",
		Flags:  flags,
		Action: streamAction,
	}
}

// pumpConfig holds the stream loop timings.
type pumpConfig struct {
	pollInterval time.Duration
	linger       time.Duration
	closeTimeout time.Duration
}

func streamAction(c *cli.Context) error {
	cfg := GetConfig(c)
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}
	logger := GetLogger(c)

	pollInterval := c.Duration("poll-interval")
	if pollInterval <= 0 {
		return fmt.Errorf("poll-interval must be positive")
	}

	in, err := openInput(c)
	if err != nil {
		return err
	}
	defer in.Close()

	registry := prometheus.NewRegistry()
	metrics := transport.NewMetrics(registry)
	if addr := c.String("metrics-addr"); addr != "" {
		stop := serveMetrics(addr, registry, logger)
		defer stop()
	}

	cl, err := newClient(c, cfg, cfg.streamOptions(logger, metrics)...)
	if err != nil {
		return err
	}

	ref := parseRef(c)
	run, err := cl.OpenExperimentRun(c.Context, ref)
	if err != nil {
		return fmt.Errorf("open experiment %s: %w", ref, err)
	}
	defer run.Release()

	logger.WithField("url", run.URL()).Info("streaming experiment run")

	return runStream(c.Context, run, in, c.App.Writer, pumpConfig{
		pollInterval: pollInterval,
		linger:       c.Duration("linger"),
		closeTimeout: c.Duration("close-timeout"),
	}, logger)
}

// openInput returns the message source selected by --input.
func openInput(c *cli.Context) (io.ReadCloser, error) {
	name := c.String("input")
	if name != "" && name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		return f, nil
	}

	if f, ok := c.App.Reader.(*os.File); ok {
		return f, nil
	}
	if c.App.Reader == nil {
		return os.Stdin, nil
	}
	return io.NopCloser(c.App.Reader), nil
}

// runStream sends every message read from in and prints received messages to
// out. The input reader and the stream pump run in one errgroup; the pump is
// the only goroutine touching run.
func runStream(ctx context.Context, run *transport.WebSocket, in io.ReadCloser, out io.Writer, pc pumpConfig, logger logrus.FieldLogger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	messages := make(chan json.RawMessage)

	// Unblocks the reader when the pump returns first.
	go func() {
		<-gctx.Done()
		in.Close()
	}()

	g.Go(func() error {
		defer close(messages)
		return readMessages(gctx, in, messages)
	})

	g.Go(func() error {
		defer cancel()
		return pump(gctx, run, messages, out, pc, logger)
	})

	return g.Wait()
}

// readMessages scans newline-delimited JSON. Blank lines are skipped.
func readMessages(ctx context.Context, in io.Reader, messages chan<- json.RawMessage) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		data := scanner.Bytes()
		if len(bytes.TrimSpace(data)) == 0 {
			continue
		}
		if !json.Valid(data) {
			return fmt.Errorf("input line %d: invalid JSON", line)
		}

		msg := make(json.RawMessage, len(data))
		copy(msg, data)

		select {
		case messages <- msg:
		case <-ctx.Done():
			return nil
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func pump(ctx context.Context, run *transport.WebSocket, messages <-chan json.RawMessage, out io.Writer, pc pumpConfig, logger logrus.FieldLogger) error {
	ticker := time.NewTicker(pc.pollInterval)
	defer ticker.Stop()

	sent := 0
	for messages != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				messages = nil
				break
			}
			if err := run.Send(ctx, msg); err != nil {
				return fmt.Errorf("send message %d: %w", sent+1, err)
			}
			sent++
		case <-ticker.C:
			if err := drain(run, out); err != nil {
				return endOfStream(err, logger)
			}
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	logger.WithField("sent", sent).Debug("input finished")

	deadline := time.NewTimer(pc.linger)
	defer deadline.Stop()
lingering:
	for {
		if err := drain(run, out); err != nil {
			return endOfStream(err, logger)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			break lingering
		case <-ticker.C:
		}
	}

	if err := run.Close(); err != nil {
		return fmt.Errorf("close stream: %w", err)
	}

	closeCtx, cancel := context.WithTimeout(ctx, pc.closeTimeout)
	defer cancel()
	if err := run.WaitUntilClosed(closeCtx); err != nil {
		return fmt.Errorf("wait for close: %w", err)
	}

	logger.Debug("stream closed")
	return nil
}

// drain prints every message currently available on run.
func drain(run *transport.WebSocket, out io.Writer) error {
	for {
		msg, err := transport.ReceiveAs[json.RawMessage](run)
		if err != nil {
			return err
		}
		if msg == nil {
			return nil
		}
		if _, err := fmt.Fprintf(out, "%s\n", *msg); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
}

// endOfStream reports nil when err means the peer closed the run stream.
func endOfStream(err error, logger logrus.FieldLogger) error {
	if errors.Is(err, transport.ErrConnectionClosed) || errors.Is(err, transport.ErrAlreadyClosed) {
		logger.Debug("peer closed the stream")
		return nil
	}
	return err
}

// serveMetrics exposes registry over HTTP until the returned stop is called.
func serveMetrics(addr string, registry *prometheus.Registry, logger logrus.FieldLogger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
