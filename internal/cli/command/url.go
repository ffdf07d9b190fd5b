package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/burn-central/go-sdk/pkg/client"
	"github.com/burn-central/go-sdk/pkg/core"
	"github.com/burn-central/go-sdk/pkg/transport"
)

// refFlags identify an experiment run.
func refFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "owner",
			Usage:    "Project owner (user or organization)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "project",
			Aliases:  []string{"p"},
			Usage:    "Project name",
			Required: true,
		},
		&cli.IntFlag{
			Name:     "experiment",
			Aliases:  []string{"x"},
			Usage:    "Experiment number",
			Required: true,
		},
	}
}

func parseRef(c *cli.Context) core.ExperimentRef {
	return core.ExperimentRef{
		Owner:   c.String("owner"),
		Project: c.String("project"),
		Number:  c.Int("experiment"),
	}
}

// newClient builds an API client from the loaded configuration.
func newClient(c *cli.Context, cfg *Config, opts ...transport.Option) (*client.Client, error) {
	return client.New(client.Config{
		BaseURL:       cfg.Endpoint,
		SessionCookie: cfg.SessionCookie,
		Logger:        GetLogger(c),
		StreamOptions: opts,
	})
}

// URLCommand returns the url command.
func URLCommand() *cli.Command {
	return &cli.Command{
		Name:   "url",
		Usage:  "Print the WebSocket URL of an experiment run",
		Flags:  refFlags(),
		Action: urlAction,
	}
}

func urlAction(c *cli.Context) error {
	cfg := GetConfig(c)
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	cl, err := newClient(c, cfg)
	if err != nil {
		return err
	}

	runURL, err := cl.ExperimentRunURL(parseRef(c))
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, runURL)
	return nil
}
