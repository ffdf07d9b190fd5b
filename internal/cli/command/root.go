// Package command provides CLI command definitions for burn-central-cli.
//
// It uses urfave/cli/v2 for command parsing. Global configuration is merged
// by internal/confloader before any command runs.
package command

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/burn-central/go-sdk/internal/confloader"
	"github.com/burn-central/go-sdk/internal/logging"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const (
	metaConfig = "config"
	metaLogger = "logger"
)

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "burn-central-cli",
		Usage:   "Burn Central experiment run streaming tool",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			URLCommand(),
			StreamCommand(),
		},
		Before: setup,
	}

	return app
}

// globalFlags returns the global CLI flags.
// Their environment counterparts are read by the config loader, not by the flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML configuration file",
		},
		&cli.StringFlag{
			Name:    "endpoint",
			Aliases: []string{"e"},
			Usage:   "Burn Central API base URL (e.g., https://central.example.com/api/)",
		},
		&cli.StringFlag{
			Name:  "session-cookie",
			Usage: "Session cookie sent on the stream handshake",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: trace, debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text, json",
		},
	}
}

// flagKeys maps global flags to configuration keys.
var flagKeys = map[string]string{
	"endpoint":       "endpoint",
	"session-cookie": "session_cookie",
	"log-level":      "log.level",
	"log-format":     "log.format",
}

// setup loads configuration and the logger into the app metadata.
func setup(c *cli.Context) error {
	overrides := make(map[string]any)
	for flag, key := range flagKeys {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}

	loader := confloader.NewLoader(
		confloader.WithConfigFile(c.String("config")),
		confloader.WithDefaults(DefaultConfigMap()),
		confloader.WithOverrides(overrides),
	)

	cfg := &Config{}
	if err := loader.Load(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	errOut := c.App.ErrWriter
	if errOut == nil {
		errOut = os.Stderr
	}
	logger, err := logging.New(errOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[metaConfig] = cfg
	c.App.Metadata[metaLogger] = logger.WithField("session", uuid.NewString())
	return nil
}

// GetConfig retrieves the loaded configuration from context.
func GetConfig(c *cli.Context) *Config {
	if cfg, ok := c.App.Metadata[metaConfig].(*Config); ok {
		return cfg
	}
	return nil
}

// GetLogger retrieves the session logger from context.
func GetLogger(c *cli.Context) logrus.FieldLogger {
	if logger, ok := c.App.Metadata[metaLogger].(logrus.FieldLogger); ok {
		return logger
	}
	return logrus.StandardLogger()
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
