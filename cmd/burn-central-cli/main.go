// Package main provides the entry point for burn-central-cli.
//
// burn-central-cli streams newline-delimited JSON messages to a Burn Central
// experiment run and prints the messages the run sends back.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/burn-central/go-sdk/internal/cli/command"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := command.App()

	if err := app.RunContext(ctx, os.Args); err != nil {
		stop()
		command.PrintError("%v", err)
		os.Exit(1)
	}
}
