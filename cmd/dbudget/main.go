package main

import (
	"errors"
	"fmt"
	"os"

	"dbudget/internal/cli"
	"dbudget/internal/config"
	"dbudget/internal/log"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(config.Load().LogLevel)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	app, err := cli.OpenApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldOperation, log.OpStartup, log.FieldError, err)
		os.Exit(1)
	}

	runErr := cli.Run(ctx, app, os.Args[1:], os.Stdout)

	if err := app.Close(); err != nil {
		logger.Error("Failed to close backend", log.FieldOperation, log.OpShutdown, log.FieldError, err)
	}
	if runErr != nil {
		if !errors.Is(runErr, cli.ErrUsage) || len(os.Args) > 1 {
			fmt.Fprintln(os.Stderr, "error:", runErr)
		}
		os.Exit(1)
	}
}
