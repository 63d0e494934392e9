package main

import (
	"context"
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/fresh-tools/e2e-runner-go/pkg/config"
	"github.com/fresh-tools/e2e-runner-go/pkg/logging"
	"github.com/fresh-tools/e2e-runner-go/pkg/monitoring"
	"github.com/fresh-tools/e2e-runner-go/pkg/supervisor"
)

type flagOptions struct {
	Config   string `long:"config" description:"path to an optional YAML configuration file"`
	LogLevel string `long:"log-level" description:"log level: debug, info, warn or error" default:"info"`
}

func logPrefix(module string) string {
	return fmt.Sprintf("module: %s , ", module)
}

func main() {
	var opts flagOptions
	var argv []string = os.Args[1:]
	var parser = flags.NewParser(&opts, flags.HelpFlag)
	var err error
	_, err = parser.ParseArgs(argv)
	if err != nil {
		fmt.Printf("Command line flags parsing failed: %v\n", err)
		os.Exit(1)
	}

	logger, flush, err := logging.NewZapLogger(opts.LogLevel)
	if err != nil {
		fmt.Printf("Logger setup failed: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(opts.Config, os.Getenv)
	if err != nil {
		logger.Errorf("Configuration error: %v", err)
		flush()
		os.Exit(1)
	}

	commands, err := cfg.ResolveCommands()
	if err != nil {
		logger.Errorf("Configuration error: %v", err)
		flush()
		os.Exit(1)
	}

	logger.Infof("Mode: %s, serve: '%s', test: '%s'", commands.Mode, commands.Serve, commands.Test)

	runner := supervisor.NewSupervisor(supervisor.Options{
		Commands: commands,
		Probe: monitoring.ProbeConfig{
			Type:    cfg.ProbeType,
			Host:    cfg.Host,
			Port:    cfg.Port,
			Path:    cfg.HealthPath,
			Timeout: cfg.ServerTimeout,
		},
		GracePeriod: cfg.GracePeriod,
	}, logging.NewPrefixLogger(logPrefix("e2e-runner"), logger))

	// Run does not return: success and every failure path exit through the
	// supervisor's cleanup.
	runner.Run(context.Background())
}
