// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

// rrg is the endpoint agent binary. It speaks length-prefixed CBOR
// frames over stdin/stdout, the pipe interface the host supervisor
// process exposes, and executes controller-issued actions until the
// stream closes or the process receives SIGINT/SIGTERM.
//
// Configuration comes from an optional YAML file selected by --config
// or the RRG_CONFIG environment variable; individual flags override
// the file. With neither, built-in defaults apply and the agent runs
// with no configuration at all.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/s-westphal/rrg/action"
	"github.com/s-westphal/rrg/agent"
	"github.com/s-westphal/rrg/lib/config"
	"github.com/s-westphal/rrg/transport"
	"github.com/s-westphal/rrg/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rrg: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		heartbeat   time.Duration
		logLevel    string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("rrg", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to the YAML configuration file (overrides $"+config.EnvVar+")")
	flagSet.DurationVar(&heartbeat, "heartbeat", config.DefaultHeartbeatEvery, "liveness signal cadence")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, or error")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("rrg %s\n", version.String())
		return nil
	}

	if configPath == "" {
		configPath = os.Getenv(config.EnvVar)
	}
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if flagSet.Changed("heartbeat") {
		cfg.HeartbeatEvery = config.Duration(heartbeat)
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = logLevel
	}

	logger, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := agent.New(agent.Options{
		Transport:      transport.NewFrame(os.Stdin, os.Stdout),
		Registry:       action.DefaultRegistry(),
		Logger:         logger,
		HeartbeatEvery: time.Duration(cfg.HeartbeatEvery),
	})
	if err := a.Run(ctx); err != nil {
		// Cancellation here means a termination signal arrived, which
		// is the normal way a supervisor stops the agent.
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	return nil
}

// newLogger builds the process logger from the log configuration: JSON
// records to the configured file, or to stderr with a text handler when
// stderr is a terminal. Stdout is off limits, it carries the wire
// protocol.
func newLogger(logConfig config.LogConfig) (*slog.Logger, func(), error) {
	level, err := logConfig.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	options := &slog.HandlerOptions{Level: level}

	if logConfig.File != "" {
		file, err := os.OpenFile(logConfig.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		logger := slog.New(slog.NewJSONHandler(file, options))
		return logger, func() { file.Close() }, nil
	}

	var handler slog.Handler
	var out io.Writer = os.Stderr
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(out, options)
	} else {
		handler = slog.NewJSONHandler(out, options)
	}
	return slog.New(handler), func() {}, nil
}
