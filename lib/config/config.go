// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the agent.
//
// Configuration is loaded from a single YAML file specified by the
// RRG_CONFIG environment variable or the --config flag. There are no
// fallbacks or automatic discovery: a deployment either names its
// config file or runs entirely on defaults.
package config

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable that selects the config file
// when no --config flag is given.
const EnvVar = "RRG_CONFIG"

// DefaultHeartbeatEvery is the liveness cadence used when the config
// does not set one. It must comfortably undercut the host service's
// unresponsiveness threshold even while a slow handler runs.
const DefaultHeartbeatEvery = 5 * time.Second

// Config is the agent's full configuration.
type Config struct {
	// HeartbeatEvery is the transport liveness cadence.
	HeartbeatEvery Duration `yaml:"heartbeat_every"`

	// Log configures the agent's logging.
	Log LogConfig `yaml:"log"`
}

// LogConfig selects log verbosity and destination.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`
	// File is the log destination path; empty means stderr.
	File string `yaml:"file,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		HeartbeatEvery: Duration(DefaultHeartbeatEvery),
		Log:            LogConfig{Level: "info"},
	}
}

// Load reads and validates the config file at path. Unknown keys are
// rejected: a typoed key silently falling back to its default is worse
// than a startup failure.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates raw YAML config, applying defaults for
// absent fields.
func Parse(data []byte) (Config, error) {
	config := Default()

	var raw struct {
		HeartbeatEvery *Duration `yaml:"heartbeat_every"`
		Log            struct {
			Level *string `yaml:"level"`
			File  *string `yaml:"file"`
		} `yaml:"log"`
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if raw.HeartbeatEvery != nil {
		config.HeartbeatEvery = *raw.HeartbeatEvery
	}
	if raw.Log.Level != nil {
		config.Log.Level = *raw.Log.Level
	}
	if raw.Log.File != nil {
		config.Log.File = *raw.Log.File
	}

	if err := config.validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) validate() error {
	if time.Duration(c.HeartbeatEvery) <= 0 {
		return fmt.Errorf("heartbeat_every must be positive, got %v", time.Duration(c.HeartbeatEvery))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps the configured level name onto a slog level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch l.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q (want debug, info, warn, or error)", l.Level)
}

// Duration is a time.Duration that unmarshals from YAML strings in
// time.ParseDuration syntax ("30s", "1m30s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var text string
	if err := value.Decode(&text); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(text)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
