// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the command configuration. It is read from an optional YAML
// file; command line flags take precedence.
//
type Config struct {
	Descriptors string `yaml:"descriptors"`
	Assets      string `yaml:"assets"`
	Sandbox     string `yaml:"sandbox"`
	Board       string `yaml:"board"`
	LogLevel    string `yaml:"log_level"`
	Refresh     int    `yaml:"refresh_hz"`
}

var defaultConfig = Config{
	Board:    "board",
	LogLevel: "info",
	Refresh:  30,
}

func loadConfig(name string, c *Config) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return errors.Wrap(err, "failed to read config")
	}
	return errors.Wrapf(yaml.Unmarshal(data, c), "failed to parse config %s", name)
}

func (c *Config) validate() error {
	if c.Refresh <= 0 || c.Refresh > 240 {
		return errors.Errorf("refresh rate must be in 1..240 Hz, got %d", c.Refresh)
	}
	var l slog.Level
	return errors.Wrap(l.UnmarshalText([]byte(c.LogLevel)), "log level")
}

func (c *Config) level() slog.Level {
	var l slog.Level
	l.UnmarshalText([]byte(c.LogLevel))
	return l
}

// dirAssets is an asset loader checking that assets exist in a directory.
//
type dirAssets string

func (d dirAssets) Load(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := os.Stat(filepath.Join(string(d), filepath.FromSlash(name)))
	return err
}
